// Package httpapi exposes the authorization core to the rest of the lab
// application over HTTP JSON.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"dentalab.org/internal/auth"
	"dentalab.org/internal/obs"
)

// ReadyProbe reports readiness of external dependencies.
type ReadyProbe struct {
	DB *sql.DB
}

// Check pings the database when one is configured.
func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rp.DB.PingContext(ctx)
}

// RateLimitConfig bounds login attempts per client IP.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// API wires handlers, guard, and middleware into one http.Handler.
type API struct {
	mux     *http.ServeMux
	svc     *auth.Service
	guard   *auth.Guard
	ready   ReadyProbe
	version string
}

// New constructs the API around the authorization service.
func New(svc *auth.Service, rp ReadyProbe, version string, rl RateLimitConfig) *API {
	a := &API{
		mux:     http.NewServeMux(),
		svc:     svc,
		guard:   auth.NewGuard(svc),
		ready:   rp,
		version: version,
	}

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.HandleFunc("/v1/info", a.handleInfo)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.Handle("/v1/auth/login", RateLimit(http.HandlerFunc(a.handleLogin), rl.Burst, rl.PerMinute))
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/me", a.handleMe)

	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserScoped)
	a.mux.HandleFunc("/v1/permissions/", a.handlePermissions)
	a.mux.HandleFunc("/v1/activity", a.handleActivity)

	return a
}

// Handler returns the full middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "dentalab-auth",
		"version": a.version,
	})
}
