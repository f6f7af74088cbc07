package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"dentalab.org/internal/audit"
	"dentalab.org/internal/auth"
	"dentalab.org/internal/obs"
)

// handleActivity serves the activity-viewer surface: optional
// conjunctive filters, newest first, bounded result size.
func (a *API) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePermission(w, r, auth.ModuleReports, auth.ActionView) {
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Username: q.Get("username"),
		Module:   q.Get("module"),
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "to must be RFC3339")
			return
		}
		filter.To = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = n
	}

	entries, err := a.svc.Recorder().Query(r.Context(), filter)
	if err != nil {
		// Read path degrades to an empty result.
		obs.Logf("activity query failed: %v", err)
		entries = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
