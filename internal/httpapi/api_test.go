package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dentalab.org/internal/auth"
	"dentalab.org/internal/httpapi"
	"dentalab.org/internal/store/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *auth.Service) {
	t.Helper()
	store := memory.New()
	svc, err := auth.NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Bootstrap(context.Background(), "admin123"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	api := httpapi.New(svc, httpapi.ReadyProbe{}, "test", httpapi.RateLimitConfig{PerMinute: 6000, Burst: 100})
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts, svc
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && err != io.EOF {
		t.Fatalf("decode response: %v", err)
	}
	return resp, payload
}

func login(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()
	resp, payload := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/login", "",
		map[string]string{"username": username, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	var token string
	if err := json.Unmarshal(payload["token"], &token); err != nil || token == "" {
		t.Fatalf("login %s: no token in %v", username, payload)
	}
	return token
}

func TestHealthAndInfoArePublic(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/v1/info", "/readyz"} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+path, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, payload := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/login", "",
		map[string]string{"username": "admin", "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var msg string
	if err := json.Unmarshal(payload["message"], &msg); err != nil {
		t.Fatalf("no message field: %v", payload)
	}
	if msg != "اسم المستخدم أو كلمة المرور غير صحيحة" {
		t.Fatalf("message = %q", msg)
	}
}

func TestProtectedPathsRequireToken(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/v1/users", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/users", "not-a-real-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", resp.StatusCode)
	}
}

func TestUserLifecycleOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	adminToken := login(t, ts, "admin", "admin123")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/users", adminToken, map[string]string{
		"username":  "tech1",
		"password":  "pw123456",
		"full_name": "فني التركيبات",
		"role":      "technician",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user status = %d, want 201", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/users/tech1" {
		t.Fatalf("Location = %q", loc)
	}

	// Duplicate username conflicts.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/users", adminToken, map[string]string{
		"username": "tech1", "password": "x", "full_name": "x", "role": "manager",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.StatusCode)
	}

	techToken := login(t, ts, "tech1", "pw123456")

	// Technicians cannot manage users.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/users", techToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("technician list users status = %d, want 403", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/users/admin", techToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("technician delete status = %d, want 403", resp.StatusCode)
	}

	// The primary administrator is protected even from itself.
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/users/admin", adminToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("delete admin status = %d, want 403", resp.StatusCode)
	}

	// Patch, then deactivate the technician.
	resp, _ = doJSON(t, http.MethodPatch, ts.URL+"/v1/users/tech1", adminToken,
		map[string]any{"full_name": "فني أول"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d, want 200", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPatch, ts.URL+"/v1/users/tech1", adminToken, map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty patch status = %d, want 400", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/users/tech1", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate status = %d, want 200", resp.StatusCode)
	}

	// The deactivated account's live session is dead immediately.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/me", techToken, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("deactivated session status = %d, want 401", resp.StatusCode)
	}
}

func TestMeReturnsCapabilities(t *testing.T) {
	ts, _ := newTestServer(t)
	adminToken := login(t, ts, "admin", "admin123")

	resp, payload := doJSON(t, http.MethodGet, ts.URL+"/v1/me", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var perms map[string]auth.Grant
	if err := json.Unmarshal(payload["permissions"], &perms); err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if len(perms) != len(auth.Modules) {
		t.Fatalf("permissions cover %d modules, want %d", len(perms), len(auth.Modules))
	}
	for module, g := range perms {
		if g != auth.AllowAll {
			t.Fatalf("admin grant for %s = %+v", module, g)
		}
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ts, _ := newTestServer(t)
	token := login(t, ts, "admin", "admin123")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/me", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post-logout status = %d, want 401", resp.StatusCode)
	}
}

func TestPermissionEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	adminToken := login(t, ts, "admin", "admin123")

	resp, payload := doJSON(t, http.MethodGet, ts.URL+"/v1/permissions/technician", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("grants status = %d", resp.StatusCode)
	}
	var grants map[string]auth.Grant
	if err := json.Unmarshal(payload["grants"], &grants); err != nil {
		t.Fatalf("grants: %v", err)
	}
	if g := grants["cases"]; !g.View || !g.Create || !g.Edit || g.Delete {
		t.Fatalf("technician cases grant = %+v", g)
	}

	want := auth.Grant{View: true, Export: true}
	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/v1/permissions/technician/reports", adminToken, want)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put grant status = %d", resp.StatusCode)
	}

	resp, payload = doJSON(t, http.MethodGet, ts.URL+"/v1/permissions/technician/reports", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get grant status = %d", resp.StatusCode)
	}
	var got auth.Grant
	buf, _ := json.Marshal(payload)
	if err := json.Unmarshal(buf, &got); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if got != want {
		t.Fatalf("grant round trip = %+v, want %+v", got, want)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/permissions/intern", adminToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown role status = %d, want 400", resp.StatusCode)
	}
}

func TestActivityEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	adminToken := login(t, ts, "admin", "admin123")

	// The login above plus a user creation leave entries behind.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/users", adminToken, map[string]string{
		"username": "acct1", "password": "pw123456", "full_name": "محاسب", "role": "accountant",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user status = %d", resp.StatusCode)
	}

	resp, payload := doJSON(t, http.MethodGet, ts.URL+"/v1/activity?username=admin&limit=50", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activity status = %d", resp.StatusCode)
	}
	var entries []map[string]any
	if err := json.Unmarshal(payload["entries"], &entries); err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("got %d entries, want at least login and create", len(entries))
	}
	for _, e := range entries {
		if e["username"] != "admin" {
			t.Fatalf("filter leaked entry for %v", e["username"])
		}
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/activity?from=yesterday", adminToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad from status = %d, want 400", resp.StatusCode)
	}

	// Accountants may not read the activity log by default.
	acctToken := login(t, ts, "acct1", "pw123456")
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/activity", acctToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accountant activity status = %d, want 200 (reports view)", resp.StatusCode)
	}
}

func TestLoginRateLimit(t *testing.T) {
	store := memory.New()
	svc, err := auth.NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Bootstrap(context.Background(), "admin123"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	api := httpapi.New(svc, httpapi.ReadyProbe{}, "test", httpapi.RateLimitConfig{PerMinute: 1, Burst: 2})
	ts := httptest.NewServer(api.Handler())
	defer ts.Close()

	var limited bool
	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/login", "",
			map[string]string{"username": "admin", "password": fmt.Sprintf("wrong%d", i)})
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d", i, resp.StatusCode)
		}
	}
	if !limited {
		t.Fatal("burst of bad logins was never rate limited")
	}
}
