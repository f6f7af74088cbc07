package httpapi

import (
	"net/http"
	"strings"

	"dentalab.org/internal/auth"
)

// Permission administration lives under the settings module: only roles
// allowed to edit settings may change the matrix.

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/permissions/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	role, err := auth.ParseRole(parts[0])
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	switch len(parts) {
	case 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		if !a.ensurePermission(w, r, auth.ModuleSettings, auth.ActionView) {
			return
		}
		grants, err := a.svc.AllGrants(r.Context(), role)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"role": role, "grants": grants})

	case 2:
		module := auth.Module(parts[1])
		switch r.Method {
		case http.MethodGet:
			if !a.ensurePermission(w, r, auth.ModuleSettings, auth.ActionView) {
				return
			}
			g, err := a.svc.GetGrant(r.Context(), role, module)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, g)

		case http.MethodPut:
			if !a.ensurePermission(w, r, auth.ModuleSettings, auth.ActionEdit) {
				return
			}
			var g auth.Grant
			if err := decodeJSON(w, r, &g); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			principal, _ := auth.PrincipalFromContext(r.Context())
			if err := a.svc.SetGrant(r.Context(), role, module, g, principal.Username); err != nil {
				writeAuthError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, g)

		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
		}

	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}
