package auth

import "context"

// Principal is the authenticated interactive context: who is acting, with
// which role, under which session token. It is passed explicitly rather
// than held in process-wide state, so the guard is testable with a
// fabricated principal.
type Principal struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	Token    string `json:"-"`
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool { return p.Username != "" }

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil || !v.Authenticated() {
		return Principal{}, false
	}
	return *v, true
}
