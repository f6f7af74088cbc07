package auth

import "context"

// PermissionChecker answers "may this user perform this action on this
// module". *Service satisfies it; tests substitute fakes.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, username string, module Module, action Action) bool
}

// Guard is the reusable check-then-allow-or-block wrapper applied to
// every protected operation. It requires an authenticated principal in
// the context and then consults the checker. It does no logging of its
// own; auditing the business action stays with the wrapped operation.
type Guard struct {
	checker PermissionChecker
}

// NewGuard constructs a Guard over checker.
func NewGuard(checker PermissionChecker) *Guard {
	return &Guard{checker: checker}
}

// Allow returns nil only when the context carries an authenticated
// principal permitted to perform action on module. It fails with
// ErrAuthRequired for anonymous callers and with ErrPermissionDenied,
// naming the module and action, for insufficient capability.
func (g *Guard) Allow(ctx context.Context, module Module, action Action) error {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return ErrAuthRequired
	}
	if !g.checker.CheckPermission(ctx, principal.Username, module, action) {
		return fmtErr(ErrPermissionDenied, "%s on %s", action, module)
	}
	return nil
}

// Wrap guards fn behind (module, action). The wrapped operation runs only
// when both checks pass; its result passes through unchanged.
func (g *Guard) Wrap(module Module, action Action, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := g.Allow(ctx, module, action); err != nil {
			return err
		}
		return fn(ctx)
	}
}
