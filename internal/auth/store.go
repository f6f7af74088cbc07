package auth

import (
	"context"

	"dentalab.org/internal/audit"
)

// Store describes the persistence operations required by the
// authorization subsystem. internal/store/pg implements it against
// PostgreSQL; internal/store/memory implements it for tests and for
// running without a database.
type Store interface {
	Users() UserStore
	Grants() GrantStore
	Sessions() SessionStore
	Activity() audit.Store

	// RecordLogin applies the whole login mutation in one transaction:
	// open the session row, bump the user's login counter and last-login
	// timestamp, and append the activity entry. A crash can therefore
	// never leave the counter and the session out of step.
	RecordLogin(ctx context.Context, session Session, entry audit.Entry) error
}

// UserStore manages identity records. Usernames are unique, case-sensitive
// keys; rows are deactivated, never deleted.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, username string) (*User, error)
	// Update applies only the non-nil patch fields. Password must already
	// be hashed by the caller.
	Update(ctx context.Context, username string, patch UserPatch) error
	SetActive(ctx context.Context, username string, active bool) error
	List(ctx context.Context) ([]User, error)
}

// GrantStore manages the (role, module) capability matrix.
type GrantStore interface {
	Get(ctx context.Context, role Role, module Module) (Grant, bool, error)
	ListByRole(ctx context.Context, role Role) (map[Module]Grant, error)
	// Upsert overwrites all five capabilities for the pair, inserting the
	// row when absent. Idempotent.
	Upsert(ctx context.Context, role Role, module Module, g Grant) error
	// EnsureDefault inserts the grant only when no row exists yet, so the
	// bootstrap never clobbers operator edits.
	EnsureDefault(ctx context.Context, role Role, module Module, g Grant) error
}

// SessionStore manages login spans.
type SessionStore interface {
	// Close marks every active session for the username as logged out.
	// Closing when none are active is a no-op, not an error.
	Close(ctx context.Context, username string) error
	// FindActiveByToken resolves a bearer token to its live session.
	FindActiveByToken(ctx context.Context, token string) (*Session, error)
}
