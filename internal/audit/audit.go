// Package audit is the append-only activity trail shared by every module
// of the application. Recording is best-effort: a storage failure is
// logged and swallowed so it can never abort the operation it describes.
package audit

import (
	"context"
	"time"

	"dentalab.org/internal/obs"
)

// Kind classifies an activity entry. The set is open: business modules
// may record kinds of their own.
type Kind string

const (
	KindLogin       Kind = "login"
	KindLoginFailed Kind = "login_failed"
	KindLogout      Kind = "logout"
	KindCreate      Kind = "create"
	KindUpdate      Kind = "update"
	KindDelete      Kind = "delete"
	KindView        Kind = "view"
	KindExport      Kind = "export"
)

// Entry is one immutable audit record.
type Entry struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Kind        Kind      `json:"kind"`
	Module      string    `json:"module"`
	Description string    `json:"description"`
	RecordID    string    `json:"record_id,omitempty"`
	Before      string    `json:"before,omitempty"`
	After       string    `json:"after,omitempty"`
	Address     string    `json:"address,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Filter narrows a Query. All set fields are conjunctive.
type Filter struct {
	Username string
	Module   string
	From     time.Time
	To       time.Time
	Limit    int
}

const (
	MinLimit     = 10
	MaxLimit     = 1000
	DefaultLimit = 100
)

// ClampLimit bounds the result size. A limit is mandatory for queries so
// an unbounded scan cannot happen by omission.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit < MinLimit:
		return MinLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Store appends and reads immutable entries. There is deliberately no
// update or delete operation.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, f Filter) ([]Entry, error)
}

// Recorder wraps a Store with the swallow-errors contract.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder constructs a Recorder. A nil store yields a recorder that
// silently drops everything, which keeps callers unconditional.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// WithClock overrides the time source. Only intended for tests.
func (r *Recorder) WithClock(fn func() time.Time) *Recorder {
	if fn != nil {
		r.now = fn
	}
	return r
}

// Record appends an entry. It never returns an error and never panics:
// audit logging must not fail the operation it accompanies.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.store == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			obs.Logf("audit append panic: %v", rec)
		}
	}()
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = r.now().UTC()
	}
	if err := r.store.Append(ctx, &entry); err != nil {
		obs.Logf("audit append failed: %v", err)
	}
}

// Query returns entries newest first, honoring the filter. Read errors
// propagate; callers that prefer the degrade-to-empty behavior handle
// that at their own boundary.
func (r *Recorder) Query(ctx context.Context, f Filter) ([]Entry, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	f.Limit = ClampLimit(f.Limit)
	return r.store.Query(ctx, f)
}
