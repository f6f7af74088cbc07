// Package memory is an in-process implementation of the auth and audit
// stores. It backs tests and lets the API run without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dentalab.org/internal/audit"
	"dentalab.org/internal/auth"
	"dentalab.org/internal/ids"
)

type grantKey struct {
	role   auth.Role
	module auth.Module
}

// Store holds everything under one mutex; contention is irrelevant at
// interactive scale.
type Store struct {
	mu       sync.Mutex
	users    map[string]auth.User
	grants   map[grantKey]auth.Grant
	sessions map[string]auth.Session
	activity []audit.Entry

	// FailAppends forces Append to fail; used to test the swallow-errors
	// contract of the audit recorder.
	FailAppends bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    make(map[string]auth.User),
		grants:   make(map[grantKey]auth.Grant),
		sessions: make(map[string]auth.Session),
	}
}

var _ auth.Store = (*Store)(nil)
var _ audit.Store = (*Store)(nil)

func (s *Store) Users() auth.UserStore       { return (*userStore)(s) }
func (s *Store) Grants() auth.GrantStore     { return (*grantStore)(s) }
func (s *Store) Sessions() auth.SessionStore { return (*sessionStore)(s) }
func (s *Store) Activity() audit.Store       { return s }

// RecordLogin mirrors the transactional login of the SQL store: all three
// mutations apply under one lock acquisition.
func (s *Store) RecordLogin(ctx context.Context, session auth.Session, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[session.Username]
	if !ok {
		return auth.ErrNotFound
	}
	if session.ID == "" {
		session.ID = ids.New()
	}
	s.sessions[session.Token] = session
	now := session.LoginAt
	user.LastLogin = &now
	user.LoginCount++
	s.users[user.Username] = user
	s.appendLocked(entry)
	return nil
}

func (s *Store) appendLocked(entry audit.Entry) {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	s.activity = append(s.activity, entry)
}

// Append implements audit.Store.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppends {
		return context.DeadlineExceeded
	}
	s.appendLocked(*entry)
	return nil
}

// Query implements audit.Store: conjunctive filters, newest first.
func (s *Store) Query(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []audit.Entry
	for _, e := range s.activity {
		if f.Username != "" && e.Username != f.Username {
			continue
		}
		if f.Module != "" && e.Module != f.Module {
			continue
		}
		if !f.From.IsZero() && e.OccurredAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.OccurredAt.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	limit := audit.ClampLimit(f.Limit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ActivityLen reports the number of stored entries. Test helper.
func (s *Store) ActivityLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activity)
}

type userStore Store

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Username]; exists {
		return auth.ErrDuplicateUsername
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	s.users[u.Username] = *u
	return nil
}

func (s *userStore) Find(ctx context.Context, username string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &u, nil
}

func (s *userStore) Update(ctx context.Context, username string, patch auth.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return auth.ErrNotFound
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Active != nil {
		u.Active = *patch.Active
	}
	if patch.Password != nil {
		u.PasswordHash = *patch.Password
	}
	if patch.Notes != nil {
		u.Notes = *patch.Notes
	}
	s.users[username] = u
	return nil
}

func (s *userStore) SetActive(ctx context.Context, username string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return auth.ErrNotFound
	}
	u.Active = active
	s.users[username] = u
	return nil
}

func (s *userStore) List(ctx context.Context) ([]auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type grantStore Store

func (s *grantStore) Get(ctx context.Context, role auth.Role, module auth.Module) (auth.Grant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantKey{role, module}]
	return g, ok, nil
}

func (s *grantStore) ListByRole(ctx context.Context, role auth.Role) (map[auth.Module]auth.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[auth.Module]auth.Grant)
	for k, g := range s.grants {
		if k.role == role {
			out[k.module] = g
		}
	}
	return out, nil
}

func (s *grantStore) Upsert(ctx context.Context, role auth.Role, module auth.Module, g auth.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grantKey{role, module}] = g
	return nil
}

func (s *grantStore) EnsureDefault(ctx context.Context, role auth.Role, module auth.Module, g auth.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{role, module}
	if _, exists := s.grants[key]; !exists {
		s.grants[key] = g
	}
	return nil
}

type sessionStore Store

func (s *sessionStore) Close(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for token, sess := range s.sessions {
		if sess.Username == username && sess.Active {
			sess.Active = false
			sess.LogoutAt = &now
			s.sessions[token] = sess
		}
	}
	return nil
}

func (s *sessionStore) FindActiveByToken(ctx context.Context, token string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[strings.TrimSpace(token)]
	if !ok || !sess.Active {
		return nil, auth.ErrNotFound
	}
	return &sess, nil
}

// SessionsFor returns every stored session for the username, oldest
// first. Test helper.
func (s *Store) SessionsFor(username string) []auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.Session
	for _, sess := range s.sessions {
		if sess.Username == username {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginAt.Before(out[j].LoginAt) })
	return out
}
