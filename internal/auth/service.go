package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dentalab.org/internal/audit"
	"dentalab.org/internal/ids"
	"dentalab.org/internal/obs"
)

// Service is the authorization facade: it authenticates credentials,
// issues sessions, answers permission checks, and owns every write to the
// user, grant, and session tables. Authentication events go through the
// shared audit recorder, whose failures never surface here.
type Service struct {
	store Store
	rec   *audit.Recorder
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithRecorder overrides the audit recorder.
func WithRecorder(rec *audit.Recorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.rec = rec
		}
	}
}

// NewService constructs a Service backed by store.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth store is required")
	}
	svc := &Service{
		store: store,
		rec:   audit.NewRecorder(store.Activity()),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Recorder exposes the shared audit recorder so business modules append
// through the same swallow-errors boundary.
func (s *Service) Recorder() *audit.Recorder { return s.rec }

// Bootstrap creates the primary administrator account and seeds the
// default grant matrix. Both steps are insert-if-absent, so repeated
// startups leave operator edits untouched.
func (s *Service) Bootstrap(ctx context.Context, adminPassword string) error {
	for _, role := range Roles {
		for _, module := range Modules {
			if err := s.store.Grants().EnsureDefault(ctx, role, module, DefaultGrant(role, module)); err != nil {
				return fmt.Errorf("seed grant %s/%s: %w", role, module, err)
			}
		}
	}

	if _, err := s.store.Users().Find(ctx, PrimaryAdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &User{
		ID:           ids.New(),
		Username:     PrimaryAdminUsername,
		PasswordHash: hash,
		FullName:     "مدير النظام",
		Role:         RoleAdmin,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, admin); err != nil && !errors.Is(err, ErrDuplicateUsername) {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// CreateUser registers a new account. The secret is stored hashed only.
func (s *Service) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	if nu.Username == "" {
		return User{}, fmtErr(ErrInvalidInput, "username is required")
	}
	if strings.TrimSpace(nu.Password) == "" {
		return User{}, fmtErr(ErrInvalidInput, "password is required")
	}
	if strings.TrimSpace(nu.FullName) == "" {
		return User{}, fmtErr(ErrInvalidInput, "full name is required")
	}
	if !nu.Role.Valid() {
		return User{}, fmtErr(ErrInvalidInput, "unknown role %q", nu.Role)
	}

	hash, err := HashPassword(nu.Password)
	if err != nil {
		return User{}, err
	}
	user := &User{
		ID:           ids.New(),
		Username:     nu.Username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(nu.FullName),
		Email:        strings.TrimSpace(nu.Email),
		Phone:        strings.TrimSpace(nu.Phone),
		Role:         nu.Role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
		CreatedBy:    strings.TrimSpace(nu.CreatedBy),
		Notes:        nu.Notes,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return User{}, err
	}

	actor := user.CreatedBy
	if actor == "" {
		actor = PrimaryAdminUsername
	}
	s.rec.Record(ctx, audit.Entry{
		Username:    actor,
		Kind:        audit.KindCreate,
		Module:      string(ModuleUsers),
		Description: fmt.Sprintf("إضافة مستخدم جديد: %s (%s)", user.FullName, user.Username),
		RecordID:    user.ID,
	})
	return *user, nil
}

// VerifyCredentials checks a username/secret pair. It returns
// ErrInvalidCredentials without distinguishing unknown user from wrong
// secret, and ErrAccountDisabled for a matched but deactivated account.
func (s *Service) VerifyCredentials(ctx context.Context, username, secret string) (User, error) {
	user, err := s.store.Users().Find(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := VerifyPassword(user.PasswordHash, secret); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !user.Active {
		return User{}, ErrAccountDisabled
	}
	return *user, nil
}

// Login authenticates and opens a session. The session row, login
// counter, and activity entry are applied in one transaction. On failure
// nothing changes except a best-effort failed-login audit entry.
func (s *Service) Login(ctx context.Context, username, secret, address string) (Principal, error) {
	user, err := s.VerifyCredentials(ctx, username, secret)
	if err != nil {
		result := "invalid"
		if errors.Is(err, ErrAccountDisabled) {
			result = "disabled"
		}
		obs.CountLogin(result)
		s.rec.Record(ctx, audit.Entry{
			Username:    strings.TrimSpace(username),
			Kind:        audit.KindLoginFailed,
			Module:      string(ModuleSystem),
			Description: "محاولة دخول فاشلة",
			Address:     address,
		})
		return Principal{}, err
	}

	token, err := NewSessionToken()
	if err != nil {
		return Principal{}, err
	}
	now := s.now().UTC()
	session := Session{
		ID:       ids.New(),
		Username: user.Username,
		Token:    token,
		LoginAt:  now,
		Address:  address,
		Active:   true,
	}
	entry := audit.Entry{
		ID:          ids.New(),
		Username:    user.Username,
		Kind:        audit.KindLogin,
		Module:      string(ModuleSystem),
		Description: "تسجيل دخول ناجح",
		Address:     address,
		OccurredAt:  now,
	}
	if err := s.store.RecordLogin(ctx, session, entry); err != nil {
		return Principal{}, err
	}

	obs.CountLogin("ok")
	return Principal{
		Username: user.Username,
		FullName: user.FullName,
		Role:     user.Role,
		Token:    token,
	}, nil
}

// Logout closes every active session for the username. It always succeeds
// from the caller's perspective and always logs an activity entry.
func (s *Service) Logout(ctx context.Context, username, address string) error {
	if err := s.store.Sessions().Close(ctx, username); err != nil {
		return err
	}
	s.rec.Record(ctx, audit.Entry{
		Username:    username,
		Kind:        audit.KindLogout,
		Module:      string(ModuleSystem),
		Description: "تسجيل خروج",
		Address:     address,
	})
	return nil
}

// AuthenticateToken resolves a bearer token against the live session
// registry and returns the acting principal.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrInvalidToken
	}
	session, err := s.store.Sessions().FindActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	user, err := s.store.Users().Find(ctx, session.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	if !user.Active {
		return Principal{}, ErrInvalidToken
	}
	return Principal{
		Username: user.Username,
		FullName: user.FullName,
		Role:     user.Role,
		Token:    token,
	}, nil
}

// CheckPermission decides whether the user may perform action on module.
// Unknown users are denied, admins always allowed, everyone else falls
// back to the stored grant with deny-by-default. Storage errors deny.
func (s *Service) CheckPermission(ctx context.Context, username string, module Module, action Action) bool {
	allowed := s.checkPermission(ctx, username, module, action)
	obs.CountPermissionCheck(string(module), allowed)
	return allowed
}

func (s *Service) checkPermission(ctx context.Context, username string, module Module, action Action) bool {
	if strings.TrimSpace(username) == "" {
		return false
	}
	user, err := s.store.Users().Find(ctx, username)
	if err != nil {
		return false
	}
	if user.Role == RoleAdmin {
		return true
	}
	g, ok, err := s.store.Grants().Get(ctx, user.Role, module)
	if err != nil || !ok {
		return false
	}
	return g.Allows(action)
}

// UserPermissions returns the full capability map for the user's role.
// Admin synthesizes allow-all for every known module without consulting
// storage.
func (s *Service) UserPermissions(ctx context.Context, username string) (map[Module]Grant, error) {
	user, err := s.store.Users().Find(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.AllGrants(ctx, user.Role)
}

// AllGrants returns the capability map for a role.
func (s *Service) AllGrants(ctx context.Context, role Role) (map[Module]Grant, error) {
	if role == RoleAdmin {
		grants := make(map[Module]Grant, len(Modules))
		for _, m := range Modules {
			grants[m] = AllowAll
		}
		return grants, nil
	}
	return s.store.Grants().ListByRole(ctx, role)
}

// GetGrant returns the stored grant for (role, module); absence means
// deny-everything, not an error. Admin is always allow-all.
func (s *Service) GetGrant(ctx context.Context, role Role, module Module) (Grant, error) {
	if role == RoleAdmin {
		return AllowAll, nil
	}
	g, _, err := s.store.Grants().Get(ctx, role, module)
	if err != nil {
		return Grant{}, err
	}
	return g, nil
}

// SetGrant overwrites all five capabilities for (role, module).
func (s *Service) SetGrant(ctx context.Context, role Role, module Module, g Grant, updatedBy string) error {
	if !role.Valid() {
		return fmtErr(ErrInvalidInput, "unknown role %q", role)
	}
	if err := s.store.Grants().Upsert(ctx, role, module, g); err != nil {
		return err
	}
	s.rec.Record(ctx, audit.Entry{
		Username:    updatedBy,
		Kind:        audit.KindUpdate,
		Module:      string(ModuleSettings),
		Description: fmt.Sprintf("تحديث صلاحيات %s على %s", role, module),
	})
	return nil
}

// UpdateUser applies a partial update. A supplied password is re-hashed;
// an empty patch fails with ErrNothingToUpdate before touching storage.
func (s *Service) UpdateUser(ctx context.Context, username string, patch UserPatch, updatedBy string) error {
	if patch.Empty() {
		return ErrNothingToUpdate
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return fmtErr(ErrInvalidInput, "unknown role %q", *patch.Role)
	}
	if patch.Password != nil {
		if strings.TrimSpace(*patch.Password) == "" {
			return fmtErr(ErrInvalidInput, "password is required")
		}
		hash, err := HashPassword(*patch.Password)
		if err != nil {
			return err
		}
		patch.Password = &hash
	}
	if err := s.store.Users().Update(ctx, username, patch); err != nil {
		return err
	}
	s.rec.Record(ctx, audit.Entry{
		Username:    updatedBy,
		Kind:        audit.KindUpdate,
		Module:      string(ModuleUsers),
		Description: fmt.Sprintf("تحديث بيانات المستخدم: %s", username),
	})
	return nil
}

// DeactivateUser is the only removal path for accounts. The primary
// administrator can never be deactivated.
func (s *Service) DeactivateUser(ctx context.Context, username, deactivatedBy string) error {
	if username == PrimaryAdminUsername {
		return ErrProtectedAccount
	}
	if err := s.store.Users().SetActive(ctx, username, false); err != nil {
		return err
	}
	s.rec.Record(ctx, audit.Entry{
		Username:    deactivatedBy,
		Kind:        audit.KindDelete,
		Module:      string(ModuleUsers),
		Description: fmt.Sprintf("تعطيل المستخدم: %s", username),
	})
	return nil
}

// ListUsers returns every account, newest-created first.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.Users().List(ctx)
}
