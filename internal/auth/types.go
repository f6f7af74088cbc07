package auth

import "time"

// PrimaryAdminUsername is the distinguished administrator account. It is
// created at bootstrap and can never be deactivated.
const PrimaryAdminUsername = "admin"

// User is one identity record. Username is the immutable key; users are
// never physically deleted, only deactivated.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedBy    string     `json:"created_by,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	LoginCount   int        `json:"login_count"`
	Notes        string     `json:"notes,omitempty"`
}

// NewUser carries the fields accepted at account creation.
type NewUser struct {
	Username  string
	Password  string
	FullName  string
	Role      Role
	Email     string
	Phone     string
	CreatedBy string
	Notes     string
}

// UserPatch is a partial update: nil fields are left untouched. A non-nil
// Password is re-hashed before storage.
type UserPatch struct {
	FullName *string
	Email    *string
	Phone    *string
	Role     *Role
	Active   *bool
	Password *string
	Notes    *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.Phone == nil &&
		p.Role == nil && p.Active == nil && p.Password == nil && p.Notes == nil
}

// Session is one login-to-logout span. Rows are closed, never deleted.
type Session struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Token    string     `json:"-"`
	LoginAt  time.Time  `json:"login_at"`
	LogoutAt *time.Time `json:"logout_at,omitempty"`
	Address  string     `json:"address,omitempty"`
	Active   bool       `json:"active"`
}
