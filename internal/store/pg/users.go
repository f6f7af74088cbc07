package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dentalab.org/internal/auth"
)

type userStore struct{ db *sql.DB }

const userColumns = `id, username, password_hash, full_name,
	coalesce(email,''), coalesce(phone,''), role, active,
	created_at, coalesce(created_by,''), last_login, login_count, coalesce(notes,'')`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var (
		u         auth.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName,
		&u.Email, &u.Phone, &u.Role, &u.Active,
		&u.CreatedAt, &u.CreatedBy, &lastLogin, &u.LoginCount, &u.Notes)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, username, password_hash, full_name, email, phone, role, active, created_at, created_by, notes)
		values ($1, $2, $3, $4, nullif($5,''), nullif($6,''), $7, $8, $9, nullif($10,''), nullif($11,''))
	`, u.ID, u.Username, u.PasswordHash, u.FullName, u.Email, u.Phone, u.Role, u.Active, u.CreatedAt, u.CreatedBy, u.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *userStore) Find(ctx context.Context, username string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username = $1`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userStore) Update(ctx context.Context, username string, patch auth.UserPatch) error {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}
	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Role != nil {
		add("role", *patch.Role)
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}
	if patch.Password != nil {
		add("password_hash", *patch.Password)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if len(setClauses) == 0 {
		return auth.ErrNothingToUpdate
	}

	query := fmt.Sprintf(`update users set %s where username = $%d`, strings.Join(setClauses, ", "), idx)
	args = append(args, username)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *userStore) SetActive(ctx context.Context, username string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`update users set active = $2 where username = $1`, username, active)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *userStore) List(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at desc, id desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
