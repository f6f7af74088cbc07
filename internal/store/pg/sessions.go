package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dentalab.org/internal/auth"
)

type sessionStore struct{ db *sql.DB }

func (s *sessionStore) Close(ctx context.Context, username string) error {
	// No-op when no session is active; rows are closed, never deleted.
	_, err := s.db.ExecContext(ctx, `
		update user_sessions
		set logout_at = $2, active = false
		where username = $1 and active = true
	`, username, time.Now().UTC())
	return err
}

func (s *sessionStore) FindActiveByToken(ctx context.Context, token string) (*auth.Session, error) {
	var (
		sess     auth.Session
		logoutAt sql.NullTime
		address  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, username, token, login_at, logout_at, address, active
		from user_sessions
		where token = $1 and active = true
	`, token).Scan(&sess.ID, &sess.Username, &sess.Token, &sess.LoginAt, &logoutAt, &address, &sess.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if logoutAt.Valid {
		t := logoutAt.Time
		sess.LogoutAt = &t
	}
	if address.Valid {
		sess.Address = address.String
	}
	return &sess, nil
}
