// Package pg implements the auth and audit stores on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dentalab.org/internal/audit"
	"dentalab.org/internal/auth"
)

const pgErrUniqueViolation = "23505"

// Store wraps the shared connection pool.
type Store struct {
	db *sql.DB
}

var _ auth.Store = (*Store)(nil)
var _ audit.Store = (*Store)(nil)

// Open dials PostgreSQL with interactive-scale pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle; used by tests with sqlmock.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for readiness probes.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() auth.UserStore       { return &userStore{db: s.db} }
func (s *Store) Grants() auth.GrantStore     { return &grantStore{db: s.db} }
func (s *Store) Sessions() auth.SessionStore { return &sessionStore{db: s.db} }
func (s *Store) Activity() audit.Store       { return s }

// RecordLogin opens the session, bumps the login counter and last-login
// timestamp, and appends the activity entry in a single transaction.
func (s *Store) RecordLogin(ctx context.Context, session auth.Session, entry audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into user_sessions (id, username, token, login_at, address, active)
		values ($1, $2, $3, $4, nullif($5,''), true)
	`, session.ID, session.Username, session.Token, session.LoginAt, session.Address); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		update users
		set last_login = $2, login_count = login_count + 1
		where username = $1
	`, session.Username, session.LoginAt)
	if err != nil {
		return err
	}
	if aff, err := res.RowsAffected(); err == nil && aff == 0 {
		return auth.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		insert into activity_log (id, username, kind, module, description, address, occurred_at)
		values ($1, $2, $3, $4, $5, nullif($6,''), $7)
	`, entry.ID, entry.Username, entry.Kind, entry.Module, entry.Description, entry.Address, entry.OccurredAt); err != nil {
		return err
	}

	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
