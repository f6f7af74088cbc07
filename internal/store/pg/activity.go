package pg

import (
	"context"
	"fmt"
	"strings"

	"dentalab.org/internal/audit"
	"dentalab.org/internal/ids"
)

// Append implements audit.Store. Entries are insert-only; no update or
// delete statement exists for activity_log anywhere in this package.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into activity_log (id, username, kind, module, description, record_id, before_data, after_data, address, occurred_at)
		values ($1, $2, $3, $4, $5, nullif($6,''), nullif($7,''), nullif($8,''), nullif($9,''), $10)
	`, entry.ID, entry.Username, entry.Kind, entry.Module, entry.Description,
		entry.RecordID, entry.Before, entry.After, entry.Address, entry.OccurredAt)
	return err
}

// Query implements audit.Store with conjunctive optional filters and a
// mandatory, clamped limit.
func (s *Store) Query(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	var (
		where []string
		args  []any
		idx   = 1
	)
	add := func(clause string, value any) {
		where = append(where, fmt.Sprintf(clause, idx))
		args = append(args, value)
		idx++
	}
	if f.Username != "" {
		add("username = $%d", f.Username)
	}
	if f.Module != "" {
		add("module = $%d", f.Module)
	}
	if !f.From.IsZero() {
		add("occurred_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("occurred_at <= $%d", f.To)
	}

	query := `select id, username, kind, module, coalesce(description,''),
		coalesce(record_id,''), coalesce(before_data,''), coalesce(after_data,''),
		coalesce(address,''), occurred_at
		from activity_log`
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += fmt.Sprintf(" order by occurred_at desc, id desc limit $%d", idx)
	args = append(args, audit.ClampLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.Username, &e.Kind, &e.Module, &e.Description,
			&e.RecordID, &e.Before, &e.After, &e.Address, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
