package pg

import (
	"context"
	"database/sql"
	"errors"

	"dentalab.org/internal/auth"
)

type grantStore struct{ db *sql.DB }

func (s *grantStore) Get(ctx context.Context, role auth.Role, module auth.Module) (auth.Grant, bool, error) {
	var g auth.Grant
	err := s.db.QueryRowContext(ctx, `
		select can_view, can_create, can_edit, can_delete, can_export
		from permissions
		where role = $1 and module = $2
	`, role, module).Scan(&g.View, &g.Create, &g.Edit, &g.Delete, &g.Export)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Grant{}, false, nil
	}
	if err != nil {
		return auth.Grant{}, false, err
	}
	return g, true, nil
}

func (s *grantStore) ListByRole(ctx context.Context, role auth.Role) (map[auth.Module]auth.Grant, error) {
	rows, err := s.db.QueryContext(ctx, `
		select module, can_view, can_create, can_edit, can_delete, can_export
		from permissions
		where role = $1
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := make(map[auth.Module]auth.Grant)
	for rows.Next() {
		var (
			module auth.Module
			g      auth.Grant
		)
		if err := rows.Scan(&module, &g.View, &g.Create, &g.Edit, &g.Delete, &g.Export); err != nil {
			return nil, err
		}
		grants[module] = g
	}
	return grants, rows.Err()
}

func (s *grantStore) Upsert(ctx context.Context, role auth.Role, module auth.Module, g auth.Grant) error {
	_, err := s.db.ExecContext(ctx, `
		insert into permissions (role, module, can_view, can_create, can_edit, can_delete, can_export)
		values ($1, $2, $3, $4, $5, $6, $7)
		on conflict (role, module) do update
		set can_view = excluded.can_view,
		    can_create = excluded.can_create,
		    can_edit = excluded.can_edit,
		    can_delete = excluded.can_delete,
		    can_export = excluded.can_export
	`, role, module, g.View, g.Create, g.Edit, g.Delete, g.Export)
	return err
}

func (s *grantStore) EnsureDefault(ctx context.Context, role auth.Role, module auth.Module, g auth.Grant) error {
	_, err := s.db.ExecContext(ctx, `
		insert into permissions (role, module, can_view, can_create, can_edit, can_delete, can_export)
		values ($1, $2, $3, $4, $5, $6, $7)
		on conflict (role, module) do nothing
	`, role, module, g.View, g.Create, g.Edit, g.Delete, g.Export)
	return err
}
