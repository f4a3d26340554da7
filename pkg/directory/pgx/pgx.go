// Package pgx reads the identity directory from the identity service's
// Postgres database.
package pgx

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"

	pgxv5 "github.com/jackc/pgx/v5"
)

type pgxIConn interface {
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
}

// Directory implements directory.Directory on top of a pgx pool or connection.
type Directory struct {
	conn pgxIConn
}

func NewDirectory(conn pgxIConn) *Directory {
	return &Directory{conn: conn}
}

const listOrganizationsSQL = `
SELECT organisation_id::text, organisation_name
FROM organisations
ORDER BY organisation_id;
`

const listUsersSQL = `
SELECT user_id::text, user_name, COALESCE(email, ''), COALESCE(level_of_access, 0)::int, member_of::text
FROM users
ORDER BY user_id;
`

func (d *Directory) ListOrganizations(ctx context.Context) ([]common.Organization, error) {
	rows, err := d.conn.Query(ctx, listOrganizationsSQL)
	if err != nil {
		return nil, fmt.Errorf("query organisations: %w", err)
	}
	return pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.Organization, error) {
		var org common.Organization
		err := row.Scan(&org.ID, &org.Name)
		return org, err
	})
}

func (d *Directory) ListUsers(ctx context.Context) ([]common.User, error) {
	rows, err := d.conn.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.User, error) {
		var u common.User
		err := row.Scan(&u.ID, &u.Name, &u.Email, &u.LevelOfAccess, &u.MemberOf)
		return u, err
	})
}
