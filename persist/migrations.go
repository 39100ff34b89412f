package persist

import (
	"context"

	"github.com/hummingbird-project/hummingbird-postgres/migrator"
	"github.com/hummingbird-project/hummingbird-postgres/pgconn"
)

// groupName isolates the store's schema migrations from the host
// application's own migration groups.
const groupName = "_hb_persist"

// Migrations returns the schema migrations required by Store. Add them to
// a migrator.Migrations before calling Apply.
func Migrations() []migrator.Descriptor {
	return []migrator.Descriptor{
		{
			Name:  "001_create_persist_store",
			Group: groupName,
			Apply: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `
					CREATE TABLE IF NOT EXISTS `+tableName+` (
						id      TEXT PRIMARY KEY,
						data    JSON NOT NULL,
						expires TIMESTAMPTZ NOT NULL
					)
				`)
				return err
			},
			Revert: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `DROP TABLE IF EXISTS `+tableName)
				return err
			},
		},
		{
			Name:  "002_index_persist_store_expires",
			Group: groupName,
			Apply: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `
					CREATE INDEX IF NOT EXISTS idx_`+tableName+`_expires ON `+tableName+` (expires)
				`)
				return err
			},
			Revert: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `DROP INDEX IF EXISTS idx_`+tableName+`_expires`)
				return err
			},
		},
	}
}
