package queue

import (
	"context"

	"github.com/hummingbird-project/hummingbird-postgres/migrator"
	"github.com/hummingbird-project/hummingbird-postgres/pgconn"
)

// groupName isolates the queue's schema migrations from the host
// application's own migration groups.
const groupName = "_hb_jobqueue"

const (
	jobsTable         = `_hb_pg_jobs`
	queueTable        = `_hb_pg_job_queue`
	queueMetaTable    = `_hb_pg_job_queue_metadata`
	jobStatusIndex    = `_hb_job_status`
	queueCreatedIndex = `_hb_job_queueidx`
)

// Migrations returns the schema migrations required by Driver. Add them to
// a migrator.Migrations before calling Apply.
func Migrations() []migrator.Descriptor {
	return []migrator.Descriptor{
		{
			Name:  "001_create_jobs",
			Group: groupName,
			Apply: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `
					CREATE TABLE IF NOT EXISTS `+jobsTable+` (
						id            UUID PRIMARY KEY,
						job           BYTEA,
						status        SMALLINT NOT NULL,
						"lastModified" TIMESTAMPTZ NOT NULL DEFAULT now()
					)
				`)
				if err != nil {
					return err
				}
				_, err = q.Exec(ctx, `CREATE INDEX IF NOT EXISTS `+jobStatusIndex+` ON `+jobsTable+` (status)`)
				return err
			},
			Revert: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `DROP TABLE IF EXISTS `+jobsTable)
				return err
			},
		},
		{
			Name:  "002_create_job_queue",
			Group: groupName,
			Apply: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `
					CREATE TABLE IF NOT EXISTS `+queueTable+` (
						job_id       UUID PRIMARY KEY,
						"createdAt"  TIMESTAMPTZ NOT NULL
					)
				`)
				if err != nil {
					return err
				}
				_, err = q.Exec(ctx, `CREATE INDEX IF NOT EXISTS `+queueCreatedIndex+` ON `+queueTable+` ("createdAt" ASC)`)
				return err
			},
			Revert: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `DROP TABLE IF EXISTS `+queueTable)
				return err
			},
		},
		{
			Name:  "003_create_job_queue_metadata",
			Group: groupName,
			Apply: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `
					CREATE TABLE IF NOT EXISTS `+queueMetaTable+` (
						key   TEXT PRIMARY KEY,
						value BYTEA
					)
				`)
				return err
			},
			Revert: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `DROP TABLE IF EXISTS `+queueMetaTable)
				return err
			},
		},
		{
			Name:  "004_add_job_queue_delayed_until",
			Group: groupName,
			Apply: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `ALTER TABLE `+queueTable+` ADD COLUMN IF NOT EXISTS delayed_until TIMESTAMPTZ`)
				return err
			},
			Revert: func(ctx context.Context, q pgconn.Queryer) error {
				_, err := q.Exec(ctx, `ALTER TABLE `+queueTable+` DROP COLUMN IF EXISTS delayed_until`)
				return err
			},
		},
	}
}
