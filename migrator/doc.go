// Package migrator reconciles a declared, ordered list of schema migrations
// against a persisted ledger of already-applied migrations.
//
// Unlike version-file migration tools, migrations here are named Go values
// supplied by the calling application (or by a library, under its own
// group namespace) and reconciled against history recorded in the
// _hb_pg_migrations table. Reconciliation is prefix-based: the ledger for
// a group must always be a prefix of that group's declared list. Any other
// divergence — an extra entry, a reordering, a removed entry still present
// in the ledger — is reported as drift rather than silently corrected.
//
// # Usage
//
//	m := migrator.New()
//	m.Add(migrator.Descriptor{
//		Name:  "create_users",
//		Group: migrator.DefaultGroup,
//		Apply: func(ctx context.Context, q pgconn.Queryer) error {
//			_, err := q.Exec(ctx, `CREATE TABLE users (id uuid primary key)`)
//			return err
//		},
//		Revert: func(ctx context.Context, q pgconn.Queryer) error {
//			_, err := q.Exec(ctx, `DROP TABLE users`)
//			return err
//		},
//	})
//
//	if err := m.Apply(ctx, pool); err != nil {
//		log.Fatal(err)
//	}
//
// Other components (persist, queue) register their own migrations under a
// dedicated group and await m.WaitUntilCompleted(ctx) before serving
// traffic, so a single Migrations value can own reconciliation for an
// entire application's dependency graph while still letting each library
// evolve its own schema independently.
package migrator
