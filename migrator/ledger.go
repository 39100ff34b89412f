package migrator

import (
	"context"

	"github.com/hummingbird-project/hummingbird-postgres/pgconn"
)

const ledgerTable = `_hb_pg_migrations`

// ensureTable creates the ledger table if it does not already exist. Safe
// to call repeatedly.
func ensureTable(ctx context.Context, q pgconn.Queryer) error {
	_, err := q.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+ledgerTable+` (
			"order" SERIAL PRIMARY KEY,
			name    TEXT NOT NULL,
			"group" TEXT NOT NULL
		)
	`)
	return err
}

// insertLedgerRow records a migration as applied.
func insertLedgerRow(ctx context.Context, q pgconn.Queryer, name, group string) error {
	_, err := q.Exec(ctx, `INSERT INTO `+ledgerTable+` (name, "group") VALUES ($1, $2)`, name, group)
	return err
}

// deleteLedgerRow removes a migration's ledger entry by name.
func deleteLedgerRow(ctx context.Context, q pgconn.Queryer, name string) error {
	_, err := q.Exec(ctx, `DELETE FROM `+ledgerTable+` WHERE name = $1`, name)
	return err
}

// listLedgerOrdered reads every applied migration ordered by insertion order.
func listLedgerOrdered(ctx context.Context, q pgconn.Queryer) ([]AppliedMigration, error) {
	rows, err := q.Query(ctx, `SELECT "order", name, "group" FROM `+ledgerTable+` ORDER BY "order" ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var m AppliedMigration
		if err := rows.Scan(&m.Order, &m.Name, &m.Group); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
