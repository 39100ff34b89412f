package pgconn

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Queryer is satisfied by both *pgxpool.Pool and pgx.Tx, so ledger and
// store code can be written once and composed either standalone or inside
// a caller-supplied transaction.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
