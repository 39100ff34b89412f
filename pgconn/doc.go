// Package pgconn provides the pooled Postgres connection gateway shared by
// the migrator, persist, and queue packages.
//
// It wraps [github.com/jackc/pgx/v5/pgxpool] with connection retry on
// startup, a narrow [Queryer] interface that both a pool and a transaction
// satisfy, and transaction/connection helpers that guarantee resources are
// released on every exit path, including cancellation.
//
// # Usage
//
//	pool, err := pgconn.Open(ctx, connString,
//		pgconn.WithMaxConns(20),
//		pgconn.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	err = pgconn.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		_, err := tx.Exec(ctx, "insert into ...")
//		return err
//	})
//
// No retry is performed for queries or transactions once a connection has
// been established; retry is an application-layer concern above this
// package.
package pgconn
