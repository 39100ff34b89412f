package persist

import (
	"context"
	"log/slog"
	"time"
)

// Sweep deletes every row past its expiration and returns how many rows
// were removed.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+tableName+` WHERE expires < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Sweeper returns a function compatible with golang.org/x/sync/errgroup:
// it awaits the configured WithWaitUntilCompleted function (the Migration
// Engine reaching completed or failed, by convention), then blocks,
// sweeping expired rows on the store's configured interval, until ctx is
// cancelled.
func (s *Store) Sweeper(ctx context.Context) func() error {
	return func() error {
		if err := s.opts.waitFor(ctx); err != nil {
			return err
		}

		ticker := time.NewTicker(s.opts.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := s.Sweep(ctx)
				if err != nil {
					s.opts.logger.ErrorContext(ctx, "persist: sweep failed", slog.String("error", err.Error()))
					continue
				}
				if n > 0 {
					s.opts.logger.DebugContext(ctx, "persist: swept expired entries", slog.Int64("count", n))
				}
			}
		}
	}
}
