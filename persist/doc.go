// Package persist is a generic key-value store backed by Postgres, with
// TTL-based expiration and background sweeping of expired rows.
//
// TTL semantics for Create and Set: a positive duration expires the entry
// after that duration, zero applies the store's configured default TTL,
// and a negative duration means the entry never expires.
//
// Example:
//
//	store := persist.New(pool,
//		persist.WithDefaultTTL(time.Hour),
//		persist.WithWaitUntilCompleted(migrations.WaitUntilCompleted),
//	)
//	migrations.Add(persist.Migrations()...)
//	go func() { _ = migrations.Apply(ctx, pool) }()
//	go store.Sweeper(ctx)()
//
//	_ = store.Create(ctx, "session:abc", Session{UserID: 1}, time.Hour)
//	sess, err := persist.Get[Session](ctx, store, "session:abc")
//
// A Store's Sweeper should be run as a long-lived goroutine (it blocks
// until ctx is cancelled), awaiting WithWaitUntilCompleted before its
// first tick and then deleting rows past their expiration on a fixed
// interval.
package persist
