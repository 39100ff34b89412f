// Package queue is a durable job queue backed by Postgres: producers push
// opaque binary payloads, and a pool of workers concurrently claim,
// execute, and finalize them with at-least-once semantics.
//
// The claim protocol relies on a single DELETE ... RETURNING statement
// using FOR UPDATE SKIP LOCKED so concurrent workers never observe the
// same pending job; see driver.go's claimSQL. This row-locking contract is
// load-bearing and must not be altered.
//
// A Driver and a persist Store both accept a WithWaitUntilCompleted
// function so that OnInit and the Sweeper can be started concurrently
// with migrations.Apply rather than strictly sequenced after it; each
// blocks on that function (a no-op unless set) before doing anything
// else.
//
// Example:
//
//	driver := queue.NewDriver(pool,
//		queue.WithProcessingJobsInitialization(queue.PolicyRerun),
//		queue.WithWaitUntilCompleted(migrations.WaitUntilCompleted),
//	)
//	migrations.Add(queue.Migrations()...)
//	go func() { _ = migrations.Apply(ctx, pool) }()
//	if err := driver.OnInit(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	workers := queue.NewWorkerPool(driver, queue.WithConcurrency(4))
//	workers.RegisterHandler(queue.NewTaskHandler("send_email", 3, func(ctx context.Context, p EmailPayload) error {
//	    return mailer.Send(ctx, p)
//	}))
//	go workers.Run(ctx)()
//
//	payload, _ := queue.EncodePayload("send_email", EmailPayload{To: "a@example.com"})
//	id, err := driver.Push(ctx, payload)
package queue
