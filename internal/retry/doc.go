// Package retry provides retry logic with exponential backoff for transient
// SQL Server connection failures.
//
// It is used only by direct driver connections (connectivity checks and
// catalog inspection). Pipeline steps that shell out to bcp or sqlcmd are
// never retried.
//
// # Example Usage
//
//	classifier := retry.NewSQLServerErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return db.PingContext(ctx)
//	})
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to create
// independent configurations per goroutine.
package retry
