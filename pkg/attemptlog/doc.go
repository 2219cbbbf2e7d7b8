// Package attemptlog provides sinks for auth.LoginAttempt entries.
//
// Memory stores attempts in process. Stream appends them to a Redis stream.
// AsyncWriter batches writes for any BatchWriter, including the database
// writers in pkg/pgstore and pkg/mongostore. Multi fans out to several sinks:
//
//	db := attemptlog.NewAsyncWriter(pgstore.NewAttemptWriter(sqlDB), attemptlog.AsyncOptions{})
//	defer db.Close(context.Background())
//
//	attempts := attemptlog.Multi(db, attemptlog.NewStream(redisClient))
package attemptlog
