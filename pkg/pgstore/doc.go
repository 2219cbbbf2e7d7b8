// Package pgstore implements auth.CredentialStore and an attempt log on
// PostgreSQL through database/sql, using the pgx stdlib driver.
//
//	pool, _ := pg.Connect(ctx, cfg)
//	db := pg.SQL(pool)
//	_ = pg.Migrate(ctx, db, pgstore.Migrations, pgstore.MigrationsDir, cfg.MigrationsTable, log)
//
//	store := pgstore.New(db)
//	attempts := pgstore.NewAttemptWriter(db)
//
// The (type, secret) pair is unique, which makes magic link consumption
// a single DELETE ... RETURNING statement.
package pgstore
