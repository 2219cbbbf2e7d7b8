// Package pg connects to PostgreSQL with pgx and applies goose migrations.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	db := pg.SQL(pool)
//	if err := pg.Migrate(ctx, db, pgstore.Migrations, pgstore.MigrationsDir, cfg.MigrationsTable, log); err != nil {
//	    return err
//	}
//
// IsDuplicateKeyError and IsNotFoundError classify driver errors without
// importing pgconn at call sites.
package pg
