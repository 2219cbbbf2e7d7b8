package pgstore

import "embed"

// Migrations holds the goose migrations for the tables used by Store and
// AttemptWriter. Apply them with pg.Migrate(ctx, db, Migrations, MigrationsDir, ...).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"
