package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"intranet-backend/migrations"
)

// RunMigrations applies every pending migration and returns how many ran.
// goose needs a *sql.DB, so this opens its own short-lived connection.
func RunMigrations(ctx context.Context, dsn string) (int, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return 0, fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("ping migration connection: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return 0, fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.Info().
			Int64("version", r.Source.Version).
			Str("file", r.Source.Path).
			Dur("took", r.Duration).
			Msg("migration applied")
	}
	return len(results), nil
}

// Migrate applies pending migrations to the configured database
func (db *PostgresDB) Migrate(ctx context.Context) (int, error) {
	return RunMigrations(ctx, db.buildConnectionString())
}
