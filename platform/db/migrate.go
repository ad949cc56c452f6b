package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"

	"clinic_marketing_backend/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// MigrationStatus describes one embedded migration.
type MigrationStatus struct {
	Version int64
	Source  string
	Applied bool
}

func newProvider(cfg config.DatabaseConfig) (*goose.Provider, *sql.DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, migrationsDir)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, sub)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, sqlDB, nil
}

// RunMigrations applies every pending embedded migration. Already-applied
// versions are skipped, so the call is safe to repeat.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig) ([]int64, error) {
	provider, sqlDB, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(sqlDB)

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, res := range results {
		applied = append(applied, res.Source.Version)
	}
	return applied, nil
}

// Status lists embedded migrations with their applied state.
func Status(ctx context.Context, cfg config.DatabaseConfig) ([]MigrationStatus, error) {
	provider, sqlDB, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(sqlDB)

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, MigrationStatus{
			Version: st.Source.Version,
			Source:  st.Source.Path,
			Applied: st.State == goose.StateApplied,
		})
	}
	return out, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
