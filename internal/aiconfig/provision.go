package aiconfig

import (
	"context"
	"fmt"
)

// Migrator applies pending schema migrations and returns the versions it ran.
type Migrator func(ctx context.Context) ([]int64, error)

// Seeder writes the built-in configuration when none is stored.
type Seeder interface {
	SeedDefaults(ctx context.Context) (bool, error)
}

// Provisioned reports what one Provision call changed.
type Provisioned struct {
	Applied []int64
	Seeded  bool
}

// Provision brings the schema current and then seeds the default agent
// configuration. Running it again applies nothing and seeds nothing.
func Provision(ctx context.Context, migrate Migrator, seeder Seeder) (Provisioned, error) {
	applied, err := migrate(ctx)
	if err != nil {
		return Provisioned{}, fmt.Errorf("migrate: %w", err)
	}
	seeded, err := seeder.SeedDefaults(ctx)
	if err != nil {
		return Provisioned{Applied: applied}, fmt.Errorf("seed ai config: %w", err)
	}
	return Provisioned{Applied: applied, Seeded: seeded}, nil
}
