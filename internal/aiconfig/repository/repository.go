// Package repository persists the singleton agent configuration row.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/aiconfig/domain"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/db"
)

const configNotFoundMessage = "ai config not found"

// Repository is the persistence contract for the agent configuration.
type Repository interface {
	Get(ctx context.Context) (domain.Config, error)
	// Seed inserts cfg only when no row exists and reports whether it did.
	Seed(ctx context.Context, cfg domain.Config) (bool, error)
	Upsert(ctx context.Context, cfg domain.Config) (domain.Config, error)
}

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new config repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Get reads the singleton row.
func (r *Repo) Get(ctx context.Context) (domain.Config, error) {
	query := `
		SELECT system_prompt, doctors, surgeries, scoring_weights, platform_settings, updated_at
		FROM ai_config WHERE id = 1`

	cfg, err := scanConfig(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Config{}, apperr.NotFound(configNotFoundMessage).WithOp("aiconfig.get")
		}
		return domain.Config{}, db.MapError("aiconfig.get", err)
	}
	return cfg, nil
}

// Seed writes the default row once.
func (r *Repo) Seed(ctx context.Context, cfg domain.Config) (bool, error) {
	args, err := configArgs(cfg)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "encode ai config", err)
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO ai_config (id, system_prompt, doctors, surgeries, scoring_weights, platform_settings, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO NOTHING`, args...)
	if err != nil {
		return false, db.MapError("aiconfig.seed", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Upsert replaces the whole document.
func (r *Repo) Upsert(ctx context.Context, cfg domain.Config) (domain.Config, error) {
	args, err := configArgs(cfg)
	if err != nil {
		return domain.Config{}, apperr.Wrap(apperr.KindInternal, "encode ai config", err)
	}
	query := `
		INSERT INTO ai_config (id, system_prompt, doctors, surgeries, scoring_weights, platform_settings, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			system_prompt = EXCLUDED.system_prompt,
			doctors = EXCLUDED.doctors,
			surgeries = EXCLUDED.surgeries,
			scoring_weights = EXCLUDED.scoring_weights,
			platform_settings = EXCLUDED.platform_settings,
			updated_at = EXCLUDED.updated_at
		RETURNING system_prompt, doctors, surgeries, scoring_weights, platform_settings, updated_at`

	saved, err := scanConfig(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Config{}, db.MapError("aiconfig.upsert", err)
	}
	return saved, nil
}

func configArgs(cfg domain.Config) ([]interface{}, error) {
	doctors, err := json.Marshal(nonNilDoctors(cfg.Doctors))
	if err != nil {
		return nil, err
	}
	surgeries, err := json.Marshal(nonNilSurgeries(cfg.Surgeries))
	if err != nil {
		return nil, err
	}
	weights, err := json.Marshal(cfg.ScoringWeights)
	if err != nil {
		return nil, err
	}
	platforms, err := json.Marshal(cfg.PlatformSettings)
	if err != nil {
		return nil, err
	}
	return []interface{}{cfg.SystemPrompt, doctors, surgeries, weights, platforms}, nil
}

func scanConfig(row pgx.Row) (domain.Config, error) {
	var cfg domain.Config
	var doctors, surgeries, weights, platforms []byte
	if err := row.Scan(&cfg.SystemPrompt, &doctors, &surgeries, &weights, &platforms, &cfg.UpdatedAt); err != nil {
		return domain.Config{}, err
	}
	if err := json.Unmarshal(doctors, &cfg.Doctors); err != nil {
		return domain.Config{}, fmt.Errorf("decode doctors: %w", err)
	}
	if err := json.Unmarshal(surgeries, &cfg.Surgeries); err != nil {
		return domain.Config{}, fmt.Errorf("decode surgeries: %w", err)
	}
	w, err := domain.WeightsFromJSON(weights)
	if err != nil {
		return domain.Config{}, err
	}
	cfg.ScoringWeights = w
	if len(platforms) > 0 {
		if err := json.Unmarshal(platforms, &cfg.PlatformSettings); err != nil {
			return domain.Config{}, fmt.Errorf("decode platform settings: %w", err)
		}
	}
	return cfg, nil
}

func nonNilDoctors(v []domain.Doctor) []domain.Doctor {
	if v == nil {
		return []domain.Doctor{}
	}
	return v
}

func nonNilSurgeries(v []domain.Surgery) []domain.Surgery {
	if v == nil {
		return []domain.Surgery{}
	}
	return v
}
