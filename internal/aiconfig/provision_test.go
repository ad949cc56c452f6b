package aiconfig

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"clinic_marketing_backend/internal/aiconfig/domain"
	"clinic_marketing_backend/internal/aiconfig/service"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

type storeConfig struct{}

func (storeConfig) GetStoreTimeout() time.Duration { return time.Second }

type memoryRepo struct {
	mu      sync.Mutex
	cfg     *domain.Config
	inserts int
}

func (r *memoryRepo) Get(context.Context) (domain.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		return domain.Config{}, apperr.NotFound("ai config not found")
	}
	return *r.cfg, nil
}

func (r *memoryRepo) Seed(_ context.Context, cfg domain.Config) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg != nil {
		return false, nil
	}
	r.inserts++
	r.cfg = &cfg
	return true, nil
}

func (r *memoryRepo) Upsert(_ context.Context, cfg domain.Config) (domain.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = &cfg
	return cfg, nil
}

// pendingOnce behaves like goose: the first run applies every version, later runs none.
type pendingOnce struct {
	versions []int64
	runs     int
}

func (m *pendingOnce) migrate(context.Context) ([]int64, error) {
	m.runs++
	if m.runs == 1 {
		return m.versions, nil
	}
	return nil, nil
}

type failingSeeder struct{}

func (failingSeeder) SeedDefaults(context.Context) (bool, error) {
	return false, apperr.Unavailable("store timed out")
}

func TestProvisionSeedsDefaultsExactlyOnce(t *testing.T) {
	repo := &memoryRepo{}
	svc := service.New(repo, validator.New(), nil, storeConfig{}, logger.NewWithWriter("production", io.Discard))
	migrator := &pendingOnce{versions: []int64{1, 2, 3, 4, 5, 6}}

	first, err := Provision(context.Background(), migrator.migrate, svc)
	if err != nil {
		t.Fatalf("first provision: %v", err)
	}
	if len(first.Applied) != 6 || !first.Seeded {
		t.Fatalf("expected migrations applied and config seeded, got %+v", first)
	}

	second, err := Provision(context.Background(), migrator.migrate, svc)
	if err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if len(second.Applied) != 0 || second.Seeded {
		t.Fatalf("expected nothing to do on rerun, got %+v", second)
	}
	if repo.inserts != 1 {
		t.Fatalf("expected one config insert, got %d", repo.inserts)
	}
	if repo.cfg == nil || len(repo.cfg.Doctors) == 0 || repo.cfg.SystemPrompt == "" {
		t.Fatalf("expected the built-in configuration stored, got %+v", repo.cfg)
	}
}

func TestProvisionStopsWhenMigrationsFail(t *testing.T) {
	repo := &memoryRepo{}
	svc := service.New(repo, validator.New(), nil, storeConfig{}, logger.NewWithWriter("production", io.Discard))
	boom := errors.New("connection refused")

	_, err := Provision(context.Background(), func(context.Context) ([]int64, error) { return nil, boom }, svc)
	if !errors.Is(err, boom) {
		t.Fatalf("expected migration error, got %v", err)
	}
	if repo.inserts != 0 {
		t.Fatalf("expected no seed after failed migrations")
	}
}

func TestProvisionReportsSeedFailure(t *testing.T) {
	res, err := Provision(context.Background(), func(context.Context) ([]int64, error) { return []int64{7}, nil }, failingSeeder{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable seed error, got %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("expected applied versions kept on seed failure, got %+v", res)
	}
}
