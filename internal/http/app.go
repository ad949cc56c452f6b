package http

import (
	"context"

	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
)

// RouterConfig is the configuration the router reads: CORS and listen
// settings, the admin JWT secret, and the agent ingest token and rate.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	config.IngestConfig
}

// HealthChecker backs /api/ready. db.PoolAdapter satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands the router once every module is built. Health
// may be nil, in which case readiness always reports ok.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}
