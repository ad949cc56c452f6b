// Package aiconfig provides the agent configuration bounded context module.
package aiconfig

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/aiconfig/handler"
	"clinic_marketing_backend/internal/aiconfig/repository"
	"clinic_marketing_backend/internal/aiconfig/service"
	"clinic_marketing_backend/internal/events"
	apphttp "clinic_marketing_backend/internal/http"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

// Module is the aiconfig bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the aiconfig module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, bus events.Bus, cfg config.StoreConfig, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), val, bus, cfg, log)
	return &Module{handler: handler.New(svc), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "aiconfig"
}

// Service returns the service layer; it is also the lead scorer's weights source.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts config routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/ai-config", m.handler.GetConfig)
	ctx.Admin.PUT("/ai-config", m.handler.UpdateConfig)
	ctx.Ingest.GET("/ai-config", m.handler.GetConfig)
}

var _ apphttp.Module = (*Module)(nil)
