// Package leads provides the lead tracking bounded context module.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/leads/handler"
	"clinic_marketing_backend/internal/leads/repository"
	"clinic_marketing_backend/internal/leads/scoring"
	"clinic_marketing_backend/internal/leads/service"
	apphttp "clinic_marketing_backend/internal/http"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module.
func NewModule(pool *pgxpool.Pool, weights scoring.WeightsSource, bus events.Bus, val *validator.Validator, cfg config.StoreConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, weights, bus, cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/leads")
	admin.GET("", m.handler.ListLeads)
	admin.GET("/:userId", m.handler.GetLead)
	admin.PATCH("/:userId/status", m.handler.SetStatus)
	admin.POST("/:userId/unlock", m.handler.UnlockStatus)

	ingest := ctx.Ingest.Group("/leads")
	ingest.POST("", m.handler.UpsertLead)
	ingest.POST("/:userId/signals", m.handler.RecordSignal)
	ingest.POST("/:userId/interactions", m.handler.RecordInteraction)
	ingest.POST("/:userId/converted", m.handler.MarkConverted)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
