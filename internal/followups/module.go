// Package followups provides the re-engagement follow-up bounded context module.
package followups

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/followups/handler"
	"clinic_marketing_backend/internal/followups/repository"
	"clinic_marketing_backend/internal/followups/service"
	apphttp "clinic_marketing_backend/internal/http"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

// Module is the follow-ups bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the follow-ups module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, cfg config.StoreConfig, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), bus, cfg, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "followups"
}

// Service returns the service layer for the scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts follow-up routes on the ingest and admin groups.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ingest := ctx.Ingest.Group("/follow-ups")
	ingest.GET("/due", m.handler.ListDue)
	ingest.POST("", m.handler.Schedule)
	ingest.POST("/:userId/response", m.handler.RecordResponse)
	ingest.GET("/:userId/recommendation", m.handler.Recommend)

	admin := ctx.Admin.Group("/follow-ups")
	admin.GET("/recent", m.handler.ListRecent)
	admin.POST("/plan", m.handler.Plan)
}

var _ apphttp.Module = (*Module)(nil)
