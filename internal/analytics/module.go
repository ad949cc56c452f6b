// Package analytics provides the dashboard analytics bounded context module.
package analytics

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/analytics/handler"
	"clinic_marketing_backend/internal/analytics/repository"
	"clinic_marketing_backend/internal/analytics/service"
	apphttp "clinic_marketing_backend/internal/http"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

// Module is the analytics bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the analytics module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg config.StoreConfig, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), cfg, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// Service returns the service layer for the scheduler and exports.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts analytics routes on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Admin.Group("/analytics")
	g.GET("/stats", m.handler.LeadStats)
	g.GET("/funnel", m.handler.Funnel)
	g.GET("/top-surgeries", m.handler.TopSurgeries)
	g.GET("/top-symptoms", m.handler.TopSymptoms)
	g.GET("/daily", m.handler.DailyStats)
	g.GET("/hot-leads", m.handler.HotLeads)
	g.GET("/score-distribution", m.handler.ScoreDistribution)
	g.GET("/engagement", m.handler.Engagement)
	g.GET("/events", m.handler.EventCounts)
	g.GET("/conversion-events", m.handler.ConversionEvents)
	g.GET("/follow-ups", m.handler.FollowUpEffectiveness)
	g.GET("/dashboard", m.handler.Dashboard)
	g.POST("/rollup", m.handler.Rollup)
}

var _ apphttp.Module = (*Module)(nil)
