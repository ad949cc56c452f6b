package reports

import (
	"clinic_marketing_backend/internal/email"
	apphttp "clinic_marketing_backend/internal/http"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

// Module is the reports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the reports module.
func NewModule(analytics AnalyticsReader, sender email.Sender, val *validator.Validator, cfg config.SMTPConfig, log *logger.Logger) *Module {
	svc := New(analytics, sender, cfg, log)
	return &Module{handler: NewHandler(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// Service returns the report service for the scheduler.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts report routes on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Admin.Group("/reports")
	g.GET("/preview", m.handler.Preview)
	g.POST("/send", m.handler.Send)
}

var _ apphttp.Module = (*Module)(nil)
