package handler

import (
	"github.com/gin-gonic/gin"

	"clinic_marketing_backend/internal/aiconfig/service"
	"clinic_marketing_backend/internal/aiconfig/transport"
	"clinic_marketing_backend/platform/httpkit"
)

// Handler handles HTTP requests for the agent configuration.
type Handler struct {
	svc *service.Service
}

// New creates a new config handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// GetConfig returns the current configuration.
// GET /api/v1/admin/ai-config, GET /api/v1/ingest/ai-config
func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.svc.GetConfig(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToConfigResponse(cfg))
}

// UpdateConfig replaces the configuration.
// PUT /api/v1/admin/ai-config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req transport.UpdateConfigRequest
	if err := httpkit.BindStrictJSON(c, &req); httpkit.HandleError(c, err) {
		return
	}

	cfg, err := h.svc.UpdateConfig(c.Request.Context(), req, httpkit.ActorLabel(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToConfigResponse(cfg))
}
