package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic_marketing_backend/internal/leads/domain"
	"clinic_marketing_backend/internal/leads/service"
	"clinic_marketing_backend/internal/leads/transport"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/httpkit"
	"clinic_marketing_backend/platform/validator"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	actorIngest         = "ingest"
)

// New creates a new lead handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListLeads lists leads for the dashboard.
// GET /api/v1/admin/leads
func (h *Handler) ListLeads(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	page, err := h.svc.ListLeads(c.Request.Context(), req.Page, req.PageSize, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.LeadResponse, 0, len(page.Items))
	for _, lead := range page.Items {
		items = append(items, transport.ToLeadResponse(lead, false))
	}
	httpkit.OK(c, transport.LeadListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}

// GetLead returns one lead with its conversation history.
// GET /api/v1/admin/leads/:userId
func (h *Handler) GetLead(c *gin.Context) {
	lead, err := h.svc.GetLead(c.Request.Context(), c.Param("userId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, true))
}

// SetStatus overrides a lead's status.
// PATCH /api/v1/admin/leads/:userId/status
func (h *Handler) SetStatus(c *gin.Context) {
	var req transport.SetStatusRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.SetStatus(c.Request.Context(), c.Param("userId"), req.Status, httpkit.ActorLabel(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, false))
}

// UnlockStatus returns a lead to score-driven status.
// POST /api/v1/admin/leads/:userId/unlock
func (h *Handler) UnlockStatus(c *gin.Context) {
	lead, err := h.svc.UnlockStatus(c.Request.Context(), c.Param("userId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, false))
}

// UpsertLead counts a message from a lead.
// POST /api/v1/ingest/leads
func (h *Handler) UpsertLead(c *gin.Context) {
	var req transport.UpsertLeadRequest
	if !h.bind(c, &req) {
		return
	}
	platform, _ := domain.ParsePlatform(req.Platform)

	lead, err := h.svc.UpsertLead(c.Request.Context(), req.UserID, platform)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, false))
}

// RecordSignal records one detected item.
// POST /api/v1/ingest/leads/:userId/signals
func (h *Handler) RecordSignal(c *gin.Context) {
	var req transport.RecordSignalRequest
	if !h.bind(c, &req) {
		return
	}
	kind, _ := domain.ParseSignalKind(req.Kind)
	platform, _ := domain.ParsePlatform(req.Platform)

	lead, err := h.svc.RecordSignal(c.Request.Context(), c.Param("userId"), service.Signal{
		Kind:     kind,
		Value:    req.Value,
		Message:  req.Message,
		Platform: platform,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, false))
}

// RecordInteraction records one conversation turn.
// POST /api/v1/ingest/leads/:userId/interactions
func (h *Handler) RecordInteraction(c *gin.Context) {
	var req transport.RecordInteractionRequest
	if !h.bind(c, &req) {
		return
	}
	platform, _ := domain.ParsePlatform(req.Platform)

	lead, err := h.svc.RecordInteraction(c.Request.Context(), c.Param("userId"), service.Interaction{
		Message: req.Message,
		Items: domain.DetectedItems{
			Symptoms:      req.Symptoms,
			Surgeries:     req.Surgeries,
			Doctors:       req.Doctors,
			BookingIntent: req.BookingIntent,
			PriceInquiry:  req.PriceInquiry,
		},
		Platform: platform,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, false))
}

// MarkConverted records a confirmed booking.
// POST /api/v1/ingest/leads/:userId/converted
func (h *Handler) MarkConverted(c *gin.Context) {
	lead, err := h.svc.MarkConverted(c.Request.Context(), c.Param("userId"), actorIngest)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, false))
}

func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := httpkit.BindStrictJSON(c, dst); err != nil {
		httpkit.HandleError(c, err)
		return false
	}
	if err := h.val.Struct(dst); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.Messages(err)))
		return false
	}
	return true
}
