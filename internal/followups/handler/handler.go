package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic_marketing_backend/internal/followups/service"
	"clinic_marketing_backend/internal/followups/transport"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/httpkit"
	"clinic_marketing_backend/platform/validator"
)

// Handler handles HTTP requests for follow-ups.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new follow-up handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListDue returns leads due for a nudge with the text to send.
// GET /api/v1/ingest/follow-ups/due
func (h *Handler) ListDue(c *gin.Context) {
	var req transport.DueRequest
	if !h.bindQuery(c, &req) {
		return
	}
	due, err := h.svc.Due(c.Request.Context(), req.Type, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	items := make([]transport.DueResponse, 0, len(due))
	for _, d := range due {
		items = append(items, transport.ToDueResponse(d))
	}
	httpkit.OK(c, gin.H{"items": items})
}

// Schedule records a follow-up the agent is sending.
// POST /api/v1/ingest/follow-ups
func (h *Handler) Schedule(c *gin.Context) {
	var req transport.ScheduleRequest
	if !h.bind(c, &req) {
		return
	}
	f, created, err := h.svc.Schedule(c.Request.Context(), req.UserID, req.Type)
	if httpkit.HandleError(c, err) {
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, transport.ScheduleResponse{FollowUp: transport.ToFollowUpResponse(f), Created: created})
}

// RecordResponse marks that the lead answered a follow-up.
// POST /api/v1/ingest/follow-ups/:userId/response
func (h *Handler) RecordResponse(c *gin.Context) {
	var req transport.ResponseRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	f, err := h.svc.RecordResponse(c.Request.Context(), c.Param("userId"), req.Type)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponse(f))
}

// Recommend says whether the lead should be nudged now.
// GET /api/v1/ingest/follow-ups/:userId/recommendation
func (h *Handler) Recommend(c *gin.Context) {
	rec, err := h.svc.Recommend(c.Request.Context(), c.Param("userId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRecommendationResponse(rec))
}

// ListRecent lists the latest follow-ups for the dashboard.
// GET /api/v1/admin/follow-ups/recent
func (h *Handler) ListRecent(c *gin.Context) {
	var req transport.RecentRequest
	if !h.bindQuery(c, &req) {
		return
	}
	recent, err := h.svc.Recent(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	items := make([]transport.RecentFollowUpResponse, 0, len(recent))
	for _, r := range recent {
		items = append(items, transport.RecentFollowUpResponse{
			FollowUpResponse: transport.ToFollowUpResponse(r.FollowUp),
			Score:            r.Score,
			Status:           r.Status,
		})
	}
	httpkit.OK(c, gin.H{"items": items})
}

// Plan runs the planner now instead of waiting for the scheduler.
// POST /api/v1/admin/follow-ups/plan
func (h *Handler) Plan(c *gin.Context) {
	result, err := h.svc.Plan(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPlanResponse(result))
}

func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := httpkit.BindStrictJSON(c, dst); err != nil {
		httpkit.HandleError(c, err)
		return false
	}
	return h.validate(c, dst)
}

func (h *Handler) bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	return h.validate(c, dst)
}

func (h *Handler) validate(c *gin.Context, dst interface{}) bool {
	if err := h.val.Struct(dst); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.Messages(err)))
		return false
	}
	return true
}
