package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic_marketing_backend/internal/analytics/service"
	"clinic_marketing_backend/internal/analytics/transport"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/httpkit"
	"clinic_marketing_backend/platform/validator"
)

// Handler handles HTTP requests for analytics.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const msgInvalidQuery = "invalid query parameters"

// New creates a new analytics handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GET /api/v1/admin/analytics/stats
func (h *Handler) LeadStats(c *gin.Context) {
	result, err := h.svc.LeadStats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/analytics/funnel
func (h *Handler) Funnel(c *gin.Context) {
	result, err := h.svc.ConversionFunnel(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/analytics/top-surgeries?limit=
func (h *Handler) TopSurgeries(c *gin.Context) {
	var req transport.LimitRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.svc.TopSurgeries(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GET /api/v1/admin/analytics/top-symptoms?limit=
func (h *Handler) TopSymptoms(c *gin.Context) {
	var req transport.LimitRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.svc.TopSymptoms(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GET /api/v1/admin/analytics/daily?days=
func (h *Handler) DailyStats(c *gin.Context) {
	var req transport.DaysRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.svc.DailyStats(c.Request.Context(), req.Days)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GET /api/v1/admin/analytics/hot-leads?limit=
func (h *Handler) HotLeads(c *gin.Context) {
	var req transport.LimitRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.svc.RecentHotLeads(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GET /api/v1/admin/analytics/score-distribution
func (h *Handler) ScoreDistribution(c *gin.Context) {
	result, err := h.svc.ScoreDistribution(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"buckets": result})
}

// GET /api/v1/admin/analytics/engagement
func (h *Handler) Engagement(c *gin.Context) {
	result, err := h.svc.EngagementMetrics(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/analytics/events?days=
func (h *Handler) EventCounts(c *gin.Context) {
	var req transport.DaysRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.svc.EventCounts(c.Request.Context(), req.Days)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/analytics/conversion-events?limit=
func (h *Handler) ConversionEvents(c *gin.Context) {
	var req transport.LimitRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.svc.RecentConversionEvents(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GET /api/v1/admin/analytics/follow-ups
func (h *Handler) FollowUpEffectiveness(c *gin.Context) {
	result, err := h.svc.FollowUpEffectiveness(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GET /api/v1/admin/analytics/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	result, err := h.svc.Dashboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// POST /api/v1/admin/analytics/rollup
func (h *Handler) Rollup(c *gin.Context) {
	var req transport.RollupRequest
	if c.Request.ContentLength != 0 {
		if err := httpkit.BindStrictJSON(c, &req); httpkit.HandleError(c, err) {
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("validation failed").WithDetails(validator.Messages(err)))
		return
	}
	result, err := h.svc.Rollup(c.Request.Context(), req.Date)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidQuery, nil)
		return false
	}
	return true
}
