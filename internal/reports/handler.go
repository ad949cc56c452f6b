package reports

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic_marketing_backend/internal/email"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/httpkit"
	"clinic_marketing_backend/platform/validator"
)

// SendRequest selects the report to mail.
type SendRequest struct {
	Type string `json:"type" validate:"omitempty,oneof=daily weekly monthly"`
}

// PreviewRequest selects the report to build.
type PreviewRequest struct {
	Type string `form:"type" validate:"omitempty,oneof=daily weekly monthly"`
}

// ReportResponse is a report as rendered for the dashboard.
type ReportResponse struct {
	Kind              string             `json:"kind"`
	From              string             `json:"from"`
	To                string             `json:"to"`
	TotalLeads        int                `json:"totalLeads"`
	HotLeads          int                `json:"hotLeads"`
	BookingIntents    int                `json:"bookingIntents"`
	FollowUpsSent     int                `json:"followUpsSent"`
	FollowUpResponses int                `json:"followUpResponses"`
	AvgMessages       float64            `json:"avgMessages"`
	AvgScore          float64            `json:"avgScore"`
	HighlyEngaged     int                `json:"highlyEngaged"`
	Funnel            []email.FunnelLine `json:"funnel"`
	TopSurgeries      []email.RankedItem `json:"topSurgeries"`
	RecentHotLeads    []email.LeadLine   `json:"recentHotLeads"`
}

// SendResponse reports whether the mail went out.
type SendResponse struct {
	Report ReportResponse `json:"report"`
	Sent   bool           `json:"sent"`
}

// Handler handles report requests.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates a new report handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Preview builds a report without sending it.
// GET /api/v1/admin/reports/preview
func (h *Handler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if !h.validate(c, &req) {
		return
	}
	kind, err := ParseKind(req.Type)
	if httpkit.HandleError(c, err) {
		return
	}
	report, err := h.svc.Build(c.Request.Context(), kind)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toReportResponse(report))
}

// Send mails a report to the admin now.
// POST /api/v1/admin/reports/send
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if c.Request.ContentLength != 0 {
		if err := httpkit.BindStrictJSON(c, &req); err != nil {
			httpkit.HandleError(c, err)
			return
		}
	}
	if !h.validate(c, &req) {
		return
	}
	kind, err := ParseKind(req.Type)
	if httpkit.HandleError(c, err) {
		return
	}
	result, err := h.svc.Send(c.Request.Context(), kind)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, SendResponse{Report: toReportResponse(result.Report), Sent: result.Sent})
}

func (h *Handler) validate(c *gin.Context, dst interface{}) bool {
	if err := h.val.Struct(dst); err != nil {
		httpkit.HandleError(c, apperr.Validation("validation failed").WithDetails(validator.Messages(err)))
		return false
	}
	return true
}

func toReportResponse(r email.Report) ReportResponse {
	return ReportResponse{
		Kind:              r.Kind,
		From:              r.From,
		To:                r.To,
		TotalLeads:        r.TotalLeads,
		HotLeads:          r.HotLeads,
		BookingIntents:    r.BookingIntents,
		FollowUpsSent:     r.FollowUpsSent,
		FollowUpResponses: r.FollowUpResponses,
		AvgMessages:       r.AvgMessages,
		AvgScore:          r.AvgScore,
		HighlyEngaged:     r.HighlyEngaged,
		Funnel:            emptyIfNil(r.Funnel),
		TopSurgeries:      emptyIfNil(r.TopSurgeries),
		RecentHotLeads:    emptyIfNil(r.RecentHotLeads),
	}
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
