package exports

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinic_marketing_backend/platform/httpkit"
	"clinic_marketing_backend/platform/logger"
)

const (
	defaultTimezone = "Asia/Baku"
	dateLayout      = "2006-01-02"
	platformPhone   = "whatsapp"
)

// conversionStore is the repository surface the CSV export needs.
type conversionStore interface {
	ListConversionEvents(ctx context.Context, from, to time.Time, limit int) ([]ConversionEvent, error)
	ListExportedKeys(ctx context.Context, eventIDs []uuid.UUID) (map[string]struct{}, error)
	RecordExports(ctx context.Context, records []ExportRecord) error
}

// Handler handles export requests.
type Handler struct {
	repo     conversionStore
	snapshot *Snapshotter
	log      *logger.Logger
}

// NewHandler creates a new export handler.
func NewHandler(repo conversionStore, snapshot *Snapshotter, log *logger.Logger) *Handler {
	return &Handler{repo: repo, snapshot: snapshot, log: log}
}

// ---- Analytics snapshots ----

// POST /api/v1/admin/exports/analytics
func (h *Handler) ExportAnalytics(c *gin.Context) {
	result, err := h.snapshot.Export(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GET /api/v1/admin/exports/analytics/:date
func (h *Handler) GetAnalyticsExport(c *gin.Context) {
	data, err := h.snapshot.Open(c.Request.Context(), c.Param("date"))
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, snapshotContentType, data)
}

// ---- Offline conversion CSV ----

// ExportConversionsCSV writes funnel milestones for ad platform upload. Rows
// already exported are skipped so repeated pulls only carry new conversions.
// GET /api/v1/admin/exports/conversions.csv
func (h *Handler) ExportConversionsCSV(c *gin.Context) {
	fromDate, toDate, err := parseDateRange(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	limit := parseLimit(c, 5000, 50000)
	useEnhanced := parseBool(c.Query("enhanced"))

	location, tzName, ok := parseTimezone(c)
	if !ok {
		return
	}

	events, err := h.repo.ListConversionEvents(c.Request.Context(), fromDate, toDate, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	rows := buildConversionRows(events, location, useEnhanced)
	if len(rows) == 0 {
		writeEmptyCsv(c, tzName, useEnhanced)
		return
	}

	exportedKeys, err := h.repo.ListExportedKeys(c.Request.Context(), collectEventIDs(rows))
	if httpkit.HandleError(c, err) {
		return
	}

	writer, ok := startCsvResponse(c, tzName, useEnhanced)
	if !ok {
		return
	}

	records, ok := writeConversionRows(writer, rows, exportedKeys, useEnhanced)
	if !ok {
		return
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return
	}

	// The CSV is already sent; an unrecorded batch is exported again on the next pull.
	if err := h.repo.RecordExports(c.Request.Context(), records); err != nil {
		h.log.WithContext(c.Request.Context()).Error("conversion export not recorded",
			"error", err, "rows", len(records))
	}
}

// ---- Helpers ----

type conversionRow struct {
	EventID        uuid.UUID
	UserID         string
	Platform       string
	ConversionName string
	ConversionTime time.Time
	LeadScore      int
	HashedPhone    string
}

func (r conversionRow) CSV(useEnhanced bool) []string {
	fields := []string{
		r.UserID,
		r.ConversionName,
		formatConversionTime(r.ConversionTime),
		strconv.Itoa(r.LeadScore),
		r.Platform,
		r.EventID.String(),
	}
	if useEnhanced {
		fields = append(fields, r.HashedPhone)
	}
	return fields
}

func csvHeaders(useEnhanced bool) []string {
	headers := []string{
		"Lead ID",
		"Conversion Name",
		"Conversion Time",
		"Lead Score",
		"Platform",
		"Order ID",
	}
	if useEnhanced {
		headers = append(headers, "Phone Number")
	}
	return headers
}

func parseTimezone(c *gin.Context) (*time.Location, string, bool) {
	tzName := strings.TrimSpace(c.DefaultQuery("timezone", defaultTimezone))
	location, err := time.LoadLocation(tzName)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid timezone", nil)
		return nil, "", false
	}
	return location, tzName, true
}

func writeEmptyCsv(c *gin.Context, tzName string, useEnhanced bool) {
	writer, ok := startCsvResponse(c, tzName, useEnhanced)
	if ok {
		writer.Flush()
	}
}

func collectEventIDs(rows []conversionRow) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.EventID)
	}
	return ids
}

func startCsvResponse(c *gin.Context, tzName string, useEnhanced bool) (*csv.Writer, bool) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=briz-l-conversions.csv")
	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{fmt.Sprintf("Parameters:TimeZone=%s", tzName)}); err != nil {
		return nil, false
	}
	if err := writer.Write(csvHeaders(useEnhanced)); err != nil {
		return nil, false
	}
	return writer, true
}

func writeConversionRows(writer *csv.Writer, rows []conversionRow, exportedKeys map[string]struct{}, useEnhanced bool) ([]ExportRecord, bool) {
	records := make([]ExportRecord, 0, len(rows))
	for _, row := range rows {
		if _, exists := exportedKeys[exportKey(row.EventID, row.ConversionName)]; exists {
			continue
		}
		if err := writer.Write(row.CSV(useEnhanced)); err != nil {
			return nil, false
		}
		records = append(records, ExportRecord{EventID: row.EventID, ConversionName: row.ConversionName})
	}
	return records, true
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	defaultFrom := now.AddDate(0, 0, -90)

	fromStr := strings.TrimSpace(c.DefaultQuery("fromDate", ""))
	toStr := strings.TrimSpace(c.DefaultQuery("toDate", ""))

	from := defaultFrom
	to := now

	if fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}

	if toStr != "" {
		parsed, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("toDate before fromDate")
	}

	return from, to, nil
}

func parseLimit(c *gin.Context, fallback int, max int) int {
	limit := fallback
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if limit > max {
		return max
	}
	if limit < 1 {
		return fallback
	}
	return limit
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func buildConversionRows(events []ConversionEvent, location *time.Location, includeEnhanced bool) []conversionRow {
	rows := make([]conversionRow, 0, len(events))
	for _, event := range events {
		conversionName := mapConversionName(event.EventType)
		if conversionName == "" {
			continue
		}

		hashedPhone := ""
		if includeEnhanced && event.Platform == platformPhone {
			hashedPhone = hashPhone(event.UserID)
		}

		rows = append(rows, conversionRow{
			EventID:        event.EventID,
			UserID:         event.UserID,
			Platform:       event.Platform,
			ConversionName: conversionName,
			ConversionTime: event.OccurredAt.In(location),
			LeadScore:      event.Score,
			HashedPhone:    hashedPhone,
		})
	}
	return rows
}

func mapConversionName(eventType string) string {
	switch eventType {
	case "became_hot":
		return "Lead_Qualified"
	case "booking_intent":
		return "Booking_Intent"
	case "converted":
		return "Appointment_Booked"
	}
	return ""
}

func formatConversionTime(value time.Time) string {
	return value.Format("2006-01-02 15:04:05-0700")
}

func hashPhone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	cleaned := strings.Builder{}
	for _, r := range value {
		if r >= '0' && r <= '9' {
			cleaned.WriteRune(r)
		}
	}

	normalized := cleaned.String()
	if normalized == "" {
		return ""
	}

	return sha256Sum("+" + normalized)
}

func sha256Sum(value string) string {
	hash := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", hash)
}
