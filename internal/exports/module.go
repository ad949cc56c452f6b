// Package exports provides analytics snapshots in object storage and the
// offline conversion CSV for ad platforms.
package exports

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/adapters/storage"
	apphttp "clinic_marketing_backend/internal/http"
	"clinic_marketing_backend/platform/logger"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler  *Handler
	snapshot *Snapshotter
}

// NewModule creates and initializes the exports module. store may be nil.
func NewModule(pool *pgxpool.Pool, analytics AnalyticsSource, store storage.StorageService, bucket string, log *logger.Logger) *Module {
	snapshot := NewSnapshotter(analytics, store, bucket, log)
	return &Module{
		handler:  NewHandler(NewRepository(pool), snapshot, log),
		snapshot: snapshot,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// Snapshotter returns the snapshot writer for the scheduler.
func (m *Module) Snapshotter() *Snapshotter {
	return m.snapshot
}

// RegisterRoutes mounts export routes on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	adminGroup := ctx.Admin.Group("/exports")
	adminGroup.POST("/analytics", m.handler.ExportAnalytics)
	adminGroup.GET("/analytics/:date", m.handler.GetAnalyticsExport)
	adminGroup.GET("/conversions.csv", m.handler.ExportConversionsCSV)
}

var _ apphttp.Module = (*Module)(nil)
