package exports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"clinic_marketing_backend/internal/adapters/storage"
	"clinic_marketing_backend/internal/analytics/transport"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/logger"
)

const (
	snapshotPrefix      = "analytics/"
	snapshotContentType = "application/json"
	snapshotEventDays   = 30
)

// AnalyticsSource is the slice of the analytics service a snapshot reads.
type AnalyticsSource interface {
	Dashboard(ctx context.Context) (transport.DashboardResponse, error)
	ScoreDistribution(ctx context.Context) ([]transport.ScoreBucketResponse, error)
	EngagementMetrics(ctx context.Context) (transport.EngagementResponse, error)
	EventCounts(ctx context.Context, days int) (transport.EventCountsResponse, error)
	FollowUpEffectiveness(ctx context.Context) ([]transport.FollowUpStatResponse, error)
}

// Snapshot is the JSON document written to object storage once per day.
type Snapshot struct {
	Date              string                           `json:"date"`
	GeneratedAt       time.Time                        `json:"generatedAt"`
	Dashboard         transport.DashboardResponse      `json:"dashboard"`
	ScoreDistribution []transport.ScoreBucketResponse  `json:"scoreDistribution"`
	Engagement        transport.EngagementResponse     `json:"engagement"`
	EventCounts       transport.EventCountsResponse    `json:"eventCounts"`
	FollowUps         []transport.FollowUpStatResponse `json:"followUps"`
}

// ExportResult points at an uploaded snapshot.
type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	SizeBytes int       `json:"sizeBytes"`
}

// Snapshotter builds analytics snapshots and stores them in MinIO.
type Snapshotter struct {
	analytics AnalyticsSource
	store     storage.StorageService
	bucket    string
	log       *logger.Logger
	now       func() time.Time
}

// NewSnapshotter creates a snapshotter. store may be nil when MinIO is not
// configured; exports then fail with an unavailable error.
func NewSnapshotter(analytics AnalyticsSource, store storage.StorageService, bucket string, log *logger.Logger) *Snapshotter {
	return &Snapshotter{
		analytics: analytics,
		store:     store,
		bucket:    bucket,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SnapshotKey is the object key for one day's snapshot.
func SnapshotKey(date string) string {
	return snapshotPrefix + date + ".json"
}

// Build collects every section of the snapshot concurrently.
func (s *Snapshotter) Build(ctx context.Context) (Snapshot, error) {
	now := s.now()
	snap := Snapshot{Date: now.Format(dateLayout), GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Dashboard, err = s.analytics.Dashboard(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.ScoreDistribution, err = s.analytics.ScoreDistribution(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Engagement, err = s.analytics.EngagementMetrics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.EventCounts, err = s.analytics.EventCounts(gctx, snapshotEventDays)
		return err
	})
	g.Go(func() error {
		var err error
		snap.FollowUps, err = s.analytics.FollowUpEffectiveness(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Export builds today's snapshot, uploads it and returns a presigned link.
// Rerunning on the same day overwrites the object.
func (s *Snapshotter) Export(ctx context.Context) (ExportResult, error) {
	if s.store == nil {
		return ExportResult{}, apperr.Unavailable("object storage not configured").WithOp("exports.analytics")
	}

	snap, err := s.Build(ctx)
	if err != nil {
		return ExportResult{}, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return ExportResult{}, apperr.Wrap(apperr.KindInternal, "encode snapshot", err).WithOp("exports.analytics")
	}

	key := SnapshotKey(snap.Date)
	if err := s.store.PutObject(ctx, s.bucket, key, snapshotContentType, data); err != nil {
		return ExportResult{}, apperr.Wrap(apperr.KindUnavailable, "upload snapshot", err).WithOp("exports.analytics")
	}
	link, err := s.store.GenerateDownloadURL(ctx, s.bucket, key)
	if err != nil {
		return ExportResult{}, apperr.Wrap(apperr.KindUnavailable, "presign snapshot", err).WithOp("exports.analytics")
	}

	s.log.Info("analytics snapshot exported", "key", key, "bytes", len(data))
	return ExportResult{Key: key, URL: link.URL, ExpiresAt: link.ExpiresAt, SizeBytes: len(data)}, nil
}

// Open reads a stored snapshot back.
func (s *Snapshotter) Open(ctx context.Context, date string) ([]byte, error) {
	if s.store == nil {
		return nil, apperr.Unavailable("object storage not configured").WithOp("exports.open")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date)).WithOp("exports.open")
	}
	body, err := s.store.DownloadFile(ctx, s.bucket, SnapshotKey(date))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "download snapshot", err).WithOp("exports.open")
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if storage.IsNotFound(err) {
		return nil, apperr.NotFound("no snapshot for " + date).WithOp("exports.open")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "download snapshot", err).WithOp("exports.open")
	}
	return data, nil
}
