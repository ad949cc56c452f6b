package exports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/platform/db"
)

// ConversionEvent is a funnel milestone eligible for ad platform export.
type ConversionEvent struct {
	EventID    uuid.UUID
	UserID     string
	Platform   string
	EventType  string
	OccurredAt time.Time
	Score      int
}

// ExportRecord marks one conversion as handed off.
type ExportRecord struct {
	EventID        uuid.UUID
	ConversionName string
}

// Repository provides data access for export operations.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListConversionEvents returns exportable milestones in [from, to], oldest first.
func (r *Repository) ListConversionEvents(ctx context.Context, from time.Time, to time.Time, limit int) ([]ConversionEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.user_id, l.platform, e.event_type, e.created_at, l.lead_score
		FROM conversion_events e
		JOIN marketing_leads l ON l.user_id = e.user_id
		WHERE e.event_type IN ('became_hot', 'booking_intent', 'converted')
			AND e.created_at >= $1 AND e.created_at <= $2
		ORDER BY e.created_at ASC, e.id ASC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, db.MapError("exports.list_conversion_events", err)
	}
	defer rows.Close()

	events := make([]ConversionEvent, 0)
	for rows.Next() {
		var e ConversionEvent
		if err := rows.Scan(&e.EventID, &e.UserID, &e.Platform, &e.EventType, &e.OccurredAt, &e.Score); err != nil {
			return nil, db.MapError("exports.list_conversion_events", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError("exports.list_conversion_events", err)
	}
	return events, nil
}

// ListExportedKeys returns "eventID::conversionName" for every already exported pair.
func (r *Repository) ListExportedKeys(ctx context.Context, eventIDs []uuid.UUID) (map[string]struct{}, error) {
	result := make(map[string]struct{})
	if len(eventIDs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT event_id, conversion_name
		FROM conversion_exports
		WHERE event_id = ANY($1)`, eventIDs)
	if err != nil {
		return nil, db.MapError("exports.list_exported_keys", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, db.MapError("exports.list_exported_keys", err)
		}
		result[exportKey(id, name)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError("exports.list_exported_keys", err)
	}
	return result, nil
}

// RecordExports stores the handed off conversions. Duplicates are ignored.
func (r *Repository) RecordExports(ctx context.Context, records []ExportRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO conversion_exports (event_id, conversion_name)
			VALUES ($1, $2)
			ON CONFLICT (event_id, conversion_name) DO NOTHING`, rec.EventID, rec.ConversionName)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for range records {
		if _, err := br.Exec(); err != nil {
			return db.MapError("exports.record_exports", err)
		}
	}
	return nil
}

func exportKey(eventID uuid.UUID, conversionName string) string {
	return eventID.String() + "::" + conversionName
}
