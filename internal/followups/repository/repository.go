package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/followups/domain"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/db"
)

const dateLayout = "2006-01-02"

const (
	followUpColumns = `id, user_id, follow_up_type, sent_at, response_received, responded_at`

	dueQuery = `
		SELECT l.user_id, l.platform, l.lead_score, l.lead_status, l.last_interaction,
			l.symptoms, l.surgeries_interested
		FROM marketing_leads l
		WHERE l.booking_intent_detected = FALSE
			AND l.lead_status IN ('cold', 'warm', 'hot')
			AND l.last_interaction < $2
			AND NOT EXISTS (
				SELECT 1 FROM follow_ups f
				WHERE f.user_id = l.user_id AND f.follow_up_type = $1
			)
		ORDER BY l.lead_score DESC, l.last_interaction ASC, l.user_id ASC
		LIMIT $3`

	insertQuery = `
		INSERT INTO follow_ups (id, user_id, follow_up_type, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id, follow_up_type) DO NOTHING`

	bumpSentQuery = `
		INSERT INTO marketing_analytics (date, follow_ups_sent, updated_at)
		VALUES ($1::date, 1, NOW())
		ON CONFLICT (date) DO UPDATE SET
			follow_ups_sent = marketing_analytics.follow_ups_sent + 1,
			updated_at = NOW()`

	respondQuery = `
		UPDATE follow_ups SET response_received = TRUE, responded_at = $3
		WHERE id = (
			SELECT id FROM follow_ups
			WHERE user_id = $1 AND response_received = FALSE
				AND ($2 = '' OR follow_up_type = $2)
			ORDER BY sent_at DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING ` + followUpColumns

	bumpResponsesQuery = `
		INSERT INTO marketing_analytics (date, follow_up_responses, updated_at)
		VALUES ($1::date, 1, NOW())
		ON CONFLICT (date) DO UPDATE SET
			follow_up_responses = marketing_analytics.follow_up_responses + 1,
			updated_at = NOW()`

	recentQuery = `
		SELECT f.id, f.user_id, f.follow_up_type, f.sent_at, f.response_received, f.responded_at,
			l.lead_score, l.lead_status
		FROM follow_ups f
		JOIN marketing_leads l ON l.user_id = f.user_id
		ORDER BY f.sent_at DESC, f.id
		LIMIT $1`
)

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new follow-up repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) Due(ctx context.Context, t domain.Type, cutoff time.Time, limit int) ([]domain.Candidate, error) {
	rows, err := r.pool.Query(ctx, dueQuery, string(t), cutoff, limit)
	if err != nil {
		return nil, db.MapError("followups.due", err)
	}
	defer rows.Close()

	out := make([]domain.Candidate, 0, limit)
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.UserID, &c.Platform, &c.Score, &c.Status, &c.LastInteraction, &c.Symptoms, &c.Surgeries); err != nil {
			return nil, db.MapError("followups.due", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError("followups.due", err)
	}
	return out, nil
}

// Schedule inserts the follow-up and bumps follow_ups_sent for its day in one
// transaction. A duplicate leaves the counter alone.
func (r *Repo) Schedule(ctx context.Context, userID string, t domain.Type, sentAt time.Time) (domain.FollowUp, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.FollowUp{}, false, db.MapError("followups.schedule", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, insertQuery, uuid.New(), userID, string(t), sentAt)
	if err != nil {
		return domain.FollowUp{}, false, db.MapError("followups.schedule", err)
	}
	created := tag.RowsAffected() == 1
	if created {
		if _, err := tx.Exec(ctx, bumpSentQuery, sentAt.UTC().Format(dateLayout)); err != nil {
			return domain.FollowUp{}, false, db.MapError("followups.schedule", err)
		}
	}

	f, err := scanFollowUp(tx.QueryRow(ctx,
		`SELECT `+followUpColumns+` FROM follow_ups WHERE user_id = $1 AND follow_up_type = $2`,
		userID, string(t)))
	if err != nil {
		return domain.FollowUp{}, false, db.MapError("followups.schedule", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.FollowUp{}, false, db.MapError("followups.schedule", err)
	}
	return f, created, nil
}

func (r *Repo) RecordResponse(ctx context.Context, userID string, t domain.Type, at time.Time) (domain.FollowUp, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.FollowUp{}, db.MapError("followups.record_response", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	f, err := scanFollowUp(tx.QueryRow(ctx, respondQuery, userID, string(t), at))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FollowUp{}, apperr.NotFound("no pending follow-up for lead").WithOp("followups.record_response")
	}
	if err != nil {
		return domain.FollowUp{}, db.MapError("followups.record_response", err)
	}
	if _, err := tx.Exec(ctx, bumpResponsesQuery, at.UTC().Format(dateLayout)); err != nil {
		return domain.FollowUp{}, db.MapError("followups.record_response", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.FollowUp{}, db.MapError("followups.record_response", err)
	}
	return f, nil
}

func (r *Repo) LeadState(ctx context.Context, userID string) (domain.LeadState, error) {
	var s domain.LeadState
	var sent []string
	err := r.pool.QueryRow(ctx, `
		SELECT l.user_id, l.platform, l.lead_score, l.lead_status, l.last_interaction,
			l.symptoms, l.surgeries_interested, l.booking_intent_detected,
			COALESCE(ARRAY(SELECT f.follow_up_type FROM follow_ups f WHERE f.user_id = l.user_id), '{}')
		FROM marketing_leads l
		WHERE l.user_id = $1`, userID,
	).Scan(&s.UserID, &s.Platform, &s.Score, &s.Status, &s.LastInteraction,
		&s.Symptoms, &s.Surgeries, &s.BookingIntent, &sent)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LeadState{}, apperr.NotFound("lead not found").WithOp("followups.lead_state")
	}
	if err != nil {
		return domain.LeadState{}, db.MapError("followups.lead_state", err)
	}
	for _, raw := range sent {
		if t, ok := domain.ParseType(raw); ok {
			s.SentTypes = append(s.SentTypes, t)
		}
	}
	return s, nil
}

func (r *Repo) Recent(ctx context.Context, limit int) ([]domain.RecentFollowUp, error) {
	rows, err := r.pool.Query(ctx, recentQuery, limit)
	if err != nil {
		return nil, db.MapError("followups.recent", err)
	}
	defer rows.Close()

	out := make([]domain.RecentFollowUp, 0, limit)
	for rows.Next() {
		var f domain.RecentFollowUp
		var t string
		if err := rows.Scan(&f.ID, &f.UserID, &t, &f.SentAt, &f.ResponseReceived, &f.RespondedAt, &f.Score, &f.Status); err != nil {
			return nil, db.MapError("followups.recent", err)
		}
		f.Type = domain.Type(t)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError("followups.recent", err)
	}
	return out, nil
}

func scanFollowUp(row pgx.Row) (domain.FollowUp, error) {
	var f domain.FollowUp
	var t string
	if err := row.Scan(&f.ID, &f.UserID, &t, &f.SentAt, &f.ResponseReceived, &f.RespondedAt); err != nil {
		return domain.FollowUp{}, err
	}
	f.Type = domain.Type(t)
	return f, nil
}
