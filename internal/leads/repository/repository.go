package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/leads/domain"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/db"
)

const leadNotFoundMessage = "lead not found"

const leadColumns = `
	user_id, platform, first_contact, last_interaction, total_messages,
	symptoms, surgeries_interested, doctors_inquired, lead_score, lead_status,
	status_locked, booking_intent_detected, price_inquiry_detected,
	conversation_history, created_at, updated_at`

// Repo implements LeadStore on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new lead repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements LeadStore.
var _ LeadStore = (*Repo)(nil)

// Mutate inserts the lead if allowed, locks the row, applies fn and writes the
// result together with its conversion events.
func (r *Repo) Mutate(ctx context.Context, userID string, platform domain.Platform, create bool, fn MutateFunc) (domain.Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, db.MapError("leads.mutate", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := false
	now := time.Now().UTC()
	if create {
		fresh := domain.NewLead(userID, platform, now)
		tag, err := tx.Exec(ctx, `
			INSERT INTO marketing_leads (user_id, platform, first_contact, last_interaction, created_at, updated_at)
			VALUES ($1, $2, $3, $3, $3, $3)
			ON CONFLICT (user_id) DO NOTHING`,
			fresh.UserID, string(fresh.Platform), now,
		)
		if err != nil {
			return domain.Lead{}, db.MapError("leads.mutate", fmt.Errorf("insert lead: %w", err))
		}
		created = tag.RowsAffected() == 1
	}

	lead, err := scanLead(tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM marketing_leads WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		return domain.Lead{}, mapLeadError("leads.mutate", err)
	}

	events, err := fn(&lead, created)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.UpdatedAt = now

	if err := updateLead(ctx, tx, &lead); err != nil {
		return domain.Lead{}, db.MapError("leads.mutate", err)
	}
	if err := insertEvents(ctx, tx, events); err != nil {
		return domain.Lead{}, db.MapError("leads.mutate", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, db.MapError("leads.mutate", err)
	}
	return lead, nil
}

// GetByUserID retrieves one lead.
func (r *Repo) GetByUserID(ctx context.Context, userID string) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM marketing_leads WHERE user_id = $1`, userID))
	if err != nil {
		return domain.Lead{}, mapLeadError("leads.get", err)
	}
	return lead, nil
}

// List lists leads with an optional status filter and pagination.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	where, args := listFilter(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM marketing_leads"+where, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError("leads.list", fmt.Errorf("count leads: %w", err))
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM marketing_leads%s
		ORDER BY last_interaction DESC, user_id ASC
		LIMIT $%d OFFSET $%d`, leadColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.MapError("leads.list", fmt.Errorf("list leads: %w", err))
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, db.MapError("leads.list", fmt.Errorf("scan lead: %w", err))
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, 0, db.MapError("leads.list", fmt.Errorf("iterate leads: %w", rows.Err()))
	}
	return items, total, nil
}

func listFilter(params ListParams) (string, []interface{}) {
	if params.Status == nil {
		return "", nil
	}
	return " WHERE lead_status = $1", []interface{}{string(*params.Status)}
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var platform, status string
	var history []byte
	if err := row.Scan(
		&lead.UserID, &platform, &lead.FirstContact, &lead.LastInteraction, &lead.TotalMessages,
		&lead.Symptoms, &lead.SurgeriesInterested, &lead.DoctorsInquired, &lead.Score, &status,
		&lead.StatusLocked, &lead.BookingIntentDetected, &lead.PriceInquiryDetected,
		&history, &lead.CreatedAt, &lead.UpdatedAt,
	); err != nil {
		return domain.Lead{}, err
	}
	lead.Platform = domain.Platform(platform)
	lead.Status = domain.Status(status)
	if len(history) > 0 {
		if err := json.Unmarshal(history, &lead.History); err != nil {
			return domain.Lead{}, fmt.Errorf("decode conversation history: %w", err)
		}
	}
	if lead.History == nil {
		lead.History = []domain.HistoryEntry{}
	}
	return lead, nil
}

func updateLead(ctx context.Context, tx pgx.Tx, lead *domain.Lead) error {
	history, err := json.Marshal(lead.History)
	if err != nil {
		return fmt.Errorf("encode conversation history: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE marketing_leads SET
			last_interaction = $2,
			total_messages = $3,
			symptoms = $4,
			surgeries_interested = $5,
			doctors_inquired = $6,
			lead_score = $7,
			lead_status = $8,
			status_locked = $9,
			booking_intent_detected = $10,
			price_inquiry_detected = $11,
			conversation_history = $12,
			updated_at = $13,
			first_contact = $14
		WHERE user_id = $1`,
		lead.UserID, lead.LastInteraction, lead.TotalMessages,
		nonNil(lead.Symptoms), nonNil(lead.SurgeriesInterested), nonNil(lead.DoctorsInquired),
		lead.Score, string(lead.Status), lead.StatusLocked,
		lead.BookingIntentDetected, lead.PriceInquiryDetected,
		history, lead.UpdatedAt, lead.FirstContact,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return nil
}

func insertEvents(ctx context.Context, tx pgx.Tx, events []domain.ConversionEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		data := ev.Data
		if data == nil {
			data = map[string]interface{}{}
		}
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode event data: %w", err)
		}
		createdAt := ev.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO conversion_events (id, user_id, event_type, event_data, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), ev.UserID, ev.EventType, payload, createdAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert conversion events: %w", err)
	}
	return nil
}

func mapLeadError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(leadNotFoundMessage).WithOp(op)
	}
	return db.MapError(op, err)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
