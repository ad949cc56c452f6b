// Package notification turns lead events into admin alerts.
package notification

import (
	"context"
	"strings"

	"clinic_marketing_backend/internal/email"
	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
)

// AlertQueue defers alert delivery to the background worker.
type AlertQueue interface {
	EnqueueHotLeadAlert(ctx context.Context, alert email.HotLeadAlert) error
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender     email.Sender
	adminEmail string
	enabled    bool
	queue      AlertQueue
	log        *logger.Logger
}

// New creates a new notification module.
func New(sender email.Sender, cfg config.SMTPConfig, log *logger.Logger) *Module {
	return &Module{
		sender:     sender,
		adminEmail: strings.TrimSpace(cfg.GetAdminReportEmail()),
		enabled:    cfg.IsSMTPEnabled(),
		log:        log,
	}
}

// SetAlertQueue routes alerts through the queue instead of sending inline.
func (m *Module) SetAlertQueue(queue AlertQueue) {
	m.queue = queue
}

func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadBecameHot{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadBecameHot:
		return m.handleLeadBecameHot(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadBecameHot(ctx context.Context, e events.LeadBecameHot) error {
	log := m.log.WithLead(e.UserID)
	if !m.enabled {
		log.Info("smtp disabled, skipping hot lead alert", "score", e.Score)
		return nil
	}

	alert := email.HotLeadAlert{
		UserID:         e.UserID,
		Platform:       e.Platform,
		Score:          e.Score,
		PreviousStatus: e.PreviousStatus,
		Symptoms:       e.Symptoms,
		Surgeries:      e.Surgeries,
		Doctors:        e.Doctors,
		BookingIntent:  e.BookingIntent,
		UrgentSymptoms: e.UrgentSymptoms,
	}

	if m.queue != nil {
		if err := m.queue.EnqueueHotLeadAlert(ctx, alert); err != nil {
			log.Warn("hot lead alert enqueue failed, sending inline", "error", err)
			return m.DeliverHotLeadAlert(ctx, alert)
		}
		log.Info("hot lead alert queued", "score", e.Score)
		return nil
	}
	return m.DeliverHotLeadAlert(ctx, alert)
}

// DeliverHotLeadAlert mails the alert to the clinic admin.
func (m *Module) DeliverHotLeadAlert(ctx context.Context, alert email.HotLeadAlert) error {
	log := m.log.WithLead(alert.UserID)
	if !m.enabled {
		log.Info("smtp disabled, dropping hot lead alert")
		return nil
	}
	if err := m.sender.SendHotLeadAlert(ctx, m.adminEmail, alert); err != nil {
		log.Error("failed to send hot lead alert", "error", err)
		return err
	}
	log.Info("hot lead alert sent", "score", alert.Score, "urgent", alert.UrgentSymptoms)
	return nil
}
