package email

import (
	"context"

	"clinic_marketing_backend/platform/config"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string // e.g. "analytics-2026-10-13.json"
	MIMEType string
}

// Sender delivers admin mail.
type Sender interface {
	SendReport(ctx context.Context, toEmail string, report Report, attachments ...Attachment) error
	SendHotLeadAlert(ctx context.Context, toEmail string, alert HotLeadAlert) error
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendReport(ctx context.Context, toEmail string, report Report, attachments ...Attachment) error {
	return nil
}

func (NoopSender) SendHotLeadAlert(ctx context.Context, toEmail string, alert HotLeadAlert) error {
	return nil
}

// NewSender returns an SMTP sender, or a NoopSender when SMTP is disabled.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetSMTPFromAddress(),
		cfg.GetSMTPFromName(),
	)
}
