package email

import (
	"context"
	"strings"
	"testing"
)

func TestRenderReport(t *testing.T) {
	subject, content, err := renderReport(Report{
		Kind:         "weekly",
		From:         "2026-10-07",
		To:           "2026-10-13",
		TotalLeads:   42,
		Funnel:       []FunnelLine{{Label: "Hot", Count: 5, Rate: 11.9}},
		TopSurgeries: []RankedItem{{Name: "lasik", Count: 7}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Briz-L Weekly report 2026-10-07 / 2026-10-13" {
		t.Fatalf("unexpected subject %q", subject)
	}
	for _, want := range []string{"Total leads: 42", "Hot: 5 (11.90%)", "lasik (7)"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in report body", want)
		}
	}
}

func TestRenderDailyReportUsesSingleDate(t *testing.T) {
	subject, _, err := renderReport(Report{Kind: "daily", From: "2026-10-13", To: "2026-10-13"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Briz-L Daily report 2026-10-13" {
		t.Fatalf("unexpected subject %q", subject)
	}
}

func TestRenderHotLeadAlertEscapesAndFlagsUrgent(t *testing.T) {
	subject, content, err := renderHotLeadAlert(HotLeadAlert{
		UserID:         "<script>",
		Score:          85,
		Symptoms:       []string{"sudden vision loss"},
		UrgentSymptoms: true,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(subject, "URGENT: ") {
		t.Fatalf("expected urgent subject, got %q", subject)
	}
	if strings.Contains(content, "<script>") {
		t.Fatalf("expected user id to be escaped")
	}
	if !strings.Contains(content, "Surgeries: -") {
		t.Fatalf("expected dash for empty list")
	}
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "", "marketing@brizl.az", "Briz-L")
	if _, err := s.buildMessage("not an address", "s", "<p>x</p>"); err == nil {
		t.Fatalf("expected invalid recipient to fail")
	}
	if _, err := s.buildMessage("admin@brizl.az", "s", "<p>x</p>", Attachment{FileName: "a.json", Content: []byte("{}")}); err != nil {
		t.Fatalf("build: %v", err)
	}
}

func TestNewSenderFallsBackToNoop(t *testing.T) {
	if _, ok := NewSender(smtpConfig{}).(NoopSender); !ok {
		t.Fatalf("expected noop sender without smtp host")
	}
	if err := (NoopSender{}).SendHotLeadAlert(context.Background(), "", HotLeadAlert{}); err != nil {
		t.Fatalf("noop: %v", err)
	}
}

type smtpConfig struct{ host string }

func (c smtpConfig) GetSMTPHost() string         { return c.host }
func (c smtpConfig) GetSMTPPort() int            { return 587 }
func (c smtpConfig) GetSMTPUsername() string     { return "" }
func (c smtpConfig) GetSMTPPassword() string     { return "" }
func (c smtpConfig) GetSMTPFromName() string     { return "Briz-L" }
func (c smtpConfig) GetSMTPFromAddress() string  { return "marketing@brizl.az" }
func (c smtpConfig) GetAdminReportEmail() string { return "" }
func (c smtpConfig) IsSMTPEnabled() bool         { return c.host != "" }
