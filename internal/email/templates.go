package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

// FunnelLine is one stage of the conversion funnel in a report.
type FunnelLine struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Rate  float64 `json:"rate"`
}

// RankedItem is one entry of a top-N list.
type RankedItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LeadLine is one hot lead in a report.
type LeadLine struct {
	UserID    string `json:"userId"`
	Platform  string `json:"platform"`
	Score     int    `json:"score"`
	Interests string `json:"interests"`
}

// Report is the periodic summary mailed to the clinic's marketing admin.
type Report struct {
	Kind              string // daily, weekly or monthly
	From              string
	To                string
	TotalLeads        int
	HotLeads          int
	BookingIntents    int
	FollowUpsSent     int
	FollowUpResponses int
	AvgMessages       float64
	AvgScore          float64
	HighlyEngaged     int
	Funnel            []FunnelLine
	TopSurgeries      []RankedItem
	RecentHotLeads    []LeadLine
}

// Period renders the report window for subjects and headings.
func (r Report) Period() string {
	if r.From == r.To || r.From == "" {
		return r.To
	}
	return r.From + " / " + r.To
}

// HotLeadAlert is sent the moment a lead crosses into hot.
type HotLeadAlert struct {
	UserID         string
	Platform       string
	Score          int
	PreviousStatus string
	Symptoms       []string
	Surgeries      []string
	Doctors        []string
	BookingIntent  bool
	UrgentSymptoms bool
}

type reportEmailData struct {
	baseEmailData
	Report
}

type hotLeadEmailData struct {
	baseEmailData
	HotLeadAlert
	SymptomList string
	SurgeryList string
	DoctorList  string
}

func renderReport(r Report) (subject, content string, err error) {
	kind := "Daily"
	if r.Kind != "" {
		kind = strings.ToUpper(r.Kind[:1]) + r.Kind[1:]
	}
	subject = fmt.Sprintf(subjectReportFmt, kind, r.Period())
	content, err = renderEmailTemplate("report.html", reportEmailData{
		baseEmailData: baseEmailData{
			Title:      subject,
			Heading:    kind + " marketing report",
			Subheading: r.Period(),
		},
		Report: r,
	})
	return subject, content, err
}

func renderHotLeadAlert(a HotLeadAlert) (subject, content string, err error) {
	subject = fmt.Sprintf(subjectHotLeadFmt, a.UserID, a.Score)
	heading := "New hot lead"
	if a.UrgentSymptoms {
		subject = subjectUrgentPrefix + subject
		heading = "Urgent hot lead"
	}
	content, err = renderEmailTemplate("hot_lead.html", hotLeadEmailData{
		baseEmailData: baseEmailData{
			Title:      subject,
			Heading:    heading,
			Subheading: a.Platform,
		},
		HotLeadAlert: a,
		SymptomList:  joinOrDash(a.Symptoms),
		SurgeryList:  joinOrDash(a.Surgeries),
		DoctorList:   joinOrDash(a.Doctors),
	})
	return subject, content, err
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").Funcs(template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
		"num": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
