package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"clinic_marketing_backend/internal/email"
)

const TaskAnalyticsRollup = "analytics.rollup"

const TaskFollowUpsPlan = "followups.plan"

const TaskReportSend = "reports.send"

const TaskExportAnalytics = "exports.analytics"

const TaskHotLeadAlert = "notification.hot_lead"

// RollupPayload names the UTC day to rebuild; empty means today and yesterday.
type RollupPayload struct {
	Date string `json:"date,omitempty"`
}

type ReportPayload struct {
	Kind string `json:"kind"`
}

type HotLeadAlertPayload struct {
	UserID         string   `json:"userId"`
	Platform       string   `json:"platform"`
	Score          int      `json:"score"`
	PreviousStatus string   `json:"previousStatus"`
	Symptoms       []string `json:"symptoms,omitempty"`
	Surgeries      []string `json:"surgeries,omitempty"`
	Doctors        []string `json:"doctors,omitempty"`
	BookingIntent  bool     `json:"bookingIntent"`
	UrgentSymptoms bool     `json:"urgentSymptoms"`
}

func (p HotLeadAlertPayload) Alert() email.HotLeadAlert {
	return email.HotLeadAlert{
		UserID:         p.UserID,
		Platform:       p.Platform,
		Score:          p.Score,
		PreviousStatus: p.PreviousStatus,
		Symptoms:       p.Symptoms,
		Surgeries:      p.Surgeries,
		Doctors:        p.Doctors,
		BookingIntent:  p.BookingIntent,
		UrgentSymptoms: p.UrgentSymptoms,
	}
}

func hotLeadAlertPayload(a email.HotLeadAlert) HotLeadAlertPayload {
	return HotLeadAlertPayload{
		UserID:         a.UserID,
		Platform:       a.Platform,
		Score:          a.Score,
		PreviousStatus: a.PreviousStatus,
		Symptoms:       a.Symptoms,
		Surgeries:      a.Surgeries,
		Doctors:        a.Doctors,
		BookingIntent:  a.BookingIntent,
		UrgentSymptoms: a.UrgentSymptoms,
	}
}

func NewRollupTask(payload RollupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsRollup, data), nil
}

func ParseRollupPayload(task *asynq.Task) (RollupPayload, error) {
	var payload RollupPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RollupPayload{}, err
	}
	return payload, nil
}

func NewFollowUpsPlanTask() *asynq.Task {
	return asynq.NewTask(TaskFollowUpsPlan, nil)
}

func NewReportTask(payload ReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportSend, data), nil
}

func ParseReportPayload(task *asynq.Task) (ReportPayload, error) {
	var payload ReportPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReportPayload{}, err
	}
	return payload, nil
}

func NewExportAnalyticsTask() *asynq.Task {
	return asynq.NewTask(TaskExportAnalytics, nil)
}

func NewHotLeadAlertTask(payload HotLeadAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHotLeadAlert, data), nil
}

func ParseHotLeadAlertPayload(task *asynq.Task) (HotLeadAlertPayload, error) {
	var payload HotLeadAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HotLeadAlertPayload{}, err
	}
	return payload, nil
}
