package model

import (
	"time"

	"github.com/google/uuid"
)

// RunState is what a caller can observe about the orchestrator.
type RunState string

const (
	RunIdle    RunState = "idle"
	RunRunning RunState = "running"
)

// NotificationOutcome records one send attempt. Err is empty on success.
type NotificationOutcome struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	Recipient     string `json:"recipient"`
	Tone          Tone   `json:"tone"`
	Sent          bool   `json:"sent"`
	Err           string `json:"error,omitempty"`
}

// RunResult summarises one agent run. It is built once and not modified after.
type RunResult struct {
	ID                 uuid.UUID             `json:"id"`
	StartedAt          time.Time             `json:"started_at"`
	FinishedAt         time.Time             `json:"finished_at"`
	InvoicesScanned    int                   `json:"invoices_scanned"`
	Attempted          int                   `json:"attempted"`
	EmailsSent         int                   `json:"emails_sent"`
	Failures           int                   `json:"failures"`
	EscalationsCreated int                   `json:"escalations_created"`
	DraftCostUSD       float64               `json:"draft_cost_usd,omitempty"`
	Outcomes           []NotificationOutcome `json:"outcomes"`
	Summary            string                `json:"summary"`
}

// ActivityType tags an activity log entry.
type ActivityType string

const (
	ActivityAnalysis   ActivityType = "analysis"
	ActivityEmail      ActivityType = "email"
	ActivityEscalation ActivityType = "escalation"
	ActivityUpdate     ActivityType = "update"
	ActivityScheduling ActivityType = "scheduling"
)

// ActivityLog is one line of the agent activity feed.
type ActivityLog struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Action    string       `json:"action"`
	Type      ActivityType `json:"type"`
	Details   string       `json:"details"`
}
