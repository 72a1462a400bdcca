package model

import "time"

// Tone selects the wording of a reminder.
type Tone string

const (
	ToneGentle Tone = "gentle"
	ToneFirm   Tone = "firm"
	ToneUrgent Tone = "urgent"
)

// NotificationRequest is the body of POST /send-email.
type NotificationRequest struct {
	CustomerEmail string `json:"customer_email"`
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount"`
	DueDate       string `json:"due_date"`
	Tone          Tone   `json:"tone,omitempty"`
}

// NewNotificationRequest builds the reminder for inv in the given tone.
func NewNotificationRequest(inv Invoice, tone Tone) NotificationRequest {
	return NotificationRequest{
		CustomerEmail: inv.CustomerEmail,
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        FormatAmount(inv.Amount),
		DueDate:       inv.DueDate,
		Tone:          tone,
	}
}

// FollowUp is a reminder email that was actually sent.
type FollowUp struct {
	ID            string    `json:"id"`
	InvoiceID     string    `json:"invoice_id"`
	CustomerName  string    `json:"customer_name"`
	InvoiceNumber string    `json:"invoice_number"`
	EmailSubject  string    `json:"email_subject"`
	EmailBody     string    `json:"email_body"`
	Tone          Tone      `json:"tone"`
	SentAt        time.Time `json:"sent_at"`
}

// EscalationPriority ranks an escalation.
type EscalationPriority string

const (
	PriorityLow    EscalationPriority = "low"
	PriorityMedium EscalationPriority = "medium"
	PriorityHigh   EscalationPriority = "high"
	PriorityUrgent EscalationPriority = "urgent"
)

// Escalation hands a severely overdue invoice over to finance.
// Nothing creates escalations yet; the type exists for the escalation source.
type Escalation struct {
	ID            string             `json:"id"`
	InvoiceID     string             `json:"invoice_id"`
	CustomerName  string             `json:"customer_name"`
	InvoiceNumber string             `json:"invoice_number"`
	Amount        float64            `json:"amount"`
	DaysOverdue   int                `json:"days_overdue"`
	Reason        string             `json:"reason"`
	Priority      EscalationPriority `json:"priority"`
	CreatedAt     time.Time          `json:"created_at"`
}
