package model

import (
	"strconv"
	"time"
)

// InvoiceStatus is the lifecycle state reported by the invoice API.
type InvoiceStatus string

const (
	StatusPaid    InvoiceStatus = "paid"
	StatusPending InvoiceStatus = "pending"
	StatusOverdue InvoiceStatus = "overdue"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPending, StatusOverdue:
		return true
	}
	return false
}

// DueDateLayout is the calendar date format used by the invoice API.
const DueDateLayout = "2006-01-02"

// Invoice is a read-only snapshot of one invoice as returned by the API.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	Amount        float64       `json:"amount"`
	DueDate       string        `json:"due_date"`
	Status        InvoiceStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	DaysOverdue   *int          `json:"days_overdue,omitempty"`
}

// Due parses DueDate. Timestamps with a time part are accepted too.
func (i Invoice) Due() (time.Time, error) {
	if t, err := time.Parse(DueDateLayout, i.DueDate); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, i.DueDate)
}

// InvoiceDraft is the payload for creating an invoice.
type InvoiceDraft struct {
	InvoiceNumber string        `json:"invoice_number"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	Amount        float64       `json:"amount"`
	DueDate       string        `json:"due_date"`
	Status        InvoiceStatus `json:"status,omitempty"`
}

// FormatAmount renders an amount the way the send-email endpoint expects it:
// shortest decimal form, no currency symbol.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
