package query

import "github.com/invoice-ai-manager/server/internal/agent/model"

// Breakdown is the status distribution shown on the dashboard.
type Breakdown struct {
	Total             int     `json:"total"`
	Paid              int     `json:"paid"`
	Pending           int     `json:"pending"`
	Overdue           int     `json:"overdue"`
	TotalAmount       float64 `json:"total_amount"`
	OutstandingAmount float64 `json:"outstanding_amount"`
}

// Unsettled is the "Pending / Overdue" card.
func (b Breakdown) Unsettled() int {
	return b.Pending + b.Overdue
}

// Summarize counts records per status. Records with an unknown status are only
// counted in Total and TotalAmount.
func Summarize(records []model.Invoice) Breakdown {
	var b Breakdown
	for _, inv := range records {
		b.Total++
		b.TotalAmount += inv.Amount
		switch inv.Status {
		case model.StatusPaid:
			b.Paid++
		case model.StatusPending:
			b.Pending++
			b.OutstandingAmount += inv.Amount
		case model.StatusOverdue:
			b.Overdue++
			b.OutstandingAmount += inv.Amount
		}
	}
	return b
}
