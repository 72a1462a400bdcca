package run

import "github.com/invoice-ai-manager/server/internal/agent/model"

// Planned is one reminder the run will send.
type Planned struct {
	Invoice model.Invoice
	Tone    model.Tone
}

// Plan picks the first maxOverdue overdue invoices (urgent) followed by the
// first maxPending pending invoices (gentle), keeping input order inside each
// group. Paid and unknown statuses are skipped.
func Plan(records []model.Invoice, maxOverdue, maxPending int) []Planned {
	overdue := make([]model.Invoice, 0, max(maxOverdue, 0))
	pending := make([]model.Invoice, 0, max(maxPending, 0))
	for _, inv := range records {
		switch inv.Status {
		case model.StatusOverdue:
			if len(overdue) < maxOverdue {
				overdue = append(overdue, inv)
			}
		case model.StatusPending:
			if len(pending) < maxPending {
				pending = append(pending, inv)
			}
		}
	}

	out := make([]Planned, 0, len(overdue)+len(pending))
	for _, inv := range overdue {
		out = append(out, Planned{Invoice: inv, Tone: model.ToneUrgent})
	}
	for _, inv := range pending {
		out = append(out, Planned{Invoice: inv, Tone: model.ToneGentle})
	}
	return out
}
