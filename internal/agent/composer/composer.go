// Package composer drafts the follow-up emails recorded for each sent reminder.
package composer

import (
	"context"
	"embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/invoice-ai-manager/server/internal/agent/model"
)

// DefaultSignature signs every reminder.
const DefaultSignature = "Invoice AI Manager"

//go:embed template/*.tmpl
var templates embed.FS

// Email is a drafted reminder. CostUSD is non-zero only for model drafts.
type Email struct {
	Subject string
	Body    string
	CostUSD float64
}

// Composer drafts the email for one invoice in one tone.
type Composer interface {
	Compose(ctx context.Context, inv model.Invoice, tone model.Tone) (Email, error)
}

var subjects = map[model.Tone]string{
	model.ToneGentle: "Gentle Reminder: Invoice {{.InvoiceNumber}} Payment Due",
	model.ToneFirm:   "Important: Overdue Invoice {{.InvoiceNumber}} - Immediate Attention Required",
	model.ToneUrgent: "URGENT: Invoice {{.InvoiceNumber}} Severely Overdue - Action Required",
}

// TemplateComposer renders the built-in reminder templates through an eino
// chat template, so prompt callbacks observe every render.
type TemplateComposer struct {
	Signature string
	bodies    map[model.Tone]string
}

// NewTemplateComposer loads the embedded templates.
func NewTemplateComposer() (*TemplateComposer, error) {
	bodies := make(map[model.Tone]string, len(subjects))
	for tone := range subjects {
		b, err := templates.ReadFile("template/" + string(tone) + ".tmpl")
		if err != nil {
			return nil, fmt.Errorf("load %s template: %w", tone, err)
		}
		bodies[tone] = string(b)
	}
	return &TemplateComposer{Signature: DefaultSignature, bodies: bodies}, nil
}

// Compose renders subject and body for inv.
func (c *TemplateComposer) Compose(ctx context.Context, inv model.Invoice, tone model.Tone) (Email, error) {
	subject, ok := subjects[tone]
	if !ok {
		return Email{}, fmt.Errorf("no template for tone %q", tone)
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(subject),
		schema.UserMessage(c.bodies[tone]),
	)
	msgs, err := tpl.Format(ctx, c.vars(inv, tone))
	if err != nil {
		return Email{}, fmt.Errorf("render %s reminder for %s: %w", tone, inv.InvoiceNumber, err)
	}
	if len(msgs) != 2 || msgs[0] == nil || msgs[1] == nil {
		return Email{}, fmt.Errorf("render %s reminder for %s: unexpected result", tone, inv.InvoiceNumber)
	}
	return Email{Subject: msgs[0].Content, Body: msgs[1].Content}, nil
}

func (c *TemplateComposer) vars(inv model.Invoice, tone model.Tone) map[string]any {
	sig := c.Signature
	if sig == "" {
		sig = DefaultSignature
	}
	return map[string]any{
		"Customer":      inv.CustomerName,
		"InvoiceNumber": inv.InvoiceNumber,
		"Amount":        FormatUSD(inv.Amount),
		"DueDate":       FormatDueDate(inv),
		"Tone":          string(tone),
		"Signature":     sig,
	}
}

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders an amount as US dollars with thousands separators.
func FormatUSD(amount float64) string {
	if amount < 0 {
		return "-" + usPrinter.Sprintf("$%.2f", -amount)
	}
	return usPrinter.Sprintf("$%.2f", amount)
}

// FormatDueDate renders the due date as "January 20th, 2024". Unparseable
// dates are returned as-is.
func FormatDueDate(inv model.Invoice) string {
	due, err := inv.Due()
	if err != nil {
		return inv.DueDate
	}
	return fmt.Sprintf("%s %d%s, %d", due.Month(), due.Day(), ordinal(due.Day()), due.Year())
}

func ordinal(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// compile-time check
var _ Composer = (*TemplateComposer)(nil)
