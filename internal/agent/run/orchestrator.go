// Package run executes agent runs: take an invoice snapshot, pick the invoices
// that need a reminder and send the reminders one at a time.
package run

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/invoice-ai-manager/server/internal/agent/composer"
	"github.com/invoice-ai-manager/server/internal/agent/model"
	errx "github.com/invoice-ai-manager/server/internal/core/error"
	logx "github.com/invoice-ai-manager/server/pkg/logger"
)

// ReviewAction is the activity feed label of a completed run.
const ReviewAction = "Completed automated invoice review"

// Orchestrator runs the reminder batch. At most one run is in flight at a time;
// a second Run while one is active fails with errx.ErrRunInProgress.
type Orchestrator struct {
	source    model.InvoiceSource
	sender    model.NotificationSender
	composer  composer.Composer
	followUps model.FollowUpRepository
	activity  model.ActivityRepository
	cfg       model.AgentConfig

	running atomic.Bool
	now     func() time.Time
	newID   func() uuid.UUID
}

type Option func(*Orchestrator)

// WithFollowUps records a drafted email for each successful send.
// Without a composer the follow-up is drafted from the built-in templates.
func WithFollowUps(repo model.FollowUpRepository, c composer.Composer) Option {
	return func(o *Orchestrator) {
		o.followUps = repo
		o.composer = c
	}
}

// WithActivity appends one feed entry per completed run.
func WithActivity(repo model.ActivityRepository) Option {
	return func(o *Orchestrator) { o.activity = repo }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(source model.InvoiceSource, sender model.NotificationSender, cfg model.AgentConfig, opts ...Option) (*Orchestrator, error) {
	if source == nil {
		return nil, fmt.Errorf("invoice source is nil")
	}
	if sender == nil {
		return nil, fmt.Errorf("notification sender is nil")
	}
	o := &Orchestrator{
		source: source,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.followUps != nil && o.composer == nil {
		tc, err := composer.NewTemplateComposer()
		if err != nil {
			return nil, err
		}
		o.composer = tc
	}
	return o, nil
}

// State reports whether a run is in flight.
func (o *Orchestrator) State() model.RunState {
	if o.running.Load() {
		return model.RunRunning
	}
	return model.RunIdle
}

// Run fetches a fresh snapshot and processes it. A failed fetch aborts the run
// and is returned; failed sends never are.
func (o *Orchestrator) Run(ctx context.Context) (*model.RunResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, errx.ErrRunInProgress
	}
	defer o.running.Store(false)

	records, err := o.source.ListAll(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("agent run aborted: could not load invoices")
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	return o.process(ctx, records), nil
}

// RunRecords processes a snapshot the caller already holds.
func (o *Orchestrator) RunRecords(ctx context.Context, records []model.Invoice) (*model.RunResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, errx.ErrRunInProgress
	}
	defer o.running.Store(false)

	return o.process(ctx, records), nil
}

func (o *Orchestrator) process(ctx context.Context, records []model.Invoice) *model.RunResult {
	result := &model.RunResult{
		ID:              o.newID(),
		StartedAt:       o.now(),
		InvoicesScanned: len(records),
	}
	logx.Info().Str("run", result.ID.String()).Int("invoices", len(records)).Msg("agent run started")

	batch := Plan(records, o.cfg.MaxOverdue, o.cfg.MaxPending)
	result.Outcomes = make([]model.NotificationOutcome, 0, len(batch))

	// one send at a time, in plan order
	for _, item := range batch {
		outcome, cost := o.notify(ctx, item)
		result.Outcomes = append(result.Outcomes, outcome)
		result.DraftCostUSD += cost
		result.Attempted++
		if outcome.Sent {
			result.EmailsSent++
		} else {
			result.Failures++
		}
	}

	// No escalation collaborator exists yet; EscalationsCreated stays 0.
	result.FinishedAt = o.now()
	result.Summary = fmt.Sprintf("Processed %d invoices, sent %d of %d reminders, escalated %d cases",
		result.InvoicesScanned, result.EmailsSent, result.Attempted, result.EscalationsCreated)

	logx.Info().
		Str("run", result.ID.String()).
		Int("sent", result.EmailsSent).
		Int("failed", result.Failures).
		Dur("took", result.FinishedAt.Sub(result.StartedAt)).
		Msg("agent run finished")

	o.recordActivity(ctx, result)
	return result
}

func (o *Orchestrator) notify(ctx context.Context, item Planned) (model.NotificationOutcome, float64) {
	req := model.NewNotificationRequest(item.Invoice, item.Tone)
	outcome := model.NotificationOutcome{
		InvoiceID:     item.Invoice.ID,
		InvoiceNumber: item.Invoice.InvoiceNumber,
		Recipient:     req.CustomerEmail,
		Tone:          item.Tone,
	}

	if err := o.send(ctx, req); err != nil {
		err = errx.WrapDelivery(err)
		logx.Warn().Err(err).
			Str("invoice", item.Invoice.InvoiceNumber).
			Str("tone", string(item.Tone)).
			Msg("reminder not delivered")
		outcome.Err = err.Error()
		return outcome, 0
	}

	outcome.Sent = true
	logx.Debug().Str("invoice", item.Invoice.InvoiceNumber).Str("tone", string(item.Tone)).Msg("reminder sent")
	return outcome, o.recordFollowUp(ctx, item)
}

// send applies the per-call timeout and turns a panicking sender into an error.
func (o *Orchestrator) send(ctx context.Context, req model.NotificationRequest) (err error) {
	if o.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.SendTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()
	return o.sender.Send(ctx, req)
}

func (o *Orchestrator) recordFollowUp(ctx context.Context, item Planned) float64 {
	if o.followUps == nil {
		return 0
	}
	email, err := o.composer.Compose(ctx, item.Invoice, item.Tone)
	if err != nil {
		logx.Warn().Err(err).Str("invoice", item.Invoice.InvoiceNumber).Msg("could not draft follow-up")
		return 0
	}
	followUp := model.FollowUp{
		ID:            o.newID().String(),
		InvoiceID:     item.Invoice.ID,
		CustomerName:  item.Invoice.CustomerName,
		InvoiceNumber: item.Invoice.InvoiceNumber,
		EmailSubject:  email.Subject,
		EmailBody:     email.Body,
		Tone:          item.Tone,
		SentAt:        o.now(),
	}
	if err := o.followUps.Record(ctx, followUp); err != nil {
		logx.Warn().Err(err).Str("invoice", item.Invoice.InvoiceNumber).Msg("could not record follow-up")
	}
	return email.CostUSD
}

func (o *Orchestrator) recordActivity(ctx context.Context, result *model.RunResult) {
	if o.activity == nil {
		return
	}
	entry := model.ActivityLog{
		ID:        o.newID().String(),
		Timestamp: result.FinishedAt,
		Action:    ReviewAction,
		Type:      model.ActivityAnalysis,
		Details:   result.Summary,
	}
	if err := o.activity.Append(ctx, entry); err != nil {
		logx.Warn().Err(err).Str("run", result.ID.String()).Msg("could not record activity")
	}
}
