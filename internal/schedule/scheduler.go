// Package schedule triggers agent runs on a cron expression.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/invoice-ai-manager/server/internal/agent/model"
	errx "github.com/invoice-ai-manager/server/internal/core/error"
	logx "github.com/invoice-ai-manager/server/pkg/logger"
)

// Runner is the part of the orchestrator the scheduler drives.
type Runner interface {
	Run(ctx context.Context) (*model.RunResult, error)
}

// Scheduler fires Runner.Run on every tick of a standard five-field cron
// expression. A tick that lands while a run is still in flight is skipped.
type Scheduler struct {
	runner  Runner
	expr    string
	cron    *rcron.Cron
	OnRun   func(*model.RunResult, error)
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entryID rcron.EntryID
}

// New validates expr and prepares a stopped scheduler.
func New(runner Runner, expr string, loc *time.Location) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("schedule needs a runner")
	}
	if _, err := rcron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		runner: runner,
		expr:   expr,
		cron:   rcron.New(rcron.WithLocation(loc)),
	}, nil
}

// Start registers the job and starts the cron loop. Runs use a context that is
// cancelled when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	id, err := s.cron.AddFunc(s.expr, func() { s.Tick(s.ctx) })
	if err != nil {
		s.cancel()
		s.cancel = nil
		return fmt.Errorf("register schedule %q: %w", s.expr, err)
	}
	s.entryID = id
	s.cron.Start()
	logx.Info().Str("schedule", s.expr).Time("next", s.cron.Entry(id).Next).Msg("agent schedule started")
	return nil
}

// Next returns the next planned run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Tick performs one scheduled run.
func (s *Scheduler) Tick(ctx context.Context) {
	logx.Info().Str("schedule", s.expr).Msg("scheduled agent run")
	res, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, errx.ErrRunInProgress):
		logx.Warn().Msg("previous agent run still in progress, skipping tick")
	case err != nil:
		logx.Error().Err(err).Msg("scheduled agent run failed")
	default:
		logx.Info().Str("run", res.ID.String()).Str("summary", res.Summary).Msg("scheduled agent run completed")
	}
	if s.OnRun != nil {
		s.OnRun(res, err)
	}
}

// Stop cancels any in-flight run, then waits for the cron loop to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-s.cron.Stop().Done()
	logx.Info().Msg("agent schedule stopped")
}
