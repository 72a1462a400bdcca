package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoice-ai-manager/server/internal/agent/model"
	errx "github.com/invoice-ai-manager/server/internal/core/error"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRunner) Run(context.Context) (*model.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.RunResult{ID: uuid.New(), Summary: "ok"}, nil
}

func TestNewValidatesExpression(t *testing.T) {
	_, err := New(&fakeRunner{}, "every tuesday", time.UTC)
	assert.Error(t, err)
	_, err = New(nil, "0 9 * * *", time.UTC)
	assert.Error(t, err)

	s, err := New(&fakeRunner{}, "0 9 * * *", time.UTC)
	require.NoError(t, err)
	assert.True(t, s.Next().IsZero())
}

func TestTickReportsOutcome(t *testing.T) {
	for name, tc := range map[string]struct {
		err     error
		wantErr error
	}{
		"success":     {},
		"in progress": {err: errx.ErrRunInProgress, wantErr: errx.ErrRunInProgress},
		"failure":     {err: errors.New("fetch failed")},
	} {
		t.Run(name, func(t *testing.T) {
			runner := &fakeRunner{err: tc.err}
			s, err := New(runner, "@hourly", time.UTC)
			require.NoError(t, err)

			var gotRes *model.RunResult
			var gotErr error
			s.OnRun = func(res *model.RunResult, err error) { gotRes, gotErr = res, err }
			s.Tick(context.Background())

			assert.Equal(t, 1, runner.calls)
			if tc.err == nil {
				require.NotNil(t, gotRes)
				assert.Equal(t, "ok", gotRes.Summary)
				assert.NoError(t, gotErr)
				return
			}
			assert.Nil(t, gotRes)
			assert.Error(t, gotErr)
			if tc.wantErr != nil {
				assert.ErrorIs(t, gotErr, tc.wantErr)
			}
		})
	}
}

func TestStartAndStop(t *testing.T) {
	s, err := New(&fakeRunner{}, "0 9 * * *", time.UTC)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))

	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 9, next.In(time.UTC).Hour())
	assert.Equal(t, 0, next.Minute())

	s.Stop()
}

// blockingRunner holds each run open until its context is cancelled.
type blockingRunner struct {
	started chan struct{}
	once    sync.Once
}

func (b *blockingRunner) Run(ctx context.Context) (*model.RunResult, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStopCancelsRunningJob(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{})}
	s, err := New(runner, "@every 1s", time.UTC)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-runner.started:
	case <-time.After(5 * time.Second):
		s.Stop()
		t.Fatal("scheduled run never started")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop waited on a run whose context was never cancelled")
	}
}
