package repo

import (
	"context"
	"sync"

	"github.com/invoice-ai-manager/server/internal/agent/model"
)

// MemoryActivityRepository is the process-local feed used when Redis is not configured.
type MemoryActivityRepository struct {
	mu         sync.Mutex
	entries    []model.ActivityLog
	maxEntries int
}

func NewMemoryActivityRepository(maxEntries int) *MemoryActivityRepository {
	return &MemoryActivityRepository{maxEntries: maxEntries}
}

func (m *MemoryActivityRepository) Append(_ context.Context, entry model.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]model.ActivityLog{entry}, m.entries...)
	if m.maxEntries > 0 && len(m.entries) > m.maxEntries {
		m.entries = m.entries[:m.maxEntries]
	}
	return nil
}

func (m *MemoryActivityRepository) Recent(_ context.Context, limit int) ([]model.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.ActivityLog, n)
	copy(out, m.entries[:n])
	return out, nil
}

// MemoryFollowUpRepository is the process-local follow-up log, capped at
// maxEntries (0 keeps everything).
type MemoryFollowUpRepository struct {
	mu         sync.Mutex
	followUps  []model.FollowUp
	maxEntries int
}

func NewMemoryFollowUpRepository(maxEntries int) *MemoryFollowUpRepository {
	return &MemoryFollowUpRepository{maxEntries: maxEntries}
}

func (m *MemoryFollowUpRepository) Record(_ context.Context, f model.FollowUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followUps = append([]model.FollowUp{f}, m.followUps...)
	if m.maxEntries > 0 && len(m.followUps) > m.maxEntries {
		m.followUps = m.followUps[:m.maxEntries]
	}
	return nil
}

func (m *MemoryFollowUpRepository) List(_ context.Context) ([]model.FollowUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.FollowUp, len(m.followUps))
	copy(out, m.followUps)
	return out, nil
}

var (
	_ model.ActivityRepository = (*MemoryActivityRepository)(nil)
	_ model.FollowUpRepository = (*MemoryFollowUpRepository)(nil)
)
