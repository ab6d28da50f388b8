package repository

import (
	"context"
	"sort"
	"sync"

	"go-skin-analyzer/pkg/models"
)

// MemoryHistoryRepository keeps history in process memory. It backs tests
// and deployments without a configured database.
type MemoryHistoryRepository struct {
	mu      sync.RWMutex
	records map[string][]*models.HistoryRecord
}

// NewMemoryHistoryRepository creates an empty in-memory repository.
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{
		records: make(map[string][]*models.HistoryRecord),
	}
}

// Save stores a copy of the record.
func (r *MemoryHistoryRepository) Save(ctx context.Context, record *models.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *record
	r.records[record.UserID] = append(r.records[record.UserID], &clone)
	return nil
}

// ListByUser returns up to limit records, newest first.
func (r *MemoryHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.HistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.records[userID]
	out := make([]*models.HistoryRecord, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op.
func (r *MemoryHistoryRepository) Close(ctx context.Context) error {
	return nil
}
