package repository

import (
	"context"
	"errors"

	"go-skin-analyzer/pkg/models"
)

var (
	// ErrRecordNotFound indicates no history exists for the requested user.
	ErrRecordNotFound = errors.New("history record not found")

	// ErrRepositoryUnavailable indicates the backing store is unreachable.
	ErrRepositoryUnavailable = errors.New("history repository unavailable")
)

// HistoryRepository stores analysis history records. Implementations must
// return records newest-first.
type HistoryRepository interface {
	// Save persists a record. The record's ID must already be set.
	Save(ctx context.Context, record *models.HistoryRecord) error

	// ListByUser returns up to limit records for a user, newest first.
	// limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.HistoryRecord, error)

	// Close releases any underlying connections.
	Close(ctx context.Context) error
}
