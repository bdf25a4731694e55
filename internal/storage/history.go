// Package storage keeps the upload history: one metadata record per
// analyzed dataset. Transactions themselves are never persisted.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UploadRecord describes one accepted dataset.
type UploadRecord struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	RowsIn    int       `json:"rows_in"`
	RowsKept  int       `json:"rows_kept"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository records and lists uploads.
type HistoryRepository interface {
	Record(ctx context.Context, rec UploadRecord) error
	// Recent returns at most limit records, newest first.
	Recent(ctx context.Context, limit int) ([]UploadRecord, error)
	Close() error
}

// DefaultRecentLimit bounds listings when the caller passes a non-positive limit.
const DefaultRecentLimit = 50

// MemoryHistory is a process-local history used when no database is configured.
type MemoryHistory struct {
	mu    sync.Mutex
	items []UploadRecord
}

var _ HistoryRepository = (*MemoryHistory)(nil)

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (m *MemoryHistory) Record(ctx context.Context, rec UploadRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, rec)
	return nil
}

func (m *MemoryHistory) Recent(ctx context.Context, limit int) ([]UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	m.mu.Lock()
	out := append([]UploadRecord(nil), m.items...)
	m.mu.Unlock()

	// newest first; insertion order breaks ties
	idx := make(map[uuid.UUID]int, len(out))
	for i, r := range out {
		idx[r.ID] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idx[out[i].ID] > idx[out[j].ID]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryHistory) Close() error { return nil }
