package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"grocer-go/domain/session"
)

// MemorySessionRepository keeps session records in process memory.
// Records are stored as deep copies so callers never share state with the store.
type MemorySessionRepository struct {
	mu      sync.RWMutex
	records map[string]*session.Record
}

// NewMemorySessionRepository creates an empty in-memory repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{records: make(map[string]*session.Record)}
}

// FindByID returns a copy of the stored record, or nil if absent.
func (r *MemorySessionRepository) FindByID(ctx context.Context, id string) (*session.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return record.Clone(), nil
}

// Save stores a copy of the record, generating an ID on first save.
func (r *MemorySessionRepository) Save(ctx context.Context, record *session.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}

	stored := record.Clone()
	stored.ID = id

	r.mu.Lock()
	r.records[id] = stored
	r.mu.Unlock()

	return id, nil
}

// Len returns the number of stored records.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Ensure MemorySessionRepository implements session.Repository
var _ session.Repository = (*MemorySessionRepository)(nil)
