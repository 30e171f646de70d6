package session

import (
	"context"
	"errors"
	"time"
)

// Common errors for session operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Service provides business logic for session records.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewService creates a new session service. A ttl of zero disables expiry.
func NewService(repo Repository, ttl time.Duration) *Service {
	return &Service{repo: repo, ttl: ttl, now: time.Now}
}

// TTL returns the configured record lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// GetSession retrieves a live record by ID.
func (s *Service) GetSession(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrSessionNotFound
	}
	if record.IsExpired(s.now()) {
		return nil, ErrSessionExpired
	}
	return record, nil
}

// SaveSession writes the record, generating an ID on first save.
func (s *Service) SaveSession(ctx context.Context, record *Record) (string, error) {
	id, err := s.repo.Save(ctx, record)
	if err != nil {
		return "", err
	}
	record.ID = id
	return id, nil
}
