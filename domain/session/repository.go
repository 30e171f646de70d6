package session

import "context"

// Repository defines the durable session store contract.
type Repository interface {
	// Save stores the record. A record without an ID is inserted and gets a
	// freshly generated one; otherwise the stored copy is overwritten by ID.
	// Returns the record ID.
	Save(ctx context.Context, record *Record) (string, error)

	// FindByID retrieves a record by its identifier.
	// Returns nil if not found.
	FindByID(ctx context.Context, id string) (*Record, error)
}
