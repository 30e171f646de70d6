package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"grocer-go/core/state"
	"grocer-go/domain/platform"
	"grocer-go/domain/session"
)

// sessionDocument is the MongoDB document structure for session records.
type sessionDocument struct {
	ID                   string           `bson:"_id"`
	Platform             string           `bson:"platform"`
	PhoneNumber          string           `bson:"phone_number"`
	Cookies              []cookieDocument `bson:"cookies,omitempty"`
	DOMSnapshot          string           `bson:"dom_snapshot,omitempty"`
	URL                  string           `bson:"url,omitempty"`
	OtpInputSelector     string           `bson:"otp_input_selector,omitempty"`
	SubmitButtonSelector string           `bson:"submit_button_selector,omitempty"`
	Phase                string           `bson:"phase"`
	CreatedAt            time.Time        `bson:"created_at"`
	UpdatedAt            time.Time        `bson:"updated_at"`
	ExpiresAt            *time.Time       `bson:"expires_at,omitempty"`
}

// cookieDocument is the MongoDB document structure for cookies.
type cookieDocument struct {
	Name         string  `bson:"name"`
	Value        string  `bson:"value"`
	Domain       string  `bson:"domain"`
	Path         string  `bson:"path"`
	Expires      float64 `bson:"expires"`
	HTTPOnly     bool    `bson:"http_only"`
	Secure       bool    `bson:"secure"`
	Session      bool    `bson:"session"`
	SameSite     string  `bson:"same_site,omitempty"`
	Priority     string  `bson:"priority,omitempty"`
	SourceScheme string  `bson:"source_scheme,omitempty"`
	SourcePort   int     `bson:"source_port"`
}

// MongoSessionRepository implements session.Repository using MongoDB.
type MongoSessionRepository struct {
	db     *MongoDB
	logger *slog.Logger
}

// NewMongoSessionRepository creates a new MongoDB-based session repository.
func NewMongoSessionRepository(db *MongoDB, logger *slog.Logger) *MongoSessionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoSessionRepository{db: db, logger: logger}
}

// FindByID retrieves a session record by its identifier.
func (r *MongoSessionRepository) FindByID(ctx context.Context, id string) (*session.Record, error) {
	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	var doc sessionDocument
	if err := r.db.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return documentToRecord(&doc)
}

// Save inserts a new record with a generated ID or overwrites an existing one by ID.
func (r *MongoSessionRepository) Save(ctx context.Context, record *session.Record) (string, error) {
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}

	doc := recordToDocument(record)
	doc.ID = id

	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	if _, err := r.db.sessions.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true)); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	r.logger.Debug("Session saved", "session_id", id, "phase", record.Phase, "cookies", len(record.Cookies))
	return id, nil
}

// documentToRecord converts a MongoDB document to a domain Record.
// A stored phase outside the lifecycle is rejected.
func documentToRecord(doc *sessionDocument) (*session.Record, error) {
	if !state.Phase(doc.Phase).IsValid() {
		return nil, fmt.Errorf("session %s has unknown phase %q", doc.ID, doc.Phase)
	}
	record := &session.Record{
		ID:                   doc.ID,
		Platform:             platform.ID(doc.Platform),
		PhoneNumber:          doc.PhoneNumber,
		DOMSnapshot:          doc.DOMSnapshot,
		URL:                  doc.URL,
		OtpInputSelector:     doc.OtpInputSelector,
		SubmitButtonSelector: doc.SubmitButtonSelector,
		Phase:                state.Phase(doc.Phase),
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
	if doc.ExpiresAt != nil {
		record.ExpiresAt = *doc.ExpiresAt
	}

	if len(doc.Cookies) > 0 {
		record.Cookies = make([]session.Cookie, len(doc.Cookies))
		for i, c := range doc.Cookies {
			record.Cookies[i] = session.Cookie{
				Name:         c.Name,
				Value:        c.Value,
				Domain:       c.Domain,
				Path:         c.Path,
				Expires:      c.Expires,
				HTTPOnly:     c.HTTPOnly,
				Secure:       c.Secure,
				Session:      c.Session,
				SameSite:     c.SameSite,
				Priority:     c.Priority,
				SourceScheme: c.SourceScheme,
				SourcePort:   c.SourcePort,
			}
		}
	}

	return record, nil
}

// recordToDocument converts a domain Record to a MongoDB document.
func recordToDocument(record *session.Record) *sessionDocument {
	doc := &sessionDocument{
		ID:                   record.ID,
		Platform:             string(record.Platform),
		PhoneNumber:          record.PhoneNumber,
		DOMSnapshot:          record.DOMSnapshot,
		URL:                  record.URL,
		OtpInputSelector:     record.OtpInputSelector,
		SubmitButtonSelector: record.SubmitButtonSelector,
		Phase:                string(record.Phase),
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
	if !record.ExpiresAt.IsZero() {
		expires := record.ExpiresAt
		doc.ExpiresAt = &expires
	}

	if len(record.Cookies) > 0 {
		doc.Cookies = make([]cookieDocument, len(record.Cookies))
		for i, c := range record.Cookies {
			doc.Cookies[i] = cookieDocument{
				Name:         c.Name,
				Value:        c.Value,
				Domain:       c.Domain,
				Path:         c.Path,
				Expires:      c.Expires,
				HTTPOnly:     c.HTTPOnly,
				Secure:       c.Secure,
				Session:      c.Session,
				SameSite:     c.SameSite,
				Priority:     c.Priority,
				SourceScheme: c.SourceScheme,
				SourcePort:   c.SourcePort,
			}
		}
	}

	return doc
}

// Ensure MongoSessionRepository implements session.Repository
var _ session.Repository = (*MongoSessionRepository)(nil)
