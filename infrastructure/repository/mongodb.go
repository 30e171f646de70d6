// Package repository stores session records.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB is a verified connection bound to the session collection.
type MongoDB struct {
	client    *mongo.Client
	sessions  *mongo.Collection
	opTimeout time.Duration
	logger    *slog.Logger
}

// MongoDBConfig contains configuration for MongoDB connection.
type MongoDBConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
	// OperationTimeout bounds each read or write; zero leaves the caller's deadline alone.
	OperationTimeout time.Duration
}

// DefaultMongoDBConfig returns default configuration.
func DefaultMongoDBConfig() *MongoDBConfig {
	return &MongoDBConfig{
		URI:              "mongodb://localhost:27017",
		Database:         "grocer-auth-wizard",
		Collection:       "sessions",
		ConnectTimeout:   10 * time.Second,
		PingTimeout:      5 * time.Second,
		OperationTimeout: 5 * time.Second,
	}
}

// NewMongoDB connects and pings. The URI is never logged since it may carry credentials.
func NewMongoDB(ctx context.Context, cfg *MongoDBConfig, logger *slog.Logger) (*MongoDB, error) {
	if cfg == nil {
		cfg = DefaultMongoDBConfig()
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoDBConfig().Collection
	}
	if logger == nil {
		logger = slog.Default()
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB", "database", cfg.Database, "collection", cfg.Collection)

	return &MongoDB{
		client:    client,
		sessions:  client.Database(cfg.Database).Collection(cfg.Collection),
		opTimeout: cfg.OperationTimeout,
		logger:    logger,
	}, nil
}

// EnsureIndexes creates the TTL index that lets MongoDB drop expired sessions.
// Documents without expires_at never expire.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
	}
	if _, err := m.sessions.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create TTL index: %w", err)
	}
	m.logger.Info("Session TTL index ensured", "collection", m.sessions.Name())
	return nil
}

// Close disconnects from MongoDB.
func (m *MongoDB) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// opContext applies the per-operation timeout.
func (m *MongoDB) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.opTimeout)
}
