package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// Collection names of the persisted layout. Field names inside the
// documents are part of the public contract and must stay stable.
const (
	CollectionCurrent    = "current_observations"
	CollectionHistorical = "historical_observations"
)

// Config holds document store connection configuration
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// MongoDB wraps the mongo client with logging and metrics. The
// connection is attempted exactly once at construction; callers decide
// what to do when it fails.
type MongoDB struct {
	client  *mongo.Client
	db      *mongo.Database
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	config  *Config
}

// NewMongoDB connects to the configured document store and pings it
// once. Any failure (timeout, auth, unreachable) is returned to the
// caller; there is no retry loop.
func NewMongoDB(cfg *Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*MongoDB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping document store: %w", err)
	}

	logger.Info(ctx, "[DB_INIT] Document store connection established", logging.Fields{
		"database":        cfg.Database,
		"connect_timeout": timeout.String(),
	})

	m := &MongoDB{
		client:  client,
		db:      client.Database(cfg.Database),
		logger:  logger,
		metrics: metricsCollector,
		config:  cfg,
	}

	// Index failures are logged, never fatal.
	m.ensureIndexes(ctx)

	return m, nil
}

// Close disconnects from the document store.
func (m *MongoDB) Close(ctx context.Context) error {
	m.logger.Info(ctx, "[DB_CLOSE] Closing document store connection", logging.Fields{
		"database": m.config.Database,
	})
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) ensureIndexes(ctx context.Context) {
	indexSets := map[string][]mongo.IndexModel{
		CollectionCurrent: {
			{Keys: bson.D{{Key: "location", Value: 1}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "temperature", Value: 1}}},
		},
		CollectionHistorical: {
			{Keys: bson.D{{Key: "location", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
	}

	for coll, indexes := range indexSets {
		if _, err := m.db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			m.logger.Warn(ctx, "[DB_INDEX] Failed to create indexes", logging.Fields{
				"collection": coll,
				"error":      err.Error(),
			})
		}
	}
}

// InsertOne inserts a document and returns its assigned identifier.
func (m *MongoDB) InsertOne(ctx context.Context, coll string, doc interface{}) (primitive.ObjectID, error) {
	timer := time.Now()
	defer m.observe("insert", timer)

	res, err := m.db.Collection(coll).InsertOne(ctx, doc)
	if err != nil {
		m.recordError(ctx, "insert", coll, err)
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	return id, nil
}

// FindAll decodes every document of a collection into dest, sorted by
// the given key (insertion order via _id when sort is empty).
func (m *MongoDB) FindAll(ctx context.Context, coll string, sort bson.D, dest interface{}) error {
	timer := time.Now()
	defer m.observe("find", timer)

	if len(sort) == 0 {
		sort = bson.D{{Key: "_id", Value: 1}}
	}

	cursor, err := m.db.Collection(coll).Find(ctx, bson.D{}, options.Find().SetSort(sort))
	if err != nil {
		m.recordError(ctx, "find", coll, err)
		return err
	}

	if err := cursor.All(ctx, dest); err != nil {
		m.recordError(ctx, "find", coll, err)
		return err
	}

	return nil
}

// FindByID decodes one document into dest. The boolean reports whether
// the identifier exists.
func (m *MongoDB) FindByID(ctx context.Context, coll string, id primitive.ObjectID, dest interface{}) (bool, error) {
	timer := time.Now()
	defer m.observe("find_by_id", timer)

	err := m.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(dest)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		m.recordError(ctx, "find_by_id", coll, err)
		return false, err
	}

	return true, nil
}

// ReplaceByID replaces a document in full. The boolean reports whether
// the identifier existed.
func (m *MongoDB) ReplaceByID(ctx context.Context, coll string, id primitive.ObjectID, doc interface{}) (bool, error) {
	timer := time.Now()
	defer m.observe("replace", timer)

	res, err := m.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		m.recordError(ctx, "replace", coll, err)
		return false, err
	}

	return res.MatchedCount > 0, nil
}

// DeleteByID removes one document. The boolean reports whether the
// identifier existed.
func (m *MongoDB) DeleteByID(ctx context.Context, coll string, id primitive.ObjectID) (bool, error) {
	timer := time.Now()
	defer m.observe("delete", timer)

	res, err := m.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		m.recordError(ctx, "delete", coll, err)
		return false, err
	}

	return res.DeletedCount > 0, nil
}

// DeleteAll removes every document of a collection. Idempotent.
func (m *MongoDB) DeleteAll(ctx context.Context, coll string) error {
	timer := time.Now()
	defer m.observe("clear", timer)

	if _, err := m.db.Collection(coll).DeleteMany(ctx, bson.D{}); err != nil {
		m.recordError(ctx, "clear", coll, err)
		return err
	}

	return nil
}

// HealthCheck performs a document store health check
func (m *MongoDB) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := m.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("document store health check failed: %w", err)
	}

	return nil
}

func (m *MongoDB) observe(operation string, start time.Time) {
	m.metrics.ObserveStorageOperation(operation, "mongo", time.Since(start))
}

func (m *MongoDB) recordError(ctx context.Context, operation, coll string, err error) {
	m.metrics.RecordStorageError(operation)
	m.logger.Error(ctx, "[DB_ERROR] Document store operation failed", logging.Fields{
		"operation":  operation,
		"collection": coll,
	}, err)
}
