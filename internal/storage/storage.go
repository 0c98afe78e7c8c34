// Package storage provides the persistence port with two
// interchangeable backends: a document-store backend used when the
// configured database is reachable, and an in-memory backend
// substituted when it is not. Both honor identical method contracts, so
// callers never special-case persistence availability.
package storage

import (
	"context"
	"fmt"

	"weather-history/internal/filters"
	"weather-history/internal/models"
	"weather-history/pkg/database"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// SortKey selects the result order of a find. SortNone keeps insertion
// order; explicit keys sort stably, so ties keep insertion order.
type SortKey string

const (
	SortNone          SortKey = ""
	SortByTime        SortKey = "time"
	SortByTemperature SortKey = "temperature"
)

// Port is the persistence contract. Inserts validate before reaching
// storage and assign the identifier exactly once. Finds take an opaque
// predicate (nil matches all records). Update and delete report absence
// of the identifier as false, not as an error.
type Port interface {
	InsertCurrent(ctx context.Context, obs models.CurrentObservation) (string, error)
	InsertHistorical(ctx context.Context, obs models.HistoricalObservation) (string, error)

	FindCurrent(ctx context.Context, pred filters.Current, sort SortKey) ([]models.CurrentObservation, error)
	FindHistorical(ctx context.Context, pred filters.Historical, sort SortKey) ([]models.HistoricalObservation, error)

	UpdateCurrent(ctx context.Context, id string, patch models.CurrentPatch) (bool, error)
	UpdateHistorical(ctx context.Context, id string, patch models.HistoricalPatch) (bool, error)

	DeleteCurrent(ctx context.Context, id string) (bool, error)
	DeleteHistorical(ctx context.Context, id string) (bool, error)

	// Clear removes all records of all collections. Idempotent.
	Clear(ctx context.Context) error

	// IsConnected reports whether the durable backend is in use.
	IsConnected() bool

	Close(ctx context.Context) error
}

// StorageError reports a backend that was reachable but failed an
// operation. It is surfaced to the caller and never retried here;
// retry policy belongs to the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsTransient returns true; a later attempt may succeed.
func (e *StorageError) IsTransient() bool {
	return true
}

// Open constructs the storage port. The document store is attempted
// exactly once: success selects the connected backend, any failure
// selects the in-memory backend for the lifetime of the process. The
// transition is one-way; backend unavailability is not an error.
func Open(ctx context.Context, cfg *database.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) Port {
	db, err := database.NewMongoDB(cfg, logger, metricsCollector)
	if err != nil {
		logger.Warn(ctx, "[STORAGE_OFFLINE] Document store unreachable, falling back to in-memory storage", logging.Fields{
			"database": cfg.Database,
			"error":    err.Error(),
		})
		return NewMemoryStore(logger, metricsCollector)
	}

	logger.Info(ctx, "[STORAGE_CONNECTED] Using document store backend", logging.Fields{
		"database": cfg.Database,
	})

	return NewMongoStore(db, logger, metricsCollector)
}
