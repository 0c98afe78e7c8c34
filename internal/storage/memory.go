package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"weather-history/internal/filters"
	"weather-history/internal/models"
	"weather-history/pkg/database"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// MemoryStore is the offline backend: functionally complete, but its
// state does not survive a process restart. Slices preserve insertion
// order, which is the contract's default result order.
type MemoryStore struct {
	mu         sync.RWMutex
	current    []models.CurrentObservation
	historical []models.HistoricalObservation
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewMemoryStore creates an empty in-memory storage backend.
func NewMemoryStore(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *MemoryStore {
	return &MemoryStore{
		current:    make([]models.CurrentObservation, 0),
		historical: make([]models.HistoricalObservation, 0),
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// IsConnected reports false: the durable backend is not in use.
func (s *MemoryStore) IsConnected() bool {
	return false
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// InsertCurrent validates the observation and stores a copy with a
// freshly assigned identifier.
func (s *MemoryStore) InsertCurrent(ctx context.Context, obs models.CurrentObservation) (string, error) {
	timer := time.Now()
	defer s.observe("insert", timer)

	if err := obs.Validate(); err != nil {
		return "", err
	}

	obs.ID = uuid.NewString()

	s.mu.Lock()
	s.current = append(s.current, obs)
	s.mu.Unlock()

	s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionCurrent).Inc()

	return obs.ID, nil
}

// InsertHistorical validates the observation and stores a copy with a
// freshly assigned identifier.
func (s *MemoryStore) InsertHistorical(ctx context.Context, obs models.HistoricalObservation) (string, error) {
	timer := time.Now()
	defer s.observe("insert", timer)

	if err := obs.Validate(); err != nil {
		return "", err
	}

	obs.ID = uuid.NewString()

	s.mu.Lock()
	s.historical = append(s.historical, obs)
	s.mu.Unlock()

	s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionHistorical).Inc()

	return obs.ID, nil
}

// FindCurrent returns all current observations matching the predicate.
func (s *MemoryStore) FindCurrent(ctx context.Context, pred filters.Current, sortKey SortKey) ([]models.CurrentObservation, error) {
	timer := time.Now()
	defer s.observe("find", timer)

	s.mu.RLock()
	matched := make([]models.CurrentObservation, 0, len(s.current))
	for _, obs := range s.current {
		if pred == nil || pred(obs) {
			matched = append(matched, obs)
		}
	}
	s.mu.RUnlock()

	sortCurrent(matched, sortKey)

	return matched, nil
}

// FindHistorical returns all historical observations matching the
// predicate.
func (s *MemoryStore) FindHistorical(ctx context.Context, pred filters.Historical, sortKey SortKey) ([]models.HistoricalObservation, error) {
	timer := time.Now()
	defer s.observe("find", timer)

	s.mu.RLock()
	matched := make([]models.HistoricalObservation, 0, len(s.historical))
	for _, obs := range s.historical {
		if pred == nil || pred(obs) {
			matched = append(matched, obs)
		}
	}
	s.mu.RUnlock()

	sortHistorical(matched, sortKey)

	return matched, nil
}

// UpdateCurrent applies the patch to the record with the given
// identifier, keeping the record only if it still validates. Returns
// false when the identifier is absent.
func (s *MemoryStore) UpdateCurrent(ctx context.Context, id string, patch models.CurrentPatch) (bool, error) {
	timer := time.Now()
	defer s.observe("update", timer)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.current {
		if s.current[i].ID != id {
			continue
		}

		updated := s.current[i]
		patch.Apply(&updated)
		if err := updated.Validate(); err != nil {
			return false, err
		}

		s.current[i] = updated
		return true, nil
	}

	return false, nil
}

// UpdateHistorical applies the patch to the record with the given
// identifier. Returns false when the identifier is absent.
func (s *MemoryStore) UpdateHistorical(ctx context.Context, id string, patch models.HistoricalPatch) (bool, error) {
	timer := time.Now()
	defer s.observe("update", timer)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.historical {
		if s.historical[i].ID != id {
			continue
		}

		updated := s.historical[i]
		patch.Apply(&updated)
		if err := updated.Validate(); err != nil {
			return false, err
		}

		s.historical[i] = updated
		return true, nil
	}

	return false, nil
}

// DeleteCurrent removes the record with the given identifier. Returns
// false when the identifier is absent.
func (s *MemoryStore) DeleteCurrent(ctx context.Context, id string) (bool, error) {
	timer := time.Now()
	defer s.observe("delete", timer)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.current {
		if s.current[i].ID == id {
			s.current = append(s.current[:i], s.current[i+1:]...)
			s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionCurrent).Dec()
			return true, nil
		}
	}

	return false, nil
}

// DeleteHistorical removes the record with the given identifier.
func (s *MemoryStore) DeleteHistorical(ctx context.Context, id string) (bool, error) {
	timer := time.Now()
	defer s.observe("delete", timer)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.historical {
		if s.historical[i].ID == id {
			s.historical = append(s.historical[:i], s.historical[i+1:]...)
			s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionHistorical).Dec()
			return true, nil
		}
	}

	return false, nil
}

// Clear removes all records of all collections. Idempotent.
func (s *MemoryStore) Clear(ctx context.Context) error {
	timer := time.Now()
	defer s.observe("clear", timer)

	s.mu.Lock()
	s.current = s.current[:0]
	s.historical = s.historical[:0]
	s.mu.Unlock()

	s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionCurrent).Set(0)
	s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionHistorical).Set(0)

	return nil
}

func (s *MemoryStore) observe(operation string, start time.Time) {
	s.metrics.ObserveStorageOperation(operation, "memory", time.Since(start))
}

func sortCurrent(obs []models.CurrentObservation, key SortKey) {
	switch key {
	case SortByTime:
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].Timestamp.Before(obs[j].Timestamp)
		})
	case SortByTemperature:
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].Temperature < obs[j].Temperature
		})
	}
}

func sortHistorical(obs []models.HistoricalObservation, key SortKey) {
	switch key {
	case SortByTime:
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].Date.Before(obs[j].Date)
		})
	case SortByTemperature:
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].MeanTemperature() < obs[j].MeanTemperature()
		})
	}
}
