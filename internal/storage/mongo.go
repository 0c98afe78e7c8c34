package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"weather-history/internal/filters"
	"weather-history/internal/models"
	"weather-history/pkg/database"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// MongoStore is the connected backend. It keeps filter semantics
// identical to the in-memory backend by loading the collection in
// insertion order and applying the opaque predicate in process; the
// store never interprets filters itself.
type MongoStore struct {
	db      *database.MongoDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// currentDoc is the persisted shape of a current observation. Field
// names are part of the public layout.
type currentDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Location    string             `bson:"location"`
	Temperature float64            `bson:"temperature"`
	Humidity    *float64           `bson:"humidity,omitempty"`
	WindSpeed   *float64           `bson:"wind_speed,omitempty"`
	Timestamp   time.Time          `bson:"timestamp"`
	Source      string             `bson:"source"`
}

// historicalDoc is the persisted shape of a historical observation.
type historicalDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Location       string             `bson:"location"`
	Date           time.Time          `bson:"date"`
	TemperatureMax float64            `bson:"temperature_max"`
	TemperatureMin float64            `bson:"temperature_min"`
	Precipitation  float64            `bson:"precipitation"`
	Source         string             `bson:"source"`
}

func toCurrentDoc(obs models.CurrentObservation) currentDoc {
	return currentDoc{
		Location:    obs.Location,
		Temperature: obs.Temperature,
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		Timestamp:   obs.Timestamp.UTC(),
		Source:      obs.Source,
	}
}

func (d currentDoc) toModel() models.CurrentObservation {
	return models.CurrentObservation{
		ID:          d.ID.Hex(),
		Location:    d.Location,
		Temperature: d.Temperature,
		Humidity:    d.Humidity,
		WindSpeed:   d.WindSpeed,
		Timestamp:   d.Timestamp.UTC(),
		Source:      d.Source,
	}
}

func toHistoricalDoc(obs models.HistoricalObservation) historicalDoc {
	return historicalDoc{
		Location:       obs.Location,
		Date:           models.NormalizeDate(obs.Date),
		TemperatureMax: obs.TemperatureMax,
		TemperatureMin: obs.TemperatureMin,
		Precipitation:  obs.Precipitation,
		Source:         obs.Source,
	}
}

func (d historicalDoc) toModel() models.HistoricalObservation {
	return models.HistoricalObservation{
		ID:             d.ID.Hex(),
		Location:       d.Location,
		Date:           models.NormalizeDate(d.Date),
		TemperatureMax: d.TemperatureMax,
		TemperatureMin: d.TemperatureMin,
		Precipitation:  d.Precipitation,
		Source:         d.Source,
	}
}

// NewMongoStore creates the connected storage backend.
func NewMongoStore(db *database.MongoDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *MongoStore {
	return &MongoStore{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IsConnected reports true: the durable backend is in use.
func (s *MongoStore) IsConnected() bool {
	return true
}

// Close releases the document store connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

// InsertCurrent validates the observation and persists it. Backend
// failures surface as StorageError; nothing is persisted on rejection.
func (s *MongoStore) InsertCurrent(ctx context.Context, obs models.CurrentObservation) (string, error) {
	if err := obs.Validate(); err != nil {
		return "", err
	}

	id, err := s.db.InsertOne(ctx, database.CollectionCurrent, toCurrentDoc(obs))
	if err != nil {
		return "", &StorageError{Op: "insert", Err: err}
	}

	s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionCurrent).Inc()

	return id.Hex(), nil
}

// InsertHistorical validates the observation and persists it.
func (s *MongoStore) InsertHistorical(ctx context.Context, obs models.HistoricalObservation) (string, error) {
	if err := obs.Validate(); err != nil {
		return "", err
	}

	id, err := s.db.InsertOne(ctx, database.CollectionHistorical, toHistoricalDoc(obs))
	if err != nil {
		return "", &StorageError{Op: "insert", Err: err}
	}

	s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionHistorical).Inc()

	return id.Hex(), nil
}

// FindCurrent returns all current observations matching the predicate.
// Documents are loaded in insertion order (by _id) and sorted stably
// afterwards when a sort key is requested.
func (s *MongoStore) FindCurrent(ctx context.Context, pred filters.Current, sortKey SortKey) ([]models.CurrentObservation, error) {
	var docs []currentDoc
	if err := s.db.FindAll(ctx, database.CollectionCurrent, bson.D{}, &docs); err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}

	matched := make([]models.CurrentObservation, 0, len(docs))
	for _, d := range docs {
		obs := d.toModel()
		if pred == nil || pred(obs) {
			matched = append(matched, obs)
		}
	}

	sortCurrent(matched, sortKey)

	return matched, nil
}

// FindHistorical returns all historical observations matching the
// predicate.
func (s *MongoStore) FindHistorical(ctx context.Context, pred filters.Historical, sortKey SortKey) ([]models.HistoricalObservation, error) {
	var docs []historicalDoc
	if err := s.db.FindAll(ctx, database.CollectionHistorical, bson.D{}, &docs); err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}

	matched := make([]models.HistoricalObservation, 0, len(docs))
	for _, d := range docs {
		obs := d.toModel()
		if pred == nil || pred(obs) {
			matched = append(matched, obs)
		}
	}

	sortHistorical(matched, sortKey)

	return matched, nil
}

// UpdateCurrent applies the patch to the identified document, keeping
// it only if it still validates. Returns false when the identifier is
// absent or malformed.
func (s *MongoStore) UpdateCurrent(ctx context.Context, id string, patch models.CurrentPatch) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	var doc currentDoc
	found, err := s.db.FindByID(ctx, database.CollectionCurrent, oid, &doc)
	if err != nil {
		return false, &StorageError{Op: "update", Err: err}
	}
	if !found {
		return false, nil
	}

	obs := doc.toModel()
	patch.Apply(&obs)
	if err := obs.Validate(); err != nil {
		return false, err
	}

	updated := toCurrentDoc(obs)
	updated.ID = oid

	matched, err := s.db.ReplaceByID(ctx, database.CollectionCurrent, oid, updated)
	if err != nil {
		return false, &StorageError{Op: "update", Err: err}
	}

	return matched, nil
}

// UpdateHistorical applies the patch to the identified document.
func (s *MongoStore) UpdateHistorical(ctx context.Context, id string, patch models.HistoricalPatch) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	var doc historicalDoc
	found, err := s.db.FindByID(ctx, database.CollectionHistorical, oid, &doc)
	if err != nil {
		return false, &StorageError{Op: "update", Err: err}
	}
	if !found {
		return false, nil
	}

	obs := doc.toModel()
	patch.Apply(&obs)
	if err := obs.Validate(); err != nil {
		return false, err
	}

	updated := toHistoricalDoc(obs)
	updated.ID = oid

	matched, err := s.db.ReplaceByID(ctx, database.CollectionHistorical, oid, updated)
	if err != nil {
		return false, &StorageError{Op: "update", Err: err}
	}

	return matched, nil
}

// DeleteCurrent removes the identified document. Returns false when
// the identifier is absent or malformed.
func (s *MongoStore) DeleteCurrent(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	deleted, err := s.db.DeleteByID(ctx, database.CollectionCurrent, oid)
	if err != nil {
		return false, &StorageError{Op: "delete", Err: err}
	}
	if deleted {
		s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionCurrent).Dec()
	}

	return deleted, nil
}

// DeleteHistorical removes the identified document.
func (s *MongoStore) DeleteHistorical(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	deleted, err := s.db.DeleteByID(ctx, database.CollectionHistorical, oid)
	if err != nil {
		return false, &StorageError{Op: "delete", Err: err}
	}
	if deleted {
		s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionHistorical).Dec()
	}

	return deleted, nil
}

// Clear removes all records of all collections. Idempotent.
func (s *MongoStore) Clear(ctx context.Context) error {
	if err := s.db.DeleteAll(ctx, database.CollectionCurrent); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	if err := s.db.DeleteAll(ctx, database.CollectionHistorical); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}

	s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionCurrent).Set(0)
	s.metrics.StorageRecordsTotal.WithLabelValues(database.CollectionHistorical).Set(0)

	return nil
}
