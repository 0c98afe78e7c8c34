// Package services implements the application use cases on top of the
// storage port, the analyzer, and the upstream fetchers.
package services

import (
	"context"
	"time"

	"weather-history/internal/fetch"
	"weather-history/internal/models"
	"weather-history/internal/storage"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// IngestionResult summarizes one ingestion run.
type IngestionResult struct {
	Location          string        `json:"location"`
	Source            string        `json:"source"`
	TotalRecords      int           `json:"total_records"`
	SuccessfulRecords int           `json:"successful_records"`
	FailedRecords     int           `json:"failed_records"`
	Duration          time.Duration `json:"duration"`
	Errors            []string      `json:"errors,omitempty"`
}

// IngestionService fetches readings from a provider, validates them
// through the model constructors, and persists them. Rejected records
// are counted and reported, never stored.
type IngestionService struct {
	store   storage.Port
	fetcher fetch.Fetcher
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(store storage.Port, fetcher fetch.Fetcher, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestCurrent fetches and stores the current reading for a location.
// Returns the stored observation.
func (s *IngestionService) IngestCurrent(ctx context.Context, location string) (*models.CurrentObservation, error) {
	raw, err := s.fetcher.FetchCurrent(ctx, location)
	if err != nil {
		s.metrics.RecordIngestionError("fetch")
		s.logger.Error(ctx, "[INGEST_FETCH] Failed to fetch current reading", logging.Fields{
			"location": location,
			"source":   s.fetcher.Name(),
		}, err)
		return nil, err
	}

	obs, err := models.NewCurrentObservation(raw.Location, raw.Temperature, raw.Timestamp, s.fetcher.Name())
	if err != nil {
		s.metrics.RecordIngestionError("validation")
		return nil, err
	}
	obs.Humidity = raw.Humidity
	obs.WindSpeed = raw.WindSpeed

	id, err := s.store.InsertCurrent(ctx, *obs)
	if err != nil {
		s.metrics.RecordIngestionError("storage")
		return nil, err
	}
	obs.ID = id

	s.metrics.IngestionRecordsTotal.Inc()
	s.logger.Info(ctx, "[INGEST_CURRENT] Stored current observation", logging.Fields{
		"location":    obs.Location,
		"temperature": obs.Temperature,
		"source":      obs.Source,
		"id":          id,
	})

	return obs, nil
}

// IngestHistorical fetches and stores up to the requested number of
// past daily records for a location. Individual record failures do not
// abort the run; they are tallied in the result.
func (s *IngestionService) IngestHistorical(ctx context.Context, location string, days int) (*IngestionResult, error) {
	start := time.Now()

	result := &IngestionResult{
		Location: location,
		Source:   s.fetcher.Name(),
	}

	daily, err := s.fetcher.FetchHistorical(ctx, location, days)
	if err != nil {
		s.metrics.RecordIngestionError("fetch")
		s.logger.Error(ctx, "[INGEST_FETCH] Failed to fetch historical readings", logging.Fields{
			"location": location,
			"days":     days,
			"source":   s.fetcher.Name(),
		}, err)
		return nil, err
	}

	result.TotalRecords = len(daily)

	for _, raw := range daily {
		obs, err := models.NewHistoricalObservation(
			raw.Location, raw.Date, raw.TemperatureMax, raw.TemperatureMin, raw.Precipitation, s.fetcher.Name(),
		)
		if err != nil {
			result.FailedRecords++
			result.Errors = append(result.Errors, err.Error())
			s.metrics.RecordIngestionError("validation")
			continue
		}

		if _, err := s.store.InsertHistorical(ctx, *obs); err != nil {
			result.FailedRecords++
			result.Errors = append(result.Errors, err.Error())
			s.metrics.RecordIngestionError("storage")
			continue
		}

		result.SuccessfulRecords++
		s.metrics.IngestionRecordsTotal.Inc()
	}

	result.Duration = time.Since(start)

	s.logger.Info(ctx, "[INGEST_HISTORICAL] Ingestion run finished", logging.Fields{
		"location":   location,
		"total":      result.TotalRecords,
		"successful": result.SuccessfulRecords,
		"failed":     result.FailedRecords,
		"duration":   result.Duration.String(),
	})

	return result, nil
}
