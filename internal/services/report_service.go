package services

import (
	"context"
	"time"

	"weather-history/internal/analyzer"
	"weather-history/internal/filters"
	"weather-history/internal/storage"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// RecordKind selects which collection a report is computed over.
type RecordKind string

const (
	KindCurrent    RecordKind = "current"
	KindHistorical RecordKind = "historical"
)

// ReportService computes analyzer reports over stored observations.
// Records are retrieved in chronological order so trend classification
// sees a properly ordered sequence.
type ReportService struct {
	store    storage.Port
	analyzer *analyzer.Analyzer
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewReportService creates a report service.
func NewReportService(store storage.Port, a *analyzer.Analyzer, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ReportService {
	return &ReportService{
		store:    store,
		analyzer: a,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

func (s *ReportService) samples(ctx context.Context, kind RecordKind, location string) ([]analyzer.Sample, error) {
	switch kind {
	case KindHistorical:
		var pred filters.Historical
		if location != "" {
			pred = filters.HistoricalLocationEquals(location)
		}
		obs, err := s.store.FindHistorical(ctx, pred, storage.SortByTime)
		if err != nil {
			return nil, err
		}
		return analyzer.FromHistorical(obs), nil
	default:
		var pred filters.Current
		if location != "" {
			pred = filters.CurrentLocationEquals(location)
		}
		obs, err := s.store.FindCurrent(ctx, pred, storage.SortByTime)
		if err != nil {
			return nil, err
		}
		return analyzer.FromCurrent(obs), nil
	}
}

// Summary computes aggregate statistics over all records of a kind.
func (s *ReportService) Summary(ctx context.Context, kind RecordKind) (analyzer.Summary, error) {
	start := time.Now()
	defer s.observe("summary", start)

	samples, err := s.samples(ctx, kind, "")
	if err != nil {
		return analyzer.Summary{}, err
	}

	return s.analyzer.SummaryStatistics(samples)
}

// LocationReport computes the statistics and trend for one location.
func (s *ReportService) LocationReport(ctx context.Context, kind RecordKind, location string) (analyzer.Report, error) {
	start := time.Now()
	defer s.observe("location_report", start)

	samples, err := s.samples(ctx, kind, location)
	if err != nil {
		return analyzer.Report{}, err
	}

	report, err := s.analyzer.LocationReport(location, samples)
	if err != nil {
		return analyzer.Report{}, err
	}

	s.logger.Debug(ctx, "[REPORT_LOCATION] Report generated", logging.Fields{
		"location": location,
		"kind":     string(kind),
		"count":    report.Stats.Count,
	})

	return report, nil
}

// Compare contrasts two locations over records of one kind.
func (s *ReportService) Compare(ctx context.Context, kind RecordKind, locationA, locationB string) (analyzer.Comparison, error) {
	start := time.Now()
	defer s.observe("compare", start)

	samplesA, err := s.samples(ctx, kind, locationA)
	if err != nil {
		return analyzer.Comparison{}, err
	}

	samplesB, err := s.samples(ctx, kind, locationB)
	if err != nil {
		return analyzer.Comparison{}, err
	}

	return s.analyzer.Compare(locationA, samplesA, locationB, samplesB)
}

// Trend classifies temperature movement for one location.
func (s *ReportService) Trend(ctx context.Context, kind RecordKind, location string) (analyzer.Trend, error) {
	start := time.Now()
	defer s.observe("trend", start)

	samples, err := s.samples(ctx, kind, location)
	if err != nil {
		return analyzer.Trend{}, err
	}

	return s.analyzer.TrendOf(samples)
}

func (s *ReportService) observe(report string, start time.Time) {
	s.metrics.ReportDuration.WithLabelValues(report).Observe(time.Since(start).Seconds())
}
