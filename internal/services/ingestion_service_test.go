package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-history/internal/analyzer"
	"weather-history/internal/fetch"
	"weather-history/internal/models"
	"weather-history/internal/storage"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

var testMetrics = metrics.NewCollector("services_test")

func testLogger() *logging.StructuredLogger {
	return logging.NewTestLogger(io.Discard)
}

// fakeFetcher returns canned readings, or fails when err is set.
type fakeFetcher struct {
	current    fetch.RawCurrent
	historical []fetch.RawDaily
	err        error
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) FetchCurrent(ctx context.Context, location string) (fetch.RawCurrent, error) {
	if f.err != nil {
		return fetch.RawCurrent{}, f.err
	}
	return f.current, nil
}

func (f *fakeFetcher) FetchHistorical(ctx context.Context, location string, days int) ([]fetch.RawDaily, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.historical, nil
}

func newMemoryStore() *storage.MemoryStore {
	return storage.NewMemoryStore(testLogger(), testMetrics)
}

func TestIngestCurrentStoresValidatedObservation(t *testing.T) {
	humidity := 55.0
	fetcher := &fakeFetcher{
		current: fetch.RawCurrent{
			Location:    "Oslo",
			Temperature: 7.5,
			Humidity:    &humidity,
			Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	store := newMemoryStore()
	svc := NewIngestionService(store, fetcher, testLogger(), testMetrics)

	obs, err := svc.IngestCurrent(context.Background(), "Oslo")
	require.NoError(t, err)
	require.NotEmpty(t, obs.ID)
	assert.Equal(t, "fake", obs.Source)
	require.NotNil(t, obs.Humidity)
	assert.Equal(t, 55.0, *obs.Humidity)

	stored, err := store.FindCurrent(context.Background(), nil, storage.SortNone)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, obs.ID, stored[0].ID)
}

func TestIngestCurrentRejectsImplausibleReading(t *testing.T) {
	fetcher := &fakeFetcher{
		current: fetch.RawCurrent{
			Location:    "Oslo",
			Temperature: 999.0,
			Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	store := newMemoryStore()
	svc := NewIngestionService(store, fetcher, testLogger(), testMetrics)

	_, err := svc.IngestCurrent(context.Background(), "Oslo")
	require.Error(t, err)

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "temperature", validationErr.Field)

	stored, err := store.FindCurrent(context.Background(), nil, storage.SortNone)
	require.NoError(t, err)
	assert.Empty(t, stored, "rejected readings must not be persisted")
}

func TestIngestCurrentPropagatesFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	svc := NewIngestionService(newMemoryStore(), fetcher, testLogger(), testMetrics)

	_, err := svc.IngestCurrent(context.Background(), "Oslo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestIngestHistoricalCountsPartialFailures(t *testing.T) {
	fetcher := &fakeFetcher{
		historical: []fetch.RawDaily{
			{Location: "Oslo", Date: time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC), TemperatureMax: 15, TemperatureMin: 8, Precipitation: 0.2},
			// min above max, rejected by validation
			{Location: "Oslo", Date: time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), TemperatureMax: 10, TemperatureMin: 14},
			{Location: "Oslo", Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), TemperatureMax: 18, TemperatureMin: 9, Precipitation: 1.4},
		},
	}
	store := newMemoryStore()
	svc := NewIngestionService(store, fetcher, testLogger(), testMetrics)

	result, err := svc.IngestHistorical(context.Background(), "Oslo", 3)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 2, result.SuccessfulRecords)
	assert.Equal(t, 1, result.FailedRecords)
	require.Len(t, result.Errors, 1)

	stored, err := store.FindHistorical(context.Background(), nil, storage.SortNone)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestReportServiceSummary(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	for _, temp := range []float64{10, 20, 30} {
		obs, err := models.NewCurrentObservation("Oslo", temp, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), "test")
		require.NoError(t, err)
		_, err = store.InsertCurrent(ctx, *obs)
		require.NoError(t, err)
	}

	svc := NewReportService(store, analyzer.New(), testLogger(), testMetrics)

	summary, err := svc.Summary(ctx, KindCurrent)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 20.0, summary.MeanTemperature)
	assert.Equal(t, 20.0, summary.Range)
}

func TestReportServiceCompare(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	seed := func(location string, temps ...float64) {
		for i, temp := range temps {
			obs, err := models.NewCurrentObservation(location, temp, time.Date(2025, 6, 1, 12+i, 0, 0, 0, time.UTC), "test")
			require.NoError(t, err)
			_, err = store.InsertCurrent(ctx, *obs)
			require.NoError(t, err)
		}
	}
	seed("Oslo", 10, 12)
	seed("Rome", 14, 16)

	svc := NewReportService(store, analyzer.New(), testLogger(), testMetrics)

	cmp, err := svc.Compare(ctx, KindCurrent, "Oslo", "Rome")
	require.NoError(t, err)

	assert.Equal(t, 4.0, cmp.DeltaMean)
	require.NotNil(t, cmp.WarmerLocation)
	assert.Equal(t, "Rome", *cmp.WarmerLocation)
}

func TestReportServiceLocationReportUsesChronologicalOrder(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	// Inserted out of order; the trend must still see time order.
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, rec := range []struct {
		temp   float64
		offset time.Duration
	}{
		{20, 3 * time.Hour},
		{10, 1 * time.Hour},
		{20, 4 * time.Hour},
		{10, 2 * time.Hour},
	} {
		obs, err := models.NewCurrentObservation("Oslo", rec.temp, base.Add(rec.offset), "test")
		require.NoError(t, err)
		_, err = store.InsertCurrent(ctx, *obs)
		require.NoError(t, err)
	}

	svc := NewReportService(store, analyzer.New(), testLogger(), testMetrics)

	report, err := svc.LocationReport(ctx, KindCurrent, "Oslo")
	require.NoError(t, err)
	require.NotNil(t, report.Trend)

	assert.Equal(t, analyzer.Warming, report.Trend.Direction)
	assert.Equal(t, 10.0, report.Trend.Magnitude)
}

func TestReportServiceEmptyStore(t *testing.T) {
	svc := NewReportService(newMemoryStore(), analyzer.New(), testLogger(), testMetrics)

	_, err := svc.Summary(context.Background(), KindCurrent)
	require.ErrorIs(t, err, analyzer.ErrEmptyInput)
}
