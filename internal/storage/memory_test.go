package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-history/internal/filters"
	"weather-history/internal/models"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

var testMetrics = metrics.NewCollector("storage_test")

func testLogger() *logging.StructuredLogger {
	return logging.NewTestLogger(io.Discard)
}

func newTestStore() *MemoryStore {
	return NewMemoryStore(testLogger(), testMetrics)
}

func validCurrent(location string, temp float64, ts time.Time) models.CurrentObservation {
	return models.CurrentObservation{
		Location:    location,
		Temperature: temp,
		Timestamp:   ts,
		Source:      "test",
	}
}

func validHistorical(location string, date time.Time, maxTemp, minTemp float64) models.HistoricalObservation {
	return models.HistoricalObservation{
		Location:       location,
		Date:           models.NormalizeDate(date),
		TemperatureMax: maxTemp,
		TemperatureMin: minTemp,
		Source:         "test",
	}
}

func TestInsertAssignsUniqueIDs(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id1, err := store.InsertCurrent(ctx, validCurrent("Oslo", 10, base))
	require.NoError(t, err)
	id2, err := store.InsertCurrent(ctx, validCurrent("Oslo", 11, base))
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEmpty(t, id2)
	assert.NotEqual(t, id1, id2)
}

func TestInsertRejectsInvalidRecord(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.InsertCurrent(ctx, validCurrent("Oslo", 999, time.Now()))
	require.Error(t, err)

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)

	all, err := store.FindCurrent(ctx, nil, SortNone)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected records must not be stored")
}

func TestFindDefaultOrderIsInsertionOrder(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Timestamps run backwards; insertion order must still win.
	for i, temp := range []float64{30, 10, 20} {
		_, err := store.InsertCurrent(ctx, validCurrent("Oslo", temp, base.Add(-time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	all, err := store.FindCurrent(ctx, nil, SortNone)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, 30.0, all[0].Temperature)
	assert.Equal(t, 10.0, all[1].Temperature)
	assert.Equal(t, 20.0, all[2].Temperature)
}

func TestFindSortByTemperature(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, temp := range []float64{20, 10, 30} {
		_, err := store.InsertCurrent(ctx, validCurrent("Oslo", temp, base))
		require.NoError(t, err)
	}

	all, err := store.FindCurrent(ctx, nil, SortByTemperature)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, 10.0, all[0].Temperature)
	assert.Equal(t, 20.0, all[1].Temperature)
	assert.Equal(t, 30.0, all[2].Temperature)
}

func TestFindSortByTimeStableForTies(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.InsertCurrent(ctx, validCurrent("Oslo", 10, ts))
	require.NoError(t, err)
	second, err := store.InsertCurrent(ctx, validCurrent("Rome", 20, ts))
	require.NoError(t, err)

	all, err := store.FindCurrent(ctx, nil, SortByTime)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, first, all[0].ID, "equal timestamps keep insertion order")
	assert.Equal(t, second, all[1].ID)
}

func TestFindWithComposedFilter(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, rec := range []struct {
		location string
		temp     float64
	}{
		{"Oslo", 10}, {"Oslo", 20}, {"Rome", 30},
	} {
		_, err := store.InsertCurrent(ctx, validCurrent(rec.location, rec.temp, base))
		require.NoError(t, err)
	}

	minTemp, maxTemp := 15.0, 25.0
	rangePred, err := filters.TemperatureInRange(&minTemp, &maxTemp)
	require.NoError(t, err)

	matched, err := store.FindCurrent(ctx, filters.CurrentAll(
		filters.CurrentLocationEquals("Oslo"),
		rangePred,
	), SortNone)
	require.NoError(t, err)

	require.Len(t, matched, 1)
	assert.Equal(t, 20.0, matched[0].Temperature)
}

func TestUpdateCurrentAppliesPatchAndRevalidates(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := store.InsertCurrent(ctx, validCurrent("Oslo", 10, base))
	require.NoError(t, err)

	newTemp := 12.5
	found, err := store.UpdateCurrent(ctx, id, models.CurrentPatch{Temperature: &newTemp})
	require.NoError(t, err)
	assert.True(t, found)

	all, err := store.FindCurrent(ctx, nil, SortNone)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 12.5, all[0].Temperature)
	assert.Equal(t, "Oslo", all[0].Location)
}

func TestUpdateCurrentRejectsInvalidPatch(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := store.InsertCurrent(ctx, validCurrent("Oslo", 10, base))
	require.NoError(t, err)

	badTemp := 999.0
	_, err = store.UpdateCurrent(ctx, id, models.CurrentPatch{Temperature: &badTemp})
	require.Error(t, err)

	all, err := store.FindCurrent(ctx, nil, SortNone)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 10.0, all[0].Temperature, "failed update must not change the record")
}

func TestUpdateAbsentIDReturnsFalse(t *testing.T) {
	store := newTestStore()

	temp := 12.0
	found, err := store.UpdateCurrent(context.Background(), "no-such-id", models.CurrentPatch{Temperature: &temp})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateHistoricalRejectsInvertedExtremes(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	id, err := store.InsertHistorical(ctx, validHistorical("Oslo", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 15, 5))
	require.NoError(t, err)

	badMin := 20.0
	_, err = store.UpdateHistorical(ctx, id, models.HistoricalPatch{TemperatureMin: &badMin})
	require.Error(t, err)

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestDeleteRemovesRecord(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := store.InsertCurrent(ctx, validCurrent("Oslo", 10, base))
	require.NoError(t, err)

	found, err := store.DeleteCurrent(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)

	// Deleting again reports absence, not an error.
	found, err = store.DeleteCurrent(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)

	all, err := store.FindCurrent(ctx, nil, SortNone)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestClearIsIdempotent(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.InsertCurrent(ctx, validCurrent("Oslo", 10, base))
	require.NoError(t, err)
	_, err = store.InsertHistorical(ctx, validHistorical("Oslo", base, 15, 5))
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clearing an empty store succeeds")

	current, err := store.FindCurrent(ctx, nil, SortNone)
	require.NoError(t, err)
	assert.Empty(t, current)

	historical, err := store.FindHistorical(ctx, nil, SortNone)
	require.NoError(t, err)
	assert.Empty(t, historical)
}

func TestHistoricalSortByTemperatureUsesMidpoint(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	// Midpoints: 10, 5, 15.
	days := []models.HistoricalObservation{
		validHistorical("Oslo", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 15, 5),
		validHistorical("Oslo", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), 8, 2),
		validHistorical("Oslo", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), 20, 10),
	}
	for _, obs := range days {
		_, err := store.InsertHistorical(ctx, obs)
		require.NoError(t, err)
	}

	all, err := store.FindHistorical(ctx, nil, SortByTemperature)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, 5.0, all[0].MeanTemperature())
	assert.Equal(t, 10.0, all[1].MeanTemperature())
	assert.Equal(t, 15.0, all[2].MeanTemperature())
}

func TestMemoryStoreIsNotConnected(t *testing.T) {
	store := newTestStore()
	assert.False(t, store.IsConnected())
	assert.NoError(t, store.Close(context.Background()))
}
