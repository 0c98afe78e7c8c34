package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-history/internal/models"
)

func current(location string, temp float64) models.CurrentObservation {
	return models.CurrentObservation{
		Location:    location,
		Temperature: temp,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func historical(location string, date time.Time) models.HistoricalObservation {
	return models.HistoricalObservation{
		Location:       location,
		Date:           models.NormalizeDate(date),
		TemperatureMax: 15,
		TemperatureMin: 5,
	}
}

func ptr(v float64) *float64 { return &v }

func TestLocationEqualsIsExact(t *testing.T) {
	pred := CurrentLocationEquals("Oslo")

	assert.True(t, pred(current("Oslo", 10)))
	assert.False(t, pred(current("oslo", 10)), "match is case-sensitive")
	assert.False(t, pred(current("Oslofjord", 10)))
}

func TestTemperatureInRangeInclusiveBounds(t *testing.T) {
	pred, err := TemperatureInRange(ptr(10), ptr(20))
	require.NoError(t, err)

	assert.True(t, pred(current("Oslo", 10)))
	assert.True(t, pred(current("Oslo", 20)))
	assert.True(t, pred(current("Oslo", 15)))
	assert.False(t, pred(current("Oslo", 9.9)))
	assert.False(t, pred(current("Oslo", 20.1)))
}

func TestTemperatureInRangeOpenBounds(t *testing.T) {
	lower, err := TemperatureInRange(ptr(0), nil)
	require.NoError(t, err)
	assert.True(t, lower(current("Oslo", 100)))
	assert.False(t, lower(current("Oslo", -1)))

	upper, err := TemperatureInRange(nil, ptr(0))
	require.NoError(t, err)
	assert.True(t, upper(current("Oslo", -50)))
	assert.False(t, upper(current("Oslo", 1)))

	all, err := TemperatureInRange(nil, nil)
	require.NoError(t, err)
	assert.True(t, all(current("Oslo", 42)))
}

func TestTemperatureInRangeRejectsInvertedBounds(t *testing.T) {
	_, err := TemperatureInRange(ptr(20), ptr(10))
	require.Error(t, err)

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "temperature_range", validationErr.Field)
}

func TestDateInRangeInclusiveAndNormalized(t *testing.T) {
	start := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC) // time component ignored
	end := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	pred := DateInRange(&start, &end)

	assert.True(t, pred(historical("Oslo", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))))
	assert.True(t, pred(historical("Oslo", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))))
	assert.False(t, pred(historical("Oslo", time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC))))
	assert.False(t, pred(historical("Oslo", time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC))))
}

func TestCurrentAllConjunction(t *testing.T) {
	rangePred, err := TemperatureInRange(ptr(5), ptr(15))
	require.NoError(t, err)

	pred := CurrentAll(CurrentLocationEquals("Oslo"), rangePred)

	assert.True(t, pred(current("Oslo", 10)))
	assert.False(t, pred(current("Oslo", 20)), "one failing strategy rejects the record")
	assert.False(t, pred(current("Rome", 10)))
}

func TestCurrentAllEmptyMatchesEverything(t *testing.T) {
	pred := CurrentAll()
	assert.True(t, pred(current("Anywhere", -40)))
}

func TestCurrentAllSkipsNilPredicates(t *testing.T) {
	pred := CurrentAll(nil, CurrentLocationEquals("Oslo"), nil)
	assert.True(t, pred(current("Oslo", 10)))
	assert.False(t, pred(current("Rome", 10)))
}

func TestHistoricalAllConjunction(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	pred := HistoricalAll(HistoricalLocationEquals("Oslo"), DateInRange(&start, nil))

	assert.True(t, pred(historical("Oslo", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))))
	assert.False(t, pred(historical("Rome", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))))
	assert.False(t, pred(historical("Oslo", time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC))))
}
