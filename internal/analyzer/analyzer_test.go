package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-history/internal/models"
)

func samplesOf(location string, temps ...float64) []Sample {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]Sample, len(temps))
	for i, temp := range temps {
		samples[i] = Sample{
			Location:    location,
			Temperature: temp,
			Time:        base.Add(time.Duration(i) * time.Hour),
		}
	}
	return samples
}

func TestSummaryStatistics(t *testing.T) {
	a := New()

	summary, err := a.SummaryStatistics(samplesOf("Oslo", 10, 20, 30))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 1, summary.UniqueLocationCount)
	assert.Equal(t, 20.0, summary.MeanTemperature)
	assert.Equal(t, 30.0, summary.MaxTemperature)
	assert.Equal(t, 10.0, summary.MinTemperature)
	assert.Equal(t, 20.0, summary.Range)
}

func TestSummaryStatisticsSingleRecord(t *testing.T) {
	a := New()

	summary, err := a.SummaryStatistics(samplesOf("Oslo", 12.5))
	require.NoError(t, err)

	assert.Equal(t, 12.5, summary.MeanTemperature)
	assert.Equal(t, 12.5, summary.MaxTemperature)
	assert.Equal(t, 12.5, summary.MinTemperature)
	assert.Equal(t, 0.0, summary.Range)
}

func TestSummaryStatisticsCountsUniqueLocations(t *testing.T) {
	a := New()
	samples := append(samplesOf("Oslo", 10, 12), samplesOf("Rome", 20)...)

	summary, err := a.SummaryStatistics(samples)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 2, summary.UniqueLocationCount)
}

func TestSummaryStatisticsEmptyInput(t *testing.T) {
	a := New()

	_, err := a.SummaryStatistics(nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestTrendWarming(t *testing.T) {
	a := New()

	trend, err := a.TrendOf(samplesOf("Oslo", 10, 10, 20, 20))
	require.NoError(t, err)

	assert.Equal(t, Warming, trend.Direction)
	assert.Equal(t, 10.0, trend.Magnitude)
}

func TestTrendCooling(t *testing.T) {
	a := New()

	trend, err := a.TrendOf(samplesOf("Oslo", 20, 20, 10, 10))
	require.NoError(t, err)

	assert.Equal(t, Cooling, trend.Direction)
	assert.Equal(t, -10.0, trend.Magnitude)
}

func TestTrendStableBelowThreshold(t *testing.T) {
	a := New()

	trend, err := a.TrendOf(samplesOf("Oslo", 15.0, 15.3))
	require.NoError(t, err)

	assert.Equal(t, Stable, trend.Direction)
	assert.InDelta(t, 0.3, trend.Magnitude, 1e-9)
}

func TestTrendThresholdIsInclusive(t *testing.T) {
	a := New()

	trend, err := a.TrendOf(samplesOf("Oslo", 15.0, 15.5))
	require.NoError(t, err)

	assert.Equal(t, Warming, trend.Direction, "magnitude exactly at the threshold classifies as movement")
}

func TestTrendOddLengthExtraRecordInLaterHalf(t *testing.T) {
	a := New()

	// Earlier half [10], later half [20, 20]: magnitude 10.
	trend, err := a.TrendOf(samplesOf("Oslo", 10, 20, 20))
	require.NoError(t, err)

	assert.Equal(t, Warming, trend.Direction)
	assert.Equal(t, 10.0, trend.Magnitude)
}

func TestTrendSortsByTime(t *testing.T) {
	a := New()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Supplied out of order; trend must classify on time order.
	samples := []Sample{
		{Location: "Oslo", Temperature: 20, Time: base.Add(3 * time.Hour)},
		{Location: "Oslo", Temperature: 10, Time: base.Add(1 * time.Hour)},
		{Location: "Oslo", Temperature: 20, Time: base.Add(4 * time.Hour)},
		{Location: "Oslo", Temperature: 10, Time: base.Add(2 * time.Hour)},
	}

	trend, err := a.TrendOf(samples)
	require.NoError(t, err)

	assert.Equal(t, Warming, trend.Direction)
	assert.Equal(t, 10.0, trend.Magnitude)
}

func TestTrendInsufficientData(t *testing.T) {
	a := New()

	_, err := a.TrendOf(samplesOf("Oslo", 15))
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = a.TrendOf(nil)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestTrendCustomThreshold(t *testing.T) {
	a := New(WithStableThreshold(5))

	trend, err := a.TrendOf(samplesOf("Oslo", 10, 13))
	require.NoError(t, err)

	assert.Equal(t, Stable, trend.Direction)
}

func TestLocationReportFiltersExactLocation(t *testing.T) {
	a := New()
	samples := append(samplesOf("Oslo", 10, 20), samplesOf("Rome", 30)...)

	report, err := a.LocationReport("Oslo", samples)
	require.NoError(t, err)

	assert.Equal(t, "Oslo", report.Location)
	assert.Equal(t, 2, report.Stats.Count)
	assert.Equal(t, 15.0, report.Stats.MeanTemperature)
	require.NotNil(t, report.Trend)
	assert.Equal(t, Warming, report.Trend.Direction)
}

func TestLocationReportOmitsTrendForSingleRecord(t *testing.T) {
	a := New()

	report, err := a.LocationReport("Oslo", samplesOf("Oslo", 12))
	require.NoError(t, err)

	assert.Nil(t, report.Trend)
}

func TestLocationReportUnknownLocation(t *testing.T) {
	a := New()

	_, err := a.LocationReport("Atlantis", samplesOf("Oslo", 12))
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestCompare(t *testing.T) {
	a := New()

	cmp, err := a.Compare("Oslo", samplesOf("Oslo", 10, 12), "Rome", samplesOf("Rome", 14, 16))
	require.NoError(t, err)

	assert.Equal(t, 11.0, cmp.StatsA.MeanTemperature)
	assert.Equal(t, 15.0, cmp.StatsB.MeanTemperature)
	assert.Equal(t, 4.0, cmp.DeltaMean)
	require.NotNil(t, cmp.WarmerLocation)
	assert.Equal(t, "Rome", *cmp.WarmerLocation)
}

func TestCompareDeltaIsSigned(t *testing.T) {
	a := New()

	cmp, err := a.Compare("Rome", samplesOf("Rome", 20), "Oslo", samplesOf("Oslo", 10))
	require.NoError(t, err)

	assert.Equal(t, -10.0, cmp.DeltaMean)
	require.NotNil(t, cmp.WarmerLocation)
	assert.Equal(t, "Rome", *cmp.WarmerLocation)
}

func TestCompareTieHasNoWarmerLocation(t *testing.T) {
	a := New()

	cmp, err := a.Compare("Oslo", samplesOf("Oslo", 15), "Rome", samplesOf("Rome", 15))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cmp.DeltaMean)
	assert.Nil(t, cmp.WarmerLocation)
}

func TestCompareEmptySide(t *testing.T) {
	a := New()

	_, err := a.Compare("Oslo", samplesOf("Oslo", 15), "Rome", nil)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = a.Compare("Oslo", nil, "Rome", samplesOf("Rome", 15))
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestFromHistoricalUsesMidpoint(t *testing.T) {
	obs := []models.HistoricalObservation{
		{Location: "Oslo", Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), TemperatureMax: 20, TemperatureMin: 10},
	}

	samples := FromHistorical(obs)
	require.Len(t, samples, 1)
	assert.Equal(t, 15.0, samples[0].Temperature)
}

func TestFromCurrentPreservesOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	obs := []models.CurrentObservation{
		{Location: "Oslo", Temperature: 10, Timestamp: base},
		{Location: "Rome", Temperature: 20, Timestamp: base.Add(time.Hour)},
	}

	samples := FromCurrent(obs)
	require.Len(t, samples, 2)
	assert.Equal(t, "Oslo", samples[0].Location)
	assert.Equal(t, "Rome", samples[1].Location)
}
