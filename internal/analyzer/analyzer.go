// Package analyzer derives aggregate statistics, trend signals, and
// location comparisons from observation sequences. Every operation is a
// pure function of its input: no storage dependency, no hidden state.
package analyzer

import (
	"errors"
	"sort"
	"time"

	"weather-history/internal/models"
)

var (
	// ErrEmptyInput is returned when an operation receives no records.
	ErrEmptyInput = errors.New("no records to analyze")

	// ErrInsufficientData is returned when a trend is requested over
	// fewer than two records.
	ErrInsufficientData = errors.New("at least two records are required for a trend")
)

// DefaultStableThreshold is the magnitude in °C below which a
// temperature movement is classified as Stable. The value is a declared
// constant carried over from the source system, not a derived quantity.
const DefaultStableThreshold = 0.5

// Direction classifies temperature movement between the earlier and
// later halves of an ordered record sequence.
type Direction string

const (
	Warming Direction = "Warming"
	Cooling Direction = "Cooling"
	Stable  Direction = "Stable"
)

// Sample is the analyzer's record-kind-independent input unit. A single
// call operates on samples of one kind only; the converters below
// enforce the per-kind temperature convention.
type Sample struct {
	Location    string
	Temperature float64
	Time        time.Time
}

// FromCurrent converts current observations to samples using the
// observed temperature.
func FromCurrent(obs []models.CurrentObservation) []Sample {
	samples := make([]Sample, len(obs))
	for i, o := range obs {
		samples[i] = Sample{
			Location:    o.Location,
			Temperature: o.Temperature,
			Time:        o.Timestamp,
		}
	}
	return samples
}

// FromHistorical converts historical observations to samples using the
// (max+min)/2 midpoint as the day's temperature.
func FromHistorical(obs []models.HistoricalObservation) []Sample {
	samples := make([]Sample, len(obs))
	for i, o := range obs {
		samples[i] = Sample{
			Location:    o.Location,
			Temperature: o.MeanTemperature(),
			Time:        o.Date,
		}
	}
	return samples
}

// Summary holds the aggregate statistics for one record set.
type Summary struct {
	Count               int     `json:"count"`
	UniqueLocationCount int     `json:"unique_location_count"`
	MeanTemperature     float64 `json:"mean_temperature"`
	MaxTemperature      float64 `json:"max_temperature"`
	MinTemperature      float64 `json:"min_temperature"`
	Range               float64 `json:"range"`
}

// Trend classifies temperature movement across an ordered sequence.
// Magnitude is the later-half mean minus the earlier-half mean, signed.
type Trend struct {
	Direction Direction `json:"direction"`
	Magnitude float64   `json:"magnitude"`
}

// Report bundles the statistics and trend for one location. Trend is
// nil when the location has fewer than two records.
type Report struct {
	Location string  `json:"location"`
	Stats    Summary `json:"stats"`
	Trend    *Trend  `json:"trend,omitempty"`
}

// Comparison contrasts two locations. DeltaMean is meanB minus meanA.
// WarmerLocation is nil when the means tie exactly.
type Comparison struct {
	LocationA      string  `json:"location_a"`
	LocationB      string  `json:"location_b"`
	StatsA         Summary `json:"stats_a"`
	StatsB         Summary `json:"stats_b"`
	DeltaMean      float64 `json:"delta_mean"`
	WarmerLocation *string `json:"warmer_location"`
}

// Analyzer evaluates record sequences already retrieved from storage.
type Analyzer struct {
	stableThreshold float64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStableThreshold overrides the Stable classification threshold.
func WithStableThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		a.stableThreshold = threshold
	}
}

// New creates an Analyzer with the default stable threshold.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{stableThreshold: DefaultStableThreshold}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SummaryStatistics computes count, unique locations, mean, extremes,
// and range over the given samples. Returns ErrEmptyInput for an empty
// set.
func (a *Analyzer) SummaryStatistics(samples []Sample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, ErrEmptyInput
	}

	locations := make(map[string]struct{}, len(samples))
	sum := 0.0
	minTemp := samples[0].Temperature
	maxTemp := samples[0].Temperature

	for _, s := range samples {
		locations[s.Location] = struct{}{}
		sum += s.Temperature
		if s.Temperature < minTemp {
			minTemp = s.Temperature
		}
		if s.Temperature > maxTemp {
			maxTemp = s.Temperature
		}
	}

	return Summary{
		Count:               len(samples),
		UniqueLocationCount: len(locations),
		MeanTemperature:     sum / float64(len(samples)),
		MaxTemperature:      maxTemp,
		MinTemperature:      minTemp,
		Range:               maxTemp - minTemp,
	}, nil
}

// TrendOf classifies temperature movement over a chronologically
// ordered sequence. The input is sorted stably by time so callers that
// already supply ordered records are unaffected. Requires at least two
// samples; fewer return ErrInsufficientData.
//
// The sequence splits at the midpoint index; odd lengths put the extra
// record in the later half.
func (a *Analyzer) TrendOf(samples []Sample) (Trend, error) {
	if len(samples) < 2 {
		return Trend{}, ErrInsufficientData
	}

	ordered := make([]Sample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Time.Before(ordered[j].Time)
	})

	mid := len(ordered) / 2
	earlier := ordered[:mid]
	later := ordered[mid:]

	magnitude := meanTemperature(later) - meanTemperature(earlier)

	direction := Stable
	if magnitude >= a.stableThreshold {
		direction = Warming
	} else if magnitude <= -a.stableThreshold {
		direction = Cooling
	}

	return Trend{Direction: direction, Magnitude: magnitude}, nil
}

// LocationReport filters samples to the given location (exact match,
// the Location-equals strategy semantics) and returns its summary plus
// trend. Returns ErrEmptyInput when the location has no records; the
// trend is omitted when it has fewer than two.
func (a *Analyzer) LocationReport(location string, samples []Sample) (Report, error) {
	matched := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Location == location {
			matched = append(matched, s)
		}
	}

	stats, err := a.SummaryStatistics(matched)
	if err != nil {
		return Report{}, err
	}

	report := Report{Location: location, Stats: stats}

	if trend, err := a.TrendOf(matched); err == nil {
		report.Trend = &trend
	}

	return report, nil
}

// Compare contrasts two record sets. Either side being empty returns
// ErrEmptyInput. DeltaMean is signed as meanB minus meanA; an exact tie
// leaves WarmerLocation nil.
func (a *Analyzer) Compare(locationA string, samplesA []Sample, locationB string, samplesB []Sample) (Comparison, error) {
	statsA, err := a.SummaryStatistics(samplesA)
	if err != nil {
		return Comparison{}, err
	}

	statsB, err := a.SummaryStatistics(samplesB)
	if err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{
		LocationA: locationA,
		LocationB: locationB,
		StatsA:    statsA,
		StatsB:    statsB,
		DeltaMean: statsB.MeanTemperature - statsA.MeanTemperature,
	}

	switch {
	case statsA.MeanTemperature > statsB.MeanTemperature:
		cmp.WarmerLocation = &cmp.LocationA
	case statsB.MeanTemperature > statsA.MeanTemperature:
		cmp.WarmerLocation = &cmp.LocationB
	}

	return cmp, nil
}

func meanTemperature(samples []Sample) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s.Temperature
	}
	return sum / float64(len(samples))
}
