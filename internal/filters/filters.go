// Package filters defines composable predicates over stored
// observations. Each strategy is a pure function over a single record;
// strategies combine by conjunction only. A nil predicate matches every
// record.
package filters

import (
	"fmt"
	"time"

	"weather-history/internal/models"
)

// Current is a predicate over a current observation.
type Current func(models.CurrentObservation) bool

// Historical is a predicate over a historical observation.
type Historical func(models.HistoricalObservation) bool

// CurrentAll combines predicates by logical AND. Nil entries are
// skipped; an empty list matches all records.
func CurrentAll(preds ...Current) Current {
	return func(o models.CurrentObservation) bool {
		for _, p := range preds {
			if p != nil && !p(o) {
				return false
			}
		}
		return true
	}
}

// HistoricalAll combines predicates by logical AND.
func HistoricalAll(preds ...Historical) Historical {
	return func(o models.HistoricalObservation) bool {
		for _, p := range preds {
			if p != nil && !p(o) {
				return false
			}
		}
		return true
	}
}

// CurrentLocationEquals matches records whose location is exactly the
// given string. Locations compare case-sensitively as stored; callers
// normalize before storage.
func CurrentLocationEquals(location string) Current {
	return func(o models.CurrentObservation) bool {
		return o.Location == location
	}
}

// HistoricalLocationEquals matches historical records by exact location.
func HistoricalLocationEquals(location string) Historical {
	return func(o models.HistoricalObservation) bool {
		return o.Location == location
	}
}

// TemperatureInRange matches current observations whose temperature
// lies within [min, max], inclusive. A nil bound is unbounded. Returns
// a ValidationError when min > max.
func TemperatureInRange(min, max *float64) (Current, error) {
	if min != nil && max != nil && *min > *max {
		return nil, &models.ValidationError{
			Field:   "temperature_range",
			Value:   fmt.Sprintf("[%.2f, %.2f]", *min, *max),
			Message: "temperature range lower bound exceeds upper bound",
		}
	}

	return func(o models.CurrentObservation) bool {
		if min != nil && o.Temperature < *min {
			return false
		}
		if max != nil && o.Temperature > *max {
			return false
		}
		return true
	}, nil
}

// DateInRange matches historical observations whose date lies within
// [start, end], inclusive. A nil bound is unbounded.
func DateInRange(start, end *time.Time) Historical {
	return func(o models.HistoricalObservation) bool {
		if start != nil && o.Date.Before(models.NormalizeDate(*start)) {
			return false
		}
		if end != nil && o.Date.After(models.NormalizeDate(*end)) {
			return false
		}
		return true
	}
}
