package models

import (
	"fmt"
	"time"
)

// Plausibility bounds for a current temperature reading in °C.
const (
	MinPlausibleTemperature = -100.0
	MaxPlausibleTemperature = 60.0
)

// CurrentObservation represents a point-in-time weather reading for a
// location. Humidity and wind speed are optional; NULL values are
// represented as pointers.
type CurrentObservation struct {
	ID          string     `json:"id,omitempty"`
	Location    string     `json:"location"`
	Temperature float64    `json:"temperature"`
	Humidity    *float64   `json:"humidity,omitempty"`
	WindSpeed   *float64   `json:"wind_speed,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Source      string     `json:"source"`
}

// HistoricalObservation represents one calendar day of weather for a
// location. The date carries no time component and is stored in UTC.
type HistoricalObservation struct {
	ID             string    `json:"id,omitempty"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	TemperatureMax float64   `json:"temperature_max"`
	TemperatureMin float64   `json:"temperature_min"`
	Precipitation  float64   `json:"precipitation"`
	Source         string    `json:"source"`
}

// NewCurrentObservation builds a validated current observation. The
// timestamp is normalized to UTC before storage so ordering and range
// queries are well-defined.
func NewCurrentObservation(location string, temperature float64, ts time.Time, source string) (*CurrentObservation, error) {
	obs := &CurrentObservation{
		Location:    location,
		Temperature: temperature,
		Timestamp:   ts.UTC(),
		Source:      source,
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	return obs, nil
}

// NewHistoricalObservation builds a validated historical observation.
// The date is truncated to midnight UTC.
func NewHistoricalObservation(location string, date time.Time, tempMax, tempMin, precipitation float64, source string) (*HistoricalObservation, error) {
	obs := &HistoricalObservation{
		Location:       location,
		Date:           NormalizeDate(date),
		TemperatureMax: tempMax,
		TemperatureMin: tempMin,
		Precipitation:  precipitation,
		Source:         source,
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	return obs, nil
}

// NormalizeDate strips the time component and pins the day to UTC.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate checks the invariants of a current observation. Violations
// are reported, never auto-corrected.
func (o *CurrentObservation) Validate() error {
	if o.Location == "" {
		return &ValidationError{
			Field:   "location",
			Value:   "",
			Message: "location must not be empty",
		}
	}

	if o.Temperature < MinPlausibleTemperature || o.Temperature > MaxPlausibleTemperature {
		return &ValidationError{
			Field:   "temperature",
			Value:   fmt.Sprintf("%.2f", o.Temperature),
			Message: fmt.Sprintf("temperature outside plausible range [%.0f, %.0f]", MinPlausibleTemperature, MaxPlausibleTemperature),
		}
	}

	if o.Humidity != nil && (*o.Humidity < 0 || *o.Humidity > 100) {
		return &ValidationError{
			Field:   "humidity",
			Value:   fmt.Sprintf("%.2f", *o.Humidity),
			Message: "humidity must be between 0 and 100",
		}
	}

	if o.WindSpeed != nil && *o.WindSpeed < 0 {
		return &ValidationError{
			Field:   "wind_speed",
			Value:   fmt.Sprintf("%.2f", *o.WindSpeed),
			Message: "wind speed must not be negative",
		}
	}

	if o.Timestamp.IsZero() {
		return &ValidationError{
			Field:   "timestamp",
			Value:   "",
			Message: "timestamp must be set",
		}
	}

	return nil
}

// Validate checks the invariants of a historical observation.
// temperature_min > temperature_max is rejected, not silently swapped.
func (o *HistoricalObservation) Validate() error {
	if o.Location == "" {
		return &ValidationError{
			Field:   "location",
			Value:   "",
			Message: "location must not be empty",
		}
	}

	if o.TemperatureMin > o.TemperatureMax {
		return &ValidationError{
			Field:   "temperature_min",
			Value:   fmt.Sprintf("%.2f", o.TemperatureMin),
			Message: fmt.Sprintf("temperature_min (%.2f) exceeds temperature_max (%.2f)", o.TemperatureMin, o.TemperatureMax),
		}
	}

	if o.Precipitation < 0 {
		return &ValidationError{
			Field:   "precipitation",
			Value:   fmt.Sprintf("%.2f", o.Precipitation),
			Message: "precipitation must not be negative",
		}
	}

	if o.Date.IsZero() {
		return &ValidationError{
			Field:   "date",
			Value:   "",
			Message: "date must be set",
		}
	}

	return nil
}

// MeanTemperature returns the midpoint of the daily extremes. The
// midpoint convention follows the source system and is used whenever a
// single temperature is needed for a historical day.
func (o *HistoricalObservation) MeanTemperature() float64 {
	return (o.TemperatureMax + o.TemperatureMin) / 2
}

// CurrentPatch carries partial updates for a current observation.
// Nil fields are left untouched.
type CurrentPatch struct {
	Location    *string  `json:"location,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	WindSpeed   *float64 `json:"wind_speed,omitempty"`
}

// Apply overlays the patch onto the observation.
func (p CurrentPatch) Apply(o *CurrentObservation) {
	if p.Location != nil {
		o.Location = *p.Location
	}
	if p.Temperature != nil {
		o.Temperature = *p.Temperature
	}
	if p.Humidity != nil {
		o.Humidity = p.Humidity
	}
	if p.WindSpeed != nil {
		o.WindSpeed = p.WindSpeed
	}
}

// IsZero reports whether the patch changes nothing.
func (p CurrentPatch) IsZero() bool {
	return p.Location == nil && p.Temperature == nil && p.Humidity == nil && p.WindSpeed == nil
}

// HistoricalPatch carries partial updates for a historical observation.
type HistoricalPatch struct {
	Location       *string  `json:"location,omitempty"`
	TemperatureMax *float64 `json:"temperature_max,omitempty"`
	TemperatureMin *float64 `json:"temperature_min,omitempty"`
	Precipitation  *float64 `json:"precipitation,omitempty"`
}

// Apply overlays the patch onto the observation.
func (p HistoricalPatch) Apply(o *HistoricalObservation) {
	if p.Location != nil {
		o.Location = *p.Location
	}
	if p.TemperatureMax != nil {
		o.TemperatureMax = *p.TemperatureMax
	}
	if p.TemperatureMin != nil {
		o.TemperatureMin = *p.TemperatureMin
	}
	if p.Precipitation != nil {
		o.Precipitation = *p.Precipitation
	}
}

// IsZero reports whether the patch changes nothing.
func (p HistoricalPatch) IsZero() bool {
	return p.Location == nil && p.TemperatureMax == nil && p.TemperatureMin == nil && p.Precipitation == nil
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
