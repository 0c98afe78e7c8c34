// Package fetch retrieves weather readings from upstream providers.
// Providers return raw readings; validation and persistence happen in
// the ingestion service, so a provider never touches storage.
package fetch

import (
	"context"
	"fmt"
	"time"
)

// RawCurrent is an unvalidated point-in-time reading from a provider.
type RawCurrent struct {
	Location    string
	Temperature float64
	Humidity    *float64
	WindSpeed   *float64
	Timestamp   time.Time
}

// RawDaily is an unvalidated daily aggregate from a provider.
type RawDaily struct {
	Location       string
	Date           time.Time
	TemperatureMax float64
	TemperatureMin float64
	Precipitation  float64
}

// Fetcher is the provider contract. FetchHistorical returns up to the
// requested number of past days; providers that cover fewer days return
// what they have.
type Fetcher interface {
	Name() string
	FetchCurrent(ctx context.Context, location string) (RawCurrent, error)
	FetchHistorical(ctx context.Context, location string, days int) ([]RawDaily, error)
}

// FetchError reports an upstream provider failure.
type FetchError struct {
	Source string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Source, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransient returns true; upstream failures are usually recoverable.
func (e *FetchError) IsTransient() bool {
	return true
}

// LocationNotFoundError reports a location the provider cannot resolve.
type LocationNotFoundError struct {
	Source   string
	Location string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("%s: location %q not found", e.Source, e.Location)
}

// IsTransient returns false; an unknown location will stay unknown.
func (e *LocationNotFoundError) IsTransient() bool {
	return false
}
