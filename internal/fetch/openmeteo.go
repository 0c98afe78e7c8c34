package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

const (
	openMeteoName = "open-meteo"

	defaultForecastBaseURL  = "https://api.open-meteo.com/v1/forecast"
	defaultGeocodingBaseURL = "https://geocoding-api.open-meteo.com/v1/search"
)

// OpenMeteoFetcher retrieves readings from the Open-Meteo API. Location
// names are resolved to coordinates through the geocoding endpoint
// before each fetch; resolutions are cached for the fetcher's lifetime.
type OpenMeteoFetcher struct {
	forecastURL  string
	geocodingURL string
	client       *http.Client
	backoff      BackoffConfig
	circuit      *gobreaker.CircuitBreaker
	logger       *logging.StructuredLogger
	metrics      *metrics.Collector

	mu           sync.Mutex
	geocodeCache map[string]coordinates
}

type coordinates struct {
	Latitude  float64
	Longitude float64
}

// OpenMeteoOption configures an OpenMeteoFetcher.
type OpenMeteoOption func(*OpenMeteoFetcher)

// WithBaseURLs overrides the upstream endpoints, used by tests.
func WithBaseURLs(forecastURL, geocodingURL string) OpenMeteoOption {
	return func(f *OpenMeteoFetcher) {
		f.forecastURL = forecastURL
		f.geocodingURL = geocodingURL
	}
}

// NewOpenMeteoFetcher creates an Open-Meteo backed fetcher.
func NewOpenMeteoFetcher(client *http.Client, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, opts ...OpenMeteoOption) *OpenMeteoFetcher {
	f := &OpenMeteoFetcher{
		forecastURL:  defaultForecastBaseURL,
		geocodingURL: defaultGeocodingBaseURL,
		client:       client,
		backoff:      DefaultBackoff,
		circuit:      newCircuit(openMeteoName),
		logger:       logger,
		metrics:      metricsCollector,
		geocodeCache: make(map[string]coordinates),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *OpenMeteoFetcher) Name() string {
	return openMeteoName
}

// FetchCurrent resolves the location and retrieves its current reading.
func (f *OpenMeteoFetcher) FetchCurrent(ctx context.Context, location string) (RawCurrent, error) {
	start := time.Now()

	coords, err := f.geocode(ctx, location)
	if err != nil {
		f.metrics.RecordFetch(openMeteoName, "error")
		return RawCurrent{}, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
		values.Set("current_weather", "true")

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", f.forecastURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, f.client, f.backoff, f.circuit, buildRequest)
	if err != nil {
		f.metrics.RecordFetch(openMeteoName, "error")
		return RawCurrent{}, &FetchError{Source: openMeteoName, Op: "fetch current", Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			Time        string  `json:"time"`
		} `json:"current_weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		f.metrics.RecordFetch(openMeteoName, "error")
		return RawCurrent{}, &FetchError{Source: openMeteoName, Op: "decode current", Err: err}
	}

	ts, err := time.Parse("2006-01-02T15:04", payload.CurrentWeather.Time)
	if err != nil {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	wind := payload.CurrentWeather.WindSpeed

	f.metrics.RecordFetch(openMeteoName, "success")
	f.metrics.FetchDuration.WithLabelValues(openMeteoName).Observe(time.Since(start).Seconds())

	return RawCurrent{
		Location:    location,
		Temperature: payload.CurrentWeather.Temperature,
		WindSpeed:   &wind,
		Timestamp:   ts,
	}, nil
}

// FetchHistorical retrieves up to the requested number of past daily
// aggregates for the location.
func (f *OpenMeteoFetcher) FetchHistorical(ctx context.Context, location string, days int) ([]RawDaily, error) {
	start := time.Now()

	coords, err := f.geocode(ctx, location)
	if err != nil {
		f.metrics.RecordFetch(openMeteoName, "error")
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
		values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
		values.Set("past_days", fmt.Sprintf("%d", days))
		values.Set("forecast_days", "1")
		values.Set("timezone", "UTC")

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", f.forecastURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, f.client, f.backoff, f.circuit, buildRequest)
	if err != nil {
		f.metrics.RecordFetch(openMeteoName, "error")
		return nil, &FetchError{Source: openMeteoName, Op: "fetch historical", Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time             []string  `json:"time"`
			TemperatureMax   []float64 `json:"temperature_2m_max"`
			TemperatureMin   []float64 `json:"temperature_2m_min"`
			PrecipitationSum []float64 `json:"precipitation_sum"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		f.metrics.RecordFetch(openMeteoName, "error")
		return nil, &FetchError{Source: openMeteoName, Op: "decode historical", Err: err}
	}

	daily := make([]RawDaily, 0, len(payload.Daily.Time))
	for i, day := range payload.Daily.Time {
		if i >= len(payload.Daily.TemperatureMax) || i >= len(payload.Daily.TemperatureMin) {
			break
		}
		if i >= days {
			break
		}

		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}

		var precipitation float64
		if i < len(payload.Daily.PrecipitationSum) {
			precipitation = payload.Daily.PrecipitationSum[i]
		}

		daily = append(daily, RawDaily{
			Location:       location,
			Date:           date.UTC(),
			TemperatureMax: payload.Daily.TemperatureMax[i],
			TemperatureMin: payload.Daily.TemperatureMin[i],
			Precipitation:  precipitation,
		})
	}

	f.metrics.RecordFetch(openMeteoName, "success")
	f.metrics.FetchDuration.WithLabelValues(openMeteoName).Observe(time.Since(start).Seconds())

	return daily, nil
}

func (f *OpenMeteoFetcher) geocode(ctx context.Context, location string) (coordinates, error) {
	f.mu.Lock()
	coords, ok := f.geocodeCache[location]
	f.mu.Unlock()
	if ok {
		return coords, nil
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", location)
		values.Set("count", "1")

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", f.geocodingURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, f.client, f.backoff, f.circuit, buildRequest)
	if err != nil {
		return coordinates{}, &FetchError{Source: openMeteoName, Op: "geocode", Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return coordinates{}, &FetchError{Source: openMeteoName, Op: "decode geocode", Err: err}
	}

	if len(payload.Results) == 0 {
		return coordinates{}, &LocationNotFoundError{Source: openMeteoName, Location: location}
	}

	coords = coordinates{
		Latitude:  payload.Results[0].Latitude,
		Longitude: payload.Results[0].Longitude,
	}
	f.mu.Lock()
	f.geocodeCache[location] = coords
	f.mu.Unlock()

	f.logger.Debug(ctx, "[GEOCODE] Location resolved", logging.Fields{
		"location":  location,
		"latitude":  coords.Latitude,
		"longitude": coords.Longitude,
	})

	return coords, nil
}
