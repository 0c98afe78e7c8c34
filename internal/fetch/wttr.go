package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

const (
	wttrName = "wttr.in"

	defaultWttrBaseURL = "https://wttr.in"
)

// WttrFetcher retrieves readings from wttr.in's JSON endpoint. It is
// the fallback source: no API key, no geocoding step, but historical
// coverage is limited to the few days the endpoint reports.
type WttrFetcher struct {
	baseURL string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// WttrOption configures a WttrFetcher.
type WttrOption func(*WttrFetcher)

// WithWttrBaseURL overrides the upstream endpoint, used by tests.
func WithWttrBaseURL(baseURL string) WttrOption {
	return func(f *WttrFetcher) {
		f.baseURL = baseURL
	}
}

// NewWttrFetcher creates a wttr.in backed fetcher.
func NewWttrFetcher(client *http.Client, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, opts ...WttrOption) *WttrFetcher {
	f := &WttrFetcher{
		baseURL: defaultWttrBaseURL,
		client:  client,
		backoff: DefaultBackoff,
		circuit: newCircuit(wttrName),
		logger:  logger,
		metrics: metricsCollector,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *WttrFetcher) Name() string {
	return wttrName
}

// wttrReport is the subset of the j1 format the fetcher consumes. All
// numeric values arrive as strings.
type wttrReport struct {
	CurrentCondition []struct {
		TempC         string `json:"temp_C"`
		Humidity      string `json:"humidity"`
		WindSpeedKmph string `json:"windspeedKmph"`
	} `json:"current_condition"`
	Weather []struct {
		Date     string `json:"date"`
		MaxTempC string `json:"maxtempC"`
		MinTempC string `json:"mintempC"`
		Hourly   []struct {
			PrecipMM string `json:"precipMM"`
		} `json:"hourly"`
	} `json:"weather"`
}

func (f *WttrFetcher) fetchReport(ctx context.Context, location string) (wttrReport, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/%s?format=j1", f.baseURL, url.PathEscape(location))
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, f.client, f.backoff, f.circuit, buildRequest)
	if err != nil {
		return wttrReport{}, &FetchError{Source: wttrName, Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	var report wttrReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return wttrReport{}, &FetchError{Source: wttrName, Op: "decode", Err: err}
	}

	return report, nil
}

// FetchCurrent retrieves the current reading for the location.
func (f *WttrFetcher) FetchCurrent(ctx context.Context, location string) (RawCurrent, error) {
	start := time.Now()

	report, err := f.fetchReport(ctx, location)
	if err != nil {
		f.metrics.RecordFetch(wttrName, "error")
		return RawCurrent{}, err
	}

	if len(report.CurrentCondition) == 0 {
		f.metrics.RecordFetch(wttrName, "error")
		return RawCurrent{}, &LocationNotFoundError{Source: wttrName, Location: location}
	}

	cond := report.CurrentCondition[0]

	temp, err := strconv.ParseFloat(cond.TempC, 64)
	if err != nil {
		f.metrics.RecordFetch(wttrName, "error")
		return RawCurrent{}, &FetchError{Source: wttrName, Op: "parse temperature", Err: err}
	}

	raw := RawCurrent{
		Location:    location,
		Temperature: temp,
		Timestamp:   time.Now().UTC(),
	}

	if humidity, err := strconv.ParseFloat(cond.Humidity, 64); err == nil {
		raw.Humidity = &humidity
	}
	if wind, err := strconv.ParseFloat(cond.WindSpeedKmph, 64); err == nil {
		raw.WindSpeed = &wind
	}

	f.metrics.RecordFetch(wttrName, "success")
	f.metrics.FetchDuration.WithLabelValues(wttrName).Observe(time.Since(start).Seconds())

	return raw, nil
}

// FetchHistorical returns the daily aggregates the endpoint reports,
// capped at the requested number of days.
func (f *WttrFetcher) FetchHistorical(ctx context.Context, location string, days int) ([]RawDaily, error) {
	start := time.Now()

	report, err := f.fetchReport(ctx, location)
	if err != nil {
		f.metrics.RecordFetch(wttrName, "error")
		return nil, err
	}

	if len(report.Weather) == 0 {
		f.metrics.RecordFetch(wttrName, "error")
		return nil, &LocationNotFoundError{Source: wttrName, Location: location}
	}

	daily := make([]RawDaily, 0, len(report.Weather))
	for i, day := range report.Weather {
		if i >= days {
			break
		}

		date, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			continue
		}
		maxTemp, err := strconv.ParseFloat(day.MaxTempC, 64)
		if err != nil {
			continue
		}
		minTemp, err := strconv.ParseFloat(day.MinTempC, 64)
		if err != nil {
			continue
		}

		var precipitation float64
		for _, hour := range day.Hourly {
			if mm, err := strconv.ParseFloat(hour.PrecipMM, 64); err == nil {
				precipitation += mm
			}
		}

		daily = append(daily, RawDaily{
			Location:       location,
			Date:           date.UTC(),
			TemperatureMax: maxTemp,
			TemperatureMin: minTemp,
			Precipitation:  precipitation,
		})
	}

	f.metrics.RecordFetch(wttrName, "success")
	f.metrics.FetchDuration.WithLabelValues(wttrName).Observe(time.Since(start).Seconds())

	return daily, nil
}
