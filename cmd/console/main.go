// Command console is an interactive terminal client for the weather
// history engine. It wires the same storage, fetch, and analyzer stack
// as the API server behind a numbered menu.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"weather-history/internal/analyzer"
	"weather-history/internal/config"
	"weather-history/internal/fetch"
	"weather-history/internal/filters"
	"weather-history/internal/models"
	"weather-history/internal/services"
	"weather-history/internal/storage"
	"weather-history/pkg/database"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

const menu = `
==== Weather History ====
 1. Fetch current weather for a location
 2. Fetch historical weather for a location
 3. List current observations
 4. List historical observations
 5. Search current observations by temperature range
 6. Summary statistics
 7. Location report
 8. Compare two locations
 9. Clear all observations
 0. Exit
`

type console struct {
	store     storage.Port
	ingestion *services.IngestionService
	reports   *services.ReportService
	in        *bufio.Scanner
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Keep interactive output clean; warnings still surface.
	logger := logging.NewStructuredLogger(cfg.Logging.Service, cfg.Logging.Version, "warn")
	defer logger.Sync()

	metricsCollector := metrics.NewCollector("weather_history_console")

	ctx := context.Background()

	store := storage.Open(ctx, &database.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	}, logger, metricsCollector)
	defer store.Close(ctx)

	if store.IsConnected() {
		fmt.Println("Connected to document store.")
	} else {
		fmt.Println("Document store unreachable; using in-memory storage for this session.")
	}

	httpClient := &http.Client{Timeout: cfg.Fetch.RequestTimeout}

	var fetcher fetch.Fetcher
	switch cfg.Fetch.Provider {
	case "wttr.in":
		fetcher = fetch.NewWttrFetcher(httpClient, logger, metricsCollector)
	default:
		fetcher = fetch.NewOpenMeteoFetcher(httpClient, logger, metricsCollector)
	}

	c := &console{
		store:     store,
		ingestion: services.NewIngestionService(store, fetcher, logger, metricsCollector),
		reports: services.NewReportService(
			store,
			analyzer.New(analyzer.WithStableThreshold(cfg.Analyzer.StableThreshold)),
			logger,
			metricsCollector,
		),
		in: bufio.NewScanner(os.Stdin),
	}

	c.run(ctx)
}

func (c *console) run(ctx context.Context) {
	for {
		fmt.Print(menu)
		choice := c.prompt("Choose an option: ")

		switch choice {
		case "1":
			c.fetchCurrent(ctx)
		case "2":
			c.fetchHistorical(ctx)
		case "3":
			c.listCurrent(ctx)
		case "4":
			c.listHistorical(ctx)
		case "5":
			c.searchByTemperature(ctx)
		case "6":
			c.summary(ctx)
		case "7":
			c.locationReport(ctx)
		case "8":
			c.compare(ctx)
		case "9":
			c.clear(ctx)
		case "0", "exit", "q":
			fmt.Println("Bye.")
			return
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func (c *console) prompt(label string) string {
	fmt.Print(label)
	if !c.in.Scan() {
		return "0"
	}
	return strings.TrimSpace(c.in.Text())
}

func (c *console) promptKind() services.RecordKind {
	if c.prompt("Record kind [current/historical] (default current): ") == "historical" {
		return services.KindHistorical
	}
	return services.KindCurrent
}

func (c *console) fetchCurrent(ctx context.Context) {
	location := c.prompt("Location: ")
	if location == "" {
		fmt.Println("Location is required.")
		return
	}

	obs, err := c.ingestion.IngestCurrent(ctx, location)
	if err != nil {
		fmt.Printf("Fetch failed: %v\n", err)
		return
	}

	fmt.Printf("Stored: %s %.1f°C at %s (id %s)\n",
		obs.Location, obs.Temperature, obs.Timestamp.Format("2006-01-02 15:04 UTC"), obs.ID)
}

func (c *console) fetchHistorical(ctx context.Context) {
	location := c.prompt("Location: ")
	if location == "" {
		fmt.Println("Location is required.")
		return
	}

	days := 7
	if raw := c.prompt("Days (default 7): "); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			fmt.Println("Days must be a positive integer.")
			return
		}
		days = parsed
	}

	result, err := c.ingestion.IngestHistorical(ctx, location, days)
	if err != nil {
		fmt.Printf("Fetch failed: %v\n", err)
		return
	}

	fmt.Printf("Stored %d of %d records (%d failed) in %s\n",
		result.SuccessfulRecords, result.TotalRecords, result.FailedRecords, result.Duration.Round(time.Millisecond))
	for _, msg := range result.Errors {
		fmt.Printf("  rejected: %s\n", msg)
	}
}

func (c *console) listCurrent(ctx context.Context) {
	observations, err := c.store.FindCurrent(ctx, nil, storage.SortByTime)
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		return
	}

	if len(observations) == 0 {
		fmt.Println("No current observations stored.")
		return
	}

	for _, obs := range observations {
		printCurrent(obs)
	}
}

func (c *console) listHistorical(ctx context.Context) {
	observations, err := c.store.FindHistorical(ctx, nil, storage.SortByTime)
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		return
	}

	if len(observations) == 0 {
		fmt.Println("No historical observations stored.")
		return
	}

	for _, obs := range observations {
		fmt.Printf("  %s  %s  max %.1f°C  min %.1f°C  precip %.1fmm  [%s]\n",
			obs.Date.Format("2006-01-02"), obs.Location,
			obs.TemperatureMax, obs.TemperatureMin, obs.Precipitation, obs.Source)
	}
}

func (c *console) searchByTemperature(ctx context.Context) {
	minTemp, ok := c.promptFloat("Min temperature (blank for none): ")
	if !ok {
		return
	}
	maxTemp, ok := c.promptFloat("Max temperature (blank for none): ")
	if !ok {
		return
	}

	preds := make([]filters.Current, 0, 2)

	if location := c.prompt("Location (blank for all): "); location != "" {
		preds = append(preds, filters.CurrentLocationEquals(location))
	}

	rangePred, err := filters.TemperatureInRange(minTemp, maxTemp)
	if err != nil {
		fmt.Printf("Invalid range: %v\n", err)
		return
	}
	preds = append(preds, rangePred)

	observations, err := c.store.FindCurrent(ctx, filters.CurrentAll(preds...), storage.SortByTemperature)
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		return
	}

	if len(observations) == 0 {
		fmt.Println("No observations match.")
		return
	}

	for _, obs := range observations {
		printCurrent(obs)
	}
}

func (c *console) promptFloat(label string) (*float64, bool) {
	raw := c.prompt(label)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Println("Expected a number.")
		return nil, false
	}
	return &v, true
}

func (c *console) summary(ctx context.Context) {
	summary, err := c.reports.Summary(ctx, c.promptKind())
	if err != nil {
		fmt.Printf("Report failed: %v\n", err)
		return
	}

	fmt.Printf("Records: %d  Locations: %d\n", summary.Count, summary.UniqueLocationCount)
	fmt.Printf("Mean %.1f°C  Max %.1f°C  Min %.1f°C  Range %.1f°C\n",
		summary.MeanTemperature, summary.MaxTemperature, summary.MinTemperature, summary.Range)
}

func (c *console) locationReport(ctx context.Context) {
	kind := c.promptKind()
	location := c.prompt("Location: ")
	if location == "" {
		fmt.Println("Location is required.")
		return
	}

	report, err := c.reports.LocationReport(ctx, kind, location)
	if err != nil {
		fmt.Printf("Report failed: %v\n", err)
		return
	}

	fmt.Printf("%s: %d records, mean %.1f°C, range %.1f°C\n",
		report.Location, report.Stats.Count, report.Stats.MeanTemperature, report.Stats.Range)
	if report.Trend != nil {
		fmt.Printf("Trend: %s (%.2f°C)\n", report.Trend.Direction, report.Trend.Magnitude)
	} else {
		fmt.Println("Trend: not enough records.")
	}
}

func (c *console) compare(ctx context.Context) {
	kind := c.promptKind()
	locationA := c.prompt("First location: ")
	locationB := c.prompt("Second location: ")
	if locationA == "" || locationB == "" {
		fmt.Println("Both locations are required.")
		return
	}

	cmp, err := c.reports.Compare(ctx, kind, locationA, locationB)
	if err != nil {
		fmt.Printf("Comparison failed: %v\n", err)
		return
	}

	fmt.Printf("%s: mean %.1f°C over %d records\n", cmp.LocationA, cmp.StatsA.MeanTemperature, cmp.StatsA.Count)
	fmt.Printf("%s: mean %.1f°C over %d records\n", cmp.LocationB, cmp.StatsB.MeanTemperature, cmp.StatsB.Count)
	fmt.Printf("Delta (%s - %s): %.1f°C\n", cmp.LocationB, cmp.LocationA, cmp.DeltaMean)
	if cmp.WarmerLocation != nil {
		fmt.Printf("Warmer: %s\n", *cmp.WarmerLocation)
	} else {
		fmt.Println("Both locations tie.")
	}
}

func (c *console) clear(ctx context.Context) {
	if c.prompt("Remove ALL observations? [y/N]: ") != "y" {
		fmt.Println("Aborted.")
		return
	}

	if err := c.store.Clear(ctx); err != nil {
		fmt.Printf("Clear failed: %v\n", err)
		return
	}

	fmt.Println("All observations removed.")
}

func printCurrent(obs models.CurrentObservation) {
	extras := ""
	if obs.Humidity != nil {
		extras += fmt.Sprintf("  humidity %.0f%%", *obs.Humidity)
	}
	if obs.WindSpeed != nil {
		extras += fmt.Sprintf("  wind %.1f", *obs.WindSpeed)
	}
	fmt.Printf("  %s  %s  %.1f°C%s  [%s]\n",
		obs.Timestamp.Format("2006-01-02 15:04"), obs.Location, obs.Temperature, extras, obs.Source)
}
