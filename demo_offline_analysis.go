package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"weather-history/internal/analyzer"
	"weather-history/internal/filters"
	"weather-history/internal/models"
	"weather-history/internal/storage"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// Demonstrates the storage, filter, and analyzer pipeline end to end
// without any database or network dependency.
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("WEATHER HISTORY - OFFLINE ANALYSIS DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	logger := logging.NewTestLogger(io.Discard)
	metricsCollector := metrics.NewCollector("weather_history_demo")
	store := storage.NewMemoryStore(logger, metricsCollector)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	seed := []struct {
		location    string
		temperature float64
		offset      time.Duration
	}{
		{"Oslo", 9.5, 0},
		{"Oslo", 11.0, 6 * time.Hour},
		{"Oslo", 13.5, 12 * time.Hour},
		{"Oslo", 15.0, 18 * time.Hour},
		{"Rome", 22.0, 0},
		{"Rome", 26.5, 6 * time.Hour},
		{"Rome", 28.0, 12 * time.Hour},
		{"Rome", 24.5, 18 * time.Hour},
	}

	fmt.Println("Seeding in-memory store with synthetic observations...")
	for _, rec := range seed {
		obs, err := models.NewCurrentObservation(rec.location, rec.temperature, base.Add(rec.offset), "demo")
		if err != nil {
			fmt.Printf("Seed error: %v\n", err)
			os.Exit(1)
		}
		if _, err := store.InsertCurrent(ctx, *obs); err != nil {
			fmt.Printf("Insert error: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Stored %d observations for 2 locations.\n\n", len(seed))

	// Invalid records are rejected, never stored.
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Validation")
	fmt.Println("─────────────────────────────────────────────────────────────")
	if _, err := models.NewCurrentObservation("Oslo", 999, base, "demo"); err != nil {
		fmt.Printf("Rejected implausible reading: %v\n\n", err)
	}

	// Conjunctive filtering.
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Filters: Oslo AND temperature in [10, 14]")
	fmt.Println("─────────────────────────────────────────────────────────────")
	minTemp, maxTemp := 10.0, 14.0
	rangePred, err := filters.TemperatureInRange(&minTemp, &maxTemp)
	if err != nil {
		fmt.Printf("Filter error: %v\n", err)
		os.Exit(1)
	}

	matched, err := store.FindCurrent(ctx, filters.CurrentAll(
		filters.CurrentLocationEquals("Oslo"),
		rangePred,
	), storage.SortByTemperature)
	if err != nil {
		fmt.Printf("Find error: %v\n", err)
		os.Exit(1)
	}

	for _, obs := range matched {
		fmt.Printf("  %s  %.1f°C at %s\n", obs.Location, obs.Temperature, obs.Timestamp.Format("15:04"))
	}
	fmt.Println()

	// Analyzer reports.
	a := analyzer.New()

	all, err := store.FindCurrent(ctx, nil, storage.SortByTime)
	if err != nil {
		fmt.Printf("Find error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Summary statistics over all records")
	fmt.Println("─────────────────────────────────────────────────────────────")
	summary, err := a.SummaryStatistics(analyzer.FromCurrent(all))
	if err != nil {
		fmt.Printf("Summary error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Records: %d  Locations: %d\n", summary.Count, summary.UniqueLocationCount)
	fmt.Printf("  Mean %.2f°C  Max %.1f°C  Min %.1f°C  Range %.1f°C\n\n",
		summary.MeanTemperature, summary.MaxTemperature, summary.MinTemperature, summary.Range)

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Per-location reports")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for _, location := range []string{"Oslo", "Rome"} {
		report, err := a.LocationReport(location, analyzer.FromCurrent(all))
		if err != nil {
			fmt.Printf("Report error for %s: %v\n", location, err)
			continue
		}
		fmt.Printf("  %s: mean %.2f°C over %d records", report.Location, report.Stats.MeanTemperature, report.Stats.Count)
		if report.Trend != nil {
			fmt.Printf(", trend %s (%.2f°C)", report.Trend.Direction, report.Trend.Magnitude)
		}
		fmt.Println()
	}
	fmt.Println()

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Comparison: Oslo vs Rome")
	fmt.Println("─────────────────────────────────────────────────────────────")
	oslo, _ := store.FindCurrent(ctx, filters.CurrentLocationEquals("Oslo"), storage.SortByTime)
	rome, _ := store.FindCurrent(ctx, filters.CurrentLocationEquals("Rome"), storage.SortByTime)

	cmp, err := a.Compare("Oslo", analyzer.FromCurrent(oslo), "Rome", analyzer.FromCurrent(rome))
	if err != nil {
		fmt.Printf("Comparison error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Oslo mean %.2f°C, Rome mean %.2f°C\n", cmp.StatsA.MeanTemperature, cmp.StatsB.MeanTemperature)
	fmt.Printf("  Delta (Rome - Oslo): %.2f°C\n", cmp.DeltaMean)
	if cmp.WarmerLocation != nil {
		fmt.Printf("  Warmer location: %s\n", *cmp.WarmerLocation)
	}
	fmt.Println()

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("✅ OFFLINE ANALYSIS DEMONSTRATION COMPLETE")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println("The engine successfully:")
	fmt.Println("  ✓ Validated and stored observations in the in-memory backend")
	fmt.Println("  ✓ Rejected implausible readings without storing them")
	fmt.Println("  ✓ Combined filter strategies by conjunction")
	fmt.Println("  ✓ Computed summary statistics, trends, and comparisons")
	fmt.Println()
	fmt.Println("With a reachable document store, the same code would:")
	fmt.Println("  • Persist observations across restarts")
	fmt.Println("  • Ingest live readings from upstream providers")
	fmt.Println("  • Serve reports via the REST API")
	fmt.Println()
}
