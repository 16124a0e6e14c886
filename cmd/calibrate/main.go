// Command calibrate replays the historical-storm catalog and the rainfall
// stability sequence through the risk engine and prints the JSON report. It
// exits non-zero when any scenario fails or errors, or when the stability
// check finds a violation.
//
// Usage:
//
//	go run ./cmd/calibrate -terrain lowland -formula enhanced
//	go run ./cmd/calibrate -terrain live -scenario "Harvey Peak" -stability=false
//
// With -terrain live the elevation provider is built from the same
// environment variables as the service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/couchcryptid/storm-flood-risk/internal/adapter/elevation"
	"github.com/couchcryptid/storm-flood-risk/internal/calibration"
	"github.com/couchcryptid/storm-flood-risk/internal/config"
	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/fixture"
	"github.com/couchcryptid/storm-flood-risk/internal/observability"
	"github.com/couchcryptid/storm-flood-risk/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	terrain     string
	formula     string
	terrainMode string
	scenario    string
	stability   bool
	points      int
	verbose     bool
}

// output is what gets printed to stdout.
type output struct {
	Calibration calibration.Report           `json:"calibration"`
	Stability   *calibration.StabilityReport `json:"stability,omitempty"`
}

func main() {
	var opts options
	flag.StringVar(&opts.terrain, "terrain", "lowland", "lowland, highland, flat, or live")
	flag.StringVar(&opts.formula, "formula", domain.FormulaEnhanced, "scoring formula: basic, enhanced, or advanced")
	flag.StringVar(&opts.terrainMode, "terrain-mode", pipeline.TerrainSimplified, "simplified or precise")
	flag.StringVar(&opts.scenario, "scenario", "", "run only the named catalog scenario")
	flag.BoolVar(&opts.stability, "stability", true, "also run the rainfall stability check")
	flag.IntVar(&opts.points, "points", 100, "sample points per scenario")
	flag.BoolVar(&opts.verbose, "v", false, "log progress to stderr")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, opts, os.Stdout, os.Stderr))
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	logger := newLogger(stderr, opts.verbose)
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())

	provider, bounds, err := buildProvider(opts.terrain, metrics, logger)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 2
	}

	cfg := calibration.DefaultConfig(bounds)
	cfg.NumPoints = opts.points
	cfg.Options.Formula = opts.formula
	cfg.Options.TerrainMode = opts.terrainMode

	engine, err := pipeline.New(provider, nil, cfg.Options, logger, metrics)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 2
	}
	harness := calibration.NewHarness(engine, cfg, logger, metrics)

	scenarios := calibration.DefaultCatalog()
	if opts.scenario != "" {
		s, ok := calibration.FindScenario(scenarios, opts.scenario)
		if !ok {
			fmt.Fprintf(stderr, "FATAL: unknown scenario %q\n", opts.scenario)
			return 2
		}
		scenarios = []calibration.Scenario{s}
	}

	out := output{Calibration: harness.Run(ctx, scenarios)}
	passed := out.Calibration.Failed == 0 && out.Calibration.Errored == 0

	if opts.stability {
		report, err := harness.StabilityCheck(ctx, calibration.DefaultStabilitySequence())
		if err != nil {
			fmt.Fprintf(stderr, "FATAL: stability check: %v\n", err)
			return 2
		}
		out.Stability = &report
		passed = passed && report.Stable
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "FATAL: encode report: %v\n", err)
		return 2
	}

	printSummary(stderr, out)
	if !passed {
		return 1
	}
	return 0
}

// newLogger logs to stderr so stdout carries only the JSON report.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func buildProvider(terrain string, metrics *observability.Metrics, logger *slog.Logger) (domain.ElevationProvider, domain.Bounds, error) {
	if terrain != "live" {
		t := fixture.Named(terrain, fixture.HoustonBounds)
		if t == nil {
			return nil, domain.Bounds{}, fmt.Errorf("unknown terrain %q", terrain)
		}
		return t, fixture.HoustonBounds, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, domain.Bounds{}, fmt.Errorf("load config: %w", err)
	}
	client := elevation.NewClient(cfg.ElevationURL, cfg.ElevationTimeout, metrics, logger)
	return elevation.NewCachedProvider(client, cfg.ElevationCacheSize, metrics), cfg.StudyArea, nil
}

func printSummary(w io.Writer, out output) {
	r := out.Calibration
	fmt.Fprintf(w, "\n=== Calibration (%s, %s) ===\n", r.Formula, r.Categorizer)
	for _, res := range r.Results {
		status := "\033[32mPASS\033[0m"
		switch {
		case res.Error != "":
			status = "\033[31mERROR\033[0m " + res.Error
		case !res.Pass:
			status = "\033[31mFAIL\033[0m"
		}
		fmt.Fprintf(w, "  %-24s high %3d%%  moderate %3d%%  accuracy %5.1f  %s\n",
			res.Scenario.Name, res.ActualHighPct, res.ActualModeratePct, res.Accuracy, status)
	}
	fmt.Fprintf(w, "Aggregate accuracy: %.1f (%d passed, %d failed, %d errored)\n",
		r.AggregateAccuracy, r.Passed, r.Failed, r.Errored)

	if out.Stability != nil {
		fmt.Fprintf(w, "Stability: %d steps, %d violations\n", len(out.Stability.Steps), len(out.Stability.Violations))
	}
	diags := r.Diagnostics
	if out.Stability != nil {
		diags = slices.Concat(r.Diagnostics, out.Stability.Diagnostics)
	}
	for i, d := range diags {
		fmt.Fprintf(w, "  [%d] %s", i+1, d.Code)
		if d.Scenario != "" {
			fmt.Fprintf(w, " %q", d.Scenario)
		}
		if d.Coefficient != "" {
			fmt.Fprintf(w, ": %s %s", d.Direction, d.Coefficient)
		}
		fmt.Fprintf(w, " (deviation %.1f)\n", d.Deviation)
	}
}
