package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoElevationData is returned when no lattice coordinate had elevation data.
var ErrNoElevationData = errors.New("no elevation data for study area")

// Terrain modes.
const (
	TerrainSimplified = "simplified"
	TerrainPrecise    = "precise"
)

// Publisher receives every completed production assessment.
type Publisher interface {
	Publish(ctx context.Context, a Assessment) error
}

// Options selects the strategies and coefficients of a run. A value copy is
// taken per run, so callers can vary it freely between runs.
type Options struct {
	Bounds       domain.Bounds          `json:"bounds"`
	Formula      string                 `json:"formula"`
	Categorizer  string                 `json:"categorizer"`
	TerrainMode  string                 `json:"terrain_mode"`
	UseHydrology bool                   `json:"use_hydrology"`
	Scoring      domain.ScoringConfig   `json:"scoring"`
	Thresholds   domain.ThresholdConfig `json:"thresholds"`
}

// DefaultOptions returns the production strategy selection over the bounds.
func DefaultOptions(b domain.Bounds) Options {
	return Options{
		Bounds:      b,
		Formula:     domain.FormulaEnhanced,
		Categorizer: domain.CategorizerPercentile,
		TerrainMode: TerrainSimplified,
		Scoring:     domain.DefaultScoringConfig(),
		Thresholds:  domain.DefaultThresholdConfig(),
	}
}

// Validate checks that the named strategies exist.
func (o Options) Validate() error {
	if _, err := domain.NewScorer(o.Formula, o.Scoring); err != nil {
		return err
	}
	if _, err := domain.NewCategorizer(o.Categorizer, o.Thresholds); err != nil {
		return err
	}
	switch o.TerrainMode {
	case TerrainSimplified, TerrainPrecise:
	default:
		return fmt.Errorf("unknown terrain mode %q", o.TerrainMode)
	}
	if o.Scoring.DrainageCoefficient < 0 {
		return errors.New("drainage coefficient must be non-negative")
	}
	if o.Scoring.ScalingFactor < 0 {
		return errors.New("scaling factor must be non-negative")
	}
	return nil
}

// Request is a range-validated assessment request.
type Request struct {
	RainfallAmount float64 `json:"rainfall_amount"`
	DurationHours  float64 `json:"duration_hours"`
	NumPoints      int     `json:"num_points"`
	MinDistanceKm  float64 `json:"min_distance_km"`
}

// Rain returns the storm part of the request.
func (r Request) Rain() domain.RainfallScenario {
	return domain.RainfallScenario{RainfallAmount: r.RainfallAmount, DurationHours: r.DurationHours}
}

// Parameters echoes the inputs and strategies of a run.
type Parameters struct {
	Request
	Formula     string               `json:"formula"`
	Categorizer string               `json:"categorizer"`
	TerrainMode string               `json:"terrain_mode"`
	Hydrology   bool                 `json:"hydrology"`
	Scoring     domain.ScoringConfig `json:"scoring"`
}

// DEMInfo describes the elevation coverage of a run.
type DEMInfo struct {
	TotalPoints     int     `json:"total_points"`
	ClusteredPoints int     `json:"clustered_points"`
	Coverage        float64 `json:"coverage"` // percent of lattice coordinates with data
}

// ScoreSummary describes the score distribution before categorization.
type ScoreSummary struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// Assessment is the output of one run.
type Assessment struct {
	RunID            string              `json:"run_id"`
	RiskMarkers      []domain.RiskMarker `json:"risk_markers"`
	ProcessingTimeMs int64               `json:"processing_time_ms"`
	Parameters       Parameters          `json:"parameters"`
	Statistics       domain.Statistics   `json:"statistics"`
	DEMInfo          DEMInfo             `json:"dem_info"`
	Scores           ScoreSummary        `json:"scores"`

	// Scored holds every categorized point before declutter. It is kept for
	// the calibration harness and not serialized.
	Scored []domain.RiskMarker `json:"-"`
}

// Engine runs assessments against the configured providers.
type Engine struct {
	elevation domain.ElevationProvider
	hydrology domain.HydrologyProvider
	options   Options
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the real clock, typically with a clockwork.FakeClock.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPublisher forwards completed production assessments to p.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// New creates an Engine. hydrology may be nil, in which case the hydrology
// option of a run is ignored.
func New(elevation domain.ElevationProvider, hydrology domain.HydrologyProvider, opts Options, logger *slog.Logger, metrics *observability.Metrics, options ...Option) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("engine options: %w", err)
	}
	e := &Engine{
		elevation: elevation,
		hydrology: hydrology,
		options:   opts,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
	for _, o := range options {
		o(e)
	}
	return e, nil
}

// Options returns a copy of the engine's default run options.
func (e *Engine) Options() Options {
	return e.options
}

// Assess runs the production pipeline with the engine's default options and
// publishes the result when a publisher is configured. Publishing failures are
// logged and do not fail the assessment.
func (e *Engine) Assess(ctx context.Context, req Request) (Assessment, error) {
	a, err := e.Run(ctx, req, e.options)
	if err != nil {
		return a, err
	}
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, a); err != nil {
			e.logger.Warn("publish assessment failed", "run_id", a.RunID, "error", err)
			e.metrics.AssessmentPublishError.Inc()
		} else {
			e.metrics.AssessmentsPublished.Inc()
		}
	}
	return a, nil
}

// Run executes sample → terrain → score → categorize → declutter → summarize
// with the given options. Provider lookups are memoized for this run only.
func (e *Engine) Run(ctx context.Context, req Request, opts Options) (Assessment, error) {
	start := e.clock.Now()

	a, err := e.run(ctx, req, opts)
	elapsed := e.clock.Since(start)
	e.metrics.AssessmentDuration.Observe(elapsed.Seconds())

	switch {
	case errors.Is(err, ErrNoElevationData):
		e.metrics.Assessments.WithLabelValues("no_data").Inc()
		return Assessment{}, err
	case err != nil:
		e.metrics.Assessments.WithLabelValues("error").Inc()
		return Assessment{}, err
	}

	a.ProcessingTimeMs = elapsed.Milliseconds()
	e.metrics.Assessments.WithLabelValues("success").Inc()
	e.logger.Info("assessment complete",
		"run_id", a.RunID,
		"rainfall", req.RainfallAmount,
		"duration_hours", req.DurationHours,
		"points", a.DEMInfo.TotalPoints,
		"markers", a.DEMInfo.ClusteredPoints,
		"high_pct", a.Statistics.HighPct,
		"elapsed_ms", a.ProcessingTimeMs,
	)
	return a, nil
}

func (e *Engine) run(ctx context.Context, req Request, opts Options) (Assessment, error) {
	if err := opts.Validate(); err != nil {
		return Assessment{}, fmt.Errorf("run options: %w", err)
	}
	scorer, _ := domain.NewScorer(opts.Formula, opts.Scoring)
	categorizer, _ := domain.NewCategorizer(opts.Categorizer, opts.Thresholds)

	var hydrology domain.HydrologyProvider
	if opts.UseHydrology {
		hydrology = e.hydrology
	}
	memo := domain.NewRunMemo(e.elevation, hydrology)

	points, err := domain.SampleGrid(ctx, memo, opts.Bounds, req.NumPoints)
	if err != nil {
		return Assessment{}, err
	}
	e.metrics.SampledPoints.Observe(float64(len(points)))
	if len(points) == 0 {
		return Assessment{}, ErrNoElevationData
	}

	estimator := e.estimator(opts, memo)
	features := make([]domain.TerrainFeatures, len(points))
	for i, p := range points {
		if err := ctx.Err(); err != nil {
			return Assessment{}, fmt.Errorf("estimate terrain: %w", err)
		}
		features[i] = estimator.Estimate(ctx, p)
	}

	rain := req.Rain()
	scored := domain.ScorePoints(scorer, rain, points, features)
	markers := categorizer.Categorize(scored, rain)
	kept := domain.Declutter(markers, req.MinDistanceKm)
	e.metrics.MarkersKept.Observe(float64(len(kept)))

	e.logger.Debug("run lookups", "provider_calls", memo.Lookups, "points", len(points))

	lattice := len(domain.LatticeCoordinates(opts.Bounds, req.NumPoints))

	return Assessment{
		RunID:       uuid.NewString(),
		RiskMarkers: kept,
		Parameters: Parameters{
			Request:     req,
			Formula:     scorer.Name(),
			Categorizer: categorizer.Name(),
			TerrainMode: opts.TerrainMode,
			Hydrology:   hydrology != nil,
			Scoring:     opts.Scoring,
		},
		Statistics: domain.Summarize(kept),
		DEMInfo: DEMInfo{
			TotalPoints:     len(points),
			ClusteredPoints: len(kept),
			Coverage:        coverage(len(points), lattice),
		},
		Scores: summarizeScores(scored),
		Scored: markers,
	}, nil
}

func (e *Engine) estimator(opts Options, memo *domain.RunMemo) domain.TerrainEstimator {
	var base domain.TerrainEstimator = domain.SimplifiedTerrain{}
	if opts.TerrainMode == TerrainPrecise {
		base = domain.NewPreciseTerrain(memo)
	}
	if opts.UseHydrology && e.hydrology != nil {
		return domain.NewHydrologyTerrain(base, memo)
	}
	return base
}

func coverage(points, lattice int) float64 {
	if lattice == 0 {
		return 0
	}
	return math.Round(float64(points)/float64(lattice)*1000) / 10
}

func summarizeScores(scored []domain.ScoredPoint) ScoreSummary {
	if len(scored) == 0 {
		return ScoreSummary{}
	}
	scores := make([]float64, len(scored))
	for i, p := range scored {
		scores[i] = p.RiskScore
	}
	return ScoreSummary{Mean: stat.Mean(scores, nil), Max: floats.Max(scores)}
}
