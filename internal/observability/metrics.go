package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the risk engine.
type Metrics struct {
	Assessments        *prometheus.CounterVec // labels: outcome={success,no_data,error}
	AssessmentDuration prometheus.Histogram
	SampledPoints      prometheus.Histogram
	MarkersKept        prometheus.Histogram

	// Provider metrics.
	ProviderLookups *prometheus.CounterVec // labels: provider={elevation,hydrology}, outcome={success,error,no_data}
	ElevationCache  *prometheus.CounterVec // labels: result={hit,miss}
	ElevationAPI    prometheus.Histogram
	ProviderReady   prometheus.Gauge

	// Calibration metrics.
	CalibrationAccuracy *prometheus.GaugeVec   // labels: scenario
	CalibrationRuns     *prometheus.CounterVec // labels: result={pass,fail,error}
	StabilityViolations *prometheus.CounterVec // labels: kind={bound,jump}

	AssessmentsPublished   prometheus.Counter
	AssessmentPublishError prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates all engine metrics and registers them with
// reg. Offline tools pass a private prometheus.NewRegistry().
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics(true)

	reg.MustRegister(
		m.Assessments,
		m.AssessmentDuration,
		m.SampledPoints,
		m.MarkersKept,
		m.ProviderLookups,
		m.ElevationCache,
		m.ElevationAPI,
		m.ProviderReady,
		m.CalibrationAccuracy,
		m.CalibrationRuns,
		m.StabilityViolations,
		m.AssessmentsPublished,
		m.AssessmentPublishError,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      help("Risk assessments by outcome."),
		}, []string{"outcome"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      help("Duration of a complete sample-score-declutter run."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SampledPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sampled_points",
			Help:      help("Number of sample points with elevation data per run."),
			Buckets:   []float64{0, 10, 25, 50, 100, 150, 200, 400},
		}),
		MarkersKept: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "markers_kept",
			Help:      help("Number of markers left after declutter per run."),
			Buckets:   []float64{0, 10, 25, 50, 100, 150, 200, 400},
		}),
		ProviderLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_lookups_total",
			Help:      help("External provider lookups by provider and outcome."),
		}, []string{"provider", "outcome"}),
		ElevationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_cache_total",
			Help:      help("Elevation cache lookups by result."),
		}, []string{"result"}),
		ElevationAPI: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "elevation_api_duration_seconds",
			Help:      help("Elevation API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ProviderReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "elevation_provider_ready",
			Help:      help("1 once the elevation provider answered a probe, 0 otherwise."),
		}),
		CalibrationAccuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calibration_accuracy",
			Help:      help("Latest calibration accuracy per scenario (0-100)."),
		}, []string{"scenario"}),
		CalibrationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calibration_scenarios_total",
			Help:      help("Calibration scenario runs by result."),
		}, []string{"result"}),
		StabilityViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stability_violations_total",
			Help:      help("Stability check violations by kind."),
		}, []string{"kind"}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_published_total",
			Help:      help("Assessment summaries written to Kafka."),
		}),
		AssessmentPublishError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_publish_errors_total",
			Help:      help("Assessment summaries that failed to publish."),
		}),
	}
}
