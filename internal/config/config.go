package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/pipeline"
)

// DefaultStudyArea is the east Houston box used when STUDY_AREA_BOUNDS is unset.
var DefaultStudyArea = domain.Bounds{North: 29.80, South: 29.70, East: -95.30, West: -95.40}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	ShutdownTimeout   time.Duration
	AssessmentTimeout time.Duration

	// Study area and request defaults.
	StudyArea            domain.Bounds
	DefaultNumPoints     int
	DefaultMinDistanceKm float64

	// Strategy selection and coefficients.
	ScoringFormula      string
	Categorizer         string
	TerrainMode         string
	DrainageCoefficient float64
	ScalingFactor       float64
	HighCut             float64
	ModerateCut         float64

	// Elevation provider.
	ElevationURL       string
	ElevationTimeout   time.Duration
	ElevationCacheSize int

	// Hydrology provider.
	HydrologyEnabled bool
	HydrologyURL     string

	// Assessment publication.
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaAssessmentTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	assessmentTimeout, err := parseDuration("ASSESSMENT_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	elevationTimeout, err := parseDuration("ELEVATION_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	studyArea := DefaultStudyArea
	if v := os.Getenv("STUDY_AREA_BOUNDS"); v != "" {
		studyArea, err = ParseBounds(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STUDY_AREA_BOUNDS: %w", err)
		}
	}

	numPoints, err := parsePositiveInt("DEFAULT_NUM_POINTS", 400)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		AssessmentTimeout: assessmentTimeout,

		StudyArea:        studyArea,
		DefaultNumPoints: numPoints,

		ScoringFormula: sharedcfg.EnvOrDefault("SCORING_FORMULA", domain.FormulaEnhanced),
		Categorizer:    sharedcfg.EnvOrDefault("CATEGORIZER", domain.CategorizerPercentile),
		TerrainMode:    sharedcfg.EnvOrDefault("TERRAIN_MODE", pipeline.TerrainSimplified),

		ElevationURL:       sharedcfg.EnvOrDefault("ELEVATION_URL", "https://api.open-meteo.com/v1/elevation"),
		ElevationTimeout:   elevationTimeout,
		ElevationCacheSize: parseCacheSize(),

		HydrologyEnabled: os.Getenv("HYDROLOGY_ENABLED") == "true",
		HydrologyURL:     os.Getenv("HYDROLOGY_URL"),

		KafkaEnabled:         os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAssessmentTopic: sharedcfg.EnvOrDefault("KAFKA_ASSESSMENT_TOPIC", "flood-risk-assessments"),
	}

	scoring := domain.DefaultScoringConfig()
	thresholds := domain.DefaultThresholdConfig()
	floats := []struct {
		key  string
		dst  *float64
		def  float64
		zero bool // whether zero is allowed
	}{
		{"DEFAULT_MIN_DISTANCE_KM", &cfg.DefaultMinDistanceKm, 0.1, true},
		{"DRAINAGE_COEFFICIENT", &cfg.DrainageCoefficient, scoring.DrainageCoefficient, true},
		{"SCALING_FACTOR", &cfg.ScalingFactor, scoring.ScalingFactor, false},
		{"HIGH_CUT", &cfg.HighCut, thresholds.HighCut, false},
		{"MODERATE_CUT", &cfg.ModerateCut, thresholds.ModerateCut, false},
	}
	for _, f := range floats {
		v, err := parseFloat(f.key, f.def, f.zero)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if cfg.ModerateCut >= cfg.HighCut {
		return nil, errors.New("MODERATE_CUT must be below HIGH_CUT")
	}
	if cfg.ElevationURL == "" {
		return nil, errors.New("ELEVATION_URL is required")
	}
	if cfg.HydrologyEnabled && cfg.HydrologyURL == "" {
		return nil, errors.New("HYDROLOGY_ENABLED is true but HYDROLOGY_URL is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaAssessmentTopic == "" {
		return nil, errors.New("KAFKA_ASSESSMENT_TOPIC is required when KAFKA_ENABLED is true")
	}
	if err := cfg.Engine().Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy selection: %w", err)
	}

	return cfg, nil
}

// Engine returns the default run options derived from the configuration.
func (c *Config) Engine() pipeline.Options {
	opts := pipeline.DefaultOptions(c.StudyArea)
	opts.Formula = c.ScoringFormula
	opts.Categorizer = c.Categorizer
	opts.TerrainMode = c.TerrainMode
	opts.UseHydrology = c.HydrologyEnabled
	opts.Scoring.DrainageCoefficient = c.DrainageCoefficient
	opts.Scoring.ScalingFactor = c.ScalingFactor
	opts.Thresholds.HighCut = c.HighCut
	opts.Thresholds.ModerateCut = c.ModerateCut
	return opts
}

// ParseBounds parses "north,south,east,west" in decimal degrees.
func ParseBounds(s string) (domain.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.Bounds{}, fmt.Errorf("want north,south,east,west, got %d values", len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Bounds{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		v[i] = f
	}

	b := domain.Bounds{North: v[0], South: v[1], East: v[2], West: v[3]}
	switch {
	case b.North < b.South:
		return domain.Bounds{}, errors.New("north is below south")
	case b.East < b.West:
		return domain.Bounds{}, errors.New("east is below west")
	case b.North > 90 || b.South < -90 || b.East > 180 || b.West < -180:
		return domain.Bounds{}, errors.New("bounds outside valid coordinates")
	}
	return b, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseFloat(key string, def float64, allowZero bool) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || (f == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseCacheSize() int {
	if s := os.Getenv("ELEVATION_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 10000
}
