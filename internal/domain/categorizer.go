package domain

import (
	"fmt"
	"slices"
)

// Categorizer names accepted by NewCategorizer.
const (
	CategorizerThreshold  = "threshold"
	CategorizerPercentile = "percentile"
)

const (
	highPercentile     = 0.75
	moderatePercentile = 0.25
)

// Categorizer assigns a risk level to every point of a batch. The returned
// markers are index-aligned with the input.
type Categorizer interface {
	Name() string
	Categorize(points []ScoredPoint, rain RainfallScenario) []RiskMarker
}

// ThresholdConfig holds the absolute cuts of the threshold categorizer. The
// defaults are on the enhanced formula's 0–5 scale.
type ThresholdConfig struct {
	HighCut     float64 `json:"high_cut"`
	ModerateCut float64 `json:"moderate_cut"`

	// Storms with rainfall × duration below LightStormDepth have both cuts
	// multiplied by LightStormCutMultiplier.
	LightStormDepth         float64 `json:"light_storm_depth"`
	LightStormCutMultiplier float64 `json:"light_storm_cut_multiplier"`
}

// DefaultThresholdConfig returns the cuts used when none are configured.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		HighCut:                 2.5,
		ModerateCut:             1.0,
		LightStormDepth:         2.0,
		LightStormCutMultiplier: 1.5,
	}
}

// NewCategorizer returns the strategy registered under name. The threshold
// config is ignored by the percentile strategy.
func NewCategorizer(name string, cfg ThresholdConfig) (Categorizer, error) {
	switch name {
	case CategorizerThreshold:
		return ThresholdCategorizer{cfg: cfg}, nil
	case CategorizerPercentile:
		return PercentileCategorizer{}, nil
	default:
		return nil, fmt.Errorf("unknown categorizer %q", name)
	}
}

// ThresholdCategorizer compares each score against fixed cuts.
type ThresholdCategorizer struct {
	cfg ThresholdConfig
}

func (ThresholdCategorizer) Name() string { return CategorizerThreshold }

// Cuts returns the effective high and moderate cuts for the storm.
func (c ThresholdCategorizer) Cuts(rain RainfallScenario) (high, moderate float64) {
	high, moderate = c.cfg.HighCut, c.cfg.ModerateCut
	if c.cfg.LightStormCutMultiplier > 0 && rain.Depth() < c.cfg.LightStormDepth {
		high *= c.cfg.LightStormCutMultiplier
		moderate *= c.cfg.LightStormCutMultiplier
	}
	return high, moderate
}

func (c ThresholdCategorizer) Categorize(points []ScoredPoint, rain RainfallScenario) []RiskMarker {
	high, moderate := c.Cuts(rain)

	markers := make([]RiskMarker, len(points))
	for i, p := range points {
		level := RiskLow
		switch {
		case p.RiskScore > high:
			level = RiskHigh
		case p.RiskScore > moderate:
			level = RiskModerate
		}
		markers[i] = NewRiskMarker(p, level)
	}
	return markers
}

// PercentileCategorizer ranks each score within its batch: the top quarter is
// HIGH, the bottom quarter LOW. Ties share the rank of their first occurrence.
type PercentileCategorizer struct{}

func (PercentileCategorizer) Name() string { return CategorizerPercentile }

func (PercentileCategorizer) Categorize(points []ScoredPoint, _ RainfallScenario) []RiskMarker {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]float64, len(points))
	for i, p := range points {
		sorted[i] = p.RiskScore
	}
	slices.Sort(sorted)

	markers := make([]RiskMarker, len(points))
	for i, p := range points {
		markers[i] = NewRiskMarker(p, percentileLevel(Percentile(sorted, p.RiskScore)))
	}
	return markers
}

// Percentile returns the fraction of scores strictly below v in an
// ascending-sorted batch.
func Percentile(sorted []float64, v float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank, _ := slices.BinarySearch(sorted, v)
	return float64(rank) / float64(len(sorted))
}

func percentileLevel(pct float64) RiskLevel {
	switch {
	case pct >= highPercentile:
		return RiskHigh
	case pct >= moderatePercentile:
		return RiskModerate
	default:
		return RiskLow
	}
}
