package domain

import (
	"fmt"
	"math"
)

// Formula names accepted by NewScorer.
const (
	FormulaBasic    = "basic"
	FormulaEnhanced = "enhanced"
	FormulaAdvanced = "advanced"
)

// ScoringConfig carries the tunable coefficients of the risk formulas.
type ScoringConfig struct {
	// DrainageCoefficient approximates soil and infrastructure absorption.
	// Used by the basic and enhanced formulas.
	DrainageCoefficient float64 `json:"drainage_coefficient"`

	// ScalingFactor rescales the advanced formula (historically 0.15–0.3).
	ScalingFactor float64 `json:"scaling_factor"`
}

// DefaultScoringConfig returns the coefficients used when none are configured.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{DrainageCoefficient: 0.5, ScalingFactor: 0.2}
}

// Scorer turns rainfall and terrain into a non-negative risk score.
type Scorer interface {
	Name() string
	// Bound is the largest score the formula can return.
	Bound() float64
	Score(rain RainfallScenario, p SamplePoint, t TerrainFeatures) float64
}

// NewScorer returns the formula registered under name.
func NewScorer(name string, cfg ScoringConfig) (Scorer, error) {
	switch name {
	case FormulaBasic:
		return BasicScorer{cfg: cfg}, nil
	case FormulaEnhanced:
		return EnhancedScorer{cfg: cfg}, nil
	case FormulaAdvanced:
		return AdvancedScorer{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown scoring formula %q", name)
	}
}

// ScorePoints applies the scorer to every point, pairing each with its
// terrain features. features must be index-aligned with points.
func ScorePoints(s Scorer, rain RainfallScenario, points []SamplePoint, features []TerrainFeatures) []ScoredPoint {
	scored := make([]ScoredPoint, len(points))
	for i, p := range points {
		scored[i] = ScoredPoint{
			SamplePoint: p,
			Terrain:     features[i],
			RiskScore:   s.Score(rain, p, features[i]),
		}
	}
	return scored
}

// BasicScorer divides storm depth by elevation plus the drainage coefficient.
type BasicScorer struct {
	cfg ScoringConfig
}

func (BasicScorer) Name() string   { return FormulaBasic }
func (BasicScorer) Bound() float64 { return 1.0 }

func (s BasicScorer) Score(rain RainfallScenario, p SamplePoint, _ TerrainFeatures) float64 {
	if p.Elevation <= 0 {
		return 1.0
	}
	denom := p.Elevation + s.cfg.DrainageCoefficient
	if denom <= 0 {
		return 1.0
	}
	return clamp(rain.Depth()/denom, 0, 1)
}

// EnhancedScorer weights storm depth by slope and proximity to water.
type EnhancedScorer struct {
	cfg ScoringConfig
}

func (EnhancedScorer) Name() string   { return FormulaEnhanced }
func (EnhancedScorer) Bound() float64 { return 5.0 }

func (s EnhancedScorer) Score(rain RainfallScenario, p SamplePoint, t TerrainFeatures) float64 {
	rainfallFactor := rain.Depth()
	elevationFactor := math.Max(0.1, p.Elevation+s.cfg.DrainageCoefficient)
	slopeFactor := math.Max(0.5, 2-t.SlopePct)
	proximityFactor := math.Max(0.5, 2-t.ProximityToWater)

	return clamp(rainfallFactor*slopeFactor*proximityFactor/elevationFactor, 0, 5)
}

// AdvancedScorer models rainfall impact against elevation resistance, flow
// concentration and drainage efficiency. Its raw output is unbounded and is
// multiplied by the configured scaling factor.
type AdvancedScorer struct {
	cfg ScoringConfig
}

func (AdvancedScorer) Name() string   { return FormulaAdvanced }
func (AdvancedScorer) Bound() float64 { return math.Inf(1) }

func (s AdvancedScorer) Score(rain RainfallScenario, p SamplePoint, t TerrainFeatures) float64 {
	rainfallImpact := math.Pow(math.Max(0, rain.RainfallAmount)*math.Sqrt(math.Max(0, rain.DurationHours)), 1.4)
	elevationResistance := math.Log(math.Max(1, p.Elevation)+1) + 1
	slopeFactor := math.Max(0.5, 3-t.SlopePct/2)

	flow := math.Max(0, t.FlowAccumulation)
	flowFactor := math.Min(3.0, 1+math.Sqrt(flow/50))
	drainageEfficiency := math.Max(0.2, 1-flow/200-t.SlopePct/20)

	score := rainfallImpact * slopeFactor * flowFactor * drainageEfficiency / elevationResistance
	return math.Max(0, score*s.cfg.ScalingFactor)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
