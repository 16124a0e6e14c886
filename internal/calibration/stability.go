package calibration

import (
	"context"
	"fmt"
	"math"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
)

// MaxHighJumpPct is the largest allowed change in HIGH share between
// consecutive storms of a stability sequence.
const MaxHighJumpPct = 25

// Violation kinds.
const (
	ViolationBound = "bound"
	ViolationJump  = "jump"
)

// StabilityStep is the outcome of one storm in the sequence.
type StabilityStep struct {
	RainfallAmount float64 `json:"rainfall_amount"`
	DurationHours  float64 `json:"duration_hours"`
	HighPct        int     `json:"high_pct"`
	MaxScore       float64 `json:"max_score"`
	Error          string  `json:"error,omitempty"`
}

// Violation records a broken stability property at a step.
type Violation struct {
	Kind  string  `json:"kind"`
	Step  int     `json:"step"`
	Value float64 `json:"value"` // offending score or HIGH jump
	Limit float64 `json:"limit"`
}

// StabilityReport is the result of a stability check.
type StabilityReport struct {
	Formula     string          `json:"formula"`
	Steps       []StabilityStep `json:"steps"`
	Violations  []Violation     `json:"violations"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
	Stable      bool            `json:"stable"`
}

// StabilityCheck runs a sequence of storms with non-decreasing rainfall and
// checks that every score stays within the formula's bound and that the HIGH
// share never moves by more than MaxHighJumpPct between consecutive storms.
// Steps that fail to run are skipped when comparing neighbours.
func (h *Harness) StabilityCheck(ctx context.Context, sequence []domain.RainfallScenario) (StabilityReport, error) {
	for i := 1; i < len(sequence); i++ {
		if sequence[i].RainfallAmount < sequence[i-1].RainfallAmount {
			return StabilityReport{}, fmt.Errorf("stability sequence must be non-decreasing in rainfall: step %d (%g) < step %d (%g)",
				i, sequence[i].RainfallAmount, i-1, sequence[i-1].RainfallAmount)
		}
	}

	scorer, err := domain.NewScorer(h.cfg.Options.Formula, h.cfg.Options.Scoring)
	if err != nil {
		return StabilityReport{}, err
	}
	bound := scorer.Bound()
	coef, _ := scoreCoefficient(scorer.Name())

	report := StabilityReport{
		Formula:     scorer.Name(),
		Steps:       make([]StabilityStep, 0, len(sequence)),
		Violations:  []Violation{},
		Diagnostics: []Diagnostic{},
	}

	prev := -1
	for i, rain := range sequence {
		step := StabilityStep{RainfallAmount: rain.RainfallAmount, DurationHours: rain.DurationHours}

		a, err := h.assess(ctx, rain)
		if err != nil {
			step.Error = err.Error()
			report.Steps = append(report.Steps, step)
			continue
		}
		step.HighPct = a.Statistics.HighPct

		for _, m := range a.Scored {
			step.MaxScore = math.Max(step.MaxScore, m.RiskScore)
			if m.RiskScore < 0 || m.RiskScore > bound {
				report.Violations = append(report.Violations, Violation{
					Kind: ViolationBound, Step: i, Value: m.RiskScore, Limit: bound,
				})
				report.Diagnostics = append(report.Diagnostics, Diagnostic{
					Code: CodeScoreOutOfBound, Coefficient: coef, Direction: DirectionReview, Deviation: m.RiskScore,
				})
				h.metrics.StabilityViolations.WithLabelValues(ViolationBound).Inc()
			}
		}

		if prev >= 0 {
			jump := math.Abs(float64(step.HighPct - report.Steps[prev].HighPct))
			if jump > MaxHighJumpPct {
				report.Violations = append(report.Violations, Violation{
					Kind: ViolationJump, Step: i, Value: jump, Limit: MaxHighJumpPct,
				})
				report.Diagnostics = append(report.Diagnostics, Diagnostic{
					Code: CodeHighJump, Coefficient: CoefficientHighCut, Direction: DirectionReview, Deviation: jump,
				})
				h.metrics.StabilityViolations.WithLabelValues(ViolationJump).Inc()
			}
		}

		report.Steps = append(report.Steps, step)
		prev = len(report.Steps) - 1
	}

	report.Stable = len(report.Violations) == 0
	h.logger.Info("stability check complete",
		"formula", report.Formula,
		"steps", len(report.Steps),
		"violations", len(report.Violations),
	)
	return report, nil
}
