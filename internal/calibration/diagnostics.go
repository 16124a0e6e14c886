package calibration

import "github.com/couchcryptid/storm-flood-risk/internal/domain"

// Code identifies the kind of calibration finding.
type Code string

const (
	CodeHighUnderPredicted     Code = "HIGH_UNDER_PREDICTED"
	CodeHighOverPredicted      Code = "HIGH_OVER_PREDICTED"
	CodeModerateUnderPredicted Code = "MODERATE_UNDER_PREDICTED"
	CodeModerateOverPredicted  Code = "MODERATE_OVER_PREDICTED"
	CodeScenarioError          Code = "SCENARIO_ERROR"
	CodeScoreOutOfBound        Code = "SCORE_OUT_OF_BOUND"
	CodeHighJump               Code = "HIGH_PCT_JUMP"
)

// Direction is the suggested change to a coefficient.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	DirectionReview   Direction = "review"
)

// Coefficient names used in diagnostics.
const (
	CoefficientDrainage    = "drainage_coefficient"
	CoefficientScaling     = "scaling_factor"
	CoefficientModerateCut = "moderate_cut"
	CoefficientHighCut     = "high_cut"
)

// Diagnostic is a structured tuning hint. Deviation is actual minus expected,
// in percentage points, or the offending value for bound and jump findings.
type Diagnostic struct {
	Code        Code      `json:"code"`
	Scenario    string    `json:"scenario,omitempty"`
	Coefficient string    `json:"coefficient,omitempty"`
	Direction   Direction `json:"direction,omitempty"`
	Deviation   float64   `json:"deviation"`
}

// scoreCoefficient names the coefficient that scales scores up or down for
// the formula, and the direction that raises scores.
func scoreCoefficient(formula string) (name string, raise Direction) {
	if formula == domain.FormulaAdvanced {
		return CoefficientScaling, DirectionIncrease
	}
	return CoefficientDrainage, DirectionDecrease
}

func opposite(d Direction) Direction {
	switch d {
	case DirectionIncrease:
		return DirectionDecrease
	case DirectionDecrease:
		return DirectionIncrease
	default:
		return d
	}
}

// diagnose turns one scenario result into tuning hints. Deviations inside the
// tolerance produce nothing.
func diagnose(r Result, formula string) []Diagnostic {
	if r.Error != "" {
		return []Diagnostic{{Code: CodeScenarioError, Scenario: r.Scenario.Name}}
	}

	var out []Diagnostic
	coef, raise := scoreCoefficient(formula)
	tol := r.Scenario.tolerance()

	switch {
	case r.HighDeviation < -tol:
		out = append(out, Diagnostic{
			Code: CodeHighUnderPredicted, Scenario: r.Scenario.Name,
			Coefficient: coef, Direction: raise, Deviation: r.HighDeviation,
		})
	case r.HighDeviation > tol:
		out = append(out, Diagnostic{
			Code: CodeHighOverPredicted, Scenario: r.Scenario.Name,
			Coefficient: coef, Direction: opposite(raise), Deviation: r.HighDeviation,
		})
	}

	switch {
	case r.ModerateDeviation < -tol:
		out = append(out, Diagnostic{
			Code: CodeModerateUnderPredicted, Scenario: r.Scenario.Name,
			Coefficient: CoefficientModerateCut, Direction: DirectionDecrease, Deviation: r.ModerateDeviation,
		})
	case r.ModerateDeviation > tol:
		out = append(out, Diagnostic{
			Code: CodeModerateOverPredicted, Scenario: r.Scenario.Name,
			Coefficient: CoefficientModerateCut, Direction: DirectionIncrease, Deviation: r.ModerateDeviation,
		})
	}
	return out
}
