package calibration

import "github.com/couchcryptid/storm-flood-risk/internal/domain"

// DefaultTolerancePct is the allowed deviation, in percentage points, between
// expected and actual level shares.
const DefaultTolerancePct = 15.0

// Scenario is a named historical storm with the level shares it is expected
// to produce.
type Scenario struct {
	Name                string  `json:"name"`
	RainfallAmount      float64 `json:"rainfall_amount"`
	DurationHours       float64 `json:"duration_hours"`
	ExpectedHighPct     float64 `json:"expected_high_pct"`
	ExpectedModeratePct float64 `json:"expected_moderate_pct"`
	TolerancePct        float64 `json:"tolerance_pct"`
}

// Rain returns the storm parameters of the scenario.
func (s Scenario) Rain() domain.RainfallScenario {
	return domain.RainfallScenario{RainfallAmount: s.RainfallAmount, DurationHours: s.DurationHours}
}

func (s Scenario) tolerance() float64 {
	if s.TolerancePct <= 0 {
		return DefaultTolerancePct
	}
	return s.TolerancePct
}

// DefaultCatalog returns the historical-storm scenarios, lightest first.
// Rainfall is in inches per hour.
func DefaultCatalog() []Scenario {
	return []Scenario{
		{Name: "Light Rain", RainfallAmount: 0.5, DurationHours: 1, ExpectedHighPct: 5, ExpectedModeratePct: 10, TolerancePct: DefaultTolerancePct},
		{Name: "Heavy Thunderstorm", RainfallAmount: 1.8, DurationHours: 1, ExpectedHighPct: 10, ExpectedModeratePct: 30, TolerancePct: DefaultTolerancePct},
		{Name: "Moderate Storm", RainfallAmount: 1, DurationHours: 3, ExpectedHighPct: 35, ExpectedModeratePct: 35, TolerancePct: DefaultTolerancePct},
		{Name: "Tax Day Flood", RainfallAmount: 2.5, DurationHours: 8, ExpectedHighPct: 60, ExpectedModeratePct: 15, TolerancePct: DefaultTolerancePct},
		{Name: "Tropical Storm Allison", RainfallAmount: 2, DurationHours: 24, ExpectedHighPct: 65, ExpectedModeratePct: 10, TolerancePct: DefaultTolerancePct},
		{Name: "Harvey Peak", RainfallAmount: 40, DurationHours: 96, ExpectedHighPct: 70, ExpectedModeratePct: 25, TolerancePct: DefaultTolerancePct},
	}
}

// FindScenario returns the catalog entry with the given name.
func FindScenario(catalog []Scenario, name string) (Scenario, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// DefaultStabilitySequence returns a storm sequence with rainfall doubling at
// a fixed six-hour duration.
func DefaultStabilitySequence() []domain.RainfallScenario {
	rates := []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32}
	seq := make([]domain.RainfallScenario, len(rates))
	for i, r := range rates {
		seq[i] = domain.RainfallScenario{RainfallAmount: r, DurationHours: 6}
	}
	return seq
}
