package domain

import "math"

// Statistics summarizes a marker set by risk level.
type Statistics struct {
	High        int `json:"high"`
	Moderate    int `json:"moderate"`
	Low         int `json:"low"`
	Total       int `json:"total"`
	HighPct     int `json:"high_pct"`
	ModeratePct int `json:"moderate_pct"`
	LowPct      int `json:"low_pct"`
}

// Summarize counts markers per level and derives rounded percentages. An
// empty set yields all zeros.
func Summarize(markers []RiskMarker) Statistics {
	var s Statistics
	for _, m := range markers {
		switch m.Level {
		case RiskHigh:
			s.High++
		case RiskModerate:
			s.Moderate++
		default:
			s.Low++
		}
	}
	s.Total = len(markers)
	if s.Total == 0 {
		return s
	}

	s.HighPct = percentOf(s.High, s.Total)
	s.ModeratePct = percentOf(s.Moderate, s.Total)
	s.LowPct = percentOf(s.Low, s.Total)
	return s
}

func percentOf(count, total int) int {
	return int(math.Round(float64(count) / float64(total) * 100))
}
