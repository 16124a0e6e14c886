package domain

// Bounds is a latitude/longitude bounding box in decimal degrees.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() (lat, lon float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SamplePoint is one lattice coordinate with a known elevation.
type SamplePoint struct {
	ID        int     `json:"id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation"` // meters
}

// TerrainFeatures are the per-point terrain inputs to the scorers.
type TerrainFeatures struct {
	SlopePct         float64 `json:"slope_pct"`
	ProximityToWater float64 `json:"proximity_to_water"` // unitless, smaller is closer
	FlowAccumulation float64 `json:"flow_accumulation,omitempty"`
	FlowLength       float64 `json:"flow_length,omitempty"`
	DrainageArea     float64 `json:"drainage_area,omitempty"`
	Source           string  `json:"source"` // "simplified", "precise", "hydrology"
}

// Terrain feature sources.
const (
	SourceSimplified = "simplified"
	SourcePrecise    = "precise"
	SourceHydrology  = "hydrology"
)

// ScoredPoint is a sample point with its terrain features and risk score.
type ScoredPoint struct {
	SamplePoint
	Terrain   TerrainFeatures `json:"terrain"`
	RiskScore float64         `json:"risk_score"`
}

// RiskLevel is the discrete risk category of a marker.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "HIGH"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
)

// Color returns the map color associated with the level.
func (l RiskLevel) Color() string {
	switch l {
	case RiskHigh:
		return "#d73027"
	case RiskModerate:
		return "#fc8d59"
	default:
		return "#91bfdb"
	}
}

// Description returns the human-readable label for the level.
func (l RiskLevel) Description() string {
	switch l {
	case RiskHigh:
		return "High flood risk"
	case RiskModerate:
		return "Moderate flood risk"
	default:
		return "Low flood risk"
	}
}

// RiskMarker is a categorized point ready for display.
type RiskMarker struct {
	ScoredPoint
	Level       RiskLevel `json:"risk_level"`
	Color       string    `json:"color"`
	Description string    `json:"description"`
}

// NewRiskMarker attaches a level and its presentation fields to a scored point.
func NewRiskMarker(p ScoredPoint, level RiskLevel) RiskMarker {
	return RiskMarker{
		ScoredPoint: p,
		Level:       level,
		Color:       level.Color(),
		Description: level.Description(),
	}
}

// RainfallScenario is the storm being assessed. Ranges are validated by the
// caller before a run starts.
type RainfallScenario struct {
	RainfallAmount float64 `json:"rainfall_amount"`
	DurationHours  float64 `json:"duration_hours"`
}

// Depth returns rainfall × duration, the total-rain proxy used by the basic
// and enhanced formulas.
func (r RainfallScenario) Depth() float64 {
	return r.RainfallAmount * r.DurationHours
}
