// Package domain models heuristic flood risk scoring over a sampled study area.
//
// # Pipeline
//
// A single assessment runs the stages below in order. Every stage is a pure
// function of its inputs plus read-only provider lookups, so two assessments
// never share mutable state:
//
//	SampleGrid      bounding box + N      →  []SamplePoint
//	TerrainEstimator                      →  TerrainFeatures per point
//	Scorer          rainfall + terrain    →  []ScoredPoint
//	Categorizer     whole batch           →  []RiskMarker
//	Declutter       min separation (km)   →  subset of markers
//	Summarize                             →  Statistics
//
// # Sampling
//
// The lattice has ceil(sqrt(N)) rows and columns. Coordinates are computed as
// origin + index×step rather than by accumulating the step, so the same bounds
// and N always yield bit-identical coordinates. Lattice coordinates whose
// elevation lookup fails or returns no data are dropped, not reported.
//
// # Terrain
//
// Simplified mode maps elevation buckets to fixed slope/proximity pairs:
//
//	elevation  <5 m   slope 0.5  proximity 0.2
//	elevation <10 m   slope 1.0  proximity 0.5
//	elevation <20 m   slope 2.0  proximity 1.0
//	otherwise         slope 3.0  proximity 1.5
//
// Precise mode takes four extra lookups 50 m away in each cardinal direction
// and derives the slope percentage from central differences, capped at 20%.
// Hydrology mode layers flow accumulation from a Hydrology Provider on top of
// either mode.
//
// # Scores
//
// Three formulas share the Scorer interface. Their upper bounds differ:
//
//	basic     [0, 1]
//	enhanced  [0, 5]
//	advanced  [0, +Inf) before the scaling factor is applied
//
// All coefficients are carried in ScoringConfig so callers (the calibration
// harness in particular) can vary them per run.
//
// # Distances
//
// Declutter compares great-circle distances in kilometres (Earth radius
// 6371 km) against a threshold in kilometres. A degree-scale value such as
// 0.001 therefore means one metre, not the ~100 m it approximates in degrees.
package domain
