package domain

import (
	"cmp"
	"math"
	"slices"
)

// EarthRadiusKm is the sphere radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Declutter greedily thins markers so that no two accepted markers are closer
// than minDistanceKm. Markers are visited highest score first; equal scores
// keep their input order. The input slice is left untouched.
//
// The check is O(k) per candidate where k is the number accepted so far,
// which is fine for the few hundred points of a run.
func Declutter(markers []RiskMarker, minDistanceKm float64) []RiskMarker {
	if len(markers) == 0 {
		return nil
	}

	ordered := slices.Clone(markers)
	slices.SortStableFunc(ordered, func(a, b RiskMarker) int {
		return cmp.Compare(b.RiskScore, a.RiskScore)
	})

	accepted := make([]RiskMarker, 0, len(ordered))
	for _, candidate := range ordered {
		if farFromAll(candidate, accepted, minDistanceKm) {
			accepted = append(accepted, candidate)
		}
	}
	return accepted
}

func farFromAll(candidate RiskMarker, accepted []RiskMarker, minDistanceKm float64) bool {
	for _, a := range accepted {
		if HaversineKm(candidate.Lat, candidate.Lon, a.Lat, a.Lon) < minDistanceKm {
			return false
		}
	}
	return true
}
