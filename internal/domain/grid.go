package domain

import (
	"context"
	"fmt"
	"math"
)

// LatticeCoordinates returns the sampling lattice for the bounds, ordered
// south→north then west→east. It does not consult any provider, so the result
// depends only on its arguments.
func LatticeCoordinates(b Bounds, n int) []Coordinate {
	if n <= 0 {
		return nil
	}

	// A zero-area box has no interior to spread the lattice over.
	if b.North <= b.South || b.East <= b.West {
		return []Coordinate{{Lat: b.South, Lon: b.West}}
	}

	steps := math.Sqrt(float64(n))
	latStep := (b.North - b.South) / steps
	lonStep := (b.East - b.West) / steps

	side := int(math.Ceil(steps))
	coords := make([]Coordinate, 0, side*side)
	for i := range side {
		lat := b.South + float64(i)*latStep
		for j := range side {
			coords = append(coords, Coordinate{Lat: lat, Lon: b.West + float64(j)*lonStep})
		}
	}
	return coords
}

// SampleGrid lays the lattice over the bounds and keeps the coordinates that
// have elevation data. Points are numbered from 1 in lattice order.
//
// A failed or empty lookup drops the coordinate silently. The only error
// returned is context cancellation, checked between points.
func SampleGrid(ctx context.Context, provider ElevationProvider, b Bounds, n int) ([]SamplePoint, error) {
	coords := LatticeCoordinates(b, n)
	if len(coords) == 0 {
		return nil, nil
	}

	elevations := prefetchElevations(ctx, provider, coords)

	points := make([]SamplePoint, 0, len(coords))
	for i, c := range coords {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sample grid: %w", err)
		}

		var elev float64
		if elevations != nil {
			elev = elevations[i]
		} else {
			v, err := provider.ElevationAt(ctx, c.Lat, c.Lon)
			if err != nil {
				continue
			}
			elev = v
		}
		if math.IsNaN(elev) {
			continue
		}

		points = append(points, SamplePoint{
			ID:        len(points) + 1,
			Lat:       c.Lat,
			Lon:       c.Lon,
			Elevation: elev,
		})
	}
	return points, nil
}

// prefetchElevations resolves the whole lattice in one call when the provider
// supports it. A nil result means the caller should look points up one by one.
func prefetchElevations(ctx context.Context, provider ElevationProvider, coords []Coordinate) []float64 {
	batch, ok := provider.(BatchElevationProvider)
	if !ok {
		return nil
	}
	elevations, err := batch.ElevationsAt(ctx, coords)
	if err != nil || len(elevations) != len(coords) {
		return nil
	}
	return elevations
}
