package domain

import (
	"context"
	"errors"
	"math"
)

var errBatchUnsupported = errors.New("provider does not support batch lookups")

type elevationResult struct {
	value float64
	err   error
}

type hydrologyResult struct {
	value Hydrology
	err   error
}

// RunMemo memoizes provider lookups for the lifetime of one assessment. It is
// not safe for concurrent use and must not be shared between runs.
type RunMemo struct {
	elevation ElevationProvider
	hydrology HydrologyProvider

	elevations map[Coordinate]elevationResult
	flows      map[Coordinate]hydrologyResult

	// Lookups counts calls that reached the wrapped providers.
	Lookups int
}

// NewRunMemo wraps the providers. hydrology may be nil.
func NewRunMemo(elevation ElevationProvider, hydrology HydrologyProvider) *RunMemo {
	return &RunMemo{
		elevation:  elevation,
		hydrology:  hydrology,
		elevations: make(map[Coordinate]elevationResult),
		flows:      make(map[Coordinate]hydrologyResult),
	}
}

// ElevationAt returns the cached lookup for the coordinate, calling through on
// a miss. Failures are cached too: a run never retries a coordinate.
func (m *RunMemo) ElevationAt(ctx context.Context, lat, lon float64) (float64, error) {
	key := Coordinate{Lat: lat, Lon: lon}
	if r, ok := m.elevations[key]; ok {
		return r.value, r.err
	}
	m.Lookups++
	v, err := m.elevation.ElevationAt(ctx, lat, lon)
	m.elevations[key] = elevationResult{value: v, err: err}
	return v, err
}

// ElevationsAt delegates to the wrapped provider's batch lookup and seeds the
// cache with the results.
func (m *RunMemo) ElevationsAt(ctx context.Context, coords []Coordinate) ([]float64, error) {
	batch, ok := m.elevation.(BatchElevationProvider)
	if !ok {
		return nil, errBatchUnsupported
	}
	m.Lookups++
	values, err := batch.ElevationsAt(ctx, coords)
	if err != nil {
		return nil, err
	}
	for i, c := range coords {
		if i >= len(values) {
			break
		}
		r := elevationResult{value: values[i]}
		if math.IsNaN(values[i]) {
			r.err = ErrNoData
		}
		m.elevations[c] = r
	}
	return values, nil
}

// HydrologyAt returns the cached hydrology lookup for the coordinate.
func (m *RunMemo) HydrologyAt(ctx context.Context, lon, lat float64) (Hydrology, error) {
	if m.hydrology == nil {
		return Hydrology{}, ErrNoData
	}
	key := Coordinate{Lat: lat, Lon: lon}
	if r, ok := m.flows[key]; ok {
		return r.value, r.err
	}
	m.Lookups++
	v, err := m.hydrology.HydrologyAt(ctx, lon, lat)
	m.flows[key] = hydrologyResult{value: v, err: err}
	return v, err
}
