package domain_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/stretchr/testify/assert"
)

// planeProvider describes a tilted plane through base at latitude 29.75:
// elevation rises northward at gradient metres per metre.
type planeProvider struct {
	base     float64
	gradient float64
	failAt   *domain.Coordinate
}

func (p planeProvider) ElevationAt(_ context.Context, lat, lon float64) (float64, error) {
	if p.failAt != nil && p.failAt.Lat == lat && p.failAt.Lon == lon {
		return 0, errors.New("tile missing")
	}
	return p.base + (lat-29.75)*domain.MetersPerDegree*p.gradient, nil
}

type stubHydrology struct {
	h   domain.Hydrology
	err error
}

func (s stubHydrology) HydrologyAt(_ context.Context, _, _ float64) (domain.Hydrology, error) {
	return s.h, s.err
}

func TestSimplifiedTerrain_Buckets(t *testing.T) {
	tests := []struct {
		elevation        float64
		slope, proximity float64
	}{
		{elevation: -2, slope: 0.5, proximity: 0.2},
		{elevation: 4.99, slope: 0.5, proximity: 0.2},
		{elevation: 5, slope: 1.0, proximity: 0.5},
		{elevation: 10, slope: 2.0, proximity: 1.0},
		{elevation: 19.9, slope: 2.0, proximity: 1.0},
		{elevation: 20, slope: 3.0, proximity: 1.5},
		{elevation: 800, slope: 3.0, proximity: 1.5},
		{elevation: math.NaN(), slope: 2.0, proximity: 1.0},
	}
	for _, tt := range tests {
		f := domain.SimplifiedTerrain{}.Estimate(context.Background(), domain.SamplePoint{Elevation: tt.elevation})
		assert.InDelta(t, tt.slope, f.SlopePct, 1e-12, "elevation %v", tt.elevation)
		assert.InDelta(t, tt.proximity, f.ProximityToWater, 1e-12, "elevation %v", tt.elevation)
		assert.Equal(t, domain.SourceSimplified, f.Source)
	}
}

func TestSimplifiedTerrain_Monotonic(t *testing.T) {
	prev := domain.SimplifiedTerrain{}.Estimate(context.Background(), domain.SamplePoint{Elevation: 0})
	for e := 1.0; e <= 50; e++ {
		f := domain.SimplifiedTerrain{}.Estimate(context.Background(), domain.SamplePoint{Elevation: e})
		assert.GreaterOrEqual(t, f.SlopePct, prev.SlopePct)
		assert.GreaterOrEqual(t, f.ProximityToWater, prev.ProximityToWater)
		prev = f
	}
}

func TestPreciseTerrain_SlopeFromNeighbours(t *testing.T) {
	// 2 m rise per 100 m is a 2% slope.
	est := domain.NewPreciseTerrain(planeProvider{base: 3, gradient: 0.02})

	f := est.Estimate(context.Background(), domain.SamplePoint{Lat: 29.75, Lon: -95.35, Elevation: 3})

	assert.Equal(t, domain.SourcePrecise, f.Source)
	assert.InDelta(t, 2.0, f.SlopePct, 1e-6)
}

func TestPreciseTerrain_SlopeIsCapped(t *testing.T) {
	est := domain.NewPreciseTerrain(planeProvider{gradient: 3})

	f := est.Estimate(context.Background(), domain.SamplePoint{Lat: 29.75, Lon: -95.35})

	assert.InDelta(t, 20.0, f.SlopePct, 1e-9)
}

func TestPreciseTerrain_FallsBackOnNeighbourFailure(t *testing.T) {
	p := domain.SamplePoint{Lat: 29.75, Lon: -95.35, Elevation: 3}
	east := domain.Coordinate{Lat: p.Lat, Lon: p.Lon + 50/domain.MetersPerDegree}
	est := domain.NewPreciseTerrain(planeProvider{base: 3, gradient: 0.02, failAt: &east})

	f := est.Estimate(context.Background(), p)

	assert.Equal(t, domain.SourceSimplified, f.Source)
	assert.InDelta(t, 0.5, f.SlopePct, 1e-12)
}

func TestHydrologyTerrain_OverridesSlopeAndFlow(t *testing.T) {
	h := domain.Hydrology{FlowAccumulation: 120, Slope: 4, FlowLength: 900, DrainageArea: 0.1}
	est := domain.NewHydrologyTerrain(domain.SimplifiedTerrain{}, stubHydrology{h: h})

	f := est.Estimate(context.Background(), domain.SamplePoint{Elevation: 3})

	assert.Equal(t, domain.SourceHydrology, f.Source)
	assert.InDelta(t, 4.0, f.SlopePct, 1e-12)
	assert.InDelta(t, 0.2, f.ProximityToWater, 1e-12)
	assert.InDelta(t, 120.0, f.FlowAccumulation, 1e-12)
	assert.InDelta(t, 900.0, f.FlowLength, 1e-12)
}

func TestHydrologyTerrain_FallsBackOnError(t *testing.T) {
	est := domain.NewHydrologyTerrain(domain.SimplifiedTerrain{}, stubHydrology{err: domain.ErrNoData})

	f := est.Estimate(context.Background(), domain.SamplePoint{Elevation: 3})

	assert.Equal(t, domain.SourceSimplified, f.Source)
	assert.Zero(t, f.FlowAccumulation)
}
