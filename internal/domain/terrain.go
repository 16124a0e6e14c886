package domain

import (
	"context"
	"math"
)

const (
	// MetersPerDegree converts degree offsets to meters for slope estimation.
	MetersPerDegree = 111000.0

	// DefaultElevation is used when no elevation is known for a point.
	DefaultElevation = 10.0

	preciseOffsetMeters = 50.0
	maxSlopePct         = 20.0
)

// TerrainEstimator derives terrain features for a sample point.
type TerrainEstimator interface {
	Estimate(ctx context.Context, p SamplePoint) TerrainFeatures
}

// SimplifiedTerrain maps elevation buckets to fixed slope/proximity pairs.
// It never calls a provider.
type SimplifiedTerrain struct{}

func (SimplifiedTerrain) Estimate(_ context.Context, p SamplePoint) TerrainFeatures {
	return simplifiedFeatures(p.Elevation)
}

func simplifiedFeatures(elevation float64) TerrainFeatures {
	if math.IsNaN(elevation) {
		elevation = DefaultElevation
	}
	slope, proximity := elevationBucket(elevation)
	return TerrainFeatures{SlopePct: slope, ProximityToWater: proximity, Source: SourceSimplified}
}

// elevationBucket is monotonic: higher ground gets a larger slope value and a
// larger (safer) proximity value.
func elevationBucket(elevation float64) (slope, proximity float64) {
	switch {
	case elevation < 5:
		return 0.5, 0.2
	case elevation < 10:
		return 1.0, 0.5
	case elevation < 20:
		return 2.0, 1.0
	default:
		return 3.0, 1.5
	}
}

// PreciseTerrain estimates slope from central differences over four cardinal
// neighbours 50 m away. If any of the five lookups fails it falls back to the
// simplified buckets.
type PreciseTerrain struct {
	provider ElevationProvider
}

// NewPreciseTerrain returns a precise estimator backed by the provider. Pass a
// RunMemo so neighbour lookups shared between points are not repeated.
func NewPreciseTerrain(provider ElevationProvider) *PreciseTerrain {
	return &PreciseTerrain{provider: provider}
}

func (t *PreciseTerrain) Estimate(ctx context.Context, p SamplePoint) TerrainFeatures {
	offset := preciseOffsetMeters / MetersPerDegree

	center, errC := t.provider.ElevationAt(ctx, p.Lat, p.Lon)
	north, errN := t.provider.ElevationAt(ctx, p.Lat+offset, p.Lon)
	south, errS := t.provider.ElevationAt(ctx, p.Lat-offset, p.Lon)
	east, errE := t.provider.ElevationAt(ctx, p.Lat, p.Lon+offset)
	west, errW := t.provider.ElevationAt(ctx, p.Lat, p.Lon-offset)

	if errC != nil || errN != nil || errS != nil || errE != nil || errW != nil {
		fallback := p.Elevation
		if errC == nil {
			fallback = center
		}
		return simplifiedFeatures(fallback)
	}

	span := 2 * offset * MetersPerDegree
	dzdx := (east - west) / span
	dzdy := (north - south) / span
	slope := math.Min(math.Sqrt(dzdx*dzdx+dzdy*dzdy)*100, maxSlopePct)

	_, proximity := elevationBucket(center)
	return TerrainFeatures{SlopePct: slope, ProximityToWater: proximity, Source: SourcePrecise}
}

// HydrologyTerrain augments a base estimator with flow attributes from a
// Hydrology Provider. Provider failures fall back to the base estimate.
type HydrologyTerrain struct {
	base     TerrainEstimator
	provider HydrologyProvider
}

// NewHydrologyTerrain layers hydrology lookups over base.
func NewHydrologyTerrain(base TerrainEstimator, provider HydrologyProvider) *HydrologyTerrain {
	return &HydrologyTerrain{base: base, provider: provider}
}

func (t *HydrologyTerrain) Estimate(ctx context.Context, p SamplePoint) TerrainFeatures {
	features := t.base.Estimate(ctx, p)

	h, err := t.provider.HydrologyAt(ctx, p.Lon, p.Lat)
	if err != nil {
		return features
	}

	features.FlowAccumulation = math.Max(0, h.FlowAccumulation)
	features.FlowLength = math.Max(0, h.FlowLength)
	features.DrainageArea = math.Max(0, h.DrainageArea)
	features.SlopePct = math.Max(0, h.Slope)
	features.Source = SourceHydrology
	return features
}
