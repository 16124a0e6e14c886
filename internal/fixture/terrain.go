// Package fixture provides deterministic synthetic terrain for tests and
// offline calibration. No network or randomness is involved: elevation is a
// closed-form function of the coordinate's position inside the study area.
package fixture

import (
	"context"
	"math"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
)

// HoustonBounds is a 0.1°×0.1° box over east Houston used as the default
// study area for fixtures.
var HoustonBounds = domain.Bounds{North: 29.80, South: 29.70, East: -95.30, West: -95.40}

// Terrain is a synthetic elevation surface over a bounding box.
type Terrain struct {
	Name   string
	Bounds domain.Bounds

	// elevation receives the relative position inside the box, t along the
	// south→north axis and u along west→east, both nominally in [0, 1).
	elevation func(t, u float64) float64
	noData    func(t, u float64) bool
}

// ElevationAt implements domain.ElevationProvider.
func (f *Terrain) ElevationAt(ctx context.Context, lat, lon float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t, u := f.relative(lat, lon)
	if f.noData != nil && f.noData(t, u) {
		return 0, domain.ErrNoData
	}
	return f.elevation(t, u), nil
}

func (f *Terrain) relative(lat, lon float64) (t, u float64) {
	if span := f.Bounds.North - f.Bounds.South; span > 0 {
		t = (lat - f.Bounds.South) / span
	}
	if span := f.Bounds.East - f.Bounds.West; span > 0 {
		u = (lon - f.Bounds.West) / span
	}
	return t, u
}

// Lowland is skewed toward low ground: the southern 65% of the box lies
// between 1 and 4.75 m, the northern 35% is upland from 450 m.
func Lowland(b domain.Bounds) *Terrain {
	return &Terrain{
		Name:   "lowland",
		Bounds: b,
		elevation: func(t, u float64) float64 {
			if t < 0.65 {
				return 1 + 5*t + 0.5*u
			}
			return 450 + 1000*(t-0.65) + 50*u
		},
	}
}

// Highland is skewed toward high ground: the southern 20% of the box is a
// low floodplain around 2 m, the rest rises from roughly 40 m.
func Highland(b domain.Bounds) *Terrain {
	return &Terrain{
		Name:   "highland",
		Bounds: b,
		elevation: func(t, u float64) float64 {
			if t < 0.15 {
				return 2 + 2*t
			}
			return 25 + 100*t + 10*u
		},
	}
}

// Flat returns a constant-elevation surface.
func Flat(b domain.Bounds, elevation float64) *Terrain {
	return &Terrain{
		Name:      "flat",
		Bounds:    b,
		elevation: func(_, _ float64) float64 { return elevation },
	}
}

// Empty returns a surface with no data anywhere.
func Empty(b domain.Bounds) *Terrain {
	return &Terrain{
		Name:      "empty",
		Bounds:    b,
		elevation: func(_, _ float64) float64 { return math.NaN() },
		noData:    func(_, _ float64) bool { return true },
	}
}

// WithHoles returns a copy of the terrain with no data in the western strip
// u < fraction.
func WithHoles(f *Terrain, fraction float64) *Terrain {
	holed := *f
	holed.Name = f.Name + "-holes"
	holed.noData = func(_, u float64) bool { return u < fraction }
	return &holed
}

// Named returns the terrain registered under name over the bounds, or nil.
func Named(name string, b domain.Bounds) *Terrain {
	switch name {
	case "lowland":
		return Lowland(b)
	case "highland":
		return Highland(b)
	case "flat":
		return Flat(b, 8)
	default:
		return nil
	}
}
