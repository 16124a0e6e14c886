package domain

import (
	"context"
	"errors"
)

// ErrNoData reports that a provider has no value for a coordinate. Callers
// treat it as missing data, never as a failure of the run.
var ErrNoData = errors.New("no data at coordinate")

// ElevationProvider looks up ground elevation in meters.
type ElevationProvider interface {
	ElevationAt(ctx context.Context, lat, lon float64) (float64, error)
}

// BatchElevationProvider is implemented by providers that can resolve many
// coordinates in one call. The result has one entry per coordinate; NaN marks
// no data.
type BatchElevationProvider interface {
	ElevationProvider
	ElevationsAt(ctx context.Context, coords []Coordinate) ([]float64, error)
}

// Hydrology holds flow-derived terrain attributes at a coordinate.
type Hydrology struct {
	FlowAccumulation float64 `json:"flow_accumulation"`
	Slope            float64 `json:"slope"` // percent
	FlowLength       float64 `json:"flow_length"`
	DrainageArea     float64 `json:"drainage_area"`
}

// HydrologyProvider looks up hydrology attributes. Note the lon, lat order,
// which follows the upstream raster services.
type HydrologyProvider interface {
	HydrologyAt(ctx context.Context, lon, lat float64) (Hydrology, error)
}
