package fixture

import (
	"context"
	"math"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
)

// FlowField derives synthetic hydrology from a terrain: low ground collects
// more upstream flow and drains a larger area.
type FlowField struct {
	terrain *Terrain
}

// NewFlowField returns a hydrology provider over the terrain.
func NewFlowField(t *Terrain) *FlowField {
	return &FlowField{terrain: t}
}

// HydrologyAt implements domain.HydrologyProvider.
func (f *FlowField) HydrologyAt(ctx context.Context, lon, lat float64) (domain.Hydrology, error) {
	elev, err := f.terrain.ElevationAt(ctx, lat, lon)
	if err != nil {
		return domain.Hydrology{}, err
	}

	accumulation := 200 / (1 + math.Max(0, elev)/5)
	return domain.Hydrology{
		FlowAccumulation: accumulation,
		Slope:            math.Min(20, math.Max(0, elev)/50),
		FlowLength:       accumulation * 30,
		DrainageArea:     accumulation * 0.0009,
	}, nil
}
