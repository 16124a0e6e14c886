package domain_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBounds = domain.Bounds{North: 29.80, South: 29.70, East: -95.30, West: -95.40}

// --- fakes ---

type constProvider struct {
	elevation float64
	calls     int
}

func (p *constProvider) ElevationAt(_ context.Context, _, _ float64) (float64, error) {
	p.calls++
	return p.elevation, nil
}

// gappyProvider has no data west of the given longitude.
type gappyProvider struct {
	westOf float64
}

func (p gappyProvider) ElevationAt(_ context.Context, _, lon float64) (float64, error) {
	if lon < p.westOf {
		return 0, domain.ErrNoData
	}
	return 3, nil
}

type batchProvider struct {
	constProvider
	batchCalls int
	err        error
}

func (p *batchProvider) ElevationsAt(_ context.Context, coords []domain.Coordinate) ([]float64, error) {
	p.batchCalls++
	if p.err != nil {
		return nil, p.err
	}
	out := make([]float64, len(coords))
	for i := range coords {
		out[i] = p.elevation
		if i%2 == 1 {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// --- tests ---

func TestLatticeCoordinates_Deterministic(t *testing.T) {
	first := domain.LatticeCoordinates(testBounds, 100)
	second := domain.LatticeCoordinates(testBounds, 100)

	require.Len(t, first, 100)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("lattice differs between calls (-first +second):\n%s", diff)
	}
}

func TestLatticeCoordinates_Layout(t *testing.T) {
	coords := domain.LatticeCoordinates(testBounds, 4)

	want := []domain.Coordinate{
		{Lat: 29.70, Lon: -95.40}, {Lat: 29.70, Lon: -95.35},
		{Lat: 29.75, Lon: -95.40}, {Lat: 29.75, Lon: -95.35},
	}
	if diff := cmp.Diff(want, coords, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("lattice mismatch (-want +got):\n%s", diff)
	}
}

func TestLatticeCoordinates_NonSquareCount(t *testing.T) {
	// ceil(sqrt(10)) = 4 per axis.
	coords := domain.LatticeCoordinates(testBounds, 10)
	assert.Len(t, coords, 16)
	for _, c := range coords {
		assert.GreaterOrEqual(t, c.Lat, testBounds.South)
		assert.Less(t, c.Lat, testBounds.North)
		assert.GreaterOrEqual(t, c.Lon, testBounds.West)
		assert.Less(t, c.Lon, testBounds.East)
	}
}

func TestLatticeCoordinates_NonPositiveCount(t *testing.T) {
	assert.Empty(t, domain.LatticeCoordinates(testBounds, 0))
	assert.Empty(t, domain.LatticeCoordinates(testBounds, -5))
}

func TestLatticeCoordinates_DegenerateBounds(t *testing.T) {
	tests := []struct {
		name   string
		bounds domain.Bounds
	}{
		{"point", domain.Bounds{North: 29.75, South: 29.75, East: -95.35, West: -95.35}},
		{"east-west line", domain.Bounds{North: 29.75, South: 29.75, East: -95.30, West: -95.40}},
		{"north-south line", domain.Bounds{North: 29.80, South: 29.70, East: -95.35, West: -95.35}},
		{"inverted", domain.Bounds{North: 29.70, South: 29.80, East: -95.30, West: -95.40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords := domain.LatticeCoordinates(tt.bounds, 100)

			assert.Equal(t, []domain.Coordinate{{Lat: tt.bounds.South, Lon: tt.bounds.West}}, coords)
		})
	}
}

func TestSampleGrid_ZeroAreaBoxYieldsAtMostOnePoint(t *testing.T) {
	line := domain.Bounds{North: 29.75, South: 29.75, East: -95.30, West: -95.40}
	p := &constProvider{elevation: 4}

	points, err := domain.SampleGrid(context.Background(), p, line, 100)

	require.NoError(t, err)
	assert.LessOrEqual(t, len(points), 1)
	assert.Equal(t, 1, p.calls)
}

func TestSampleGrid_AssignsSequentialIDs(t *testing.T) {
	p := &constProvider{elevation: 4}

	points, err := domain.SampleGrid(context.Background(), p, testBounds, 25)

	require.NoError(t, err)
	require.Len(t, points, 25)
	assert.Equal(t, 25, p.calls)
	for i, pt := range points {
		assert.Equal(t, i+1, pt.ID)
		assert.InDelta(t, 4.0, pt.Elevation, 1e-12)
	}
}

func TestSampleGrid_DropsCoordinatesWithoutData(t *testing.T) {
	p := gappyProvider{westOf: -95.355}

	points, err := domain.SampleGrid(context.Background(), p, testBounds, 100)

	require.NoError(t, err)
	assert.Len(t, points, 50)
	for i, pt := range points {
		assert.Equal(t, i+1, pt.ID)
		assert.GreaterOrEqual(t, pt.Lon, -95.355)
	}
}

func TestSampleGrid_NoDataAnywhere(t *testing.T) {
	points, err := domain.SampleGrid(context.Background(), gappyProvider{westOf: 0}, testBounds, 100)

	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestSampleGrid_UsesBatchLookup(t *testing.T) {
	p := &batchProvider{constProvider: constProvider{elevation: 2}}

	points, err := domain.SampleGrid(context.Background(), p, testBounds, 16)

	require.NoError(t, err)
	assert.Equal(t, 1, p.batchCalls)
	assert.Zero(t, p.calls)
	assert.Len(t, points, 8, "NaN entries are dropped")
}

func TestSampleGrid_FallsBackWhenBatchFails(t *testing.T) {
	p := &batchProvider{constProvider: constProvider{elevation: 2}, err: errors.New("too many points")}

	points, err := domain.SampleGrid(context.Background(), p, testBounds, 16)

	require.NoError(t, err)
	assert.Equal(t, 1, p.batchCalls)
	assert.Equal(t, 16, p.calls)
	assert.Len(t, points, 16)
}

func TestSampleGrid_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := domain.SampleGrid(ctx, &constProvider{elevation: 1}, testBounds, 16)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
