package domain_test

import (
	"context"
	"math"
	"testing"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHydrology struct {
	calls int
}

func (c *countingHydrology) HydrologyAt(_ context.Context, _, _ float64) (domain.Hydrology, error) {
	c.calls++
	return domain.Hydrology{FlowAccumulation: 10}, nil
}

func TestRunMemo_CachesElevation(t *testing.T) {
	p := &constProvider{elevation: 6}
	memo := domain.NewRunMemo(p, nil)
	ctx := context.Background()

	for range 3 {
		v, err := memo.ElevationAt(ctx, 29.75, -95.35)
		require.NoError(t, err)
		assert.InDelta(t, 6.0, v, 1e-12)
	}
	_, _ = memo.ElevationAt(ctx, 29.76, -95.35)

	assert.Equal(t, 2, p.calls)
	assert.Equal(t, 2, memo.Lookups)
}

func TestRunMemo_CachesFailures(t *testing.T) {
	memo := domain.NewRunMemo(gappyProvider{westOf: 0}, nil)

	_, err1 := memo.ElevationAt(context.Background(), 29.75, -95.35)
	_, err2 := memo.ElevationAt(context.Background(), 29.75, -95.35)

	assert.ErrorIs(t, err1, domain.ErrNoData)
	assert.ErrorIs(t, err2, domain.ErrNoData)
	assert.Equal(t, 1, memo.Lookups)
}

func TestRunMemo_BatchSeedsCache(t *testing.T) {
	p := &batchProvider{constProvider: constProvider{elevation: 2}}
	memo := domain.NewRunMemo(p, nil)
	coords := []domain.Coordinate{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}

	values, err := memo.ElevationsAt(context.Background(), coords)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.True(t, math.IsNaN(values[1]))

	v, err := memo.ElevationAt(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-12)

	_, err = memo.ElevationAt(context.Background(), 2, 2)
	assert.ErrorIs(t, err, domain.ErrNoData)
	assert.Zero(t, p.calls)
}

func TestRunMemo_BatchUnsupported(t *testing.T) {
	memo := domain.NewRunMemo(&constProvider{}, nil)

	_, err := memo.ElevationsAt(context.Background(), []domain.Coordinate{{}})

	assert.Error(t, err)
}

func TestRunMemo_Hydrology(t *testing.T) {
	h := &countingHydrology{}
	memo := domain.NewRunMemo(&constProvider{}, h)

	_, _ = memo.HydrologyAt(context.Background(), -95.35, 29.75)
	got, err := memo.HydrologyAt(context.Background(), -95.35, 29.75)

	require.NoError(t, err)
	assert.InDelta(t, 10.0, got.FlowAccumulation, 1e-12)
	assert.Equal(t, 1, h.calls)

	_, err = domain.NewRunMemo(&constProvider{}, nil).HydrologyAt(context.Background(), 0, 0)
	assert.ErrorIs(t, err, domain.ErrNoData)
}
