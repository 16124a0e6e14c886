package domain_test

import (
	"testing"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marker(id int, lat, lon, score float64) domain.RiskMarker {
	return domain.NewRiskMarker(domain.ScoredPoint{
		SamplePoint: domain.SamplePoint{ID: id, Lat: lat, Lon: lon},
		RiskScore:   score,
	}, domain.RiskLow)
}

func ids(markers []domain.RiskMarker) []int {
	out := make([]int, len(markers))
	for i, m := range markers {
		out[i] = m.ID
	}
	return out
}

func TestHaversineKm(t *testing.T) {
	// One degree of latitude is about 111.2 km on a 6371 km sphere.
	assert.InDelta(t, 111.19, domain.HaversineKm(29, -95, 30, -95), 0.01)
	assert.Zero(t, domain.HaversineKm(29.7, -95.3, 29.7, -95.3))
}

func TestDeclutter_KeepsHighestScoreOfCluster(t *testing.T) {
	in := []domain.RiskMarker{
		marker(1, 29.7000, -95.3000, 1.0),
		marker(2, 29.7001, -95.3000, 3.0), // ~11 m north of 1
		marker(3, 29.7500, -95.3000, 0.5), // ~5.5 km away
	}

	out := domain.Declutter(in, 0.1)

	assert.Equal(t, []int{2, 3}, ids(out))
}

func TestDeclutter_MinDistanceIsKilometres(t *testing.T) {
	// Two markers ~55 m apart. A degree-scale value such as 0.001 is 1 m here
	// and removes nothing.
	in := []domain.RiskMarker{
		marker(1, 29.7000, -95.3000, 1.0),
		marker(2, 29.7005, -95.3000, 2.0),
	}

	assert.Len(t, domain.Declutter(in, 0.001), 2)
	assert.Len(t, domain.Declutter(in, 0.1), 1)
}

func TestDeclutter_AcceptedMarkersRespectMinDistance(t *testing.T) {
	var in []domain.RiskMarker
	id := 1
	for i := range 12 {
		for j := range 12 {
			in = append(in, marker(id, 29.70+float64(i)*0.002, -95.40+float64(j)*0.002, float64((i*7+j*3)%11)))
			id++
		}
	}

	const minKm = 0.5
	out := domain.Declutter(in, minKm)

	require.NotEmpty(t, out)
	assert.Less(t, len(out), len(in))
	for a := range out {
		for b := a + 1; b < len(out); b++ {
			d := domain.HaversineKm(out[a].Lat, out[a].Lon, out[b].Lat, out[b].Lon)
			assert.GreaterOrEqual(t, d, minKm)
		}
	}

	inputIDs := make(map[int]bool, len(in))
	for _, m := range in {
		inputIDs[m.ID] = true
	}
	for _, m := range out {
		assert.True(t, inputIDs[m.ID], "output marker %d not in input", m.ID)
	}
}

func TestDeclutter_TiesKeepInputOrder(t *testing.T) {
	in := []domain.RiskMarker{
		marker(7, 29.7000, -95.3000, 2.0),
		marker(3, 29.7001, -95.3000, 2.0),
	}

	out := domain.Declutter(in, 0.1)

	assert.Equal(t, []int{7}, ids(out))
}

func TestDeclutter_DeterministicAndNonMutating(t *testing.T) {
	in := []domain.RiskMarker{
		marker(1, 29.70, -95.30, 0.2),
		marker(2, 29.71, -95.30, 4.0),
		marker(3, 29.72, -95.30, 1.1),
	}
	snapshot := append([]domain.RiskMarker(nil), in...)

	first := domain.Declutter(in, 0.1)
	second := domain.Declutter(in, 0.1)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("declutter not deterministic (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, in); diff != "" {
		t.Errorf("declutter mutated input (-before +after):\n%s", diff)
	}
	assert.Equal(t, []int{2, 3, 1}, ids(first))
}

func TestDeclutter_Empty(t *testing.T) {
	assert.Empty(t, domain.Declutter(nil, 1))
}
