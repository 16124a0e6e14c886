package domain_test

import (
	"testing"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredPoints(scores ...float64) []domain.ScoredPoint {
	out := make([]domain.ScoredPoint, len(scores))
	for i, s := range scores {
		out[i] = domain.ScoredPoint{SamplePoint: domain.SamplePoint{ID: i + 1}, RiskScore: s}
	}
	return out
}

func levels(markers []domain.RiskMarker) []domain.RiskLevel {
	out := make([]domain.RiskLevel, len(markers))
	for i, m := range markers {
		out[i] = m.Level
	}
	return out
}

var heavyRain = domain.RainfallScenario{RainfallAmount: 2, DurationHours: 6}

func TestNewCategorizer_Unknown(t *testing.T) {
	_, err := domain.NewCategorizer("kmeans", domain.DefaultThresholdConfig())
	assert.ErrorContains(t, err, "kmeans")
}

func TestThresholdCategorizer_StrictCuts(t *testing.T) {
	c, err := domain.NewCategorizer(domain.CategorizerThreshold, domain.DefaultThresholdConfig())
	require.NoError(t, err)

	markers := c.Categorize(scoredPoints(0.2, 1.0, 1.01, 2.5, 2.51), heavyRain)

	assert.Equal(t, []domain.RiskLevel{
		domain.RiskLow, domain.RiskLow, domain.RiskModerate, domain.RiskModerate, domain.RiskHigh,
	}, levels(markers))
}

func TestThresholdCategorizer_LightStormRaisesCuts(t *testing.T) {
	c, err := domain.NewCategorizer(domain.CategorizerThreshold, domain.DefaultThresholdConfig())
	require.NoError(t, err)
	tc, ok := c.(domain.ThresholdCategorizer)
	require.True(t, ok)

	high, moderate := tc.Cuts(domain.RainfallScenario{RainfallAmount: 0.5, DurationHours: 1})
	assert.InDelta(t, 3.75, high, 1e-12)
	assert.InDelta(t, 1.5, moderate, 1e-12)

	high, moderate = tc.Cuts(heavyRain)
	assert.InDelta(t, 2.5, high, 1e-12)
	assert.InDelta(t, 1.0, moderate, 1e-12)
}

func TestPercentileCategorizer_Quartiles(t *testing.T) {
	c := domain.PercentileCategorizer{}

	markers := c.Categorize(scoredPoints(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8), heavyRain)

	assert.Equal(t, []domain.RiskLevel{
		domain.RiskLow, domain.RiskLow,
		domain.RiskModerate, domain.RiskModerate, domain.RiskModerate, domain.RiskModerate,
		domain.RiskHigh, domain.RiskHigh,
	}, levels(markers))
}

func TestPercentileCategorizer_TiesShareLevel(t *testing.T) {
	c := domain.PercentileCategorizer{}

	markers := c.Categorize(scoredPoints(1, 1, 1, 1), heavyRain)

	for _, m := range markers {
		assert.Equal(t, domain.RiskLow, m.Level)
	}
}

func TestPercentileCategorizer_DeterministicAndOrderIndependent(t *testing.T) {
	c := domain.PercentileCategorizer{}
	forward := c.Categorize(scoredPoints(3, 1, 4, 1, 5, 9, 2, 6), heavyRain)
	again := c.Categorize(scoredPoints(3, 1, 4, 1, 5, 9, 2, 6), heavyRain)
	assert.Equal(t, forward, again)

	// Reversing the batch reverses the levels: a point's level depends on its
	// score alone.
	reversed := c.Categorize(scoredPoints(6, 2, 9, 5, 1, 4, 1, 3), heavyRain)
	fl, rl := levels(forward), levels(reversed)
	for i := range fl {
		assert.Equal(t, fl[i], rl[len(rl)-1-i])
	}
}

func TestCategorizers_PartitionInput(t *testing.T) {
	points := scoredPoints(0, 0.5, 1.2, 3, 4.9, 2.2, 0.7)
	for _, name := range []string{domain.CategorizerThreshold, domain.CategorizerPercentile} {
		c, err := domain.NewCategorizer(name, domain.DefaultThresholdConfig())
		require.NoError(t, err)

		markers := c.Categorize(points, heavyRain)

		require.Len(t, markers, len(points), name)
		for i, m := range markers {
			assert.Equal(t, points[i].ID, m.ID, name)
			assert.Equal(t, m.Level.Color(), m.Color, name)
			assert.NotEmpty(t, m.Description, name)
		}
	}
}

func TestPercentileCategorizer_Empty(t *testing.T) {
	assert.Empty(t, domain.PercentileCategorizer{}.Categorize(nil, heavyRain))
}
