package dgp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestGenerateUserTraits(t *testing.T) {
	u, err := GenerateUserTraits(500, 7)
	require.NoError(t, err)
	require.Equal(t, 500, u.Len())

	for i := range u.UserID {
		assert.Equal(t, int64(i+1), u.UserID[i])
		assert.GreaterOrEqual(t, u.FeedQuality[i], 0.0)
		assert.LessOrEqual(t, u.FeedQuality[i], 1.0)
		assert.Greater(t, u.TxnComplexity[i], 0.0)
		assert.Greater(t, u.BaselineEngagement[i], 0.0)
	}
	assert.Nil(t, u.Wk4Retention)

	// Beta(5, 2.2) has mean ~0.69.
	assert.InDelta(t, 0.69, stat.Mean(u.FeedQuality, nil), 0.05)
}

func TestGenerateUserTraits_ZScores(t *testing.T) {
	u, err := GenerateUserTraits(1000, 3)
	require.NoError(t, err)

	for name, z := range map[string][]float64{
		"feed_quality_z":        u.FeedQualityZ,
		"txn_complexity_z":      u.TxnComplexityZ,
		"baseline_engagement_z": u.BaselineEngagementZ,
	} {
		mu, variance := stat.PopMeanVariance(z, nil)
		assert.InDelta(t, 0, mu, 1e-9, name)
		assert.InDelta(t, 1, variance, 1e-9, name)
	}
}

func TestGenerateUserTraits_SingleUserZScoresAreZero(t *testing.T) {
	u, err := GenerateUserTraits(1, 7)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, u.FeedQualityZ)
	assert.Equal(t, []float64{0}, u.TxnComplexityZ)
	assert.Equal(t, []float64{0}, u.BaselineEngagementZ)
}

func TestGenerateUserTraits_Deterministic(t *testing.T) {
	a, err := GenerateUserTraits(50, 11)
	require.NoError(t, err)
	b, err := GenerateUserTraits(50, 11)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := GenerateUserTraits(50, 12)
	require.NoError(t, err)
	assert.NotEqual(t, a.FeedQuality, c.FeedQuality)
}

func TestGenerateUserTraits_RejectsNonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		u, err := GenerateUserTraits(n, 7)
		assert.Nil(t, u)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	}
}

func TestZScore(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0}, zscore([]float64{2, 2, 2}))
	assert.Equal(t, []float64{}, zscore([]float64{}))
	assert.InDeltaSlice(t, []float64{-1, 1}, zscore([]float64{3, 5}), 1e-12)
}
