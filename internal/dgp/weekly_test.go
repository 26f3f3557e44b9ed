package dgp

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUserWeeks_Shape(t *testing.T) {
	users, err := GenerateUserTraits(40, 7)
	require.NoError(t, err)
	w, err := GenerateUserWeeks(users, 6, DefaultParams(), 7)
	require.NoError(t, err)
	require.Equal(t, 240, w.Len())

	type key struct{ user, week int64 }
	seen := make(map[key]bool, w.Len())
	for i := range w.UserID {
		k := key{w.UserID[i], w.Week[i]}
		assert.False(t, seen[k], "duplicate row %+v", k)
		seen[k] = true
	}
	for id := int64(1); id <= 40; id++ {
		for week := int64(1); week <= 6; week++ {
			assert.True(t, seen[key{id, week}], "missing row user=%d week=%d", id, week)
		}
	}
}

func TestGenerateUserWeeks_Bounds(t *testing.T) {
	users, err := GenerateUserTraits(200, 5)
	require.NoError(t, err)
	w, err := GenerateUserWeeks(users, 8, DefaultParams(), 5)
	require.NoError(t, err)

	for i := 0; i < w.Len(); i++ {
		assert.GreaterOrEqual(t, w.NTxn[i], int64(0))
		assert.GreaterOrEqual(t, w.Week[i], int64(1))
		assert.True(t, w.Confidence[i] >= 0 && w.Confidence[i] <= 1, "confidence %v", w.Confidence[i])
		assert.True(t, w.EditRate[i] >= 0 && w.EditRate[i] <= 1, "edit_rate %v", w.EditRate[i])
	}
	assert.Greater(t, meanInt(w.NTxn), 1.0)
}

func TestGenerateUserWeeks_Deterministic(t *testing.T) {
	users, err := GenerateUserTraits(30, 7)
	require.NoError(t, err)
	a, err := GenerateUserWeeks(users, 4, DefaultParams(), 21)
	require.NoError(t, err)
	b, err := GenerateUserWeeks(users, 4, DefaultParams(), 21)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateUserWeeks_TauEDecreasesEditRate(t *testing.T) {
	users, err := GenerateUserTraits(300, 7)
	require.NoError(t, err)

	prev := 2.0
	for _, tau := range []float64{0, 1, 2, 4} {
		params := DefaultParams()
		params.TauE = tau
		w, err := GenerateUserWeeks(users, 8, params, 7)
		require.NoError(t, err)
		m := mean(w.EditRate)
		assert.Less(t, m, prev, "tau_e=%v", tau)
		prev = m
	}
}

func TestGenerateUserWeeks_InvalidInput(t *testing.T) {
	users, err := GenerateUserTraits(3, 7)
	require.NoError(t, err)

	_, err = GenerateUserWeeks(users, 0, DefaultParams(), 7)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = GenerateUserWeeks(nil, 4, DefaultParams(), 7)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	broken := *users
	broken.TxnComplexityZ = nil
	_, err = GenerateUserWeeks(&broken, 4, DefaultParams(), 7)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	for _, alphaN := range []float64{50, 800, math.Inf(1)} {
		params := DefaultParams()
		params.AlphaN = alphaN
		weeks, err := GenerateUserWeeks(users, 2, params, 7)
		assert.ErrorIs(t, err, ErrInvalidInput, "alpha_n=%g", alphaN)
		assert.ErrorContains(t, err, "alpha_n", "alpha_n=%g", alphaN)
		assert.Nil(t, weeks)
	}
}
