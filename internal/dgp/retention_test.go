package dgp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, nUsers, nWeeks int) (*Users, *UserWeeks) {
	t.Helper()
	users, err := GenerateUserTraits(nUsers, 7)
	require.NoError(t, err)
	weeks, err := GenerateUserWeeks(users, nWeeks, DefaultParams(), 7)
	require.NoError(t, err)
	return users, weeks
}

func TestBuildRetention_WindowMeans(t *testing.T) {
	users, weeks := fixture(t, 5, 8)
	out, err := BuildRetention(users, weeks, 2, 6, DefaultParams(), 7)
	require.NoError(t, err)

	for i, id := range users.UserID {
		var conf, edit float64
		n := 0
		for r := range weeks.UserID {
			if weeks.UserID[r] == id && weeks.Week[r] >= 2 && weeks.Week[r] <= 5 {
				conf += weeks.Confidence[r]
				edit += weeks.EditRate[r]
				n++
			}
		}
		require.Equal(t, 4, n)
		assert.InDelta(t, conf/4, out.ConfMean[i], 1e-12)
		assert.InDelta(t, edit/4, out.EditMean[i], 1e-12)
		assert.Contains(t, []int64{0, 1}, out.Wk4Retention[i])
	}
}

func TestBuildRetention_DoesNotModifyInput(t *testing.T) {
	users, weeks := fixture(t, 10, 8)
	_, err := BuildRetention(users, weeks, 1, 5, DefaultParams(), 7)
	require.NoError(t, err)
	assert.Nil(t, users.Wk4Retention)
	assert.Nil(t, users.ConfMean)
	assert.Nil(t, users.EditMean)
}

func TestBuildRetention_RetentionWeekDoesNotMoveWindow(t *testing.T) {
	users, weeks := fixture(t, 50, 8)
	a, err := BuildRetention(users, weeks, 1, 5, DefaultParams(), 7)
	require.NoError(t, err)
	b, err := BuildRetention(users, weeks, 1, 8, DefaultParams(), 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildRetention_FillsMissingUsersWithGrandMean(t *testing.T) {
	users, weeks := fixture(t, 3, 4)

	// drop every row of user 2
	trimmed := &UserWeeks{}
	for r := range weeks.UserID {
		if weeks.UserID[r] == 2 {
			continue
		}
		trimmed.UserID = append(trimmed.UserID, weeks.UserID[r])
		trimmed.Week = append(trimmed.Week, weeks.Week[r])
		trimmed.NTxn = append(trimmed.NTxn, weeks.NTxn[r])
		trimmed.Confidence = append(trimmed.Confidence, weeks.Confidence[r])
		trimmed.EditRate = append(trimmed.EditRate, weeks.EditRate[r])
	}

	out, err := BuildRetention(users, trimmed, 1, 5, DefaultParams(), 7)
	require.NoError(t, err)
	assert.InDelta(t, (out.ConfMean[0]+out.ConfMean[2])/2, out.ConfMean[1], 1e-12)
	assert.InDelta(t, (out.EditMean[0]+out.EditMean[2])/2, out.EditMean[1], 1e-12)
}

func TestBuildRetention_EmptyWindow(t *testing.T) {
	users, weeks := fixture(t, 5, 4)
	_, err := BuildRetention(users, weeks, 5, 9, DefaultParams(), 7)
	assert.True(t, errors.Is(err, ErrEmptyExposureWindow))
}

func TestBuildRetention_MissingColumn(t *testing.T) {
	users, weeks := fixture(t, 5, 4)
	broken := *weeks
	broken.EditRate = nil
	_, err := BuildRetention(users, &broken, 1, 5, DefaultParams(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "edit_rate")
}

func TestBuildRetention_KappaRDecreasesRetention(t *testing.T) {
	users, weeks := fixture(t, 3000, 8)

	low := DefaultParams()
	high := DefaultParams()
	high.KappaR = 8

	a, err := BuildRetention(users, weeks, 1, 5, low, 7)
	require.NoError(t, err)
	b, err := BuildRetention(users, weeks, 1, 5, high, 7)
	require.NoError(t, err)

	assert.Less(t, meanInt(b.Wk4Retention), meanInt(a.Wk4Retention))
	for i := range a.Wk4Retention {
		assert.LessOrEqual(t, b.Wk4Retention[i], a.Wk4Retention[i], "user %d", users.UserID[i])
	}
}
