package forecast

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateWindows(t *testing.T) {
	tests := []struct {
		months int
		want   []int
	}{
		{months: 1, want: []int{30, 60, 90, 120}},
		{months: 2, want: []int{30, 60, 120, 180, 240}},
		{months: 3, want: []int{60, 90, 180, 270, 360}},
		{months: 12, want: []int{180, 360, 720, 1080, 1440}},
		{months: 0, want: nil},
		{months: math.MaxInt, want: nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CandidateWindows(tt.months), "months=%d", tt.months)
	}
}

func TestCandidateWindowsStopBeforeOverflow(t *testing.T) {
	// 3x still fits in an int, 4x does not
	got := CandidateWindows(math.MaxInt / 90)
	require.Len(t, got, 4)
	for i, w := range got {
		assert.Positive(t, w)
		if i > 0 {
			assert.Greater(t, w, got[i-1])
		}
	}
}

func TestSelectReturnsCandidateWithinSeries(t *testing.T) {
	series := noisySeries(400, 42)
	sel, err := NewWindowSelector(rand.New(rand.NewPCG(1, 1)), DefaultFolds).Select(series, 2)
	require.NoError(t, err)

	assert.Contains(t, CandidateWindows(2), sel.WindowDays)
	assert.LessOrEqual(t, sel.WindowDays, len(series))
	require.Len(t, sel.Scores, 5)

	// The reported R² is the score table entry for the chosen window and is its maximum.
	found := false
	for _, s := range sel.Scores {
		assert.LessOrEqual(t, s.R2, sel.R2)
		if s.WindowDays == sel.WindowDays {
			assert.Equal(t, s.R2, sel.R2)
			found = true
		}
	}
	assert.True(t, found)
}

func TestSelectSkipsWindowsLongerThanSeries(t *testing.T) {
	series := noisySeries(100, 5)
	sel, err := NewWindowSelector(rand.New(rand.NewPCG(2, 2)), DefaultFolds).Select(series, 2)
	require.NoError(t, err)

	require.Len(t, sel.Scores, 2)
	assert.Equal(t, 30, sel.Scores[0].WindowDays)
	assert.Equal(t, 60, sel.Scores[1].WindowDays)
	assert.Contains(t, []int{30, 60}, sel.WindowDays)
}

func TestSelectInsufficientData(t *testing.T) {
	series := linearSeries(10, 100, 1)
	_, err := NewWindowSelector(rand.New(rand.NewPCG(1, 1)), DefaultFolds).Select(series, 12)

	require.ErrorIs(t, err, ErrInsufficientData)
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 180, ide.Required)
	assert.Equal(t, 10, ide.Available)
}

func TestSelectHugeHorizonDoesNotPanic(t *testing.T) {
	sel := NewWindowSelector(rand.New(rand.NewPCG(1, 1)), DefaultFolds)
	for _, months := range []int{1 << 58, math.MaxInt} {
		var err error
		require.NotPanics(t, func() { _, err = sel.Select(linearSeries(400, 100, 0.5), months) }, "months=%d", months)
		var ide *InsufficientDataError
		require.ErrorAs(t, err, &ide)
		assert.Greater(t, ide.Required, 400)
	}
}

func TestSelectInvalidHorizon(t *testing.T) {
	_, err := NewWindowSelector(rand.New(rand.NewPCG(1, 1)), DefaultFolds).Select(linearSeries(100, 1, 1), 0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestSelectReproducibleWithSameSeed(t *testing.T) {
	series := noisySeries(400, 9)

	a, err := NewWindowSelector(rand.New(rand.NewPCG(77, 77)), DefaultFolds).Select(series, 2)
	require.NoError(t, err)
	b, err := NewWindowSelector(rand.New(rand.NewPCG(77, 77)), DefaultFolds).Select(series, 2)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBestCandidateTieKeepsSmallerWindow(t *testing.T) {
	got := bestCandidate([]CandidateScore{{30, 0.5}, {60, 0.5}, {90, 0.4}})
	assert.Equal(t, 30, got.WindowDays)

	got = bestCandidate([]CandidateScore{{30, 0.1}, {60, 0.5}, {90, 0.9}})
	assert.Equal(t, 90, got.WindowDays)
}

func TestBestCandidateIgnoresNaN(t *testing.T) {
	got := bestCandidate([]CandidateScore{{30, math.NaN()}, {60, -3}})
	assert.Equal(t, 60, got.WindowDays)

	got = bestCandidate([]CandidateScore{{30, math.NaN()}, {60, math.NaN()}})
	assert.Equal(t, 30, got.WindowDays)
}
