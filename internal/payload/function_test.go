package payload

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageOfLog_SingleOccurrence(t *testing.T) {
	got, err := AverageOfLog.Fold(2.0)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(3), got, 1e-12)
	assert.InDelta(t, 1.0986, got, 1e-4)
}

func TestAverageOfLog_TwoOccurrences(t *testing.T) {
	got, err := AverageOfLog.Fold(2.0, 0.0)
	require.NoError(t, err)
	assert.InDelta(t, (math.Log(3)+math.Log(1))/2, got, 1e-12)
	assert.InDelta(t, 0.5493, got, 1e-4)
}

func TestAverageOfLog_IdenticalWeights(t *testing.T) {
	for _, w := range []float64{-0.5, 0, 0.1, 1, 2, 7.5, 1000} {
		for _, n := range []int{1, 2, 3, 10, 57} {
			weights := make([]float64, n)
			for i := range weights {
				weights[i] = w
			}
			got, err := AverageOfLog.Fold(weights...)
			require.NoError(t, err)
			assert.InDelta(t, math.Log1p(w), got, 1e-9, "w=%v n=%d", w, n)
		}
	}
}

func TestAverageOfLog_ZeroWeightCounts(t *testing.T) {
	s, err := AverageOfLog.Accumulate(State{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Seen)
	assert.Equal(t, 0.0, s.Score)
	assert.Equal(t, 0.0, AverageOfLog.Finalize(s))
}

func TestFinalize_NoOccurrencesIsNeutral(t *testing.T) {
	for _, fn := range []Function{AverageOfLog, AverageOnePlusLog, Average, Max, Min} {
		assert.Equal(t, 1.0, fn.Finalize(State{}), fn.Name)
	}
}

func TestAverageOfLog_RejectsWeightAtOrBelowMinusOne(t *testing.T) {
	for _, w := range []float64{-1, -1.5, -100, math.Inf(-1), math.NaN()} {
		start := State{Seen: 2, Score: 0.7}
		s, err := AverageOfLog.Accumulate(start, w)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWeight)
		var iw *InvalidWeightError
		require.ErrorAs(t, err, &iw)
		assert.Equal(t, NameAverageOfLog, iw.Function)
		assert.Equal(t, start, s, "state must not change on rejection")
	}
}

func TestAverageOnePlusLog(t *testing.T) {
	got, err := AverageOnePlusLog.Fold(1, math.E)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-12)

	_, err = AverageOnePlusLog.Fold(0)
	assert.ErrorIs(t, err, ErrInvalidWeight)
}

func TestAverageMaxMin(t *testing.T) {
	tests := []struct {
		fn   Function
		want float64
	}{
		{Average, 2},
		{Max, 4},
		{Min, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.fn.Name, func(t *testing.T) {
			got, err := tt.fn.Fold(1.5, 4, 0.5)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestFunctionByName(t *testing.T) {
	fn, err := FunctionByName("")
	require.NoError(t, err)
	assert.Equal(t, NameAverageOfLog, fn.Name)

	fn, err = FunctionByName("MAX")
	require.NoError(t, err)
	assert.Equal(t, NameMax, fn.Name)

	_, err = FunctionByName("median")
	assert.Error(t, err)

	assert.Equal(t, []string{"average", "average_log", "average_one_plus_log", "max", "min"}, FunctionNames())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(0))
	assert.Equal(t, 0.5, Normalize(1))
	assert.InDelta(t, 0.75, Normalize(3), 1e-12)
}
