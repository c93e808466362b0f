package h5features

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTimesCenters(t *testing.T) {
	tm, err := NewTimes([][]float64{{0, 1, 2}, {0.5, 1.5}})
	require.NoError(t, err)
	require.Equal(t, FormatCenters, tm.Format())
	require.Equal(t, 1, tm.Format().Width())
	require.Equal(t, 2, tm.Len())
	require.Equal(t, 3, tm.Rows(0))
	require.Equal(t, 2, tm.Rows(1))
	require.Equal(t, []float64{0.5, 1.5}, tm.Item(1))
}

func TestNewTimesRejectsEmpty(t *testing.T) {
	_, err := NewTimes(nil)
	require.Error(t, err)

	_, err = NewTimes([][]float64{{1, 2}, {}})
	require.Error(t, err)
}

func TestNewIntervalTimes(t *testing.T) {
	tm, err := NewIntervalTimes([][]float64{{0, 1, 1, 2}, {0, 0.5}})
	require.NoError(t, err)
	require.Equal(t, FormatIntervals, tm.Format())
	require.Equal(t, 2, tm.Format().Width())
	require.Equal(t, 2, tm.Rows(0))
	require.Equal(t, 1, tm.Rows(1))
}

func TestNewIntervalTimesRejectsOddLength(t *testing.T) {
	_, err := NewIntervalTimes([][]float64{{0, 1, 2}})
	require.ErrorContains(t, err, "begin/end")
}

func TestNewIntervalTimesRejectsInvertedInterval(t *testing.T) {
	_, err := NewIntervalTimes([][]float64{{2, 1}})
	require.ErrorContains(t, err, "after its end")
}
