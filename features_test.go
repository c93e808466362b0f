package h5features

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFeatures(t *testing.T) {
	ft, err := NewFeatures([][]float64{
		{1, 2, 3, 4, 5, 6}, // 3 frames of dimension 2
		{7, 8},             // 1 frame
	}, 2)
	require.NoError(t, err)
	require.Equal(t, 2, ft.Dim())
	require.Equal(t, 2, ft.Len())
	require.Equal(t, 3, ft.Rows(0))
	require.Equal(t, 1, ft.Rows(1))
	require.Equal(t, []float64{7, 8}, ft.Item(1))
}

func TestNewFeaturesRejectsBadDimension(t *testing.T) {
	_, err := NewFeatures([][]float64{{1, 2}}, 0)
	require.Error(t, err)

	_, err = NewFeatures([][]float64{{1, 2, 3}}, 2)
	require.ErrorContains(t, err, "not a multiple")
}

func TestNewFeaturesRejectsEmpty(t *testing.T) {
	_, err := NewFeatures(nil, 2)
	require.Error(t, err)

	_, err = NewFeatures([][]float64{{1, 2}, {}}, 2)
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("dense")
	require.NoError(t, err)
	require.Equal(t, FormatDense, format)

	_, err = ParseFormat("sparse")
	require.ErrorIs(t, err, ErrSparseUnsupported)

	_, err = ParseFormat("diagonal")
	require.ErrorContains(t, err, "unknown")
}
