package h5features

import (
	"errors"
	"fmt"
)

// Storage formats for feature matrices. Only the dense format is
// implemented; sparse is recognized so files advertising it are rejected
// with a clear error instead of being misread.
const (
	FormatDense  = "dense"
	FormatSparse = "sparse"
)

// ErrSparseUnsupported is returned when sparse feature storage is requested
// or encountered in a file.
var ErrSparseUnsupported = errors.New("sparse features are not supported")

// ParseFormat validates a feature storage format name.
func ParseFormat(name string) (string, error) {
	switch name {
	case FormatDense:
		return FormatDense, nil
	case FormatSparse:
		return "", ErrSparseUnsupported
	default:
		return "", fmt.Errorf("unknown features format %q", name)
	}
}

// Features holds the per-item feature matrices of a group.
// Each item stores a row-major matrix with one frame per row and a common
// feature dimension along the columns.
type Features struct {
	dim  int
	data [][]float64
}

// NewFeatures builds dense features from per-item row-major matrices.
// Every item must hold at least one frame of exactly dim values.
func NewFeatures(data [][]float64, dim int) (*Features, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("feature dimension must be positive, got %d", dim)
	}
	if len(data) == 0 {
		return nil, errors.New("no features given")
	}
	for i, d := range data {
		if len(d) == 0 {
			return nil, fmt.Errorf("features for item %d are empty", i)
		}
		if len(d)%dim != 0 {
			return nil, fmt.Errorf(
				"features for item %d hold %d values, not a multiple of dimension %d",
				i, len(d), dim)
		}
	}
	return &Features{dim: dim, data: copySlices(data)}, nil
}

// Dim returns the feature dimension shared by all items.
func (f *Features) Dim() int {
	return f.dim
}

// Len returns the number of items.
func (f *Features) Len() int {
	return len(f.data)
}

// Rows returns the number of frames of the i-th item.
func (f *Features) Rows(i int) int {
	return len(f.data[i]) / f.dim
}

// Item returns the raw feature values of the i-th item.
func (f *Features) Item(i int) []float64 {
	return f.data[i]
}
