package h5features

import (
	"errors"
	"fmt"
)

// TimeFormat describes the layout of time labels in a group.
type TimeFormat int

const (
	// FormatCenters stores one timestamp per frame, the center of the
	// time window the frame was computed on.
	FormatCenters TimeFormat = 1

	// FormatIntervals stores two timestamps per frame, the begin and end
	// of the time window.
	FormatIntervals TimeFormat = 2
)

// Width returns the number of columns used by the format (1 or 2).
func (f TimeFormat) Width() int {
	return int(f)
}

func (f TimeFormat) valid() bool {
	return f == FormatCenters || f == FormatIntervals
}

// Times holds the per-item time labels of a group.
// Each item stores a row-major matrix of Width() columns, one row per frame.
type Times struct {
	format TimeFormat
	data   [][]float64
}

// NewTimes builds center timestamps (format 1), one slice per item.
func NewTimes(centers [][]float64) (*Times, error) {
	if len(centers) == 0 {
		return nil, errors.New("no times given")
	}
	for i, c := range centers {
		if len(c) == 0 {
			return nil, fmt.Errorf("times for item %d are empty", i)
		}
	}
	return &Times{format: FormatCenters, data: copySlices(centers)}, nil
}

// NewIntervalTimes builds begin/end timestamps (format 2), one slice per
// item, flattened row-major as begin0, end0, begin1, end1, ...
func NewIntervalTimes(intervals [][]float64) (*Times, error) {
	if len(intervals) == 0 {
		return nil, errors.New("no times given")
	}
	for i, iv := range intervals {
		if len(iv) == 0 {
			return nil, fmt.Errorf("times for item %d are empty", i)
		}
		if len(iv)%2 != 0 {
			return nil, fmt.Errorf("times for item %d are not begin/end pairs", i)
		}
		for r := 0; r < len(iv); r += 2 {
			if iv[r] > iv[r+1] {
				return nil, fmt.Errorf(
					"times for item %d: interval %d begins at %g after its end %g",
					i, r/2, iv[r], iv[r+1])
			}
		}
	}
	return &Times{format: FormatIntervals, data: copySlices(intervals)}, nil
}

// Format returns the time format shared by all items.
func (t *Times) Format() TimeFormat {
	return t.format
}

// Len returns the number of items.
func (t *Times) Len() int {
	return len(t.data)
}

// Rows returns the number of frames of the i-th item.
func (t *Times) Rows(i int) int {
	return len(t.data[i]) / t.format.Width()
}

// Item returns the raw time values of the i-th item.
func (t *Times) Item(i int) []float64 {
	return t.data[i]
}

func copySlices(src [][]float64) [][]float64 {
	out := make([][]float64, len(src))
	for i, s := range src {
		out[i] = append([]float64(nil), s...)
	}
	return out
}
