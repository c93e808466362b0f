package h5features

import "fmt"

// The index dataset stores, for each item, the cumulative end row of its
// frames in the concatenated features and times matrices. Item i occupies
// rows [end(i-1), end(i)) with end(-1) = 0.

// itemRange returns the [start, end) row range of item i.
func itemRange(ends []int64, i int) (start, end int64) {
	if i > 0 {
		start = ends[i-1]
	}
	return start, ends[i]
}

// validateIndex checks that an index read from a file is usable.
func validateIndex(ends []int64, totalRows int64) error {
	var prev int64
	for i, end := range ends {
		if end < prev {
			return fmt.Errorf("index is not monotonic at item %d", i)
		}
		if end == prev {
			return fmt.Errorf("index holds an empty item at %d", i)
		}
		prev = end
	}
	if len(ends) > 0 && ends[len(ends)-1] != totalRows {
		return fmt.Errorf("index ends at row %d but the group holds %d rows",
			ends[len(ends)-1], totalRows)
	}
	return nil
}
