// Package chunk computes HDF5 chunk shapes for h5features datasets.
//
// Chunk sizes are expressed as a target size in megabytes and translated to
// a number of rows, with a floor of 10 rows so that tiny targets do not
// degenerate into per-frame chunks.
package chunk

import "math"

// minLines is the smallest number of rows allowed in a chunk.
const minLines = 10

// Lines returns the number of rows per chunk for rows of rowBytes bytes,
// targeting sizeMB megabytes per chunk.
func Lines(rowBytes uint64, sizeMB float64) uint64 {
	if rowBytes == 0 {
		return minLines
	}
	n := uint64(math.Round(sizeMB * 1e6 / float64(rowBytes)))
	if n < minLines {
		return minLines
	}
	return n
}

// Clamp bounds a chunk row count by the actual number of rows in the
// dataset. HDF5 rejects chunk dimensions larger than the dataset.
func Clamp(lines, rows uint64) uint64 {
	if rows == 0 {
		return 1
	}
	if lines > rows {
		return rows
	}
	return lines
}
