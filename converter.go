package h5features

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"github.com/scigolib/hdf5"
)

// Converter turns foreign feature files into items of a single h5features
// container. It owns one Writer for its whole lifetime; converted files
// accumulate in the writer and are materialized when the converter is
// closed.
//
// Supported inputs, dispatched on the file extension:
//
//	.npy        one 1-D or 2-D float matrix; frame times are synthesized
//	            as frame indices
//	.npz        archive with a "features" member and an optional "times"
//	            member (one or two columns)
//	.csv        one row per frame, first column time, remaining columns
//	            features; a non-numeric header row is skipped
//	.h5, .h5f   an existing h5features file; the items of every group it
//	            holds are appended, in storage order
//
// The item name of a converted file is its base name without extension.
type Converter struct {
	writer    *Writer
	groupname string
}

// NewConverter prepares a converter writing to the named group of the
// output file with the given chunk size hint in megabytes.
func NewConverter(output, groupname string, chunkMB float64) (*Converter, error) {
	if groupname == "" {
		groupname = DefaultGroup
	}
	w, err := NewWriter(output, chunkMB)
	if err != nil {
		return nil, err
	}
	return &Converter{writer: w, groupname: groupname}, nil
}

// Convert reads one source file and appends its content to the output
// group. Files are converted in the order Convert is called.
func (c *Converter) Convert(path string) error {
	bundles, err := loadSource(path)
	if err != nil {
		return fmt.Errorf("convert %s: %w", path, err)
	}
	for _, data := range bundles {
		if err := c.writer.Write(data, c.groupname); err != nil {
			return fmt.Errorf("convert %s: %w", path, err)
		}
	}
	return nil
}

// Close materializes the output file.
func (c *Converter) Close() error {
	return c.writer.Close()
}

// loadSource reads a source file into validated Data bundles, one per
// group for h5features inputs and exactly one for everything else.
func loadSource(path string) ([]*Data, error) {
	item := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		return oneBundle(loadNPY(path, item))
	case ".npz":
		return oneBundle(loadNPZ(path, item))
	case ".csv":
		return oneBundle(loadCSV(path, item))
	case ".h5", ".h5f":
		return loadH5(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
}

func oneBundle(data *Data, err error) ([]*Data, error) {
	if err != nil {
		return nil, err
	}
	return []*Data{data}, nil
}

// loadNPY reads a numpy array file as one item. Times are synthesized as
// frame indices since a bare matrix carries no labels.
func loadNPY(path, item string) (*Data, error) {
	rows, dim, values, err := readNumpy(func() (io.ReadCloser, error) {
		return os.Open(path)
	})
	if err != nil {
		return nil, err
	}

	times := make([]float64, rows)
	for i := range times {
		times[i] = float64(i)
	}
	return newDataFrom([]string{item},
		[][]float64{times}, [][]float64{values}, FormatCenters, dim)
}

// loadNPZ reads a numpy archive as one item. A npz file is a zip archive
// of npy members; the features member is required, the times member
// optional (synthesized as frame indices when absent).
func loadNPZ(path, item string) (*Data, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	members := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		members[strings.TrimSuffix(f.Name, ".npy")] = f
	}

	features := members["features"]
	if features == nil {
		return nil, fmt.Errorf("no features member in %s", path)
	}
	rows, dim, values, err := readNumpy(features.Open)
	if err != nil {
		return nil, fmt.Errorf("features member: %w", err)
	}

	timesMember := members["times"]
	if timesMember == nil {
		timesMember = members["labels"]
	}

	format := FormatCenters
	var times []float64
	if timesMember == nil {
		times = make([]float64, rows)
		for i := range times {
			times[i] = float64(i)
		}
	} else {
		tRows, tCols, tValues, err := readNumpy(timesMember.Open)
		if err != nil {
			return nil, fmt.Errorf("times member: %w", err)
		}
		if tRows != rows {
			return nil, fmt.Errorf("%d time rows for %d feature rows", tRows, rows)
		}
		switch tCols {
		case 1:
			// Keep FormatCenters.
		case 2:
			format = FormatIntervals
		default:
			return nil, fmt.Errorf("times member has %d columns, want 1 or 2", tCols)
		}
		times = tValues
	}

	return newDataFrom([]string{item},
		[][]float64{times}, [][]float64{values}, format, dim)
}

// loadCSV reads a delimited text file as one item: one row per frame, the
// first column holding the frame time and the remaining columns the
// feature values. A leading row that does not parse as numbers is treated
// as a header and skipped.
func loadCSV(path, item string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && !numericRecord(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no frames in %s", path)
	}
	if len(records[0]) < 2 {
		return nil, fmt.Errorf("rows need a time column and at least one feature column")
	}

	dim := len(records[0]) - 1
	times := make([]float64, 0, len(records))
	values := make([]float64, 0, len(records)*dim)
	for i, rec := range records {
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
			if j == 0 {
				times = append(times, v)
			} else {
				values = append(values, v)
			}
		}
	}

	return newDataFrom([]string{item},
		[][]float64{times}, [][]float64{values}, FormatCenters, dim)
}

// loadH5 re-reads an existing h5features file. Source groups are
// discovered by scanning the root for the h5features layout, so renamed
// groups convert fine; every group found contributes its items.
func loadH5(path string) ([]*Data, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}

	var groupnames []string
	for _, obj := range f.Root().Children() {
		if g, ok := obj.(*hdf5.Group); ok && isFeaturesGroup(g) {
			groupnames = append(groupnames, g.Name())
		}
	}
	_ = f.Close()
	if len(groupnames) == 0 {
		return nil, fmt.Errorf("no h5features group in %s", path)
	}

	bundles := make([]*Data, 0, len(groupnames))
	for _, groupname := range groupnames {
		r, err := NewReader(path, groupname)
		if err != nil {
			return nil, err
		}
		data, err := r.ReadAll()
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, data)
	}
	return bundles, nil
}

// readNumpy parses a npy stream into a flat float64 matrix. Stored float32
// values are widened; other dtypes are rejected.
func readNumpy(open func() (io.ReadCloser, error)) (rows, dim int, values []float64, err error) {
	rc, err := open()
	if err != nil {
		return 0, 0, nil, err
	}
	defer rc.Close()

	r, err := npyio.NewReader(rc)
	if err != nil {
		return 0, 0, nil, err
	}
	if r.Header.Descr.Fortran {
		return 0, 0, nil, fmt.Errorf("fortran-ordered arrays are not supported")
	}

	shape := r.Header.Descr.Shape
	switch len(shape) {
	case 1:
		rows, dim = shape[0], 1
	case 2:
		rows, dim = shape[0], shape[1]
	default:
		return 0, 0, nil, fmt.Errorf("array has %d dimensions, want 1 or 2", len(shape))
	}

	switch r.Header.Descr.Type {
	case "<f8", ">f8", "f8":
		if err := r.Read(&values); err != nil {
			return 0, 0, nil, err
		}
	case "<f4", ">f4", "f4":
		var narrow []float32
		if err := r.Read(&narrow); err != nil {
			return 0, 0, nil, err
		}
		values = make([]float64, len(narrow))
		for i, v := range narrow {
			values[i] = float64(v)
		}
	default:
		return 0, 0, nil, fmt.Errorf("unsupported dtype %q", r.Header.Descr.Type)
	}

	if len(values) != rows*dim {
		return 0, 0, nil, fmt.Errorf("array holds %d values, want %d", len(values), rows*dim)
	}
	return rows, dim, values, nil
}

// numericRecord reports whether every field of a csv record parses as a
// float.
func numericRecord(rec []string) bool {
	for _, field := range rec {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
			return false
		}
	}
	return true
}
