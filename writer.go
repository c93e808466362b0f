package h5features

import (
	"fmt"
	"os"

	"github.com/scigolib/hdf5"

	"github.com/scigolib/h5features/internal/chunk"
)

// Version of the h5features file format written by this package.
const Version = "1.1"

const (
	// DefaultGroup is the group name used when none is given.
	DefaultGroup = "h5features"

	// DefaultChunkMB is the default chunk size hint in megabytes.
	DefaultChunkMB = 0.1

	// minChunkMB is the smallest accepted chunk size (8 KB). Below that,
	// chunked storage performs poorly enough to be considered an error.
	minChunkMB = 0.008
)

// Writer accumulates h5features data and materializes it as groups of an
// HDF5 file. Group state is buffered in memory; the container is written in
// one pass when the writer is closed. Opening a writer on an existing
// h5features file loads its groups first, so closing rewrites the file with
// old and new data combined.
type Writer struct {
	filename string
	chunkMB  float64
	groups   map[string]*groupBuffer
	order    []string
	closed   bool
}

// groupBuffer is the in-memory state of one group: concatenated times and
// features matrices plus the item index over their rows.
type groupBuffer struct {
	format   TimeFormat
	dim      int
	items    []string
	seen     map[string]struct{}
	ends     []int64
	times    []float64
	features []float64
}

func (g *groupBuffer) rows() int64 {
	if len(g.ends) == 0 {
		return 0
	}
	return g.ends[len(g.ends)-1]
}

// NewWriter prepares a writer for the given file. The chunk size is a hint
// in megabytes and must be at least 8 KB (0.008). If the file exists it
// must be a valid h5features file; its groups are loaded so that new data
// is appended rather than clobbering them.
func NewWriter(filename string, chunkMB float64) (*Writer, error) {
	if chunkMB < minChunkMB {
		return nil, fmt.Errorf("chunk size %g MB is below the 8 KB minimum", chunkMB)
	}

	w := &Writer{
		filename: filename,
		chunkMB:  chunkMB,
		groups:   make(map[string]*groupBuffer),
	}

	if _, err := os.Stat(filename); err == nil {
		if err := w.loadExisting(); err != nil {
			return nil, fmt.Errorf("open %s for appending: %w", filename, err)
		}
	}

	return w, nil
}

// loadExisting reads every h5features group of an existing file into the
// writer's buffers. Closing rewrites the file from those buffers, so any
// object the buffers cannot represent would be lost; such files are
// rejected here rather than truncated later.
func (w *Writer) loadExisting() error {
	f, err := hdf5.Open(w.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, obj := range f.Root().Children() {
		g, ok := obj.(*hdf5.Group)
		if !ok || !isFeaturesGroup(g) {
			return fmt.Errorf(
				"file holds %q, which is not a h5features group and would not survive appending",
				obj.Name())
		}
		if extra := foreignChildren(g); len(extra) > 0 {
			return fmt.Errorf(
				"group %s holds %q, which appending would not preserve",
				g.Name(), extra)
		}
		buf, err := readGroup(g)
		if err != nil {
			return fmt.Errorf("group %s: %w", g.Name(), err)
		}
		w.groups[g.Name()] = buf
		w.order = append(w.order, g.Name())
	}
	return nil
}

// Write appends the data to the named group. The first write to a group
// fixes its time format and feature dimension; later writes must match
// them, and item names must not collide with already written items.
func (w *Writer) Write(data *Data, groupname string) error {
	if w.closed {
		return fmt.Errorf("writer for %s is closed", w.filename)
	}
	if data == nil {
		return fmt.Errorf("no data to write to group %s", groupname)
	}
	if groupname == "" {
		groupname = DefaultGroup
	}

	buf, ok := w.groups[groupname]
	if !ok {
		buf = &groupBuffer{
			format: data.TimeFormat(),
			dim:    data.Dim(),
			seen:   make(map[string]struct{}),
		}
		w.groups[groupname] = buf
		w.order = append(w.order, groupname)
	}

	if data.TimeFormat() != buf.format {
		return fmt.Errorf(
			"group %s stores time format %d, cannot append format %d",
			groupname, buf.format, data.TimeFormat())
	}
	if data.Dim() != buf.dim {
		return fmt.Errorf(
			"group %s stores %d-dimensional features, cannot append %d-dimensional ones",
			groupname, buf.dim, data.Dim())
	}
	for _, name := range data.Items() {
		if _, dup := buf.seen[name]; dup {
			return fmt.Errorf("item %q is already written in group %s", name, groupname)
		}
	}

	for i := 0; i < data.Len(); i++ {
		name := data.items.Name(i)
		buf.items = append(buf.items, name)
		buf.seen[name] = struct{}{}
		buf.times = append(buf.times, data.times.Item(i)...)
		buf.features = append(buf.features, data.features.Item(i)...)
		buf.ends = append(buf.ends, buf.rows()+int64(data.features.Rows(i)))
	}
	return nil
}

// Close materializes all buffered groups into the HDF5 file and invalidates
// the writer. Closing a writer that holds no groups writes an empty, valid
// HDF5 container.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	fw, err := hdf5.CreateForWrite(w.filename, hdf5.CreateTruncate)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.filename, err)
	}

	for _, name := range w.order {
		if err := w.writeGroup(fw, name, w.groups[name]); err != nil {
			_ = fw.Close()
			return fmt.Errorf("write group %s: %w", name, err)
		}
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.filename, err)
	}
	w.closed = true
	return nil
}

// writeGroup writes one buffered group: the chunked features and times
// matrices, the fixed-string items dataset and the int64 index dataset.
// Format metadata lives in attributes of the features dataset.
func (w *Writer) writeGroup(fw *hdf5.FileWriter, name string, buf *groupBuffer) error {
	if _, err := fw.CreateGroup("/" + name); err != nil {
		return err
	}

	rows := uint64(buf.rows())
	dim := uint64(buf.dim)
	width := uint64(buf.format.Width())

	chunkRows := chunk.Clamp(chunk.Lines(dim*8, w.chunkMB), rows)

	features, err := fw.CreateDataset("/"+name+"/features", hdf5.Float64,
		[]uint64{rows, dim}, hdf5.WithChunkDims([]uint64{chunkRows, dim}))
	if err != nil {
		return err
	}
	if err := features.Write(buf.features); err != nil {
		return err
	}
	if err := features.WriteAttribute("version", Version); err != nil {
		return err
	}
	if err := features.WriteAttribute("format", FormatDense); err != nil {
		return err
	}
	if err := features.WriteAttribute("dim", int64(buf.dim)); err != nil {
		return err
	}

	timeDims := []uint64{rows}
	timeChunk := []uint64{chunk.Clamp(chunk.Lines(width*8, w.chunkMB), rows)}
	if buf.format == FormatIntervals {
		timeDims = append(timeDims, width)
		timeChunk = append(timeChunk, width)
	}
	times, err := fw.CreateDataset("/"+name+"/times", hdf5.Float64,
		timeDims, hdf5.WithChunkDims(timeChunk))
	if err != nil {
		return err
	}
	if err := times.Write(buf.times); err != nil {
		return err
	}
	if err := times.WriteAttribute("format", int64(buf.format)); err != nil {
		return err
	}

	strSize := uint32(1)
	for _, item := range buf.items {
		if n := uint32(len(item)); n > strSize {
			strSize = n
		}
	}
	items, err := fw.CreateDataset("/"+name+"/items", hdf5.String,
		[]uint64{uint64(len(buf.items))}, hdf5.WithStringSize(strSize))
	if err != nil {
		return err
	}
	if err := items.Write(buf.items); err != nil {
		return err
	}

	index, err := fw.CreateDataset("/"+name+"/index", hdf5.Int64,
		[]uint64{uint64(len(buf.ends))})
	if err != nil {
		return err
	}
	return index.Write(buf.ends)
}
