package h5features

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/require"
)

func TestNewWriterRejectsTinyChunk(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "out.h5"), 0.001)
	require.ErrorContains(t, err, "8 KB")
}

func TestNewWriterRejectsNonHDF5File(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.h5")
	require.NoError(t, os.WriteFile(filename, []byte("not hdf5"), 0o600))

	_, err := NewWriter(filename, DefaultChunkMB)
	require.Error(t, err)
}

func TestNewWriterRejectsForeignRootDataset(t *testing.T) {
	// A valid HDF5 file whose root holds a plain dataset is not a
	// h5features container; appending must refuse it instead of dropping
	// the dataset on Close.
	filename := filepath.Join(t.TempDir(), "mixed.h5")
	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	require.NoError(t, err)
	ds, err := fw.CreateDataset("/other", hdf5.Float64, []uint64{3})
	require.NoError(t, err)
	require.NoError(t, ds.Write([]float64{1, 2, 3}))
	require.NoError(t, fw.Close())

	_, err = NewWriter(filename, DefaultChunkMB)
	require.ErrorContains(t, err, `"other"`)
	require.ErrorContains(t, err, "would not survive appending")

	// The refused file is left untouched.
	r, err := hdf5.Open(filename)
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.Root().Children(), 1)
}

func TestNewWriterRejectsForeignGroup(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "mixed.h5")
	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	require.NoError(t, err)
	_, err = fw.CreateGroup("/misc")
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	_, err = NewWriter(filename, DefaultChunkMB)
	require.ErrorContains(t, err, "not a h5features group")
}

func TestNewWriterRejectsForeignGroupMember(t *testing.T) {
	// A h5features group carrying an extra dataset would lose it in the
	// rewrite, so the writer refuses the file.
	filename := filepath.Join(t.TempDir(), "mixed.h5")
	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	require.NoError(t, err)
	_, err = fw.CreateGroup("/g")
	require.NoError(t, err)

	items, err := fw.CreateDataset("/g/items", hdf5.String, []uint64{1}, hdf5.WithStringSize(4))
	require.NoError(t, err)
	require.NoError(t, items.Write([]string{"one"}))
	times, err := fw.CreateDataset("/g/times", hdf5.Float64, []uint64{1})
	require.NoError(t, err)
	require.NoError(t, times.Write([]float64{0}))
	features, err := fw.CreateDataset("/g/features", hdf5.Float64, []uint64{1, 1})
	require.NoError(t, err)
	require.NoError(t, features.Write([]float64{1}))
	index, err := fw.CreateDataset("/g/index", hdf5.Int64, []uint64{1})
	require.NoError(t, err)
	require.NoError(t, index.Write([]int64{1}))
	extra, err := fw.CreateDataset("/g/extra", hdf5.Float64, []uint64{1})
	require.NoError(t, err)
	require.NoError(t, extra.Write([]float64{0}))
	require.NoError(t, fw.Close())

	_, err = NewWriter(filename, DefaultChunkMB)
	require.ErrorContains(t, err, `"extra"`)
	require.ErrorContains(t, err, "would not preserve")
}

func TestWriterRoundtrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.h5")

	w, err := NewWriter(filename, DefaultChunkMB)
	require.NoError(t, err)
	require.NoError(t, w.Write(newTestData(t), "features"))
	require.NoError(t, w.Close())

	info, err := os.Stat(filename)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	r, err := NewReader(filename, "features")
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, r.Items())
	require.Equal(t, 2, r.Dim())
	require.Equal(t, FormatCenters, r.TimeFormat())
}

func TestWriterRejectsDuplicateItem(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "out.h5"), DefaultChunkMB)
	require.NoError(t, err)

	require.NoError(t, w.Write(newTestData(t), "features"))
	err = w.Write(newTestData(t), "features")
	require.ErrorContains(t, err, "already written")
}

func TestWriterRejectsDimensionMismatch(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "out.h5"), DefaultChunkMB)
	require.NoError(t, err)
	require.NoError(t, w.Write(newTestData(t), "features"))

	items, err := NewItems([]string{"three"})
	require.NoError(t, err)
	times, err := NewTimes([][]float64{{0}})
	require.NoError(t, err)
	features, err := NewFeatures([][]float64{{1, 2, 3}}, 3)
	require.NoError(t, err)
	other, err := NewData(items, times, features)
	require.NoError(t, err)

	err = w.Write(other, "features")
	require.ErrorContains(t, err, "dimensional")
}

func TestWriterRejectsTimeFormatMismatch(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "out.h5"), DefaultChunkMB)
	require.NoError(t, err)
	require.NoError(t, w.Write(newTestData(t), "features"))

	items, err := NewItems([]string{"three"})
	require.NoError(t, err)
	times, err := NewIntervalTimes([][]float64{{0, 1}})
	require.NoError(t, err)
	features, err := NewFeatures([][]float64{{1, 2}}, 2)
	require.NoError(t, err)
	other, err := NewData(items, times, features)
	require.NoError(t, err)

	err = w.Write(other, "features")
	require.ErrorContains(t, err, "time format")
}

func TestWriterWriteAfterClose(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "out.h5"), DefaultChunkMB)
	require.NoError(t, err)
	require.NoError(t, w.Write(newTestData(t), "features"))
	require.NoError(t, w.Close())

	err = w.Write(newTestData(t), "features")
	require.ErrorContains(t, err, "closed")

	// Closing twice is harmless.
	require.NoError(t, w.Close())
}

func TestWriterAppendsAcrossRuns(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.h5")

	w, err := NewWriter(filename, DefaultChunkMB)
	require.NoError(t, err)
	require.NoError(t, w.Write(newTestData(t), "features"))
	require.NoError(t, w.Close())

	// A second writer on the same file loads the stored group and
	// appends to it.
	w, err = NewWriter(filename, DefaultChunkMB)
	require.NoError(t, err)

	items, err := NewItems([]string{"three"})
	require.NoError(t, err)
	times, err := NewTimes([][]float64{{0, 1}})
	require.NoError(t, err)
	features, err := NewFeatures([][]float64{{1, 2, 3, 4}}, 2)
	require.NoError(t, err)
	more, err := NewData(items, times, features)
	require.NoError(t, err)

	require.NoError(t, w.Write(more, "features"))
	require.NoError(t, w.Close())

	r, err := NewReader(filename, "features")
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "three"}, r.Items())

	data, err := r.ReadAll()
	require.NoError(t, err)
	values, ok := data.ItemFeatures("three")
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3, 4}, values)
}

func TestWriterAppendRejectsDuplicateAcrossRuns(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.h5")

	w, err := NewWriter(filename, DefaultChunkMB)
	require.NoError(t, err)
	require.NoError(t, w.Write(newTestData(t), "features"))
	require.NoError(t, w.Close())

	w, err = NewWriter(filename, DefaultChunkMB)
	require.NoError(t, err)
	err = w.Write(newTestData(t), "features")
	require.ErrorContains(t, err, "already written")
}

func TestWriterMultipleGroups(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.h5")

	w, err := NewWriter(filename, DefaultChunkMB)
	require.NoError(t, err)
	require.NoError(t, w.Write(newTestData(t), "mfcc"))
	require.NoError(t, w.Write(newTestData(t), "filterbank"))
	require.NoError(t, w.Close())

	for _, group := range []string{"mfcc", "filterbank"} {
		r, err := NewReader(filename, group)
		require.NoError(t, err, "group %s", group)
		require.Equal(t, []string{"one", "two"}, r.Items())
	}
}

func TestWriterDefaultGroup(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.h5")

	w, err := NewWriter(filename, DefaultChunkMB)
	require.NoError(t, err)
	require.NoError(t, w.Write(newTestData(t), ""))
	require.NoError(t, w.Close())

	r, err := NewReader(filename, DefaultGroup)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, r.Items())
}
