// Package h5features reads and writes h5features files, a format for
// storing arbitrarily large collections of per-item feature matrices with
// their time labels in a single HDF5 container.
//
// A h5features file holds one or more named groups. Each group stores the
// concatenated feature matrices of its items in a chunked "features"
// dataset, the matching time labels in "times", the item names in "items"
// and the per-item row boundaries in "index".
//
// The usual entry points are Writer and Reader for full control, the
// package-level Write, Read and SimpleWrite wrappers for one-shot use, and
// Converter for turning foreign feature files (npy, npz, csv, or other
// h5features files) into a single container.
//
// All HDF5 mechanics are delegated to github.com/scigolib/hdf5; this
// package only defines the layout and semantics of the stored data.
//
// The package is not safe for concurrent use on the same file.
package h5features

// Write stores dense features in one call: it bundles the items, center
// times and row-major feature matrices of dimension dim, and writes them to
// the named group of filename with the default chunk size. If the file
// exists, the data is appended to it.
func Write(filename, groupname string, items []string, times, features [][]float64, dim int) error {
	it, err := NewItems(items)
	if err != nil {
		return err
	}
	tm, err := NewTimes(times)
	if err != nil {
		return err
	}
	ft, err := NewFeatures(features, dim)
	if err != nil {
		return err
	}
	data, err := NewData(it, tm, ft)
	if err != nil {
		return err
	}

	w, err := NewWriter(filename, DefaultChunkMB)
	if err != nil {
		return err
	}
	if err := w.Write(data, groupname); err != nil {
		return err
	}
	return w.Close()
}

// SimpleWrite stores a single feature matrix under the item name "item".
func SimpleWrite(filename, groupname string, times, features []float64, dim int) error {
	return Write(filename, groupname,
		[]string{"item"}, [][]float64{times}, [][]float64{features}, dim)
}

// Read loads every item of the named group of a h5features file.
func Read(filename, groupname string) (*Data, error) {
	r, err := NewReader(filename, groupname)
	if err != nil {
		return nil, err
	}
	return r.ReadAll()
}
