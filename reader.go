package h5features

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scigolib/hdf5"
)

// Reader gives access to one group of a h5features file. The group content
// is loaded when the reader is created; reads after that are pure memory
// operations.
type Reader struct {
	filename  string
	groupname string
	buf       *groupBuffer
}

// NewReader opens a h5features file and loads the named group.
func NewReader(filename, groupname string) (*Reader, error) {
	if groupname == "" {
		groupname = DefaultGroup
	}

	f, err := hdf5.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	var group *hdf5.Group
	for _, obj := range f.Root().Children() {
		if g, ok := obj.(*hdf5.Group); ok && g.Name() == groupname {
			group = g
			break
		}
	}
	if group == nil {
		return nil, fmt.Errorf("no group %q in %s", groupname, filename)
	}
	if !isFeaturesGroup(group) {
		return nil, fmt.Errorf("group %q in %s is not a h5features group", groupname, filename)
	}

	buf, err := readGroup(group)
	if err != nil {
		return nil, fmt.Errorf("read group %q in %s: %w", groupname, filename, err)
	}

	return &Reader{filename: filename, groupname: groupname, buf: buf}, nil
}

// Items returns the item names stored in the group, in storage order.
func (r *Reader) Items() []string {
	return append([]string(nil), r.buf.items...)
}

// Dim returns the feature dimension of the group.
func (r *Reader) Dim() int {
	return r.buf.dim
}

// TimeFormat returns the time label format of the group.
func (r *Reader) TimeFormat() TimeFormat {
	return r.buf.format
}

// ReadAll returns every item of the group.
func (r *Reader) ReadAll() (*Data, error) {
	return r.read("", "", nil, nil)
}

// ReadItems returns the items between fromItem and toItem inclusive, in
// storage order. An empty fromItem means the first stored item. An empty
// toItem means fromItem when that is given, the last stored item otherwise.
func (r *Reader) ReadItems(fromItem, toItem string) (*Data, error) {
	return r.read(fromItem, toItem, nil, nil)
}

// ReadInterval behaves like ReadItems but additionally restricts the first
// selected item to frames at or after fromTime and the last selected item
// to frames at or before toTime. Boundary frames are included.
func (r *Reader) ReadInterval(fromItem, toItem string, fromTime, toTime float64) (*Data, error) {
	return r.read(fromItem, toItem, &fromTime, &toTime)
}

func (r *Reader) read(fromItem, toItem string, fromTime, toTime *float64) (*Data, error) {
	first, err := r.itemIndex(fromItem, 0)
	if err != nil {
		return nil, err
	}
	last := len(r.buf.items) - 1
	if toItem == "" && fromItem != "" {
		last = first
	} else if toItem != "" {
		if last, err = r.itemIndex(toItem, last); err != nil {
			return nil, err
		}
	}
	if first > last {
		return nil, fmt.Errorf("item %q is stored after item %q",
			r.buf.items[first], r.buf.items[last])
	}

	width := r.buf.format.Width()
	names := make([]string, 0, last-first+1)
	times := make([][]float64, 0, last-first+1)
	features := make([][]float64, 0, last-first+1)

	for i := first; i <= last; i++ {
		start, end := itemRange(r.buf.ends, i)
		if i == first && fromTime != nil {
			start = r.lowerBound(start, end, *fromTime)
		}
		if i == last && toTime != nil {
			end = r.upperBound(start, end, *toTime)
		}
		if start >= end {
			return nil, fmt.Errorf("no frames of item %q in the requested time range",
				r.buf.items[i])
		}
		names = append(names, r.buf.items[i])
		times = append(times, r.buf.times[start*int64(width):end*int64(width)])
		features = append(features, r.buf.features[start*int64(r.buf.dim):end*int64(r.buf.dim)])
	}

	return newDataFrom(names, times, features, r.buf.format, r.buf.dim)
}

// lowerBound returns the first row in [start, end) whose begin time is at
// least t.
func (r *Reader) lowerBound(start, end int64, t float64) int64 {
	width := int64(r.buf.format.Width())
	for row := start; row < end; row++ {
		if r.buf.times[row*width] >= t {
			return row
		}
	}
	return end
}

// upperBound returns one past the last row in [start, end) whose end time
// is at most t.
func (r *Reader) upperBound(start, end int64, t float64) int64 {
	width := int64(r.buf.format.Width())
	for row := end; row > start; row-- {
		if r.buf.times[(row-1)*width+width-1] <= t {
			return row
		}
	}
	return start
}

func (r *Reader) itemIndex(name string, fallback int) (int, error) {
	if name == "" {
		return fallback, nil
	}
	for i, n := range r.buf.items {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no item %q in group %q", name, r.groupname)
}

// newDataFrom assembles a Data from already validated group content.
func newDataFrom(names []string, times, features [][]float64, format TimeFormat, dim int) (*Data, error) {
	items, err := NewItems(names)
	if err != nil {
		return nil, err
	}
	var t *Times
	if format == FormatIntervals {
		t, err = NewIntervalTimes(times)
	} else {
		t, err = NewTimes(times)
	}
	if err != nil {
		return nil, err
	}
	f, err := NewFeatures(features, dim)
	if err != nil {
		return nil, err
	}
	return NewData(items, t, f)
}

// isFeaturesGroup reports whether the group carries the four h5features
// datasets.
func isFeaturesGroup(g *hdf5.Group) bool {
	want := map[string]bool{"items": false, "times": false, "features": false, "index": false}
	for _, obj := range g.Children() {
		if ds, ok := obj.(*hdf5.Dataset); ok {
			if _, known := want[ds.Name()]; known {
				want[ds.Name()] = true
			}
		}
	}
	for _, found := range want {
		if !found {
			return false
		}
	}
	return true
}

// foreignChildren returns the names of group members that are not part of
// the h5features layout.
func foreignChildren(g *hdf5.Group) []string {
	known := map[string]bool{"items": true, "times": true, "features": true, "index": true}
	var extra []string
	for _, obj := range g.Children() {
		if ds, ok := obj.(*hdf5.Dataset); ok && known[ds.Name()] {
			continue
		}
		extra = append(extra, obj.Name())
	}
	return extra
}

// readGroup loads one h5features group into memory and validates it.
func readGroup(g *hdf5.Group) (*groupBuffer, error) {
	datasets := make(map[string]*hdf5.Dataset)
	for _, obj := range g.Children() {
		if ds, ok := obj.(*hdf5.Dataset); ok {
			datasets[ds.Name()] = ds
		}
	}
	for _, name := range []string{"items", "times", "features", "index"} {
		if datasets[name] == nil {
			return nil, fmt.Errorf("missing dataset %q", name)
		}
	}

	version, err := attrString(datasets["features"], "version")
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("file version %q is not supported (want %q)", version, Version)
	}
	format, err := attrString(datasets["features"], "format")
	if err != nil {
		return nil, err
	}
	if _, err := ParseFormat(format); err != nil {
		return nil, err
	}
	dim, err := attrInt(datasets["features"], "dim")
	if err != nil {
		return nil, err
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid feature dimension %d", dim)
	}
	tformat, err := attrInt(datasets["times"], "format")
	if err != nil {
		return nil, err
	}
	if !TimeFormat(tformat).valid() {
		return nil, fmt.Errorf("invalid time format %d", tformat)
	}

	items, err := datasets["items"].ReadStrings()
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	features, err := datasets["features"].Read()
	if err != nil {
		return nil, fmt.Errorf("read features: %w", err)
	}
	times, err := datasets["times"].Read()
	if err != nil {
		return nil, fmt.Errorf("read times: %w", err)
	}
	rawIndex, err := datasets["index"].Read()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	ends := make([]int64, len(rawIndex))
	for i, v := range rawIndex {
		ends[i] = int64(v)
	}
	if len(items) != len(ends) {
		return nil, fmt.Errorf("%d items but %d index entries", len(items), len(ends))
	}
	if len(items) == 0 {
		return nil, errors.New("group holds no items")
	}

	rows := ends[len(ends)-1]
	if err := validateIndex(ends, rows); err != nil {
		return nil, err
	}
	if int64(len(features)) != rows*dim {
		return nil, fmt.Errorf("features dataset holds %d values, want %d", len(features), rows*dim)
	}
	if int64(len(times)) != rows*int64(TimeFormat(tformat).Width()) {
		return nil, fmt.Errorf("times dataset holds %d values, want %d",
			len(times), rows*int64(TimeFormat(tformat).Width()))
	}

	buf := &groupBuffer{
		format:   TimeFormat(tformat),
		dim:      int(dim),
		items:    items,
		seen:     make(map[string]struct{}, len(items)),
		ends:     ends,
		times:    times,
		features: features,
	}
	for _, name := range items {
		if _, dup := buf.seen[name]; dup {
			return nil, fmt.Errorf("duplicate item %q", name)
		}
		buf.seen[name] = struct{}{}
	}
	return buf, nil
}

func attrString(ds *hdf5.Dataset, name string) (string, error) {
	v, err := ds.ReadAttribute(name)
	if err != nil {
		return "", fmt.Errorf("attribute %q: %w", name, err)
	}
	switch s := v.(type) {
	case string:
		return strings.TrimRight(s, "\x00"), nil
	case []byte:
		return strings.TrimRight(string(s), "\x00"), nil
	default:
		return "", fmt.Errorf("attribute %q is not a string (%T)", name, v)
	}
}

func attrInt(ds *hdf5.Dataset, name string) (int64, error) {
	v, err := ds.ReadAttribute(name)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", name, err)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("attribute %q is not an integer (%T)", name, v)
	}
}
