package h5features

import (
	"errors"
	"fmt"
)

// Data bundles the items, times and features of one h5features group.
// The three parts are validated together: one entry per item, and for each
// item the same number of frames in times and features.
type Data struct {
	items    *Items
	times    *Times
	features *Features
}

// NewData validates and bundles items, times and features.
func NewData(items *Items, times *Times, features *Features) (*Data, error) {
	if items == nil || times == nil || features == nil {
		return nil, errors.New("items, times and features are all required")
	}
	if items.Len() != times.Len() || items.Len() != features.Len() {
		return nil, fmt.Errorf(
			"mismatched lengths: %d items, %d times, %d features",
			items.Len(), times.Len(), features.Len())
	}
	for i := 0; i < items.Len(); i++ {
		if times.Rows(i) != features.Rows(i) {
			return nil, fmt.Errorf(
				"item %q holds %d time rows but %d feature rows",
				items.Name(i), times.Rows(i), features.Rows(i))
		}
	}
	return &Data{items: items, times: times, features: features}, nil
}

// Items returns the item names in storage order.
func (d *Data) Items() []string {
	return d.items.Names()
}

// Len returns the number of items.
func (d *Data) Len() int {
	return d.items.Len()
}

// Dim returns the feature dimension.
func (d *Data) Dim() int {
	return d.features.Dim()
}

// TimeFormat returns the time label format.
func (d *Data) TimeFormat() TimeFormat {
	return d.times.Format()
}

// ItemTimes returns the time values of a named item.
func (d *Data) ItemTimes(name string) ([]float64, bool) {
	i, ok := d.index(name)
	if !ok {
		return nil, false
	}
	return d.times.Item(i), true
}

// ItemFeatures returns the row-major feature matrix of a named item.
func (d *Data) ItemFeatures(name string) ([]float64, bool) {
	i, ok := d.index(name)
	if !ok {
		return nil, false
	}
	return d.features.Item(i), true
}

func (d *Data) index(name string) (int, bool) {
	for i, n := range d.items.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
