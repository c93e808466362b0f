package h5features

import (
	"errors"
	"fmt"
)

// Items is the ordered list of item names in a h5features group.
// An item is typically the source file a feature matrix was extracted from.
type Items struct {
	names []string
}

// NewItems validates a list of item names.
// Names must be non-empty and unique within the list.
func NewItems(names []string) (*Items, error) {
	if len(names) == 0 {
		return nil, errors.New("no items given")
	}

	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("item %d has an empty name", i)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate item name %q", name)
		}
		seen[name] = struct{}{}
	}

	return &Items{names: append([]string(nil), names...)}, nil
}

// Len returns the number of items.
func (it *Items) Len() int {
	return len(it.names)
}

// Names returns the item names in storage order.
func (it *Items) Names() []string {
	return append([]string(nil), it.names...)
}

// Name returns the i-th item name.
func (it *Items) Name(i int) string {
	return it.names[i]
}
