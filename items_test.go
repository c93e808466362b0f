package h5features

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewItems(t *testing.T) {
	it, err := NewItems([]string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, 3, it.Len())
	require.Equal(t, []string{"a", "b", "c"}, it.Names())
	require.Equal(t, "b", it.Name(1))
}

func TestNewItemsRejectsEmpty(t *testing.T) {
	_, err := NewItems(nil)
	require.Error(t, err)

	_, err = NewItems([]string{"a", ""})
	require.Error(t, err)
}

func TestNewItemsRejectsDuplicates(t *testing.T) {
	_, err := NewItems([]string{"a", "b", "a"})
	require.ErrorContains(t, err, "duplicate")
}

func TestItemsNamesIsACopy(t *testing.T) {
	it, err := NewItems([]string{"a", "b"})
	require.NoError(t, err)

	names := it.Names()
	names[0] = "mutated"
	require.Equal(t, "a", it.Name(0))
}
