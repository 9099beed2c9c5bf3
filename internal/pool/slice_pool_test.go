package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInt64Slice(t *testing.T) {
	t.Run("returns slice with correct size", func(t *testing.T) {
		slice, cleanup := GetInt64Slice(100)
		defer cleanup()

		require.Len(t, slice, 100)
		require.GreaterOrEqual(t, cap(slice), 100)
	})

	t.Run("allocates new slice when capacity insufficient", func(t *testing.T) {
		_, cleanup1 := GetInt64Slice(10)
		cleanup1()

		slice2, cleanup2 := GetInt64Slice(1000)
		defer cleanup2()

		require.Len(t, slice2, 1000)
		require.GreaterOrEqual(t, cap(slice2), 1000)
	})

	t.Run("zero size is valid", func(t *testing.T) {
		slice, cleanup := GetInt64Slice(0)
		defer cleanup()

		require.Empty(t, slice)
	})

	t.Run("slice is writable across its full length", func(t *testing.T) {
		slice, cleanup := GetInt64Slice(64)
		defer cleanup()

		for i := range slice {
			slice[i] = int64(i)
		}
		require.Equal(t, int64(63), slice[63])
	})
}
