package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testParams struct {
	Level   int
	Shuffle bool
	Calls   []string
}

func withLevel(level int) Option[*testParams] {
	return New(func(p *testParams) error {
		if level < 0 || level > 9 {
			return errors.New("level out of range")
		}
		p.Level = level
		p.Calls = append(p.Calls, "level")

		return nil
	})
}

func withShuffle(enabled bool) Option[*testParams] {
	return NoError(func(p *testParams) {
		p.Shuffle = enabled
		p.Calls = append(p.Calls, "shuffle")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		p := &testParams{}
		err := Apply(p, withLevel(5), withShuffle(true), withLevel(7))
		require.NoError(t, err)
		require.Equal(t, 7, p.Level)
		require.True(t, p.Shuffle)
		require.Equal(t, []string{"level", "shuffle", "level"}, p.Calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		p := &testParams{}
		err := Apply(p, withShuffle(true), withLevel(12), withLevel(3))
		require.EqualError(t, err, "level out of range")
		require.Equal(t, []string{"shuffle"}, p.Calls)
		require.Equal(t, 0, p.Level)
	})

	t.Run("skips nil options", func(t *testing.T) {
		p := &testParams{}
		var missing Option[*testParams]
		err := Apply(p, missing, withLevel(1))
		require.NoError(t, err)
		require.Equal(t, 1, p.Level)
	})

	t.Run("no options is a no-op", func(t *testing.T) {
		p := &testParams{Level: 9}
		require.NoError(t, Apply(p))
		require.Equal(t, 9, p.Level)
	})
}
