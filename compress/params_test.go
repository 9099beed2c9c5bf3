package compress

import (
	"runtime"
	"testing"

	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/format"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	require.Equal(t, 9, p.Level)
	require.Equal(t, format.CompressionLZ4, p.Method)
	require.True(t, p.Shuffle)
	require.Equal(t, 1, p.TypeSize)
	require.Equal(t, runtime.NumCPU(), p.Threads)
	require.NoError(t, p.Validate())
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"negative level", func(p *Params) { p.Level = -1 }},
		{"level too high", func(p *Params) { p.Level = 10 }},
		{"unknown method", func(p *Params) { p.Method = format.CompressionType(9) }},
		{"zero type size", func(p *Params) { p.TypeSize = 0 }},
		{"shuffle with wide elements", func(p *Params) { p.TypeSize = 256 }},
		{"zero threads", func(p *Params) { p.Threads = 0 }},
		{"negative block size", func(p *Params) { p.BlockSize = -1 }},
		{"huge block size", func(p *Params) { p.BlockSize = MaxBlockSize + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			require.ErrorIs(t, p.Validate(), errs.ErrInvalidParams)
		})
	}

	t.Run("wide elements without shuffle", func(t *testing.T) {
		p := DefaultParams()
		p.Shuffle = false
		p.TypeSize = 4096
		require.NoError(t, p.Validate())
	})
}

func TestParams_Apply(t *testing.T) {
	base := DefaultParams()

	p, err := base.Apply(
		WithLevel(3),
		WithMethod(format.MethodHighRatio),
		WithShuffle(false),
		WithTypeSize(8),
		WithThreads(2),
		WithBlockSize(1024),
		WithChecksum(true),
		WithDelta(true),
	)
	require.NoError(t, err)
	require.Equal(t, Params{
		Level: 3, Method: format.CompressionZstd, Shuffle: false, TypeSize: 8,
		Threads: 2, BlockSize: 1024, Checksum: true, Delta: true,
	}, p)

	// base is untouched
	require.Equal(t, DefaultParams(), base)

	_, err = base.Apply(WithLevel(11))
	require.ErrorIs(t, err, errs.ErrInvalidParams)

	_, err = base.Apply(WithThreads(0))
	require.ErrorIs(t, err, errs.ErrInvalidParams)

	_, err = base.Apply(WithTypeSize(300))
	require.ErrorIs(t, err, errs.ErrInvalidParams)
}

func TestParams_ChunkSize(t *testing.T) {
	p := DefaultParams()
	p.TypeSize = 8

	require.Equal(t, 100, p.chunkSize(100))
	require.Equal(t, DefaultBlockSize, p.chunkSize(10*DefaultBlockSize))

	p.TypeSize = 12
	p.BlockSize = 100
	require.Equal(t, 96, p.chunkSize(1000))

	p.BlockSize = 5
	require.Equal(t, 12, p.chunkSize(1000))

	p.Shuffle = false
	require.Equal(t, 5, p.chunkSize(1000))
}
