package compress

import (
	"bytes"
	"encoding/binary"
	"math"
	"runtime"
	"testing"

	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/format"
	"github.com/arloliu/sermap/section"
	"github.com/stretchr/testify/require"
)

func int64Payload(n int) []byte {
	b := make([]byte, 8*n)
	for i := range n {
		binary.LittleEndian.PutUint64(b[i*8:], uint64(1_700_000_000_000+i*60))
	}

	return b
}

func float64Payload(n int) []byte {
	b := make([]byte, 8*n)
	for i := range n {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(20.0+float64(i%50)*0.5))
	}

	return b
}

func testParams(t *testing.T, opts ...ParamOption) Params {
	t.Helper()

	p, err := DefaultParams().Apply(opts...)
	require.NoError(t, err)

	return p
}

func TestBlockCompressor_RoundTrip(t *testing.T) {
	bc := NewBlockCompressor(4)

	methods := []format.CompressionType{
		format.CompressionNone,
		format.CompressionLZ4,
		format.CompressionS2,
		format.CompressionZstd,
		format.CompressionSnappy,
	}

	payloads := map[string][]byte{
		"ticks":  int64Payload(10_000),
		"floats": float64Payload(3_000),
		"random": randomData(20_000, 3),
		"small":  []byte{1, 2, 3},
	}

	for _, method := range methods {
		for name, payload := range payloads {
			for _, shuffle := range []bool{false, true} {
				t.Run(method.String()+"/"+name, func(t *testing.T) {
					p := testParams(t, WithMethod(method), WithTypeSize(8), WithShuffle(shuffle))

					block, err := bc.Compress(payload, p)
					require.NoError(t, err)

					sizes := bc.ProbeSizes(block)
					require.Equal(t, len(payload), sizes.Uncompressed)
					require.Equal(t, len(block), sizes.Compressed)

					out, err := bc.Decompress(block)
					require.NoError(t, err)
					require.Equal(t, payload, out)
				})
			}
		}
	}
}

func TestBlockCompressor_CompressesRegularData(t *testing.T) {
	bc := NewBlockCompressor(1)
	payload := int64Payload(10_000)

	block, err := bc.Compress(payload, testParams(t, WithTypeSize(8)))
	require.NoError(t, err)
	require.Less(t, len(block), len(payload)/4)

	stats, err := bc.Stats(block)
	require.NoError(t, err)
	require.Equal(t, format.CompressionLZ4, stats.Algorithm)
	require.False(t, stats.Stored)
	require.Less(t, stats.CompressionRatio(), 0.25)
}

func TestBlockCompressor_LevelZeroIsMemcpy(t *testing.T) {
	bc := NewBlockCompressor(1)
	payload := int64Payload(100)

	block, err := bc.Compress(payload, testParams(t, WithLevel(0), WithTypeSize(8)))
	require.NoError(t, err)
	require.Len(t, block, section.BlockHeaderSize+len(payload))

	h, err := bc.Header(block)
	require.NoError(t, err)
	require.True(t, h.IsMemcpy())
	require.False(t, h.HasShuffle())
	require.Equal(t, payload, block[section.BlockHeaderSize:])
}

func TestBlockCompressor_IncompressibleFallsBackToMemcpy(t *testing.T) {
	bc := NewBlockCompressor(1)
	payload := randomData(4096, 11)

	block, err := bc.Compress(payload, testParams(t, WithShuffle(false)))
	require.NoError(t, err)
	require.LessOrEqual(t, len(block), section.BlockHeaderSize+len(payload))

	out, err := bc.Decompress(block)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestBlockCompressor_EmptyPayload(t *testing.T) {
	bc := NewBlockCompressor(1)

	block, err := bc.Compress(nil, DefaultParams())
	require.NoError(t, err)
	require.Len(t, block, section.BlockHeaderSize)

	sizes := bc.ProbeSizes(block)
	require.False(t, sizes.IsZero())
	require.Zero(t, sizes.Uncompressed)

	out, err := bc.Decompress(block)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestBlockCompressor_MultiChunkParallel(t *testing.T) {
	payload := int64Payload(50_000)

	for _, threads := range []int{1, 2, 8} {
		bc := NewBlockCompressor(threads)
		p := testParams(t, WithTypeSize(8), WithThreads(threads), WithBlockSize(4096), WithMethod(format.CompressionZstd))

		block, err := bc.Compress(payload, p)
		require.NoError(t, err)

		h, err := bc.Header(block)
		require.NoError(t, err)
		require.Equal(t, uint32(4096), h.BlockSize)
		require.Equal(t, (len(payload)+4095)/4096, h.ChunkCount())

		out, err := bc.Decompress(block)
		require.NoError(t, err)
		require.Equal(t, payload, out)
	}
}

func TestBlockCompressor_Deterministic(t *testing.T) {
	payload := float64Payload(20_000)
	p := testParams(t, WithTypeSize(8), WithBlockSize(8192))

	single, err := NewBlockCompressor(1).Compress(payload, p)
	require.NoError(t, err)

	p.Threads = 8
	parallel, err := NewBlockCompressor(8).Compress(payload, p)
	require.NoError(t, err)
	require.Equal(t, single, parallel)
}

func TestBlockCompressor_AppendBlock(t *testing.T) {
	bc := NewBlockCompressor(1)
	prefix := []byte{0xAA, 0xBB}
	payload := int64Payload(500)

	out, err := bc.AppendBlock(append([]byte(nil), prefix...), payload, testParams(t, WithTypeSize(8)))
	require.NoError(t, err)
	require.Equal(t, prefix, out[:2])

	decoded, err := bc.Decompress(out[2:])
	require.NoError(t, err)
	require.Equal(t, payload, decoded)

	// invalid params leave dst untouched
	bad := DefaultParams()
	bad.Level = 42
	out, err = bc.AppendBlock(prefix, payload, bad)
	require.ErrorIs(t, err, errs.ErrInvalidParams)
	require.Equal(t, prefix, out)
}

func TestBlockCompressor_ShuffleTypeSizeLimit(t *testing.T) {
	bc := NewBlockCompressor(1)
	payload := make([]byte, 300*4)

	p := DefaultParams()
	p.TypeSize = 300
	_, err := bc.Compress(payload, p)
	require.ErrorIs(t, err, errs.ErrInvalidParams)

	p.Shuffle = false
	block, err := bc.Compress(payload, p)
	require.NoError(t, err)

	h, err := bc.Header(block)
	require.NoError(t, err)
	require.Equal(t, uint8(0), h.TypeSize)
}

func TestBlockCompressor_Checksum(t *testing.T) {
	bc := NewBlockCompressor(1)
	payload := int64Payload(2000)

	for _, level := range []int{0, 9} {
		block, err := bc.Compress(payload, testParams(t, WithTypeSize(8), WithChecksum(true), WithLevel(level)))
		require.NoError(t, err)

		h, err := bc.Header(block)
		require.NoError(t, err)
		require.True(t, h.HasChecksum())

		out, err := bc.Decompress(block)
		require.NoError(t, err)
		require.Equal(t, payload, out)

		// flip one trailer bit
		block[len(block)-1] ^= 0x01
		_, err = bc.Decompress(block)
		require.ErrorIs(t, err, errs.ErrCorruptBlock)
	}
}

func TestBlockCompressor_DeltaFlag(t *testing.T) {
	bc := NewBlockCompressor(1)

	block, err := bc.Compress(int64Payload(10), testParams(t, WithTypeSize(8), WithDelta(true)))
	require.NoError(t, err)

	h, err := bc.Header(block)
	require.NoError(t, err)
	require.True(t, h.HasDelta())
}

func TestBlockCompressor_PassThrough(t *testing.T) {
	bc := NewBlockCompressor(1)

	inputs := map[string][]byte{
		"text":        []byte("hello, world, this is not a block"),
		"empty":       {},
		"short magic": {section.BlockMagic, 0x11},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			require.True(t, bc.ProbeSizes(input).IsZero())

			out, compressed, err := bc.DecompressBytes(input)
			require.NoError(t, err)
			require.False(t, compressed)
			require.Equal(t, input, out)

			again, compressed, err := bc.DecompressBytes(out)
			require.NoError(t, err)
			require.False(t, compressed)
			require.Equal(t, input, again)

			_, err = bc.Decompress(input)
			require.ErrorIs(t, err, errs.ErrNotCompressed)
		})
	}

	t.Run("compressed input is decoded", func(t *testing.T) {
		payload := []byte("compressed compressed compressed compressed")
		block, err := bc.Compress(payload, testParams(t, WithShuffle(false)))
		require.NoError(t, err)

		out, compressed, err := bc.DecompressBytes(block)
		require.NoError(t, err)
		require.True(t, compressed)
		require.Equal(t, payload, out)
	})
}

func TestBlockCompressor_ProbeRejectsTruncated(t *testing.T) {
	bc := NewBlockCompressor(1)

	block, err := bc.Compress(int64Payload(1000), testParams(t, WithTypeSize(8)))
	require.NoError(t, err)

	truncated := block[:len(block)-1]
	require.True(t, bc.ProbeSizes(truncated).IsZero())

	_, err = bc.Decompress(truncated)
	require.ErrorIs(t, err, errs.ErrCorruptBlock)
}

func TestBlockCompressor_CorruptChunkTable(t *testing.T) {
	bc := NewBlockCompressor(1)

	block, err := bc.Compress(int64Payload(5000), testParams(t, WithTypeSize(8), WithBlockSize(4096)))
	require.NoError(t, err)

	h, err := bc.Header(block)
	require.NoError(t, err)
	require.False(t, h.IsMemcpy())

	corrupt := append([]byte(nil), block...)
	binary.LittleEndian.PutUint32(corrupt[section.BlockHeaderSize:], uint32(len(block)+100))
	_, err = bc.Decompress(corrupt)
	require.ErrorIs(t, err, errs.ErrCorruptBlock)

	corrupt = append([]byte(nil), block...)
	first := binary.LittleEndian.Uint32(corrupt[section.BlockHeaderSize:])
	binary.LittleEndian.PutUint32(corrupt[first:], uint32(len(block)))
	_, err = bc.Decompress(corrupt)
	require.ErrorIs(t, err, errs.ErrCorruptBlock)
}

func TestBlockCompressor_DecompressInto(t *testing.T) {
	bc := NewBlockCompressor(1)
	payload := float64Payload(256)

	block, err := bc.Compress(payload, testParams(t, WithTypeSize(8)))
	require.NoError(t, err)

	dst := make([]byte, len(payload)+16)
	n, err := bc.DecompressInto(block, dst)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, dst[:n])

	_, err = bc.DecompressInto(block, make([]byte, len(payload)-1))
	require.ErrorIs(t, err, errs.ErrSizeMismatch)
}

// singleChunkBlock wraps one compressed chunk in a block header that declares
// nbytes of payload.
func singleChunkBlock(method format.CompressionType, nbytes uint32, chunk []byte) []byte {
	tableEnd := section.BlockHeaderSize + section.ChunkOffsetSize
	total := tableEnd + section.ChunkLengthSize + len(chunk)

	h := section.BlockHeader{
		Method:    method,
		TypeSize:  1,
		NBytes:    nbytes,
		BlockSize: nbytes,
		CBytes:    uint32(total),
	}

	blk := make([]byte, total)
	h.Put(blk)
	binary.LittleEndian.PutUint32(blk[section.BlockHeaderSize:], uint32(tableEnd))
	binary.LittleEndian.PutUint32(blk[tableEnd:], uint32(len(chunk)))
	copy(blk[tableEnd+section.ChunkLengthSize:], chunk)

	return blk
}

func TestBlockCompressor_RejectsOversizedDeclaredSize(t *testing.T) {
	bc := NewBlockCompressor(1)
	payload := bytes.Repeat([]byte("a"), 1000)

	methods := []format.CompressionType{
		format.CompressionLZ4,
		format.CompressionS2,
		format.CompressionZstd,
		format.CompressionSnappy,
	}

	for _, method := range methods {
		t.Run(method.String(), func(t *testing.T) {
			codec, err := GetCodec(method)
			require.NoError(t, err)

			chunk, err := codec.Compress(nil, payload, 5)
			require.NoError(t, err)

			out, err := bc.Decompress(singleChunkBlock(method, uint32(len(payload)), chunk))
			require.NoError(t, err)
			require.Equal(t, payload, out)

			forged := singleChunkBlock(method, section.MaxChunkSize, chunk)
			require.False(t, bc.ProbeSizes(forged).IsZero())

			_, err = bc.Header(forged)
			require.ErrorIs(t, err, errs.ErrCorruptBlock)

			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			_, err = bc.Decompress(forged)
			runtime.ReadMemStats(&after)

			require.ErrorIs(t, err, errs.ErrCorruptBlock)
			require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
		})
	}

	t.Run("declared size beyond chunk table", func(t *testing.T) {
		h := section.BlockHeader{
			Method:    format.CompressionLZ4,
			TypeSize:  1,
			NBytes:    256 << 20,
			BlockSize: section.MaxChunkSize,
			CBytes:    26,
		}
		blk := make([]byte, 26)
		h.Put(blk)

		_, err := bc.Decompress(blk)
		require.ErrorIs(t, err, errs.ErrCorruptBlock)
	})

	t.Run("stored chunk shorter than declared", func(t *testing.T) {
		blk := singleChunkBlock(format.CompressionLZ4, 64, nil)
		blk = append(blk, make([]byte, 8)...)
		binary.LittleEndian.PutUint32(blk[section.BlockHeaderSize+section.ChunkOffsetSize:], uint32(0xFFFFFFF8)) // -8
		binary.LittleEndian.PutUint32(blk[12:], uint32(len(blk)))

		_, err := bc.Header(blk)
		require.ErrorIs(t, err, errs.ErrCorruptBlock)
	})
}
