// Package compress provides the block compressor used by every sermap codec.
//
// A block is a self-describing byte sequence: a 16-byte header (see package
// section) records the codec, the shuffle and delta flags, the element size, the
// uncompressed size, the chunk size and the total block size. A decompressor can
// therefore size its destination exactly before decoding, and ProbeSizes can tell
// a block apart from arbitrary bytes without decoding anything.
//
// # Overview
//
// Compression happens in three steps:
//
//  1. **Chunking**: the payload is split into BlockSize chunks
//  2. **Shuffle**: with shuffle enabled each chunk is byte-transposed with the
//     element size as stride, grouping the n-th byte of every element together
//  3. **Codec**: each chunk is compressed independently, and stored raw when the
//     codec cannot shrink it
//
// Chunks are compressed concurrently, up to Params.Threads at a time.
//
// # Supported Algorithms
//
// Every codec implements the Codec interface:
//
//	type Codec interface {
//	    Compress(dst, src []byte, level int) ([]byte, error)
//	    Decompress(dst, src []byte) (int, error)
//	    Type() format.CompressionType
//	}
//
// **LZ4** (format.CompressionLZ4, the fast method)
//
// Very fast decompression, moderate ratio. Levels 7-9 switch to LZ4 HC.
//
// **S2** (format.CompressionS2, the balanced method)
//
// Snappy-compatible successor with better ratio. Levels pick Encode,
// EncodeBetter or EncodeBest.
//
// **Zstandard** (format.CompressionZstd, the high-ratio method)
//
// Best ratio, slowest compression. Pure Go by default; build with -tags gozstd
// to use the cgo binding.
//
// **Snappy** (format.CompressionSnappy)
//
// Plain Snappy blocks for readers that only understand Snappy.
//
// **None** (format.CompressionNone)
//
// Always writes memcpy blocks.
//
// # Usage
//
//	bc := compress.NewBlockCompressor(runtime.NumCPU())
//	p, err := compress.DefaultParams().Apply(compress.WithTypeSize(8))
//	if err != nil {
//	    return err
//	}
//
//	block, err := bc.Compress(payload, p)
//	...
//	sizes := bc.ProbeSizes(block)   // zero Sizes: not a block
//	payload, err = bc.Decompress(block)
//
// DecompressBytes implements pass-through: bytes without a block header are
// returned unchanged together with compressed == false.
//
// # Thread Safety
//
// BlockCompressor and all codecs are safe for concurrent use. Encoders and
// decoders with internal state are pooled.
package compress
