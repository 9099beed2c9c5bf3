package compress

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/sermap/endian"
	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/format"
	"github.com/arloliu/sermap/internal/hash"
	"github.com/arloliu/sermap/internal/pool"
	"github.com/arloliu/sermap/section"
)

// Sizes are the sizes recorded in a block header. The zero value means the
// input carries no recognizable block header.
type Sizes struct {
	// Uncompressed is the payload size after decompression.
	Uncompressed int
	// Compressed is the total block size including header and trailer.
	Compressed int
	// ChunkSize is the chunk size the payload was split with.
	ChunkSize int
}

// IsZero reports whether s signals "not a compressed block".
func (s Sizes) IsZero() bool {
	return s == Sizes{}
}

// BlockCompressor writes and reads self-describing compressed blocks.
//
// A BlockCompressor holds no mutable state; one instance can serve any number
// of goroutines. Compression parallelism comes from Params.Threads, decompression
// parallelism from the value given to NewBlockCompressor.
type BlockCompressor struct {
	decodeThreads int
}

// NewBlockCompressor creates a block compressor.
//
// Parameters:
//   - decodeThreads: Maximum number of chunks decoded concurrently (values below 1 mean 1)
//
// Returns:
//   - *BlockCompressor: Ready to use compressor
func NewBlockCompressor(decodeThreads int) *BlockCompressor {
	return &BlockCompressor{decodeThreads: max(decodeThreads, 1)}
}

// Compress compresses src into a new block.
//
// Parameters:
//   - src: Payload bytes, TypeSize-strided when shuffle is enabled
//   - p: Compression parameters
//
// Returns:
//   - []byte: The complete block, owned by the caller
//   - error: errs.ErrInvalidParams or errs.ErrCompressionFailure
func (c *BlockCompressor) Compress(src []byte, p Params) ([]byte, error) {
	return c.AppendBlock(nil, src, p)
}

// AppendBlock compresses src and appends the block to dst.
//
// Level 0 and CompressionNone write a memcpy block. A compressed body that is
// not smaller than the payload is replaced by a memcpy block as well, so a
// block is never much larger than its input.
//
// Returns:
//   - []byte: dst extended by the block; on error dst is returned unchanged
//   - error: errs.ErrInvalidParams or errs.ErrCompressionFailure
func (c *BlockCompressor) AppendBlock(dst, src []byte, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return dst, err
	}

	if uint64(len(src)) > section.MaxBlockBytes-section.BlockHeaderSize-section.ChecksumSize {
		return dst, fmt.Errorf("%w: payload of %d bytes exceeds block limit", errs.ErrInvalidParams, len(src))
	}

	hdr := section.BlockHeader{
		Method:   p.Method,
		TypeSize: section.EncodeTypeSize(p.TypeSize),
		NBytes:   uint32(len(src)),
	}

	if p.Checksum {
		hdr.Flags |= section.BlockFlagChecksum
	}

	if p.Delta {
		hdr.Flags |= section.BlockFlagDelta
	}

	start := len(dst)
	if p.Level > 0 && p.Method != format.CompressionNone && len(src) > 0 {
		out, ok, err := appendChunked(dst, src, p, hdr)
		if err != nil {
			return dst[:start], err
		}

		if ok {
			return out, nil
		}
	}

	return appendMemcpy(dst[:start], src, hdr), nil
}

func appendMemcpy(dst, src []byte, hdr section.BlockHeader) []byte {
	hdr.Flags |= section.BlockFlagMemcpy
	hdr.Flags &^= section.BlockFlagShuffle
	hdr.BlockSize = hdr.NBytes
	hdr.CBytes = uint32(section.BlockHeaderSize + len(src) + hdr.TrailerSize())

	total := int(hdr.CBytes)
	start := len(dst)
	dst = grow(dst, total)
	blk := dst[start : start+total]

	hdr.Put(blk)
	copy(blk[section.BlockHeaderSize:], src)

	if hdr.HasChecksum() {
		endian.Wire().PutUint64(blk[section.BlockHeaderSize+len(src):], hash.Checksum64(src))
	}

	return dst[:start+total]
}

// appendChunked writes a chunked block. It reports false when the result would
// not be smaller than a memcpy block.
func appendChunked(dst, src []byte, p Params, hdr section.BlockHeader) ([]byte, bool, error) {
	codec, err := GetCodec(p.Method)
	if err != nil {
		return dst, false, fmt.Errorf("%w: %v", errs.ErrInvalidParams, err)
	}

	bs := p.chunkSize(len(src))
	n := (len(src) + bs - 1) / bs
	shuffled := p.Shuffle && p.TypeSize > 1

	chunks := make([]*pool.ByteBuffer, n)
	raw := make([]bool, n)
	defer func() {
		for _, buf := range chunks {
			pool.PutScratchBuffer(buf)
		}
	}()

	work := func(i int) error {
		chunk := src[i*bs : min((i+1)*bs, len(src))]
		buf := pool.GetScratchBuffer()
		chunks[i] = buf

		input := chunk
		if shuffled {
			tmp := pool.GetScratchBuffer()
			defer pool.PutScratchBuffer(tmp)

			input = tmp.Resize(len(chunk))
			shuffle(input, chunk, p.TypeSize)
		}

		out, err := codec.Compress(buf.B[:0], input, p.Level)
		switch {
		case errors.Is(err, errIncompressible), err == nil && len(out) >= len(input):
			buf.B = append(buf.B[:0], input...)
			raw[i] = true
		case err != nil:
			return fmt.Errorf("%w: %s chunk %d: %v", errs.ErrCompressionFailure, p.Method, i, err)
		case len(out) == 0:
			return fmt.Errorf("%w: %s produced no output for %d bytes", errs.ErrCompressionFailure, p.Method, len(input))
		default:
			buf.B = out
		}

		return nil
	}

	if n > 1 && p.Threads > 1 {
		var g errgroup.Group
		g.SetLimit(p.Threads)
		for i := range n {
			g.Go(func() error { return work(i) })
		}
		if err := g.Wait(); err != nil {
			return dst, false, err
		}
	} else {
		for i := range n {
			if err := work(i); err != nil {
				return dst, false, err
			}
		}
	}

	tableEnd := section.BlockHeaderSize + n*section.ChunkOffsetSize
	total := tableEnd + hdr.TrailerSize()
	for _, buf := range chunks {
		total += section.ChunkLengthSize + buf.Len()
	}

	if total >= section.BlockHeaderSize+len(src)+hdr.TrailerSize() {
		return dst, false, nil
	}

	if shuffled {
		hdr.Flags |= section.BlockFlagShuffle
	}
	hdr.BlockSize = uint32(bs)
	hdr.CBytes = uint32(total)

	start := len(dst)
	dst = grow(dst, total)
	blk := dst[start : start+total]
	hdr.Put(blk)

	engine := endian.Wire()
	off := tableEnd
	for i, buf := range chunks {
		engine.PutUint32(blk[section.BlockHeaderSize+i*section.ChunkOffsetSize:], uint32(off))

		length := int32(buf.Len())
		if raw[i] {
			length = -length
		}
		engine.PutUint32(blk[off:], uint32(length))
		off += section.ChunkLengthSize
		off += copy(blk[off:], buf.B)
	}

	if hdr.HasChecksum() {
		engine.PutUint64(blk[off:], hash.Checksum64(src))
	}

	return dst[:start+total], true, nil
}

// ProbeSizes reads the sizes recorded in a block header without decoding the body.
//
// Returns:
//   - Sizes: Header sizes, or the zero value when block is not a recognizable
//     compressed block (unknown magic, version or method, reserved bits set,
//     inconsistent fields, or a declared size larger than block)
func (c *BlockCompressor) ProbeSizes(block []byte) Sizes {
	h, err := section.ParseBlockHeader(block)
	if err != nil || int(h.CBytes) > len(block) {
		return Sizes{}
	}

	return Sizes{
		Uncompressed: int(h.NBytes),
		Compressed:   int(h.CBytes),
		ChunkSize:    int(h.BlockSize),
	}
}

// Header parses and validates the header of block.
//
// Returns:
//   - section.BlockHeader: Parsed header
//   - error: errs.ErrNotCompressed, or errs.ErrCorruptBlock when the header is
//     inconsistent or block is shorter than the declared size
func (c *BlockCompressor) Header(block []byte) (section.BlockHeader, error) {
	h, err := section.ParseBlockHeader(block)
	if err != nil {
		return section.BlockHeader{}, err
	}

	if int(h.CBytes) > len(block) {
		return section.BlockHeader{}, fmt.Errorf("%w: block truncated to %d of %d bytes",
			errs.ErrCorruptBlock, len(block), h.CBytes)
	}

	if !h.IsMemcpy() && h.NBytes > 0 {
		if err := checkChunks(block[:int(h.CBytes)-h.TrailerSize()], h); err != nil {
			return section.BlockHeader{}, err
		}
	}

	return h, nil
}

// checkChunks verifies that every chunk of a chunked block can decode to its
// share of NBytes, so that no output is allocated for a size the body cannot hold.
func checkChunks(body []byte, h section.BlockHeader) error {
	codec, err := GetCodec(h.Method)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCorruptBlock, err)
	}

	n := h.ChunkCount()
	tableEnd := section.BlockHeaderSize + n*section.ChunkOffsetSize
	if tableEnd > len(body) {
		return fmt.Errorf("%w: chunk table of %d entries exceeds block", errs.ErrCorruptBlock, n)
	}

	bs := int(h.BlockSize)
	total := int(h.NBytes)

	for i := range n {
		payload, stored, err := chunkPayload(body, tableEnd, i)
		if err != nil {
			return err
		}

		want := min(bs, total-i*bs)
		if stored {
			if len(payload) != want {
				return fmt.Errorf("%w: stored chunk %d is %d bytes, want %d", errs.ErrCorruptBlock, i, len(payload), want)
			}

			continue
		}

		bound, err := codec.DecodedLenBound(payload)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: %v", errs.ErrCorruptBlock, i, err)
		}

		if bound < want {
			return fmt.Errorf("%w: chunk %d of %d bytes cannot hold %d bytes", errs.ErrCorruptBlock, i, len(payload), want)
		}
	}

	return nil
}

// chunkPayload returns the payload of chunk i and whether it is stored raw.
func chunkPayload(body []byte, tableEnd, i int) ([]byte, bool, error) {
	engine := endian.Wire()

	off := int(engine.Uint32(body[section.BlockHeaderSize+i*section.ChunkOffsetSize:]))
	if off < tableEnd || off+section.ChunkLengthSize > len(body) {
		return nil, false, fmt.Errorf("%w: chunk %d offset %d out of range", errs.ErrCorruptBlock, i, off)
	}

	length := int(int32(engine.Uint32(body[off:])))
	stored := length < 0
	if stored {
		length = -length
	}

	start := off + section.ChunkLengthSize
	if length > len(body)-start {
		return nil, false, fmt.Errorf("%w: chunk %d length %d exceeds block", errs.ErrCorruptBlock, i, length)
	}

	return body[start : start+length], stored, nil
}

// Stats describes a block without decoding it.
func (c *BlockCompressor) Stats(block []byte) (CompressionStats, error) {
	h, err := c.Header(block)
	if err != nil {
		return CompressionStats{}, err
	}

	return CompressionStats{
		Algorithm:      h.Method,
		OriginalSize:   int64(h.NBytes),
		CompressedSize: int64(h.CBytes),
		ChunkSize:      int64(h.BlockSize),
		Stored:         h.IsMemcpy(),
	}, nil
}

// Decompress decodes a block into a new slice of exactly the recorded size.
//
// Unlike DecompressBytes, input without a block header is an error.
//
// Returns:
//   - []byte: The payload
//   - error: errs.ErrNotCompressed or errs.ErrCorruptBlock
func (c *BlockCompressor) Decompress(block []byte) ([]byte, error) {
	h, err := c.Header(block)
	if err != nil {
		return nil, err
	}

	out := make([]byte, h.NBytes)
	if _, err := c.decode(block, h, out); err != nil {
		return nil, err
	}

	return out, nil
}

// DecompressInto decodes a block into caller-provided memory.
//
// Parameters:
//   - block: The compressed block
//   - dst: Destination with room for at least the recorded uncompressed size
//
// Returns:
//   - int: Number of bytes written to dst
//   - error: errs.ErrNotCompressed, errs.ErrCorruptBlock or errs.ErrSizeMismatch
func (c *BlockCompressor) DecompressInto(block, dst []byte) (int, error) {
	h, err := c.Header(block)
	if err != nil {
		return 0, err
	}

	if len(dst) < int(h.NBytes) {
		return 0, fmt.Errorf("%w: destination holds %d bytes, block needs %d", errs.ErrSizeMismatch, len(dst), h.NBytes)
	}

	return c.decode(block, h, dst[:h.NBytes])
}

// DecompressBytes decodes src when it is a compressed block and returns it
// unchanged otherwise.
//
// Returns:
//   - []byte: The payload, or src itself on pass-through
//   - bool: true when src was a compressed block
//   - error: errs.ErrCorruptBlock when a recognized block fails to decode
func (c *BlockCompressor) DecompressBytes(src []byte) ([]byte, bool, error) {
	if c.ProbeSizes(src).IsZero() {
		return src, false, nil
	}

	out, err := c.Decompress(src)
	if err != nil {
		return nil, true, err
	}

	return out, true, nil
}

func (c *BlockCompressor) decode(block []byte, h section.BlockHeader, out []byte) (int, error) {
	body := block[:int(h.CBytes)-h.TrailerSize()]

	if h.IsMemcpy() {
		copy(out, body[section.BlockHeaderSize:])
	} else if err := c.decodeChunks(body, h, out); err != nil {
		return 0, err
	}

	if h.HasChecksum() {
		want := endian.Wire().Uint64(block[len(body):])
		if got := hash.Checksum64(out); got != want {
			return 0, fmt.Errorf("%w: checksum %016x, want %016x", errs.ErrCorruptBlock, got, want)
		}
	}

	return len(out), nil
}

func (c *BlockCompressor) decodeChunks(body []byte, h section.BlockHeader, out []byte) error {
	codec, err := GetCodec(h.Method)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCorruptBlock, err)
	}

	n := h.ChunkCount()
	tableEnd := section.BlockHeaderSize + n*section.ChunkOffsetSize
	if tableEnd > len(body) {
		return fmt.Errorf("%w: chunk table of %d entries exceeds block", errs.ErrCorruptBlock, n)
	}

	bs := int(h.BlockSize)
	typeSize := int(h.TypeSize)

	work := func(i int) error {
		payload, stored, err := chunkPayload(body, tableEnd, i)
		if err != nil {
			return err
		}

		target := out[i*bs : min((i+1)*bs, len(out))]
		decoded := target
		if h.HasShuffle() {
			tmp := pool.GetScratchBuffer()
			defer pool.PutScratchBuffer(tmp)
			decoded = tmp.Resize(len(target))
		}

		if stored {
			if len(payload) != len(decoded) {
				return fmt.Errorf("%w: stored chunk %d is %d bytes, want %d", errs.ErrCorruptBlock, i, len(payload), len(decoded))
			}
			copy(decoded, payload)
		} else if _, err := codec.Decompress(decoded, payload); err != nil {
			return fmt.Errorf("%w: chunk %d: %v", errs.ErrCorruptBlock, i, err)
		}

		if h.HasShuffle() {
			unshuffle(target, decoded, typeSize)
		}

		return nil
	}

	if n > 1 && c.decodeThreads > 1 {
		var g errgroup.Group
		g.SetLimit(c.decodeThreads)
		for i := range n {
			g.Go(func() error { return work(i) })
		}

		return g.Wait()
	}

	for i := range n {
		if err := work(i); err != nil {
			return err
		}
	}

	return nil
}
