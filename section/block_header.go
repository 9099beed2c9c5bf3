package section

import (
	"fmt"

	"github.com/arloliu/sermap/endian"
	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/format"
)

// BlockHeader is the fixed-size header at the start of every compressed block.
type BlockHeader struct {
	// Method is the codec used for the chunks.
	Method format.CompressionType // byte 1, bits 0-3
	// Flags is the packed flag byte, see BlockFlag* constants.
	Flags uint8 // byte 2
	// TypeSize is the element size, or 0 if it does not fit a byte.
	TypeSize uint8 // byte 3
	// NBytes is the uncompressed payload size.
	NBytes uint32 // bytes 4-7
	// BlockSize is the chunk size.
	BlockSize uint32 // bytes 8-11
	// CBytes is the total size of the block including header and trailer.
	CBytes uint32 // bytes 12-15
}

// HasShuffle reports whether chunks were byte-shuffled.
func (h BlockHeader) HasShuffle() bool { return h.Flags&BlockFlagShuffle != 0 }

// IsMemcpy reports whether the body is stored uncompressed.
func (h BlockHeader) IsMemcpy() bool { return h.Flags&BlockFlagMemcpy != 0 }

// HasChecksum reports whether an xxHash64 trailer follows the body.
func (h BlockHeader) HasChecksum() bool { return h.Flags&BlockFlagChecksum != 0 }

// HasDelta reports whether the payload is forward-differenced int64 data.
func (h BlockHeader) HasDelta() bool { return h.Flags&BlockFlagDelta != 0 }

// ChunkCount returns the number of chunks in a non-memcpy body.
func (h BlockHeader) ChunkCount() int {
	if h.NBytes == 0 || h.BlockSize == 0 {
		return 0
	}

	return int((uint64(h.NBytes) + uint64(h.BlockSize) - 1) / uint64(h.BlockSize))
}

// TrailerSize returns the number of bytes following the body.
func (h BlockHeader) TrailerSize() int {
	if h.HasChecksum() {
		return ChecksumSize
	}

	return 0
}

// Validate checks the header for internal consistency.
//
// Returns:
//   - error: errs.ErrCorruptBlock describing the first violated rule
func (h BlockHeader) Validate() error {
	if !h.Method.Valid() {
		return fmt.Errorf("%w: unknown method %d", errs.ErrCorruptBlock, h.Method)
	}

	if h.Flags&BlockFlagReservedMask != 0 {
		return fmt.Errorf("%w: reserved flag bits set (0x%02x)", errs.ErrCorruptBlock, h.Flags)
	}

	if h.HasShuffle() && h.TypeSize == 0 {
		return fmt.Errorf("%w: shuffle without element size", errs.ErrCorruptBlock)
	}

	if int(h.CBytes) < BlockHeaderSize+h.TrailerSize() {
		return fmt.Errorf("%w: block size %d below header and trailer size", errs.ErrCorruptBlock, h.CBytes)
	}

	if h.NBytes > 0 && !h.IsMemcpy() {
		if h.BlockSize == 0 || h.BlockSize > MaxChunkSize {
			return fmt.Errorf("%w: chunk size %d not in [1, %d]", errs.ErrCorruptBlock, h.BlockSize, MaxChunkSize)
		}

		// every chunk needs an offset entry, a length prefix and a payload byte
		body := uint64(h.CBytes) - BlockHeaderSize - uint64(h.TrailerSize())
		if uint64(h.ChunkCount())*(ChunkOffsetSize+ChunkLengthSize+1) > body {
			return fmt.Errorf("%w: %d chunks do not fit a %d-byte body", errs.ErrCorruptBlock, h.ChunkCount(), body)
		}
	}

	if h.IsMemcpy() {
		want := uint64(BlockHeaderSize) + uint64(h.NBytes) + uint64(h.TrailerSize())
		if uint64(h.CBytes) != want {
			return fmt.Errorf("%w: memcpy block is %d bytes, want %d", errs.ErrCorruptBlock, h.CBytes, want)
		}
	}

	return nil
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice starting with a block header (at least 16 bytes)
//
// Returns:
//   - error: errs.ErrNotCompressed if data carries no block header, errs.ErrCorruptBlock
//     if the header is recognized but inconsistent
func (h *BlockHeader) Parse(data []byte) error {
	if len(data) < BlockHeaderSize || data[0] != BlockMagic || data[1]>>4 != BlockFormatVersion {
		return errs.ErrNotCompressed
	}

	engine := endian.Wire()

	h.Method = format.CompressionType(data[1] & 0x0F)
	h.Flags = data[2]
	h.TypeSize = data[3]
	h.NBytes = engine.Uint32(data[4:8])
	h.BlockSize = engine.Uint32(data[8:12])
	h.CBytes = engine.Uint32(data[12:16])

	return h.Validate()
}

// Bytes serializes the header into a new 16-byte slice.
func (h BlockHeader) Bytes() []byte {
	b := make([]byte, BlockHeaderSize)
	h.Put(b)

	return b
}

// Put writes the header into the first 16 bytes of dst.
//
// Parameters:
//   - dst: Destination slice (must be at least 16 bytes)
func (h BlockHeader) Put(dst []byte) {
	_ = dst[BlockHeaderSize-1]

	engine := endian.Wire()

	dst[0] = BlockMagic
	dst[1] = BlockFormatVersion<<4 | uint8(h.Method)&0x0F
	dst[2] = h.Flags
	dst[3] = h.TypeSize
	engine.PutUint32(dst[4:8], h.NBytes)
	engine.PutUint32(dst[8:12], h.BlockSize)
	engine.PutUint32(dst[12:16], h.CBytes)
}

// ParseBlockHeader parses a BlockHeader from the start of data.
//
// Returns:
//   - BlockHeader: Parsed header
//   - error: errs.ErrNotCompressed or errs.ErrCorruptBlock
func ParseBlockHeader(data []byte) (BlockHeader, error) {
	var h BlockHeader
	if err := h.Parse(data); err != nil {
		return BlockHeader{}, err
	}

	return h, nil
}

// EncodeTypeSize maps an element size to the header byte. Sizes above 255
// become 0, which is only legal without shuffle.
func EncodeTypeSize(typeSize int) uint8 {
	if typeSize > MaxShuffleTypeSize || typeSize < 0 {
		return 0
	}

	return uint8(typeSize)
}
