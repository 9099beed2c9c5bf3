package section

import "math"

// Block header layout.
const (
	BlockHeaderSize    = 16   // fixed block header size in bytes
	BlockMagic         = 0xB5 // first byte of every compressed block
	BlockFormatVersion = 1    // high nibble of byte 1

	// Flag bits (byte 2)
	BlockFlagShuffle      = 0x01 // chunks were byte-shuffled with TypeSize stride
	BlockFlagMemcpy       = 0x02 // body holds NBytes raw bytes
	BlockFlagChecksum     = 0x04 // an xxHash64 trailer follows the body
	BlockFlagDelta        = 0x08 // payload is forward-differenced int64 ticks
	BlockFlagReservedMask = 0xF0 // must be zero

	ChunkOffsetSize = 4 // one uint32 entry in the chunk offset table
	ChunkLengthSize = 4 // int32 length prefix of each chunk
	ChecksumSize    = 8 // xxHash64 trailer

	// MaxShuffleTypeSize is the largest element size the shuffle filter accepts.
	// Larger elements are stored with TypeSize 0.
	MaxShuffleTypeSize = math.MaxUint8

	// MaxBlockBytes is the largest uncompressed payload a block can describe.
	MaxBlockBytes = math.MaxUint32

	// MaxChunkSize is the largest chunk size; every chunk length fits an int32.
	MaxChunkSize = 64 * 1024 * 1024
)

// Map envelope header layout.
const (
	MapHeaderSize         = 12 // countField + versionField + valuesOffset
	MapCountOffset        = 0
	MapVersionOffset      = 4
	MapValuesOffsetOffset = 8
	MapKeysOffset         = MapHeaderSize // keys block always starts right after the header

	// MaxMapCount is the largest element count or version that fits a header field.
	MaxMapCount = math.MaxInt32
)
