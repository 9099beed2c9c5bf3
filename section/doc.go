// Package section defines the fixed binary headers of sermap wire formats.
//
// Two headers exist: the 16-byte BlockHeader at the start of every compressed
// block, and the 12-byte MapHeader at the start of every sorted-map envelope.
// All multi-byte fields are little-endian regardless of host byte order.
//
// # Block Header Format
//
// BlockHeader (16 bytes):
//
//	Bytes  | Field     | Type   | Description
//	-------|-----------|--------|------------------------------------------
//	0      | Magic     | uint8  | 0xB5
//	1      | Version   | uint8  | bits 4-7: format version (1)
//	       | Method    |        | bits 0-3: format.CompressionType
//	2      | Flags     | uint8  | bit 0 shuffle, bit 1 memcpy, bit 2 checksum,
//	       |           |        | bit 3 delta, bits 4-7 reserved (0)
//	3      | TypeSize  | uint8  | element size, 0 when larger than 255
//	4-7    | NBytes    | uint32 | uncompressed payload size
//	8-11   | BlockSize | uint32 | chunk size used when compressing
//	12-15  | CBytes    | uint32 | total block size incl. header and trailer
//
// The body of a memcpy block is NBytes raw bytes. Otherwise it starts with a
// chunk offset table (one uint32 per chunk, offsets from block start) followed by
// the chunks, each an int32 length and a payload. A negative length marks a
// chunk stored raw. With the checksum flag an 8-byte xxHash64 of the
// uncompressed payload closes the block.
//
// # Map Header Format
//
// MapHeader (12 bytes):
//
//	Bytes  | Field        | Type  | Description
//	-------|--------------|-------|-------------------------------------------
//	0-3    | countField   | int32 | |count| elements, negative if keys are regular
//	4-7    | versionField | int32 | |version|, negative if the map is read-only
//	8-11   | valuesOffset | int32 | 12 + len(keys block)
//
// The keys block starts at offset 12 and the values block at valuesOffset.
//
// # Thread Safety
//
// All types in this package are plain value types and are safe for concurrent
// use as long as they are not mutated concurrently.
package section
