// Package endian provides the byte order used by sermap wire formats.
//
// Every header and every fixed-layout element written by sermap is little-endian.
// Raw memory of blittable values can therefore be handed to the block compressor
// directly only when the host is little-endian as well; on big-endian hosts the
// codecs take the field-by-field path, which produces the same bytes.
//
// # Basic Usage
//
//	engine := endian.Wire()
//	buf = engine.AppendUint32(buf, uint32(count))
//
//	if endian.NativeIsWire() {
//	    // safe to reinterpret element memory as wire bytes
//	}
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"sync"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var (
	nativeOnce  sync.Once
	nativeOrder binary.ByteOrder
)

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	nativeOnce.Do(func() {
		// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
		var i uint16 = 0x0100
		b := (*[2]byte)(unsafe.Pointer(&i))

		if b[0] == 0x01 {
			nativeOrder = binary.BigEndian
		} else {
			nativeOrder = binary.LittleEndian
		}
	})

	return nativeOrder
}

func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// Wire returns the engine for the sermap wire byte order (little-endian).
func Wire() EndianEngine {
	return binary.LittleEndian
}

// NativeIsWire reports whether in-memory integers already have wire byte order,
// which makes zero-copy views of element memory valid wire data.
func NativeIsWire() bool {
	return IsNativeLittleEndian()
}
