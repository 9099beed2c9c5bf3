package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	require := require.New(t)

	result := CheckEndianness()

	var testValue uint16 = 0x0102
	testBytes := (*[2]byte)(unsafe.Pointer(&testValue))

	switch testBytes[0] {
	case 0x01:
		require.Equal(binary.BigEndian, result, "CheckEndianness() should return BigEndian")
	case 0x02:
		require.Equal(binary.LittleEndian, result, "CheckEndianness() should return LittleEndian")
	default:
		require.Failf("Unexpected byte value", "got: %v", testBytes[0])
	}
}

func TestCheckEndiannessConsistency(t *testing.T) {
	first := CheckEndianness()
	for i := range 100 {
		result := CheckEndianness()
		if result != first {
			t.Errorf("CheckEndianness() returned inconsistent results: first=%v, iteration %d=%v", first, i, result)
		}
	}
}

func TestIsNativeEndiannessInverse(t *testing.T) {
	require.NotEqual(t, IsNativeLittleEndian(), IsNativeBigEndian())
}

func TestWire(t *testing.T) {
	engine := Wire()
	require.Equal(t, binary.LittleEndian, engine)

	buf := engine.AppendUint32(nil, 0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
	require.Equal(t, uint32(0x01020304), engine.Uint32(buf))
}

func TestNativeIsWire(t *testing.T) {
	require.Equal(t, IsNativeLittleEndian(), NativeIsWire())

	if !NativeIsWire() {
		t.Skip("host is big-endian")
	}

	value := uint64(0x0102030405060708)
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&value)), 8)
	require.Equal(t, value, Wire().Uint64(raw))
}
