package section

import (
	"encoding/binary"
	"testing"

	"github.com/arloliu/sermap/errs"
	"github.com/stretchr/testify/require"
)

func TestMapHeader_FlagIndependence(t *testing.T) {
	tests := []struct {
		name     string
		regular  bool
		readOnly bool
	}{
		{"mutable irregular", false, false},
		{"mutable regular", true, false},
		{"read-only irregular", false, true},
		{"read-only regular", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewMapHeader(5, 7, tt.regular, tt.readOnly, 20)
			require.NoError(t, err)

			envelope := make([]byte, MapHeaderSize+20+30)
			h.Put(envelope)

			parsed, err := ParseMapHeader(envelope)
			require.NoError(t, err)
			require.Equal(t, h, parsed)
			require.Equal(t, 5, parsed.Count)
			require.Equal(t, int64(7), parsed.Version)
			require.Equal(t, tt.regular, parsed.Regular)
			require.Equal(t, tt.readOnly, parsed.ReadOnly)
			require.Len(t, parsed.KeysBlock(envelope), 20)
			require.Len(t, parsed.ValuesBlock(envelope), 30)
		})
	}
}

func TestMapHeader_WireLayout(t *testing.T) {
	h, err := NewMapHeader(5, 3, true, true, 40)
	require.NoError(t, err)

	b := h.Bytes()
	require.Equal(t, int32(-5), int32(binary.LittleEndian.Uint32(b[0:4])))
	require.Equal(t, int32(-3), int32(binary.LittleEndian.Uint32(b[4:8])))
	require.Equal(t, int32(52), int32(binary.LittleEndian.Uint32(b[8:12])))
}

func TestNewMapHeader_Errors(t *testing.T) {
	_, err := NewMapHeader(0, 1, false, false, 0)
	require.ErrorIs(t, err, errs.ErrInvalidParams)

	_, err = NewMapHeader(MaxMapCount+1, 1, false, false, 0)
	require.ErrorIs(t, err, errs.ErrHeaderOverflow)

	_, err = NewMapHeader(1, MaxMapCount+1, false, false, 0)
	require.ErrorIs(t, err, errs.ErrHeaderOverflow)

	_, err = NewMapHeader(1, -1, false, false, 0)
	require.ErrorIs(t, err, errs.ErrHeaderOverflow)

	_, err = NewMapHeader(1, 0, false, true, 0)
	require.ErrorIs(t, err, errs.ErrInvalidParams)

	_, err = NewMapHeader(1, 0, false, false, MaxMapCount)
	require.ErrorIs(t, err, errs.ErrHeaderOverflow)
}

func TestParseMapHeader_Corrupt(t *testing.T) {
	put := func(count, version, offset int32, total int) []byte {
		b := make([]byte, total)
		binary.LittleEndian.PutUint32(b[0:], uint32(count))
		binary.LittleEndian.PutUint32(b[4:], uint32(version))
		binary.LittleEndian.PutUint32(b[8:], uint32(offset))

		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{1, 2, 3}},
		{"zero count", put(0, 1, 12, 20)},
		{"min int count", put(-2147483648, 1, 12, 20)},
		{"min int version", put(3, -2147483648, 12, 20)},
		{"offset inside header", put(3, 1, 8, 20)},
		{"offset past end", put(3, 1, 21, 20)},
		{"negative offset", put(3, 1, -12, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMapHeader(tt.data)
			require.ErrorIs(t, err, errs.ErrCorruptEnvelope)
		})
	}
}
