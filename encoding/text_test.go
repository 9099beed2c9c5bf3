package encoding

import (
	"strings"
	"testing"

	"github.com/arloliu/sermap/errs"
	"github.com/stretchr/testify/require"
)

func TestTextEncoder_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
	}{
		{"empty column", []string{}},
		{"single empty string", []string{""}},
		{"ascii", []string{"cpu.usage", "mem.free", "disk.io"}},
		{"utf8", []string{"溫度", "température", "🙂"}},
		{"long", []string{strings.Repeat("x", 300), strings.Repeat("y", 70_000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewTextEncoder()
			defer enc.Release()

			enc.WriteSlice(tt.texts)
			require.Equal(t, len(tt.texts), enc.Len())

			data := enc.Finish(nil)
			got, err := DecodeText(data)
			require.NoError(t, err)
			require.Equal(t, tt.texts, got)
		})
	}
}

func TestTextEncoder_WriteMatchesWriteSlice(t *testing.T) {
	texts := []string{"a", "bb", "", "cccc"}

	one := NewTextEncoder()
	defer one.Release()
	for _, s := range texts {
		one.Write(s)
	}

	many := NewTextEncoder()
	defer many.Release()
	many.WriteSlice(texts)

	require.Equal(t, one.Finish(nil), many.Finish(nil))
}

func TestTextEncoder_FinishAppends(t *testing.T) {
	enc := NewTextEncoder()
	defer enc.Release()
	enc.Write("v")

	out := enc.Finish([]byte{0xEE})
	require.Equal(t, []byte{0xEE, 1, 1, 'v'}, out)
}

func TestDecodeText_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"count larger than data", []byte{5, 0}},
		{"string length past end", []byte{1, 10, 'a'}},
		{"unterminated varint", []byte{0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeText(tt.data)
			require.ErrorIs(t, err, errs.ErrCorruptEnvelope)
		})
	}
}

func TestTextDecoder_EarlyStop(t *testing.T) {
	enc := NewTextEncoder()
	defer enc.Release()
	enc.WriteSlice([]string{"a", "b", "c"})

	dec, err := NewTextDecoder(enc.Finish(nil))
	require.NoError(t, err)

	var first string
	for s := range dec.All(&err) {
		first = s
		break
	}
	require.NoError(t, err)
	require.Equal(t, "a", first)
}
