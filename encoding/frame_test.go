package encoding

import (
	"testing"

	"github.com/arloliu/sermap/errs"
	"github.com/stretchr/testify/require"
)

func TestFrames_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		frames [][]byte
	}{
		{"no frames", [][]byte{}},
		{"empty frame", [][]byte{{}}},
		{"mixed", [][]byte{{1, 2, 3}, {}, make([]byte, 200)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := AppendFrameCount(nil, len(tt.frames))
			for _, f := range tt.frames {
				data = AppendFrame(data, f)
			}

			got, err := DecodeFrames(data)
			require.NoError(t, err)
			require.Len(t, got, len(tt.frames))
			for i := range got {
				require.Equal(t, len(tt.frames[i]), len(got[i]))
				require.Equal(t, string(tt.frames[i]), string(got[i]))
			}
		})
	}
}

func TestDecodeFrames_Corrupt(t *testing.T) {
	valid := AppendFrame(AppendFrameCount(nil, 1), []byte("abc"))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"count too large", AppendFrameCount(nil, 10)},
		{"truncated frame", valid[:len(valid)-1]},
		{"trailing bytes", append(append([]byte{}, valid...), 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrames(tt.data)
			require.ErrorIs(t, err, errs.ErrCorruptEnvelope)
		})
	}
}
