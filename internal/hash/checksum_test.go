package hash

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum64(t *testing.T) {
	tests := []struct {
		name string
		data string
		sum  uint64
	}{
		{"empty input", "", 0xef46db3751d8e999},
		{"short input", "test", 0x4fdcca5ddb678139},
		{"long input", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
		{"another input", "another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sum, Checksum64([]byte(tt.data)))
			assert.Equal(t, xxhash.Sum64String(tt.data), Checksum64([]byte(tt.data)))
		})
	}
}

func TestDigest(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := Digest([]byte("keys block"))
		b := Digest([]byte("keys block"))
		require.Equal(t, a, b)
	})

	t.Run("differs on single byte change", func(t *testing.T) {
		a := Digest([]byte{1, 2, 3, 4})
		b := Digest([]byte{1, 2, 3, 5})
		require.NotEqual(t, a, b)
	})

	t.Run("empty input has non-zero digest", func(t *testing.T) {
		d := Digest(nil)
		require.NotEqual(t, [DigestSize]byte{}, d)
	})
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	seededRand.Read(b)

	return b
}

func BenchmarkChecksum64(b *testing.B) {
	data := randBytes(64 * 1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for b.Loop() {
		Checksum64(data)
	}
}

func BenchmarkDigest(b *testing.B) {
	data := randBytes(64 * 1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for b.Loop() {
		Digest(data)
	}
}
