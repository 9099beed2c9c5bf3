package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopyToNew(t *testing.T) {
	buf := []byte{1, 2, 3, 4}

	owned, err := CopyToNew(buf, 3, true)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, owned)
	require.Same(t, &buf[0], &owned[0])
	require.Equal(t, 3, cap(owned))

	copied, err := CopyToNew(buf, 3, false)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, copied)
	require.NotSame(t, &buf[0], &copied[0])
}

func TestShare(t *testing.T) {
	buf := []byte{9, 8, 7}

	out, err := Share(buf, 2, false)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8}, out)
	require.Same(t, &buf[0], &out[0])
}

func TestAppendTo(t *testing.T) {
	prefix := []byte("hdr:")

	out, err := AppendTo(prefix)([]byte("payload-extra"), 7, false)
	require.NoError(t, err)
	require.Equal(t, "hdr:payload", string(out))
}
