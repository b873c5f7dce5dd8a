package catalog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeysGenerator(t *testing.T) {
	k := &keysGenerator{}

	require.Equal(t, []byte("i/graph"), k.encodeIndexKey("graph"))

	spaceKey := k.encodeSpaceKey(0x0102)
	require.Equal(t, []byte{'c', '/', 0, 0, 0, 0, 0, 0, 1, 2}, spaceKey)
	require.Equal(t, uint64(0x0102), k.decodeSpaceKey(spaceKey))
	require.True(t, bytes.HasPrefix(spaceKey, k.encodeSpaceKeyPrefix()))

	partKey := k.encodePartKey(1, 3)
	require.Equal(t, []byte{'p', '/', 0, 0, 0, 0, 0, 0, 0, 1, '/', 0, 0, 0, 3}, partKey)
	require.Equal(t, uint32(3), k.decodePartKey(partKey))
	require.True(t, bytes.HasPrefix(partKey, k.encodePartKeyPrefix(1)))
	require.False(t, bytes.HasPrefix(partKey, k.encodePartKeyPrefix(2)))

	// partitions of a space list in ordinal order
	require.Equal(t, -1, bytes.Compare(k.encodePartKey(1, 2), k.encodePartKey(1, 10)))
}
