package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cubefs/graphmeta/proto"
)

func TestPickHosts(t *testing.T) {
	hosts := []proto.HostAddr{"h0", "h1", "h2"}

	require.Equal(t, []proto.HostAddr{"h1", "h2"}, pickHosts(1, 2, hosts))
	require.Equal(t, []proto.HostAddr{"h2", "h0"}, pickHosts(2, 2, hosts))
	require.Equal(t, []proto.HostAddr{"h0", "h1"}, pickHosts(3, 2, hosts))
	require.Equal(t, []proto.HostAddr{"h1", "h2", "h0"}, pickHosts(4, 3, hosts))
	require.Equal(t, pickHosts(7, 3, hosts), pickHosts(7, 3, hosts))

	require.Empty(t, pickHosts(1, 2, nil))
	require.NotNil(t, pickHosts(1, 2, nil))

	// replicas of one partition are distinct and partitions rotate over all hosts
	hosts = []proto.HostAddr{"h0", "h1", "h2", "h3", "h4"}
	leaders := make(map[proto.HostAddr]int)
	for p := proto.PartID(1); p <= 100; p++ {
		picked := pickHosts(p, 3, hosts)
		seen := make(map[proto.HostAddr]struct{})
		for _, h := range picked {
			seen[h] = struct{}{}
		}
		require.Len(t, seen, 3)
		leaders[picked[0]]++
	}
	for _, h := range hosts {
		require.Equal(t, 20, leaders[h])
	}
}
