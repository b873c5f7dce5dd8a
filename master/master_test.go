package master

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cubefs/graphmeta/common/raft"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master/base"
	"github.com/cubefs/graphmeta/master/catalog"
	"github.com/cubefs/graphmeta/master/store"
	"github.com/cubefs/graphmeta/proto"
	"github.com/cubefs/graphmeta/util"
)

func newTestConfig(path string) *Config {
	return &Config{
		StoreConfig: store.Config{Path: path},
		RaftConfig: base.RaftNodeCfg{
			RaftConfig: raft.Config{NodeID: 1, TickIntervalMS: 10},
		},
		CatalogConfig: catalog.DefaultConfig(),
	}
}

func TestMaster_CreateSpace(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	path, err := util.GenTmpPath()
	require.NoError(t, err)
	defer os.RemoveAll(path)

	m, err := NewMaster(ctx, newTestConfig(path))
	require.NoError(t, err)

	args := &proto.CreateSpaceArgs{Properties: proto.SpaceProperties{Name: "graph", PartitionNum: 3, ReplicaFactor: 2}}
	_, err = m.CreateSpace(ctx, args)
	require.ErrorIs(t, err, apierrors.ErrNoHosts)

	for _, addr := range []string{"10.0.0.2:9779", "10.0.0.0:9779", "10.0.0.1:9779"} {
		require.NoError(t, m.HandleHeartbeat(ctx, addr))
	}
	require.Equal(t, []string{"10.0.0.0:9779", "10.0.0.1:9779", "10.0.0.2:9779"}, m.ActiveHosts(ctx))

	sid, err := m.CreateSpace(ctx, args)
	require.NoError(t, err)
	require.Equal(t, proto.SpaceID(1), sid)

	parts, err := m.GetParts(ctx, sid)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	require.Equal(t, []proto.HostAddr{"10.0.0.1:9779", "10.0.0.2:9779"}, parts[0].Hosts)
	require.Equal(t, uint64(1), m.RaftStat().Leader)
	m.Close()

	// state survives a restart, ids keep increasing
	m, err = NewMaster(ctx, newTestConfig(path))
	require.NoError(t, err)
	defer m.Close()

	meta, err := m.GetSpaceByName(ctx, "graph")
	require.NoError(t, err)
	require.Equal(t, sid, meta.ID)
	require.Len(t, m.ListHosts(ctx), 3)

	args.Properties.Name = "graph2"
	sid2, err := m.CreateSpace(ctx, args)
	require.NoError(t, err)
	require.Greater(t, sid2, sid)
}
