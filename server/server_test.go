package server

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cubefs/graphmeta/common/raft"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master"
	"github.com/cubefs/graphmeta/master/base"
	"github.com/cubefs/graphmeta/master/catalog"
	"github.com/cubefs/graphmeta/master/store"
	"github.com/cubefs/graphmeta/proto"
	"github.com/cubefs/graphmeta/util"
)

func newTestServer(t *testing.T) (*Server, func()) {
	path, err := util.GenTmpPath()
	require.NoError(t, err)

	s, err := NewServer(context.Background(), &Config{Config: master.Config{
		StoreConfig: store.Config{Path: path},
		RaftConfig: base.RaftNodeCfg{
			RaftConfig: raft.Config{NodeID: 1, TickIntervalMS: 10},
		},
		CatalogConfig: catalog.DefaultConfig(),
	}})
	require.NoError(t, err)
	return s, func() {
		s.Close()
		os.RemoveAll(path)
	}
}

func TestServer_GetSpace(t *testing.T) {
	s, clean := newTestServer(t)
	defer clean()
	ctx := context.Background()

	_, err := s.getSpace(ctx, &proto.GetSpaceArgs{})
	require.ErrorIs(t, err, apierrors.ErrInvalidArgument)
	_, err = s.getSpace(ctx, &proto.GetSpaceArgs{Name: "graph"})
	require.ErrorIs(t, err, apierrors.ErrSpaceNotFound)

	require.NoError(t, s.master.HandleHeartbeat(ctx, "127.0.0.1:9779"))
	ret, err := s.createSpace(ctx, &proto.CreateSpaceArgs{Properties: proto.SpaceProperties{Name: "graph", PartitionNum: 1}})
	require.NoError(t, err)
	require.Equal(t, apierrors.CodeSucceeded, ret.Code)

	byName, err := s.getSpace(ctx, &proto.GetSpaceArgs{Name: "graph"})
	require.NoError(t, err)
	byID, err := s.getSpace(ctx, &proto.GetSpaceArgs{ID: ret.SpaceID})
	require.NoError(t, err)
	require.Equal(t, byName, byID)

	ret, err = s.createSpace(ctx, &proto.CreateSpaceArgs{Properties: proto.SpaceProperties{Name: "graph"}})
	require.ErrorIs(t, err, apierrors.ErrSpaceExisted)
	require.Equal(t, apierrors.CodeExisted, ret.Code)
	require.Equal(t, byID.ID, ret.SpaceID)
	require.NotEmpty(t, ret.Msg)
}

func TestServer_GetCharset(t *testing.T) {
	s := &Server{}

	info, err := s.getCharset(&proto.CharsetArgs{Charset: "utf8"})
	require.NoError(t, err)
	require.Equal(t, &proto.CharsetInfo{Charset: "utf8", Collate: "utf8_bin"}, info)

	info, err = s.getCharset(&proto.CharsetArgs{Collate: "utf8_bin"})
	require.NoError(t, err)
	require.Equal(t, "utf8", info.Charset)

	_, err = s.getCharset(&proto.CharsetArgs{Charset: "gbk"})
	require.ErrorIs(t, err, apierrors.ErrInvalidCharset)
	_, err = s.getCharset(&proto.CharsetArgs{Collate: "gbk_bin"})
	require.ErrorIs(t, err, apierrors.ErrInvalidCollate)
	_, err = s.getCharset(&proto.CharsetArgs{})
	require.ErrorIs(t, err, apierrors.ErrInvalidArgument)
}
