// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package base

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/common/raft"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master/store"
	"github.com/cubefs/graphmeta/util"
)

type echoApplier struct {
	leader uint64
}

func (a *echoApplier) Apply(ctx context.Context, op raft.Op, data []byte, index uint64) (interface{}, error) {
	return string(data), nil
}

func (a *echoApplier) LeaderChange(leader uint64) error {
	a.leader = leader
	return nil
}

func (a *echoApplier) GetCF() []kvstore.CF { return []kvstore.CF{store.CatalogCF} }

func (a *echoApplier) GetModule() string { return "echo" }

func newTestStore(t *testing.T) (*store.Store, func()) {
	path, err := util.GenTmpPath()
	require.NoError(t, err)
	s, err := store.NewStore(context.Background(), &store.Config{Path: path})
	require.NoError(t, err)
	return s, func() {
		s.Close()
		os.RemoveAll(path)
	}
}

func TestNewRaftNode(t *testing.T) {
	ctx := context.Background()
	s, clean := newTestStore(t)
	defer clean()

	_, err := NewRaftNode(ctx, &RaftNodeCfg{}, s)
	require.Error(t, err)

	cfg := &RaftNodeCfg{
		Members:    []raft.Member{{NodeID: 1, Host: "127.0.0.1:9010"}},
		RaftConfig: raft.Config{NodeID: 1},
	}
	r, err := NewRaftNode(ctx, cfg, s)
	require.NoError(t, err)
	require.Equal(t, cfg.Members, r.GetMembers())

	// persisted members win over configured ones
	cfg2 := &RaftNodeCfg{RaftConfig: raft.Config{NodeID: 1}}
	r, err = NewRaftNode(ctx, cfg2, s)
	require.NoError(t, err)
	require.Equal(t, cfg.Members, r.GetMembers())
}

func TestRaftNode_Propose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, clean := newTestStore(t)
	defer clean()

	r, err := NewRaftNode(ctx, &RaftNodeCfg{RaftConfig: raft.Config{NodeID: 1, TickIntervalMS: 10}}, s)
	require.NoError(t, err)

	_, err = r.Propose(ctx, "echo", 1, []byte("x"))
	require.ErrorIs(t, err, apierrors.ErrRaftStopped)

	a := &echoApplier{}
	r.RegisterApplier(a)
	require.Equal(t, []kvstore.CF{store.CatalogCF}, r.GetCFs())
	require.NoError(t, r.Start(ctx))
	defer r.Close()

	ret, err := r.Propose(ctx, "echo", 1, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "hello", ret)
	require.True(t, r.IsLeader())
	require.Equal(t, uint64(1), a.leader)
	require.Greater(t, r.GetApplyID(), uint64(0))
	require.Equal(t, uint64(1), r.Stat().Leader)

	_, err = r.Propose(ctx, "absent", 1, nil)
	require.ErrorIs(t, err, apierrors.ErrUnknownModule)
}
