// Copyright 2022 The CubeFS Authors.
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

package idgenerator

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/common/raft"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master/base"
	"github.com/cubefs/graphmeta/master/store"
	"github.com/cubefs/graphmeta/util"
)

type testProposer struct {
	sm    base.Applier
	index uint64
	err   error
}

func (p *testProposer) Propose(ctx context.Context, module string, op raft.Op, data []byte) (interface{}, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.sm.Apply(ctx, op, data, atomic.AddUint64(&p.index, 1))
}

func (p *testProposer) IsLeader() bool { return true }

func newTestGenerator(t *testing.T, s *store.Store) (*idGenerator, *testProposer) {
	p := &testProposer{}
	g, err := NewIDGenerator(context.Background(), s, p)
	require.NoError(t, err)
	p.sm = g.GetSM()
	return g.(*idGenerator), p
}

func newTestStore(t *testing.T) (*store.Store, string) {
	path, err := util.GenTmpPath()
	require.NoError(t, err)
	s, err := store.NewStore(context.Background(), &store.Config{Path: path})
	require.NoError(t, err)
	return s, path
}

func TestIDGenerator_Alloc(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	defer os.RemoveAll(path)

	g, _ := newTestGenerator(t, s)
	require.Equal(t, module, g.GetModule())
	require.Equal(t, []kvstore.CF{store.IDCF}, g.GetCF())

	_, _, err := g.Alloc(ctx, "inode", 0)
	require.ErrorIs(t, err, apierrors.ErrInvalidCount)
	_, _, err = g.Alloc(ctx, "inode", MaxCount+1)
	require.ErrorIs(t, err, apierrors.ErrInvalidCount)

	base, new, err := g.Alloc(ctx, "inode", 10)
	require.NoError(t, err)
	require.Equal(t, uint64(0), base)
	require.Equal(t, uint64(10), new)

	base, new, err = g.Alloc(ctx, "inode", 5)
	require.NoError(t, err)
	require.Equal(t, uint64(10), base)
	require.Equal(t, uint64(15), new)

	var last uint64
	for i := 0; i < 5; i++ {
		id, err := g.AllocSpaceID(ctx)
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}
	require.Equal(t, uint64(5), g.current(SpaceScope))
	require.Equal(t, uint64(15), g.current("inode"))

	// counters survive a restart
	s.Close()
	s, err = store.NewStore(ctx, &store.Config{Path: path})
	require.NoError(t, err)
	defer s.Close()

	g, _ = newTestGenerator(t, s)
	require.Equal(t, uint64(5), g.current(SpaceScope))
	id, err := g.AllocSpaceID(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(6), id)
	persisted, err := g.storage.Get(ctx, SpaceScope)
	require.NoError(t, err)
	require.Equal(t, uint64(6), persisted)
}

func TestIDGenerator_ConcurrentAlloc(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	defer os.RemoveAll(path)
	defer s.Close()

	g, _ := newTestGenerator(t, s)

	var (
		ids  sync.Map
		eg   errgroup.Group
		dupl int32
	)
	for i := 0; i < 50; i++ {
		eg.Go(func() error {
			id, err := g.AllocSpaceID(ctx)
			if err != nil {
				return err
			}
			if _, loaded := ids.LoadOrStore(id, struct{}{}); loaded {
				atomic.AddInt32(&dupl, 1)
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	require.Equal(t, int32(0), dupl)
	require.Equal(t, uint64(50), g.current(SpaceScope))
}

func TestIDGenerator_AllocFailed(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	defer os.RemoveAll(path)
	defer s.Close()

	g, p := newTestGenerator(t, s)
	p.err = errors.New("store unreachable")

	_, err := g.AllocSpaceID(ctx)
	require.ErrorIs(t, err, apierrors.ErrAllocationFailed)
	require.Equal(t, uint64(0), g.current(SpaceScope))

	_, err = g.Apply(ctx, raft.Op(100), nil, 1)
	require.Error(t, err)
}
