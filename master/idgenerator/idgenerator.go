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
	"encoding/json"
	"sync"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/errors"

	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master/base"
	"github.com/cubefs/graphmeta/master/store"
)

const (
	MaxCount = 1000000

	SpaceScope = "space"
)

type IDGenerator interface {
	// Alloc reserves count ids in scope, the reserved range is (base, new].
	Alloc(ctx context.Context, name string, count int) (base, new uint64, err error)
	AllocSpaceID(ctx context.Context) (uint64, error)
	GetSM() base.Applier
}

type idGenerator struct {
	scopeItems map[string]uint64
	proposer   base.Proposer

	storage *storage
	lock    sync.RWMutex
}

func NewIDGenerator(ctx context.Context, store *store.Store, proposer base.Proposer) (IDGenerator, error) {
	s := &idGenerator{
		storage:  &storage{kvStore: store.KVStore()},
		proposer: proposer,
	}
	if err := s.LoadData(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *idGenerator) GetSM() base.Applier {
	return s
}

func (s *idGenerator) Alloc(ctx context.Context, name string, count int) (base, new uint64, err error) {
	span := trace.SpanFromContextSafe(ctx)
	if count <= 0 || count > MaxCount {
		return 0, 0, apierrors.ErrInvalidCount
	}

	data, err := json.Marshal(&allocArgs{Name: name, Count: count})
	if err != nil {
		return
	}

	ret, err := s.proposer.Propose(ctx, module, RaftOpAlloc, data)
	if err != nil {
		span.Errorf("propose failed, name %s, err %v", name, err)
		return
	}

	new = ret.(uint64)
	base = new - uint64(count)
	span.Debugf("alloc success, name %s, base %d, new %d", name, base, new)
	return
}

// AllocSpaceID returns an id greater than every space id handed out before.
func (s *idGenerator) AllocSpaceID(ctx context.Context) (uint64, error) {
	_, id, err := s.Alloc(ctx, SpaceScope, 1)
	if err != nil {
		trace.SpanFromContextSafe(ctx).Errorf("alloc space id failed: %s", errors.Detail(err))
		return 0, apierrors.ErrAllocationFailed
	}
	return id, nil
}

func (s *idGenerator) current(name string) uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.scopeItems[name]
}

type allocArgs struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
