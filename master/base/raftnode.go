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
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/common/raft"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master/store"
)

var raftMemberKey = []byte("#raft_members")

type RaftMembers struct {
	Mbs []raft.Member `json:"members"`
}

type RaftNodeCfg struct {
	Members    []raft.Member `json:"members"`
	RaftConfig raft.Config   `json:"raft_config"`
}

// RaftNode dispatches committed proposals to the registered module appliers.
type RaftNode struct {
	sms          map[string]Applier
	store        *store.Store
	appliedIndex uint64
	leader       uint64
	members      []raft.Member
	raftGroup    raft.Group
	cfg          *RaftNodeCfg
	lock         sync.RWMutex
}

func NewRaftNode(ctx context.Context, cfg *RaftNodeCfg, kv *store.Store) (*RaftNode, error) {
	span := trace.SpanFromContextSafe(ctx)

	if cfg.RaftConfig.NodeID == 0 {
		return nil, errors.New("node id can't be zero")
	}

	r := &RaftNode{
		sms:   make(map[string]Applier),
		store: kv,
		cfg:   cfg,
	}
	if err := r.initMembers(ctx); err != nil {
		return nil, err
	}

	span.Infof("new raft node success, members: %+v", r.members)
	return r, nil
}

// RegisterApplier must be called for every module before Start.
func (r *RaftNode) RegisterApplier(applier Applier) {
	r.lock.Lock()
	r.sms[applier.GetModule()] = applier
	r.lock.Unlock()
}

// Start creates the raft group. Proposals block until the group has a leader.
func (r *RaftNode) Start(ctx context.Context) error {
	span := trace.SpanFromContextSafe(ctx)

	cfg := r.cfg.RaftConfig
	cfg.Members = r.members
	cfg.SM = r
	group, err := raft.NewRaftGroup(ctx, &cfg)
	if err != nil {
		return err
	}
	r.raftGroup = group

	span.Infof("raft node started, node[%d]", cfg.NodeID)
	return nil
}

func (r *RaftNode) Propose(ctx context.Context, module string, op raft.Op, data []byte) (interface{}, error) {
	if r.raftGroup == nil {
		return nil, apierrors.ErrRaftStopped
	}
	resp, err := r.raftGroup.Propose(ctx, &raft.ProposeRequest{Module: module, Op: op, Data: data})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (r *RaftNode) IsLeader() bool {
	return atomic.LoadUint64(&r.leader) == r.cfg.RaftConfig.NodeID
}

func (r *RaftNode) Stat() *raft.Stat {
	if r.raftGroup == nil {
		return &raft.Stat{Id: r.cfg.RaftConfig.NodeID}
	}
	return r.raftGroup.Stat()
}

func (r *RaftNode) GetApplyID() uint64 {
	return atomic.LoadUint64(&r.appliedIndex)
}

func (r *RaftNode) GetMembers() []raft.Member {
	return append([]raft.Member(nil), r.members...)
}

// GetCFs returns the column families written by the registered modules.
func (r *RaftNode) GetCFs() []kvstore.CF {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var cfs []kvstore.CF
	for _, sm := range r.sms {
		cfs = append(cfs, sm.GetCF()...)
	}
	sort.Slice(cfs, func(i, j int) bool { return cfs[i] < cfs[j] })
	return cfs
}

func (r *RaftNode) Close() {
	if r.raftGroup != nil {
		r.raftGroup.Close()
	}
}

func (r *RaftNode) Apply(ctx context.Context, module string, op raft.Op, data []byte, index uint64) (interface{}, error) {
	span := trace.SpanFromContextSafe(ctx)

	r.lock.RLock()
	sm := r.sms[module]
	r.lock.RUnlock()
	if sm == nil {
		span.Errorf("target module not exist, module %s", module)
		return nil, apierrors.ErrUnknownModule
	}

	ret, err := sm.Apply(ctx, op, data, index)
	if err != nil {
		span.Errorf("apply module %s op %d error: %s", module, op, err)
		return nil, err
	}
	atomic.StoreUint64(&r.appliedIndex, index)
	span.Debugf("apply module %s op %d success, applyIdx %d", module, op, index)
	return ret, nil
}

func (r *RaftNode) LeaderChange(leader uint64) error {
	span, _ := trace.StartSpanFromContext(context.Background(), "")
	span.Infof("leader change signal, local %d, leader %d", r.cfg.RaftConfig.NodeID, leader)
	atomic.StoreUint64(&r.leader, leader)

	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, sm := range r.sms {
		if err := sm.LeaderChange(leader); err != nil {
			return err
		}
	}
	return nil
}

// initMembers prefers the persisted member list over the configured one.
func (r *RaftNode) initMembers(ctx context.Context) error {
	members, err := r.loadRaftMembers(ctx)
	if err != nil {
		return err
	}
	if len(members) > 0 {
		r.members = members
		return nil
	}

	members = r.cfg.Members
	if len(members) == 0 {
		members = []raft.Member{{NodeID: r.cfg.RaftConfig.NodeID}}
	}
	if err = r.persistMembers(ctx, members); err != nil {
		return err
	}
	r.members = members
	return nil
}

func (r *RaftNode) loadRaftMembers(ctx context.Context) ([]raft.Member, error) {
	val, err := r.store.KVStore().GetRaw(ctx, store.LocalCF, raftMemberKey)
	if err == kvstore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	mbrs := &RaftMembers{}
	if err = json.Unmarshal(val, mbrs); err != nil {
		return nil, err
	}
	return mbrs.Mbs, nil
}

func (r *RaftNode) persistMembers(ctx context.Context, members []raft.Member) error {
	val, err := json.Marshal(&RaftMembers{Mbs: members})
	if err != nil {
		return err
	}
	return r.store.KVStore().SetRaw(ctx, store.LocalCF, raftMemberKey, val, nil)
}
