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

package raft

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/google/uuid"
	"go.etcd.io/etcd/raft/v3"
	"go.etcd.io/etcd/raft/v3/raftpb"

	apierrors "github.com/cubefs/graphmeta/errors"
)

const (
	defaultTickIntervalMS = 100
	defaultElectionTick   = 10
	defaultHeartbeatTick  = 1
	defaultMaxSizePerMsg  = 1 << 20
	defaultMaxInflightMsg = 256
)

type (
	Op uint32

	// The StateMachine interface is supplied by the application to apply committed proposals.
	StateMachine interface {
		Apply(ctx context.Context, module string, op Op, data []byte, index uint64) (result interface{}, err error)
		LeaderChange(leader uint64) error
	}
	// Transport delivers raft messages to the other members of the group.
	Transport interface {
		Send(ctx context.Context, msgs []raftpb.Message)
	}
	Group interface {
		Propose(ctx context.Context, req *ProposeRequest) (*ProposeResponse, error)
		Step(ctx context.Context, msg raftpb.Message) error
		Stat() *Stat
		Close()
	}

	Stat struct {
		Id             uint64   `json:"nodeId"`
		Term           uint64   `json:"term"`
		Vote           uint64   `json:"vote"`
		Commit         uint64   `json:"commit"`
		Leader         uint64   `json:"leader"`
		RaftState      string   `json:"raftState"`
		Applied        uint64   `json:"applied"`
		LeadTransferee uint64   `json:"transferee"`
		Peers          []uint64 `json:"peers"`
	}
	Member struct {
		NodeID uint64 `json:"node_id"`
		Host   string `json:"host"`
	}
	ProposeRequest struct {
		Module string `json:"module"`
		Op     Op     `json:"op"`
		Data   []byte `json:"data"`

		ReqId   string `json:"req_id"`
		RespKey string `json:"resp_key"`
	}
	ProposeResponse struct {
		Data interface{}
	}

	Config struct {
		NodeID         uint64   `json:"node_id"`
		Members        []Member `json:"members"`
		TickIntervalMS int      `json:"tick_interval_ms"`
		ElectionTick   int      `json:"election_tick"`
		HeartbeatTick  int      `json:"heartbeat_tick"`

		SM        StateMachine `json:"-"`
		Transport Transport    `json:"-"`
	}

	proposalResult struct {
		reply interface{}
		err   error
	}
)

func (req *ProposeRequest) Marshal() ([]byte, error) {
	return json.Marshal(req)
}

func (req *ProposeRequest) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, req)
}

type group struct {
	nodeID       uint64
	appliedIndex uint64
	leader       uint64

	node      raft.Node
	storage   *raft.MemoryStorage
	sm        StateMachine
	transport Transport
	cfg       *Config

	notifies    sync.Map
	leaderReady chan struct{}
	readyOnce   sync.Once
	closeOnce   sync.Once
	done        chan struct{}
	stopped     chan struct{}
}

// NewRaftGroup starts a raft group whose committed proposals are applied to cfg.SM.
// A group with a single member elects itself at once.
func NewRaftGroup(ctx context.Context, cfg *Config) (Group, error) {
	span := trace.SpanFromContextSafe(ctx)

	if cfg.NodeID == 0 {
		return nil, errors.New("raft node id can't be zero")
	}
	if cfg.SM == nil {
		return nil, errors.New("raft state machine can't be nil")
	}
	if len(cfg.Members) == 0 {
		cfg.Members = []Member{{NodeID: cfg.NodeID}}
	}
	if len(cfg.Members) > 1 && cfg.Transport == nil {
		return nil, errors.New("raft transport is required for multiple members")
	}
	if cfg.TickIntervalMS <= 0 {
		cfg.TickIntervalMS = defaultTickIntervalMS
	}
	if cfg.ElectionTick <= 0 {
		cfg.ElectionTick = defaultElectionTick
	}
	if cfg.HeartbeatTick <= 0 {
		cfg.HeartbeatTick = defaultHeartbeatTick
	}

	storage := raft.NewMemoryStorage()
	peers := make([]raft.Peer, 0, len(cfg.Members))
	for _, m := range cfg.Members {
		peers = append(peers, raft.Peer{ID: m.NodeID, Context: []byte(m.Host)})
	}
	node := raft.StartNode(&raft.Config{
		ID:              cfg.NodeID,
		ElectionTick:    cfg.ElectionTick,
		HeartbeatTick:   cfg.HeartbeatTick,
		Storage:         storage,
		MaxSizePerMsg:   defaultMaxSizePerMsg,
		MaxInflightMsgs: defaultMaxInflightMsg,
		Logger:          raftLogger{},
	}, peers)

	g := &group{
		nodeID:      cfg.NodeID,
		node:        node,
		storage:     storage,
		sm:          cfg.SM,
		transport:   cfg.Transport,
		cfg:         cfg,
		leaderReady: make(chan struct{}),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go g.run()

	if len(cfg.Members) == 1 {
		if err := node.Campaign(ctx); err != nil {
			g.Close()
			return nil, err
		}
	}

	span.Infof("raft group started, node[%d], members: %+v", cfg.NodeID, cfg.Members)
	return g, nil
}

// Propose replicates req and waits for the local state machine to apply it.
func (g *group) Propose(ctx context.Context, req *ProposeRequest) (*ProposeResponse, error) {
	span := trace.SpanFromContextSafe(ctx)
	req.ReqId = span.TraceID()
	req.RespKey = uuid.NewString()

	data, err := req.Marshal()
	if err != nil {
		return nil, err
	}
	if err = g.waitLeader(ctx); err != nil {
		return nil, err
	}

	notify := make(chan proposalResult, 1)
	g.notifies.Store(req.RespKey, notify)
	defer g.notifies.Delete(req.RespKey)

	if err = g.node.Propose(ctx, data); err != nil {
		span.Warnf("propose module[%s] op[%d] failed: %s", req.Module, req.Op, err)
		return nil, err
	}

	select {
	case ret := <-notify:
		if ret.err != nil {
			return nil, ret.err
		}
		return &ProposeResponse{Data: ret.reply}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.done:
		return nil, apierrors.ErrRaftStopped
	}
}

func (g *group) Step(ctx context.Context, msg raftpb.Message) error {
	return g.node.Step(ctx, msg)
}

func (g *group) Stat() *Stat {
	st := g.node.Status()
	peers := make([]uint64, 0, len(st.Progress))
	for id := range st.Progress {
		peers = append(peers, id)
	}
	return &Stat{
		Id:             st.ID,
		Term:           st.Term,
		Vote:           st.Vote,
		Commit:         st.Commit,
		Leader:         st.Lead,
		RaftState:      st.RaftState.String(),
		Applied:        atomic.LoadUint64(&g.appliedIndex),
		LeadTransferee: st.LeadTransferee,
		Peers:          peers,
	}
}

func (g *group) Close() {
	g.closeOnce.Do(func() {
		close(g.done)
		<-g.stopped
	})
}

func (g *group) waitLeader(ctx context.Context) error {
	select {
	case <-g.leaderReady:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-g.done:
		return apierrors.ErrRaftStopped
	}
}

func (g *group) run() {
	ticker := time.NewTicker(time.Duration(g.cfg.TickIntervalMS) * time.Millisecond)
	defer func() {
		ticker.Stop()
		g.node.Stop()
		close(g.stopped)
	}()

	for {
		select {
		case <-ticker.C:
			g.node.Tick()
		case rd := <-g.node.Ready():
			if rd.SoftState != nil {
				g.handleSoftState(rd.SoftState)
			}
			if !raft.IsEmptySnap(rd.Snapshot) {
				if err := g.storage.ApplySnapshot(rd.Snapshot); err != nil {
					trace.SpanFromContextSafe(context.Background()).Errorf("apply raft snapshot failed: %s", err)
				}
			}
			if !raft.IsEmptyHardState(rd.HardState) {
				g.storage.SetHardState(rd.HardState)
			}
			g.storage.Append(rd.Entries)
			if len(rd.Messages) > 0 && g.transport != nil {
				g.transport.Send(context.Background(), rd.Messages)
			}
			g.applyEntries(rd.CommittedEntries)
			g.node.Advance()
		case <-g.done:
			return
		}
	}
}

func (g *group) handleSoftState(ss *raft.SoftState) {
	if ss.Lead == raft.None {
		return
	}
	g.readyOnce.Do(func() { close(g.leaderReady) })
	if old := atomic.SwapUint64(&g.leader, ss.Lead); old != ss.Lead {
		if err := g.sm.LeaderChange(ss.Lead); err != nil {
			trace.SpanFromContextSafe(context.Background()).Errorf("leader change to [%d] failed: %s", ss.Lead, err)
		}
	}
}

func (g *group) applyEntries(entries []raftpb.Entry) {
	for i := range entries {
		entry := entries[i]
		if entry.Index <= atomic.LoadUint64(&g.appliedIndex) {
			continue
		}

		switch entry.Type {
		case raftpb.EntryNormal:
			if len(entry.Data) > 0 {
				g.applyProposal(entry.Data, entry.Index)
			}
		case raftpb.EntryConfChange:
			var cc raftpb.ConfChange
			if err := cc.Unmarshal(entry.Data); err == nil {
				g.node.ApplyConfChange(cc)
			}
		}
		atomic.StoreUint64(&g.appliedIndex, entry.Index)
	}
}

func (g *group) applyProposal(data []byte, index uint64) {
	req := &ProposeRequest{}
	if err := req.Unmarshal(data); err != nil {
		trace.SpanFromContextSafe(context.Background()).Errorf("decode proposal at index[%d] failed: %s", index, err)
		return
	}

	span, ctx := trace.StartSpanFromContextWithTraceID(context.Background(), "", req.ReqId)
	result, err := g.sm.Apply(ctx, req.Module, req.Op, req.Data, index)
	if err != nil {
		span.Errorf("apply module[%s] op[%d] at index[%d] failed: %s", req.Module, req.Op, index, err)
	}

	if v, ok := g.notifies.Load(req.RespKey); ok {
		v.(chan proposalResult) <- proposalResult{reply: result, err: err}
	}
}
