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

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/common/raft"
)

// Applier is a master module whose mutations are replicated through the raft group.
type Applier interface {
	Apply(ctx context.Context, op raft.Op, data []byte, index uint64) (ret interface{}, err error)
	LeaderChange(leader uint64) error
	GetCF() []kvstore.CF
	GetModule() string
}

// Proposer replicates a module operation and returns what its Applier returned.
type Proposer interface {
	Propose(ctx context.Context, module string, op raft.Op, data []byte) (ret interface{}, err error)
	IsLeader() bool
}
