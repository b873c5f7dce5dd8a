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

package proto

import (
	apierrors "github.com/cubefs/graphmeta/errors"
)

// SpaceProperties is both the client's creation request and the persisted
// record. Zero PartitionNum/ReplicaFactor and empty charset/collate mean unset.
type SpaceProperties struct {
	Name          string `json:"name"`
	PartitionNum  uint32 `json:"partition_num"`
	ReplicaFactor uint32 `json:"replica_factor"`
	CharsetName   string `json:"charset_name"`
	CollateName   string `json:"collate_name"`
}

type SpaceMeta struct {
	ID         SpaceID         `json:"id"`
	Properties SpaceProperties `json:"properties"`
}

type PartMeta struct {
	SpaceID SpaceID    `json:"space_id"`
	PartID  PartID     `json:"part_id"`
	Hosts   []HostAddr `json:"hosts"`
}

type HostMeta struct {
	Addr          HostAddr `json:"addr"`
	LastHeartbeat int64    `json:"last_heartbeat"`
	Alive         bool     `json:"alive"`
}

type CreateSpaceArgs struct {
	Properties  SpaceProperties `json:"properties"`
	IfNotExists bool            `json:"if_not_exists"`
}

type CreateSpaceRet struct {
	Code    apierrors.ErrorCode `json:"code"`
	SpaceID SpaceID             `json:"space_id"`
	Msg     string              `json:"msg,omitempty"`
}

type GetSpaceArgs struct {
	ID   SpaceID `json:"id,omitempty"`
	Name string  `json:"name,omitempty"`
}

type GetPartsArgs struct {
	ID SpaceID `json:"id"`
}

type HeartbeatArgs struct {
	Addr HostAddr `json:"addr"`
}

type HeartbeatRet struct{}

type CharsetArgs struct {
	Charset string `json:"charset,omitempty"`
	Collate string `json:"collate,omitempty"`
}

type CharsetInfo struct {
	Charset string `json:"charset"`
	Collate string `json:"collate"`
}
