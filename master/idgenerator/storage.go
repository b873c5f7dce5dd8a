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
	"encoding/binary"
	"fmt"

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/master/store"
)

var cf = store.IDCF

type storage struct {
	kvStore kvstore.Store
}

func (s *storage) Load(ctx context.Context) (map[string]uint64, error) {
	lr := s.kvStore.List(ctx, cf, nil, nil)
	defer lr.Close()

	ret := make(map[string]uint64)
	for {
		key, value, err := lr.ReadNextCopy()
		if err != nil {
			return nil, err
		}
		if key == nil {
			break
		}
		if len(value) != 8 {
			return nil, fmt.Errorf("invalid id value of scope %s, size %d", key, len(value))
		}
		ret[decodeName(key)] = decodeValue(value)
	}

	return ret, nil
}

// Put syncs the counter to disk before any id below it is handed out.
func (s *storage) Put(ctx context.Context, name string, commit uint64) error {
	wo := s.kvStore.NewWriteOption()
	defer wo.Close()
	wo.SetSync(true)
	return s.kvStore.SetRaw(ctx, cf, encodeName(name), encodeValue(commit), wo)
}

func (s *storage) Get(ctx context.Context, name string) (uint64, error) {
	v, err := s.kvStore.GetRaw(ctx, cf, encodeName(name))
	if err != nil {
		return 0, err
	}
	return decodeValue(v), nil
}

func encodeName(name string) []byte {
	return []byte(name)
}

func decodeName(raw []byte) string {
	return string(raw)
}

func encodeValue(commit uint64) []byte {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, commit)
	return v
}

func decodeValue(raw []byte) uint64 {
	return binary.BigEndian.Uint64(raw)
}
