// Copyright 2023 The Cuber Authors.
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

package kvstore

import (
	"context"
	"errors"
)

const (
	defaultCF = "default"

	RocksdbLsmKVType = LsmKVType("rocksdb")

	LevelStyle     = CompactionStyle("level")
	UniversalStyle = CompactionStyle("universal")
)

var (
	ErrNotFound       = errors.New("key not found")
	ErrKVTypeNotFound = errors.New("kv type not found")
)

type (
	CF              string
	LsmKVType       string
	CompactionStyle string

	// Store is a column family keyed store. A WriteBatch passed to Write is
	// applied atomically: either every entry becomes visible or none does.
	Store interface {
		CheckColumns(col CF) bool
		Get(ctx context.Context, col CF, key []byte) (value ValueGetter, err error)
		GetRaw(ctx context.Context, col CF, key []byte) (value []byte, err error)
		SetRaw(ctx context.Context, col CF, key []byte, value []byte, writeOpt WriteOption) error
		List(ctx context.Context, col CF, prefix []byte, marker []byte) ListReader
		Write(ctx context.Context, batch WriteBatch, writeOpt WriteOption) error
		NewWriteOption() (writeOption WriteOption)
		NewWriteBatch() (writeBatch WriteBatch)
		Close()
	}
	ListReader interface {
		ReadNext() (key KeyGetter, val ValueGetter, err error)
		ReadNextCopy() (key []byte, value []byte, err error)
		Close()
	}
	KeyGetter interface {
		Key() []byte
		Close()
	}
	ValueGetter interface {
		Value() []byte
		Size() int
		Close()
	}
	WriteOption interface {
		SetSync(value bool)
		Close()
	}
	WriteBatch interface {
		Put(col CF, key, value []byte)
		Count() int
		// Data returns the encoded batch, From replaces the batch content
		// with a previously encoded one.
		Data() []byte
		From(data []byte)
		Close()
	}

	Option struct {
		Sync                 bool            `json:"sync"`
		CreateIfMissing      bool            `json:"create_if_missing"`
		ColumnFamily         []CF            `json:"column_family"`
		BlockSize            int             `json:"block_size"`
		BlockCache           uint64          `json:"block_cache"`
		MaxOpenFiles         int             `json:"max_open_files"`
		WriteBufferSize      int             `json:"write_buffer_size"`
		MaxWriteBufferNumber int             `json:"max_write_buffer_number"`
		KeepLogFileNum       int             `json:"keep_log_file_num"`
		MaxLogFileSize       int             `json:"max_log_file_size"`
		CompactionStyle      CompactionStyle `json:"compaction_style"`
	}
)

func NewKVStore(ctx context.Context, path string, lsmType LsmKVType, option *Option) (Store, error) {
	switch lsmType {
	case RocksdbLsmKVType:
		return newRocksdb(ctx, path, option)
	default:
		return nil, ErrKVTypeNotFound
	}
}

func (cf CF) String() string {
	return string(cf)
}
