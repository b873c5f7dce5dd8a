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

package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cubefs/graphmeta/common/kvstore"
)

const (
	CatalogCF = kvstore.CF("catalog")
	IDCF      = kvstore.CF("id")
	ClusterCF = kvstore.CF("cluster")
	LocalCF   = kvstore.CF("local")
)

var columns = []kvstore.CF{CatalogCF, IDCF, ClusterCF, LocalCF}

type Config struct {
	Path     string         `json:"path"`
	KVOption kvstore.Option `json:"kv_option"`
}

type Store struct {
	kvStore kvstore.Store
	cfg     *Config
}

func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("store path is empty")
	}

	cfg.KVOption.CreateIfMissing = true
	cfg.KVOption.ColumnFamily = append([]kvstore.CF(nil), columns...)
	kvStore, err := kvstore.NewKVStore(ctx, filepath.Join(cfg.Path, "kv"), kvstore.RocksdbLsmKVType, &cfg.KVOption)
	if err != nil {
		return nil, err
	}
	for _, col := range columns {
		if !kvStore.CheckColumns(col) {
			kvStore.Close()
			return nil, fmt.Errorf("column family %s not opened", col)
		}
	}

	return &Store{
		kvStore: kvStore,
		cfg:     cfg,
	}, nil
}

func (s *Store) KVStore() kvstore.Store {
	return s.kvStore
}

func (s *Store) Close() {
	s.kvStore.Close()
}
