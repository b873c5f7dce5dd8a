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
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cubefs/graphmeta/util"
)

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, &Config{})
	require.Error(t, err)

	path, err := util.GenTmpPath()
	require.NoError(t, err)
	defer os.RemoveAll(path)

	s, err := NewStore(ctx, &Config{Path: path})
	require.NoError(t, err)
	for _, col := range columns {
		require.True(t, s.KVStore().CheckColumns(col))
	}
	require.NoError(t, s.KVStore().SetRaw(ctx, CatalogCF, []byte("k"), []byte("v"), nil))
	s.Close()

	s, err = NewStore(ctx, &Config{Path: path})
	require.NoError(t, err)
	defer s.Close()
	v, err := s.KVStore().GetRaw(ctx, CatalogCF, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v", string(v))
}
