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

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeSucceeded, CodeOf(nil))
	require.Equal(t, CodeExisted, CodeOf(ErrSpaceExisted))
	require.Equal(t, CodeUnsupported, CodeOf(fmt.Errorf("wrapped: %w", ErrNotEnoughHosts)))
	require.Equal(t, CodeInternal, CodeOf(errors.New("raw")))

	require.Equal(t, "E_CHARSET_COLLATE_NOT_MATCH", CodeCharsetCollateNotMatch.String())
	require.Equal(t, "E_UNKNOWN", ErrorCode(1000).String())
}

func TestRetryable(t *testing.T) {
	for _, err := range []*Error{ErrNoHosts, ErrNotEnoughHosts, ErrAllocationFailed, ErrPersistenceFailed} {
		require.True(t, err.Retryable(), err.ErrorCode())
	}
	for _, err := range []*Error{ErrSpaceExisted, ErrInvalidCharset, ErrInvalidPartitionNum, ErrSpaceNotFound} {
		require.False(t, err.Retryable(), err.ErrorCode())
	}
	require.Equal(t, KindValidation, KindOf(ErrInvalidCollate))
	require.Equal(t, KindNone, KindOf(nil))
	require.Equal(t, http.StatusConflict, ErrSpaceExisted.StatusCode())
}

func TestFromCode(t *testing.T) {
	require.NoError(t, FromCode(CodeSucceeded))
	require.ErrorIs(t, FromCode(CodeExisted), ErrSpaceExisted)
	require.ErrorIs(t, FromCode(CodeUnsupported), ErrNotEnoughHosts)
	require.ErrorIs(t, FromCode(ErrorCode(1000)), ErrInternal)
	for code := CodeExisted; code <= CodeInternal; code++ {
		require.Equal(t, code, CodeOf(FromCode(code)))
	}

	require.Equal(t, http.StatusOK, StatusOf(nil))
	require.Equal(t, http.StatusNotFound, StatusOf(ErrSpaceNotFound))
	require.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("raw")))
}
