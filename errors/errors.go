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
	"net/http"
)

type ErrorCode int32

const (
	CodeSucceeded ErrorCode = iota
	CodeExisted
	CodeNoHosts
	CodeUnsupported
	CodeInvalidPartitionNum
	CodeInvalidReplicaFactor
	CodeInvalidCharset
	CodeInvalidCollate
	CodeCharsetCollateNotMatch
	CodeAllocationFailed
	CodePersistenceFailed
	CodeSpaceNotFound
	CodeInvalidArgument
	CodeInternal
)

var codeNames = map[ErrorCode]string{
	CodeSucceeded:              "SUCCEEDED",
	CodeExisted:                "E_EXISTED",
	CodeNoHosts:                "E_NO_HOSTS",
	CodeUnsupported:            "E_UNSUPPORTED",
	CodeInvalidPartitionNum:    "E_INVALID_PARTITION_NUM",
	CodeInvalidReplicaFactor:   "E_INVALID_REPLICA_FACTOR",
	CodeInvalidCharset:         "E_INVALID_CHARSET",
	CodeInvalidCollate:         "E_INVALID_COLLATE",
	CodeCharsetCollateNotMatch: "E_CHARSET_COLLATE_NOT_MATCH",
	CodeAllocationFailed:       "E_ALLOCATION_FAILED",
	CodePersistenceFailed:      "E_PERSISTENCE_FAILED",
	CodeSpaceNotFound:          "E_SPACE_NOT_FOUND",
	CodeInvalidArgument:        "E_INVALID_ARGUMENT",
	CodeInternal:               "E_INTERNAL",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "E_UNKNOWN"
}

// Kind classifies an error by who caused it and whether a retry can help.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindResourceUnavailable
	KindAllocation
	KindPersistence
	KindAlreadyExists
	KindNotFound
	KindInternal
)

// Error is the coded error returned across the master API boundary.
type Error struct {
	Code   ErrorCode
	Kind   Kind
	Status int
	Msg    string
}

func newError(code ErrorCode, kind Kind, status int, msg string) *Error {
	return &Error{Code: code, Kind: kind, Status: status, Msg: msg}
}

func (e *Error) Error() string {
	return e.Msg
}

// StatusCode and ErrorCode let the blobstore rpc layer respond with e directly.
func (e *Error) StatusCode() int {
	return e.Status
}

func (e *Error) ErrorCode() string {
	return e.Code.String()
}

// Retryable reports whether resending the unchanged request may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindResourceUnavailable, KindAllocation, KindPersistence:
		return true
	default:
		return false
	}
}

var (
	ErrSpaceExisted           = newError(CodeExisted, KindAlreadyExists, http.StatusConflict, "space already existed")
	ErrNoHosts                = newError(CodeNoHosts, KindResourceUnavailable, http.StatusServiceUnavailable, "no active hosts")
	ErrNotEnoughHosts         = newError(CodeUnsupported, KindResourceUnavailable, http.StatusServiceUnavailable, "not enough active hosts for replica factor")
	ErrInvalidPartitionNum    = newError(CodeInvalidPartitionNum, KindValidation, http.StatusBadRequest, "invalid partition num")
	ErrInvalidReplicaFactor   = newError(CodeInvalidReplicaFactor, KindValidation, http.StatusBadRequest, "invalid replica factor")
	ErrInvalidCharset         = newError(CodeInvalidCharset, KindValidation, http.StatusBadRequest, "charset not supported")
	ErrInvalidCollate         = newError(CodeInvalidCollate, KindValidation, http.StatusBadRequest, "collation not supported")
	ErrCharsetCollateNotMatch = newError(CodeCharsetCollateNotMatch, KindValidation, http.StatusBadRequest, "charset and collation not match")
	ErrAllocationFailed       = newError(CodeAllocationFailed, KindAllocation, http.StatusInternalServerError, "allocate space id failed")
	ErrPersistenceFailed      = newError(CodePersistenceFailed, KindPersistence, http.StatusInternalServerError, "persist space failed")
	ErrSpaceNotFound          = newError(CodeSpaceNotFound, KindNotFound, http.StatusNotFound, "space not found")
	ErrInvalidArgument        = newError(CodeInvalidArgument, KindValidation, http.StatusBadRequest, "invalid argument")
	ErrInternal               = newError(CodeInternal, KindInternal, http.StatusInternalServerError, "internal error")

	ErrInvalidCount  = errors.New("request count is invalid")
	ErrRaftStopped   = errors.New("raft group stopped")
	ErrUnknownModule = errors.New("unknown raft module")
)

// CodeOf maps err to its ErrorCode, nil maps to CodeSucceeded.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSucceeded
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// KindOf maps err to its Kind, nil maps to KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var codedErrors = map[ErrorCode]*Error{}

func init() {
	for _, e := range []*Error{
		ErrSpaceExisted, ErrNoHosts, ErrNotEnoughHosts, ErrInvalidPartitionNum,
		ErrInvalidReplicaFactor, ErrInvalidCharset, ErrInvalidCollate,
		ErrCharsetCollateNotMatch, ErrAllocationFailed, ErrPersistenceFailed,
		ErrSpaceNotFound, ErrInvalidArgument, ErrInternal,
	} {
		codedErrors[e.Code] = e
	}
}

// FromCode returns the coded error of code, nil for CodeSucceeded and
// ErrInternal for unknown codes.
func FromCode(code ErrorCode) error {
	if code == CodeSucceeded {
		return nil
	}
	if e, ok := codedErrors[code]; ok {
		return e
	}
	return ErrInternal
}

func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
