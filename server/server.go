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

package server

import (
	"context"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	"github.com/cubefs/graphmeta/common/charset"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master"
	"github.com/cubefs/graphmeta/proto"
)

type Config struct {
	master.Config
}

type Server struct {
	master *master.Master
}

func NewServer(ctx context.Context, cfg *Config) (*Server, error) {
	m, err := master.NewMaster(ctx, &cfg.Config)
	if err != nil {
		return nil, err
	}
	return &Server{master: m}, nil
}

func (s *Server) Close() {
	s.master.Close()
}

// createSpace folds the outcome into a CreateSpaceRet, an existing
// space reports its id alongside E_EXISTED.
func (s *Server) createSpace(ctx context.Context, args *proto.CreateSpaceArgs) (*proto.CreateSpaceRet, error) {
	span := trace.SpanFromContextSafe(ctx)
	sid, err := s.master.CreateSpace(ctx, args)
	ret := &proto.CreateSpaceRet{Code: apierrors.CodeOf(err), SpaceID: sid}
	if err != nil {
		span.Warnf("create space[%s] failed: %s", args.Properties.Name, err)
		ret.Msg = err.Error()
	}
	return ret, err
}

func (s *Server) getSpace(ctx context.Context, args *proto.GetSpaceArgs) (*proto.SpaceMeta, error) {
	switch {
	case args.Name != "":
		return s.master.GetSpaceByName(ctx, args.Name)
	case args.ID != 0:
		return s.master.GetSpace(ctx, args.ID)
	default:
		return nil, apierrors.ErrInvalidArgument
	}
}

func (s *Server) getCharset(args *proto.CharsetArgs) (*proto.CharsetInfo, error) {
	if args.Charset != "" {
		collate, err := charset.DefaultCollation(args.Charset)
		if err != nil {
			return nil, apierrors.ErrInvalidCharset
		}
		return &proto.CharsetInfo{Charset: args.Charset, Collate: collate}, nil
	}
	if args.Collate != "" {
		name, err := charset.CharsetByCollation(args.Collate)
		if err != nil {
			return nil, apierrors.ErrInvalidCollate
		}
		return &proto.CharsetInfo{Charset: name, Collate: args.Collate}, nil
	}
	return nil, apierrors.ErrInvalidArgument
}
