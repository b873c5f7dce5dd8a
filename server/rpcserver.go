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
	"net"
	"strconv"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/metrics"
	"github.com/cubefs/graphmeta/proto"
)

// MasterServer is the grpc surface of the master.
type MasterServer interface {
	CreateSpace(ctx context.Context, args *proto.CreateSpaceArgs) (*proto.CreateSpaceRet, error)
	GetSpace(ctx context.Context, args *proto.GetSpaceArgs) (*proto.SpaceMeta, error)
	Heartbeat(ctx context.Context, args *proto.HeartbeatArgs) (*proto.HeartbeatRet, error)
}

var masterServiceDesc = grpc.ServiceDesc{
	ServiceName: proto.MasterServiceName,
	HandlerType: (*MasterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSpace", Handler: createSpaceHandler},
		{MethodName: "GetSpace", Handler: getSpaceHandler},
		{MethodName: "Heartbeat", Handler: heartbeatHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "graphmeta/master",
}

type RPCServer struct {
	grpcServer *grpc.Server

	*Server
}

func NewRPCServer(server *Server) *RPCServer {
	rs := &RPCServer{Server: server}

	s := grpc.NewServer(
		grpc.ForceServerCodec(proto.JSONCodec{}),
		grpc.ChainUnaryInterceptor(
			metrics.GRPCMetrics.UnaryServerInterceptor(),
			rs.unaryInterceptorWithTracer,
			rs.unaryInterceptorWithErrorCode,
		),
	)
	s.RegisterService(&masterServiceDesc, rs)
	metrics.GRPCMetrics.InitializeMetrics(s)
	rs.grpcServer = s
	return rs
}

// Serve blocks until the server is stopped.
func (r *RPCServer) Serve(lis net.Listener) error {
	log.Info("grpc server is running at:", lis.Addr().String())
	return r.grpcServer.Serve(lis)
}

func (r *RPCServer) Stop() {
	r.grpcServer.GracefulStop()
}

// CreateSpace reports api failures in the returned code, only transport
// failures come back as a grpc error.
func (r *RPCServer) CreateSpace(ctx context.Context, args *proto.CreateSpaceArgs) (*proto.CreateSpaceRet, error) {
	ret, _ := r.createSpace(ctx, args)
	return ret, nil
}

func (r *RPCServer) GetSpace(ctx context.Context, args *proto.GetSpaceArgs) (*proto.SpaceMeta, error) {
	return r.getSpace(ctx, args)
}

func (r *RPCServer) Heartbeat(ctx context.Context, args *proto.HeartbeatArgs) (*proto.HeartbeatRet, error) {
	span := trace.SpanFromContextSafe(ctx)
	if err := r.master.HandleHeartbeat(ctx, args.Addr); err != nil {
		span.Warnf("handle heartbeat of %s failed: %s", args.Addr, err)
		return nil, err
	}
	return &proto.HeartbeatRet{}, nil
}

func createSpaceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.CreateSpaceArgs)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).CreateSpace(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + proto.MasterServiceName + "/CreateSpace"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).CreateSpace(ctx, req.(*proto.CreateSpaceArgs))
	}
	return interceptor(ctx, in, info, handler)
}

func getSpaceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.GetSpaceArgs)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).GetSpace(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + proto.MasterServiceName + "/GetSpace"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).GetSpace(ctx, req.(*proto.GetSpaceArgs))
	}
	return interceptor(ctx, in, info, handler)
}

func heartbeatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.HeartbeatArgs)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).Heartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + proto.MasterServiceName + "/Heartbeat"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).Heartbeat(ctx, req.(*proto.HeartbeatArgs))
	}
	return interceptor(ctx, in, info, handler)
}

// util function

func (r *RPCServer) unaryInterceptorWithTracer(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if reqId := md.Get(proto.ReqIdKey); len(reqId) > 0 {
		_, ctx = trace.StartSpanFromContextWithTraceID(ctx, info.FullMethod, reqId[0])
	} else {
		_, ctx = trace.StartSpanFromContext(ctx, info.FullMethod)
	}

	return handler(ctx, req)
}

// unaryInterceptorWithErrorCode turns coded errors into grpc status errors
// and sends the ErrorCode back in the trailer.
func (r *RPCServer) unaryInterceptorWithErrorCode(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	resp, err = handler(ctx, req)
	if err == nil {
		return
	}
	code := apierrors.CodeOf(err)
	grpc.SetTrailer(ctx, metadata.Pairs(proto.ErrorCodeKey, strconv.Itoa(int(code))))
	return nil, status.Error(grpcCode(apierrors.KindOf(err)), err.Error())
}

func grpcCode(kind apierrors.Kind) codes.Code {
	switch kind {
	case apierrors.KindValidation:
		return codes.InvalidArgument
	case apierrors.KindResourceUnavailable:
		return codes.Unavailable
	case apierrors.KindAlreadyExists:
		return codes.AlreadyExists
	case apierrors.KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
