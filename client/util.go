package client

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/balancer/roundrobin"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"github.com/cubefs/graphmeta/proto"
)

const (
	defaultMaxTimeoutMs       = 10000
	defaultConnectTimeoutMs   = 3000
	defaultKeepaliveTimeoutS  = 10
	defaultBackoffBaseDelayMs = 100
	defaultBackoffMaxDelayMs  = 3000
)

func unaryInterceptorWithTracer(ctx context.Context, method string, req, reply interface{},
	cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption,
) error {
	span := trace.SpanFromContextSafe(ctx)
	ctx = metadata.AppendToOutgoingContext(ctx, proto.ReqIdKey, span.TraceID())

	return invoker(ctx, method, req, reply, cc, opts...)
}

func (cfg *TransportConfig) fillDefault() {
	if cfg.MaxTimeoutMs == 0 {
		cfg.MaxTimeoutMs = defaultMaxTimeoutMs
	}
	if cfg.ConnectTimeoutMs == 0 {
		cfg.ConnectTimeoutMs = defaultConnectTimeoutMs
	}
	if cfg.KeepaliveTimeoutS == 0 {
		cfg.KeepaliveTimeoutS = defaultKeepaliveTimeoutS
	}
	if cfg.BackoffBaseDelayMs == 0 {
		cfg.BackoffBaseDelayMs = defaultBackoffBaseDelayMs
	}
	if cfg.BackoffMaxDelayMs == 0 {
		cfg.BackoffMaxDelayMs = defaultBackoffMaxDelayMs
	}
}

func generateDialOpts(cfg *TransportConfig) []grpc.DialOption {
	dialOpts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(math.MaxInt32),
			grpc.MaxCallRecvMsgSize(math.MaxInt32),
			grpc.ForceCodec(proto.JSONCodec{}),
		),
		grpc.WithKeepaliveParams(
			keepalive.ClientParameters{
				Timeout:             time.Duration(cfg.KeepaliveTimeoutS) * time.Second,
				PermitWithoutStream: true,
			},
		),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff: backoff.Config{
				BaseDelay:  time.Duration(cfg.BackoffBaseDelayMs) * time.Millisecond,
				Multiplier: backoff.DefaultConfig.Multiplier,
				Jitter:     backoff.DefaultConfig.Jitter,
				MaxDelay:   time.Duration(cfg.BackoffMaxDelayMs) * time.Millisecond,
			},
			MinConnectTimeout: time.Millisecond * time.Duration(cfg.ConnectTimeoutMs),
		}),
		grpc.WithChainUnaryInterceptor(unaryInterceptorWithTracer),
		grpc.WithDefaultServiceConfig(fmt.Sprintf(`{"loadBalancingPolicy": "%s"}`, roundrobin.Name)),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	return dialOpts
}
