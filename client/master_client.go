package client

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/proto"
)

type (
	MasterConfig struct {
		MasterAddresses string          `json:"master_addresses"`
		TransportConfig TransportConfig `json:"transport"`
	}
	TransportConfig struct {
		MaxTimeoutMs       uint32 `json:"max_timeout_ms"`
		ConnectTimeoutMs   uint32 `json:"connect_timeout_ms"`
		KeepaliveTimeoutS  uint32 `json:"keepalive_timeout_s"`
		BackoffBaseDelayMs uint32 `json:"backoff_base_delay_ms"`
		BackoffMaxDelayMs  uint32 `json:"backoff_max_delay_ms"`
	}

	// MasterClient calls the master grpc service. Failed calls return the
	// same coded errors the master returns locally.
	MasterClient struct {
		conn *grpc.ClientConn
		tc   TransportConfig
	}
)

func NewMasterClient(cfg *MasterConfig) (*MasterClient, error) {
	if cfg.MasterAddresses == "" {
		return nil, errors.New("master address can't be nil")
	}
	addresses := cfg.MasterAddresses
	if !strings.HasPrefix(addresses, lbResolverSchema+":///") {
		addresses = lbResolverSchema + ":///" + addresses
	}

	tc := cfg.TransportConfig
	tc.fillDefault()
	conn, err := grpc.Dial(addresses, generateDialOpts(&tc)...)
	if err != nil {
		return nil, err
	}

	return &MasterClient{conn: conn, tc: tc}, nil
}

// CreateSpace returns the space id together with the coded error, an
// existing space yields its id and ErrSpaceExisted.
func (c *MasterClient) CreateSpace(ctx context.Context, args *proto.CreateSpaceArgs) (proto.SpaceID, error) {
	ret := new(proto.CreateSpaceRet)
	if err := c.invoke(ctx, "CreateSpace", args, ret); err != nil {
		return 0, err
	}
	return ret.SpaceID, apierrors.FromCode(ret.Code)
}

func (c *MasterClient) GetSpace(ctx context.Context, args *proto.GetSpaceArgs) (*proto.SpaceMeta, error) {
	meta := new(proto.SpaceMeta)
	if err := c.invoke(ctx, "GetSpace", args, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (c *MasterClient) Heartbeat(ctx context.Context, addr proto.HostAddr) error {
	return c.invoke(ctx, "Heartbeat", &proto.HeartbeatArgs{Addr: addr}, new(proto.HeartbeatRet))
}

func (c *MasterClient) Close() error {
	return c.conn.Close()
}

func (c *MasterClient) invoke(ctx context.Context, method string, args, reply interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.tc.MaxTimeoutMs)*time.Millisecond)
	defer cancel()

	var trailer metadata.MD
	err := c.conn.Invoke(ctx, "/"+proto.MasterServiceName+"/"+method, args, reply,
		grpc.Trailer(&trailer), grpc.WaitForReady(true))
	if err == nil {
		return nil
	}
	if codes := trailer.Get(proto.ErrorCodeKey); len(codes) > 0 {
		if code, perr := strconv.Atoi(codes[0]); perr == nil {
			return apierrors.FromCode(apierrors.ErrorCode(code))
		}
	}
	return err
}
