package cluster

import (
	"context"
	"fmt"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/errors"

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/common/raft"
)

const (
	RaftOpHeartbeat raft.Op = iota + 1
)

const module = "cluster"

func (c *cluster) GetModule() string {
	return module
}

func (c *cluster) GetCF() []kvstore.CF {
	return []kvstore.CF{clusterCF}
}

func (c *cluster) Apply(ctx context.Context, op raft.Op, data []byte, index uint64) (interface{}, error) {
	switch op {
	case RaftOpHeartbeat:
		return nil, c.applyHeartbeat(ctx, data)
	default:
		return nil, fmt.Errorf("unsupported operation type: %d", op)
	}
}

func (c *cluster) LeaderChange(leader uint64) error {
	return nil
}

func (c *cluster) applyHeartbeat(ctx context.Context, data []byte) error {
	span := trace.SpanFromContextSafe(ctx)
	info := &hostInfo{}
	if err := info.Unmarshal(data); err != nil {
		return errors.Info(err, "json unmarshal failed")
	}

	if old, ok := c.hosts.get(info.Addr); ok && old.LastHeartbeat >= info.LastHeartbeat {
		span.Debugf("stale heartbeat of host[%s], ignored", info.Addr)
		return nil
	}
	if err := c.storage.Put(ctx, info); err != nil {
		span.Errorf("put host[%s] failed: %s", info.Addr, err)
		return err
	}
	c.hosts.put(*info)
	return nil
}
