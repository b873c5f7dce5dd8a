package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/errors"

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/common/raft"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/proto"
)

const module = "catalog"

const (
	RaftOpCreateSpace raft.Op = iota + 1
)

type createSpaceArgs struct {
	Name  string        `json:"name"`
	Sid   proto.SpaceID `json:"sid"`
	Batch []byte        `json:"batch"`
}

func (a *createSpaceArgs) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

func (a *createSpaceArgs) Unmarshal(data []byte) error {
	return json.Unmarshal(data, a)
}

func (c *catalog) GetModule() string {
	return module
}

func (c *catalog) GetCF() []kvstore.CF {
	return []kvstore.CF{CF}
}

func (c *catalog) Apply(ctx context.Context, op raft.Op, data []byte, index uint64) (interface{}, error) {
	switch op {
	case RaftOpCreateSpace:
		return nil, c.applyCreateSpace(ctx, data)
	default:
		return nil, fmt.Errorf("unsupported operation type: %d", op)
	}
}

func (c *catalog) LeaderChange(leader uint64) error {
	return nil
}

// applyCreateSpace writes every entry of the space in a single batch. A replay
// of an already applied proposal is a no-op.
func (c *catalog) applyCreateSpace(ctx context.Context, data []byte) error {
	span := trace.SpanFromContextSafe(ctx)

	args := &createSpaceArgs{}
	if err := args.Unmarshal(data); err != nil {
		return errors.Info(err, "json unmarshal failed")
	}

	sid, err := c.storage.GetSpaceID(ctx, args.Name)
	switch err {
	case nil:
		if sid == args.Sid {
			span.Warnf("space[%s] id %d already applied", args.Name, sid)
			return nil
		}
		return apierrors.ErrSpaceExisted
	case kvstore.ErrNotFound:
	default:
		return err
	}

	if err = c.storage.WriteBatch(ctx, args.Batch); err != nil {
		return errors.Info(err, "write space batch failed").Detail(err)
	}
	span.Debugf("apply create space[%s] id %d", args.Name, args.Sid)
	return nil
}
