package catalog

import (
	"context"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/errors"

	"github.com/cubefs/graphmeta/common/charset"
	"github.com/cubefs/graphmeta/common/kvstore"
	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master/base"
	"github.com/cubefs/graphmeta/master/store"
	"github.com/cubefs/graphmeta/metrics"
	"github.com/cubefs/graphmeta/proto"
)

type Catalog interface {
	CreateSpace(ctx context.Context, args *proto.CreateSpaceArgs) (proto.SpaceID, error)
	GetSpace(ctx context.Context, sid proto.SpaceID) (*proto.SpaceMeta, error)
	GetSpaceByName(ctx context.Context, name string) (*proto.SpaceMeta, error)
	ListSpaces(ctx context.Context) ([]proto.SpaceMeta, error)
	GetParts(ctx context.Context, sid proto.SpaceID) ([]proto.PartMeta, error)
	GetSM() base.Applier
}

// HostSet provides the live storage hosts.
type HostSet interface {
	ActiveHosts(ctx context.Context) []proto.HostAddr
}

// IDAllocator hands out space ids greater than every id handed out before.
type IDAllocator interface {
	AllocSpaceID(ctx context.Context) (proto.SpaceID, error)
}

type Config struct {
	DefaultPartitionNum  int32  `json:"default_partition_num"`
	MaxPartitionNum      int32  `json:"max_partition_num"`
	DefaultReplicaFactor int32  `json:"default_replica_factor"`
	DefaultCharset       string `json:"default_charset"`
	DefaultCollate       string `json:"default_collate"`

	Store       *store.Store     `json:"-"`
	Hosts       HostSet          `json:"-"`
	IdGenerator IDAllocator      `json:"-"`
	Proposer    base.Proposer    `json:"-"`
	Charsets    charset.Registry `json:"-"`
}

const defaultMaxPartitionNum = 4096

// DefaultConfig returns the defaults used when the configuration file leaves them out.
func DefaultConfig() Config {
	return Config{
		DefaultPartitionNum:  100,
		MaxPartitionNum:      defaultMaxPartitionNum,
		DefaultReplicaFactor: 1,
		DefaultCharset:       "utf8",
		DefaultCollate:       "utf8_bin",
	}
}

type catalog struct {
	locks    *namespaceLocks
	resolver *configResolver
	storage  *storage

	hosts       HostSet
	idGenerator IDAllocator
	proposer    base.Proposer
}

func NewCatalog(ctx context.Context, cfg *Config) Catalog {
	registry := cfg.Charsets
	if registry == nil {
		registry = charset.Default()
	}
	return &catalog{
		locks:       newNamespaceLocks(),
		resolver:    newConfigResolver(cfg, registry),
		storage:     newStorage(cfg.Store),
		hosts:       cfg.Hosts,
		idGenerator: cfg.IdGenerator,
		proposer:    cfg.Proposer,
	}
}

func (c *catalog) GetSM() base.Applier {
	return c
}

// CreateSpace runs under the space namespace write lock from the existence
// check through the commit. An existing space yields its id, with
// ErrSpaceExisted unless IfNotExists is set. Every failure before the
// commit leaves the store and the id counter untouched.
func (c *catalog) CreateSpace(ctx context.Context, args *proto.CreateSpaceArgs) (sid proto.SpaceID, err error) {
	span := trace.SpanFromContextSafe(ctx)
	defer func() {
		metrics.CreateSpaceCounter.WithLabelValues(apierrors.CodeOf(err).String()).Inc()
	}()

	name := args.Properties.Name
	if name == "" {
		return 0, apierrors.ErrInvalidArgument
	}

	unlock := c.locks.lock(EntitySpace)
	defer unlock()

	existID, err := c.storage.GetSpaceID(ctx, name)
	switch err {
	case nil:
		if args.IfNotExists {
			span.Infof("space[%s] already exists with id %d", name, existID)
			return existID, nil
		}
		span.Warnf("create space failed: space[%s] already exists", name)
		return existID, apierrors.ErrSpaceExisted
	case kvstore.ErrNotFound:
	default:
		span.Errorf("get space[%s] failed: %s", name, errors.Detail(err))
		return 0, apierrors.ErrInternal
	}

	hosts := c.hosts.ActiveHosts(ctx)
	if len(hosts) == 0 {
		span.Warnf("create space[%s] failed: no active hosts", name)
		return 0, apierrors.ErrNoHosts
	}

	props, err := c.resolver.Resolve(args.Properties)
	if err != nil {
		span.Warnf("create space[%s] failed: %s", name, err)
		return 0, err
	}
	if len(hosts) < int(props.ReplicaFactor) {
		span.Warnf("not enough hosts for replica factor %d, hosts num %d", props.ReplicaFactor, len(hosts))
		return 0, apierrors.ErrNotEnoughHosts
	}

	sid, err = c.idGenerator.AllocSpaceID(ctx)
	if err != nil {
		span.Errorf("alloc id of space[%s] failed: %s", name, errors.Detail(err))
		return 0, apierrors.ErrAllocationFailed
	}

	parts := make([][]proto.HostAddr, 0, props.PartitionNum)
	for i := uint32(0); i < props.PartitionNum; i++ {
		parts = append(parts, pickHosts(proto.PartID(i+1), props.ReplicaFactor, hosts))
	}

	if err = c.commitSpace(ctx, sid, &props, parts); err != nil {
		span.Errorf("commit space[%s] id %d failed: %s", name, sid, errors.Detail(err))
		return 0, apierrors.ErrPersistenceFailed
	}

	span.Infof("create space success, id %d, properties %+v", sid, props)
	return sid, nil
}

// commitSpace is not bound to the caller's context: once proposed the
// commit is waited for even if the request is canceled.
func (c *catalog) commitSpace(ctx context.Context, sid proto.SpaceID, props *proto.SpaceProperties, parts [][]proto.HostAddr) error {
	batch, err := c.storage.CreateSpaceBatch(sid, props, parts)
	if err != nil {
		return err
	}
	data, err := (&createSpaceArgs{Name: props.Name, Sid: sid, Batch: batch}).Marshal()
	if err != nil {
		return err
	}

	span := trace.SpanFromContextSafe(ctx)
	_, commitCtx := trace.StartSpanFromContextWithTraceID(context.Background(), "commitSpace", span.TraceID())
	_, err = c.proposer.Propose(commitCtx, module, RaftOpCreateSpace, data)
	return err
}

func (c *catalog) GetSpace(ctx context.Context, sid proto.SpaceID) (*proto.SpaceMeta, error) {
	lk := c.locks.get(EntitySpace)
	lk.RLock()
	defer lk.RUnlock()

	return c.getSpace(ctx, sid)
}

func (c *catalog) GetSpaceByName(ctx context.Context, name string) (*proto.SpaceMeta, error) {
	lk := c.locks.get(EntitySpace)
	lk.RLock()
	defer lk.RUnlock()

	sid, err := c.storage.GetSpaceID(ctx, name)
	if err != nil {
		return nil, c.readError(ctx, err)
	}
	return c.getSpace(ctx, sid)
}

func (c *catalog) ListSpaces(ctx context.Context) ([]proto.SpaceMeta, error) {
	lk := c.locks.get(EntitySpace)
	lk.RLock()
	defer lk.RUnlock()

	spaces, err := c.storage.ListSpaces(ctx)
	if err != nil {
		return nil, c.readError(ctx, err)
	}
	return spaces, nil
}

func (c *catalog) GetParts(ctx context.Context, sid proto.SpaceID) ([]proto.PartMeta, error) {
	lk := c.locks.get(EntitySpace)
	lk.RLock()
	defer lk.RUnlock()

	if _, err := c.storage.GetSpace(ctx, sid); err != nil {
		return nil, c.readError(ctx, err)
	}
	parts, err := c.storage.ListParts(ctx, sid)
	if err != nil {
		return nil, c.readError(ctx, err)
	}
	return parts, nil
}

func (c *catalog) getSpace(ctx context.Context, sid proto.SpaceID) (*proto.SpaceMeta, error) {
	props, err := c.storage.GetSpace(ctx, sid)
	if err != nil {
		return nil, c.readError(ctx, err)
	}
	return &proto.SpaceMeta{ID: sid, Properties: *props}, nil
}

func (c *catalog) readError(ctx context.Context, err error) error {
	if err == kvstore.ErrNotFound {
		return apierrors.ErrSpaceNotFound
	}
	trace.SpanFromContextSafe(ctx).Errorf("read catalog failed: %s", errors.Detail(err))
	return apierrors.ErrInternal
}
