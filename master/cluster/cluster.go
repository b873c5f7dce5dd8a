package cluster

import (
	"context"
	"net"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	apierrors "github.com/cubefs/graphmeta/errors"
	"github.com/cubefs/graphmeta/master/base"
	"github.com/cubefs/graphmeta/master/store"
	"github.com/cubefs/graphmeta/metrics"
	"github.com/cubefs/graphmeta/proto"
)

const (
	defaultHeartbeatTimeoutS = 30
	defaultRefreshIntervalS  = 10
)

type Cluster interface {
	// HandleHeartbeat records that the host at addr is alive now.
	HandleHeartbeat(ctx context.Context, addr proto.HostAddr) error
	// ActiveHosts returns a snapshot of live host addresses ordered by address.
	ActiveHosts(ctx context.Context) []proto.HostAddr
	ListHosts(ctx context.Context) []proto.HostMeta
	Load(ctx context.Context) error
	GetSM() base.Applier
	Close()
}

type Config struct {
	HeartbeatTimeoutS int `json:"heartbeat_timeout_s"`
	RefreshIntervalS  int `json:"refresh_interval_s"`

	Store    *store.Store  `json:"-"`
	Proposer base.Proposer `json:"-"`
}

type cluster struct {
	hosts    *hostSet
	storage  *storage
	proposer base.Proposer
	cfg      *Config

	now  func() time.Time
	done chan struct{}
}

func NewCluster(ctx context.Context, cfg *Config) Cluster {
	return newCluster(ctx, cfg, time.Now)
}

func newCluster(ctx context.Context, cfg *Config, now func() time.Time) *cluster {
	if cfg.HeartbeatTimeoutS <= 0 {
		cfg.HeartbeatTimeoutS = defaultHeartbeatTimeoutS
	}
	if cfg.RefreshIntervalS <= 0 {
		cfg.RefreshIntervalS = defaultRefreshIntervalS
	}

	c := &cluster{
		hosts:    newHostSet(),
		storage:  &storage{kvStore: cfg.Store.KVStore()},
		proposer: cfg.Proposer,
		cfg:      cfg,
		now:      now,
		done:     make(chan struct{}),
	}
	c.loop()
	return c
}

func (c *cluster) GetSM() base.Applier {
	return c
}

func (c *cluster) HandleHeartbeat(ctx context.Context, addr proto.HostAddr) error {
	span := trace.SpanFromContextSafe(ctx)

	if _, _, err := net.SplitHostPort(addr); err != nil {
		span.Warnf("invalid heartbeat host[%s]: %s", addr, err)
		return apierrors.ErrInvalidArgument
	}

	info := &hostInfo{Addr: addr, LastHeartbeat: c.now().UnixMilli()}
	data, err := info.Marshal()
	if err != nil {
		return err
	}
	if _, err = c.proposer.Propose(ctx, module, RaftOpHeartbeat, data); err != nil {
		span.Errorf("propose heartbeat of host[%s] failed: %s", addr, err)
		return err
	}
	return nil
}

func (c *cluster) ActiveHosts(ctx context.Context) []proto.HostAddr {
	threshold := c.aliveThreshold()
	infos := c.hosts.list(func(h hostInfo) bool { return h.isAlive(threshold) })

	ret := make([]proto.HostAddr, 0, len(infos))
	for _, h := range infos {
		ret = append(ret, h.Addr)
	}
	return ret
}

func (c *cluster) ListHosts(ctx context.Context) []proto.HostMeta {
	threshold := c.aliveThreshold()
	infos := c.hosts.list(nil)

	ret := make([]proto.HostMeta, 0, len(infos))
	for _, h := range infos {
		ret = append(ret, proto.HostMeta{
			Addr:          h.Addr,
			LastHeartbeat: h.LastHeartbeat,
			Alive:         h.isAlive(threshold),
		})
	}
	return ret
}

func (c *cluster) Load(ctx context.Context) error {
	span := trace.SpanFromContextSafe(ctx)
	infos, err := c.storage.Load(ctx)
	if err != nil {
		span.Errorf("read host data from rocksdb failed, err: %s", err)
		return err
	}

	for _, info := range infos {
		c.hosts.put(info)
	}
	span.Infof("load %d hosts", len(infos))
	return nil
}

func (c *cluster) Close() {
	close(c.done)
}

func (c *cluster) aliveThreshold() int64 {
	return c.now().Add(-time.Duration(c.cfg.HeartbeatTimeoutS) * time.Second).UnixMilli()
}

func (c *cluster) refresh(ctx context.Context) {
	span := trace.SpanFromContextSafe(ctx)
	threshold := c.aliveThreshold()
	expired := c.hosts.list(func(h hostInfo) bool { return !h.isAlive(threshold) })

	metrics.ActiveHostGauge.Set(float64(c.hosts.len() - len(expired)))
	if len(expired) > 0 && c.proposer.IsLeader() {
		for _, h := range expired {
			span.Warnf("host[%s] heartbeat expired, last heartbeat %s",
				h.Addr, time.UnixMilli(h.LastHeartbeat).Format(time.RFC3339))
		}
	}
}

func (c *cluster) loop() {
	_, ctxNew := trace.StartSpanFromContext(context.Background(), "")
	ticker := time.NewTicker(time.Duration(c.cfg.RefreshIntervalS) * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.refresh(ctxNew)
			case <-c.done:
				return
			}
		}
	}()
}
