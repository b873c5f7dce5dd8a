package master

import (
	"context"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	"github.com/cubefs/graphmeta/common/raft"
	"github.com/cubefs/graphmeta/master/base"
	"github.com/cubefs/graphmeta/master/catalog"
	"github.com/cubefs/graphmeta/master/cluster"
	"github.com/cubefs/graphmeta/master/idgenerator"
	"github.com/cubefs/graphmeta/master/store"
)

type Config struct {
	StoreConfig   store.Config     `json:"store_config"`
	RaftConfig    base.RaftNodeCfg `json:"raft_config"`
	CatalogConfig catalog.Config   `json:"catalog_config"`
	ClusterConfig cluster.Config   `json:"cluster_config"`
}

type Master struct {
	catalog.Catalog
	cluster.Cluster

	raftNode *base.RaftNode
	store    *store.Store
}

func NewMaster(ctx context.Context, cfg *Config) (*Master, error) {
	span := trace.SpanFromContextSafe(ctx)

	kvStore, err := store.NewStore(ctx, &cfg.StoreConfig)
	if err != nil {
		span.Errorf("new store failed: %s", err)
		return nil, err
	}

	raftNode, err := base.NewRaftNode(ctx, &cfg.RaftConfig, kvStore)
	if err != nil {
		kvStore.Close()
		span.Errorf("new raft node failed: %s", err)
		return nil, err
	}

	idGenerator, err := idgenerator.NewIDGenerator(ctx, kvStore, raftNode)
	if err != nil {
		kvStore.Close()
		span.Errorf("new id generator failed: %s", err)
		return nil, err
	}

	cfg.ClusterConfig.Store = kvStore
	cfg.ClusterConfig.Proposer = raftNode
	newCluster := cluster.NewCluster(ctx, &cfg.ClusterConfig)
	if err = newCluster.Load(ctx); err != nil {
		newCluster.Close()
		kvStore.Close()
		return nil, err
	}

	cfg.CatalogConfig.Store = kvStore
	cfg.CatalogConfig.Hosts = newCluster
	cfg.CatalogConfig.IdGenerator = idGenerator
	cfg.CatalogConfig.Proposer = raftNode
	newCatalog := catalog.NewCatalog(ctx, &cfg.CatalogConfig)

	raftNode.RegisterApplier(idGenerator.GetSM())
	raftNode.RegisterApplier(newCluster.GetSM())
	raftNode.RegisterApplier(newCatalog.GetSM())
	if err = raftNode.Start(ctx); err != nil {
		newCluster.Close()
		kvStore.Close()
		span.Errorf("start raft node failed: %s", err)
		return nil, err
	}

	span.Infof("master started, column families %v", raftNode.GetCFs())
	return &Master{
		Catalog:  newCatalog,
		Cluster:  newCluster,
		raftNode: raftNode,
		store:    kvStore,
	}, nil
}

func (m *Master) RaftStat() *raft.Stat {
	return m.raftNode.Stat()
}

func (m *Master) Close() {
	m.Cluster.Close()
	m.raftNode.Close()
	m.store.Close()
}
