package cluster

import (
	"context"

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/master/store"
	"github.com/cubefs/graphmeta/proto"
)

var (
	clusterCF = store.ClusterCF

	hostKeyPrefix = []byte("h")
	keyInfix      = []byte("/")
)

type storage struct {
	kvStore kvstore.Store
}

func (s *storage) Load(ctx context.Context) ([]hostInfo, error) {
	prefix := append(append([]byte{}, hostKeyPrefix...), keyInfix...)
	lr := s.kvStore.List(ctx, clusterCF, prefix, nil)
	defer lr.Close()

	var res []hostInfo
	for {
		kg, vg, err := lr.ReadNext()
		if err != nil {
			return nil, err
		}
		if kg == nil || vg == nil {
			break
		}
		h := hostInfo{}
		err = h.Unmarshal(vg.Value())
		kg.Close()
		vg.Close()
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}

	return res, nil
}

func (s *storage) Put(ctx context.Context, h *hostInfo) error {
	value, err := h.Marshal()
	if err != nil {
		return err
	}
	return s.kvStore.SetRaw(ctx, clusterCF, encodeHostKey(h.Addr), value, nil)
}

func (s *storage) Get(ctx context.Context, addr proto.HostAddr) (*hostInfo, error) {
	value, err := s.kvStore.GetRaw(ctx, clusterCF, encodeHostKey(addr))
	if err != nil {
		return nil, err
	}
	h := &hostInfo{}
	if err = h.Unmarshal(value); err != nil {
		return nil, err
	}
	return h, nil
}

func encodeHostKey(addr proto.HostAddr) []byte {
	key := make([]byte, 0, len(hostKeyPrefix)+len(keyInfix)+len(addr))
	key = append(key, hostKeyPrefix...)
	key = append(key, keyInfix...)
	return append(key, addr...)
}
