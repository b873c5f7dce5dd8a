package cluster

import (
	"encoding/json"
	"sync"

	"github.com/google/btree"

	"github.com/cubefs/graphmeta/proto"
)

const btreeDegree = 8

type hostInfo struct {
	Addr          proto.HostAddr `json:"addr"`
	LastHeartbeat int64          `json:"last_heartbeat"` // unix milliseconds
}

func (h *hostInfo) Marshal() ([]byte, error) {
	return json.Marshal(h)
}

func (h *hostInfo) Unmarshal(data []byte) error {
	return json.Unmarshal(data, h)
}

func (h hostInfo) isAlive(threshold int64) bool {
	return h.LastHeartbeat >= threshold
}

func hostLess(a, b hostInfo) bool {
	return a.Addr < b.Addr
}

// hostSet keeps hosts ordered by address.
type hostSet struct {
	tree *btree.BTreeG[hostInfo]
	lock sync.RWMutex
}

func newHostSet() *hostSet {
	return &hostSet{tree: btree.NewG[hostInfo](btreeDegree, hostLess)}
}

// put keeps the most recent heartbeat of the host.
func (s *hostSet) put(h hostInfo) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if old, ok := s.tree.Get(h); ok && old.LastHeartbeat > h.LastHeartbeat {
		return
	}
	s.tree.ReplaceOrInsert(h)
}

func (s *hostSet) get(addr proto.HostAddr) (hostInfo, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.tree.Get(hostInfo{Addr: addr})
}

func (s *hostSet) len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.tree.Len()
}

// list returns a copy of the hosts accepted by filter, in address order.
func (s *hostSet) list(filter func(h hostInfo) bool) []hostInfo {
	s.lock.RLock()
	defer s.lock.RUnlock()

	ret := make([]hostInfo, 0, s.tree.Len())
	s.tree.Ascend(func(h hostInfo) bool {
		if filter == nil || filter(h) {
			ret = append(ret, h)
		}
		return true
	})
	return ret
}
