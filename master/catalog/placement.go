package catalog

import "github.com/cubefs/graphmeta/proto"

// pickHosts places the replicas of partition partID on hosts starting at
// offset partID, wrapping around. The caller guarantees len(hosts) >= replicaFactor.
func pickHosts(partID proto.PartID, replicaFactor uint32, hosts []proto.HostAddr) []proto.HostAddr {
	if len(hosts) == 0 {
		return []proto.HostAddr{}
	}
	picked := make([]proto.HostAddr, 0, replicaFactor)
	for i := uint32(0); i < replicaFactor; i++ {
		picked = append(picked, hosts[(uint64(partID)+uint64(i))%uint64(len(hosts))])
	}
	return picked
}
