package proto

const (
	ReqIdKey = "req-id"
)

type (
	SpaceID = uint64
	PartID  = uint32
)

// HostAddr is a storage host in "ip:port" form.
type HostAddr = string
