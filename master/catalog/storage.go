package catalog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cubefs/graphmeta/common/kvstore"
	"github.com/cubefs/graphmeta/master/store"
	"github.com/cubefs/graphmeta/proto"
)

const CF = store.CatalogCF

var (
	indexKeyPrefix = []byte("i")
	spaceKeyPrefix = []byte("c")
	partKeyPrefix  = []byte("p")
	keyInfix       = []byte("/")
)

func newStorage(kvStore *store.Store) *storage {
	return &storage{
		kvStore:       kvStore.KVStore(),
		keysGenerator: &keysGenerator{},
	}
}

type storage struct {
	kvStore       kvstore.Store
	keysGenerator *keysGenerator
}

// GetSpaceID returns kvstore.ErrNotFound when no space is named name.
func (s *storage) GetSpaceID(ctx context.Context, name string) (proto.SpaceID, error) {
	v, err := s.kvStore.GetRaw(ctx, CF, s.keysGenerator.encodeIndexKey(name))
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("invalid index value of space %s, size %d", name, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (s *storage) GetSpace(ctx context.Context, sid proto.SpaceID) (*proto.SpaceProperties, error) {
	v, err := s.kvStore.GetRaw(ctx, CF, s.keysGenerator.encodeSpaceKey(sid))
	if err != nil {
		return nil, err
	}
	props := &proto.SpaceProperties{}
	if err = json.Unmarshal(v, props); err != nil {
		return nil, err
	}
	return props, nil
}

func (s *storage) ListSpaces(ctx context.Context) (ret []proto.SpaceMeta, err error) {
	lr := s.kvStore.List(ctx, CF, s.keysGenerator.encodeSpaceKeyPrefix(), nil)
	defer lr.Close()

	for {
		kg, vg, err := lr.ReadNext()
		if err != nil {
			return nil, err
		}
		if kg == nil || vg == nil {
			return ret, nil
		}

		meta := proto.SpaceMeta{ID: s.keysGenerator.decodeSpaceKey(kg.Key())}
		err = json.Unmarshal(vg.Value(), &meta.Properties)
		kg.Close()
		vg.Close()
		if err != nil {
			return nil, err
		}
		ret = append(ret, meta)
	}
}

func (s *storage) ListParts(ctx context.Context, sid proto.SpaceID) (ret []proto.PartMeta, err error) {
	lr := s.kvStore.List(ctx, CF, s.keysGenerator.encodePartKeyPrefix(sid), nil)
	defer lr.Close()

	for {
		kg, vg, err := lr.ReadNext()
		if err != nil {
			return nil, err
		}
		if kg == nil || vg == nil {
			return ret, nil
		}

		part := proto.PartMeta{SpaceID: sid, PartID: s.keysGenerator.decodePartKey(kg.Key())}
		err = json.Unmarshal(vg.Value(), &part.Hosts)
		kg.Close()
		vg.Close()
		if err != nil {
			return nil, err
		}
		ret = append(ret, part)
	}
}

// CreateSpaceBatch encodes the index, properties and partition entries of a
// new space into one write batch and returns its serialized form.
// parts[i] holds the replicas of partition i+1.
func (s *storage) CreateSpaceBatch(sid proto.SpaceID, props *proto.SpaceProperties, parts [][]proto.HostAddr) ([]byte, error) {
	batch := s.kvStore.NewWriteBatch()
	defer batch.Close()

	id := make([]byte, 8)
	binary.BigEndian.PutUint64(id, sid)
	batch.Put(CF, s.keysGenerator.encodeIndexKey(props.Name), id)

	data, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	batch.Put(CF, s.keysGenerator.encodeSpaceKey(sid), data)

	for i := range parts {
		hosts, err := json.Marshal(parts[i])
		if err != nil {
			return nil, err
		}
		batch.Put(CF, s.keysGenerator.encodePartKey(sid, proto.PartID(i+1)), hosts)
	}

	raw := batch.Data()
	ret := make([]byte, len(raw))
	copy(ret, raw)
	return ret, nil
}

// WriteBatch commits a batch built by CreateSpaceBatch atomically.
func (s *storage) WriteBatch(ctx context.Context, data []byte) error {
	batch := s.kvStore.NewWriteBatch()
	defer batch.Close()

	batch.From(data)
	wo := s.kvStore.NewWriteOption()
	defer wo.Close()
	wo.SetSync(true)
	return s.kvStore.Write(ctx, batch, wo)
}

type keysGenerator struct{}

func (k *keysGenerator) encodeIndexKey(name string) []byte {
	ret := make([]byte, len(indexKeyPrefix)+len(keyInfix)+len(name))
	copy(ret, indexKeyPrefix)
	copy(ret[len(indexKeyPrefix):], keyInfix)
	copy(ret[len(indexKeyPrefix)+len(keyInfix):], name)
	return ret
}

func (k *keysGenerator) encodeSpaceKey(sid proto.SpaceID) []byte {
	ret := make([]byte, len(spaceKeyPrefix)+len(keyInfix)+8)
	copy(ret, spaceKeyPrefix)
	copy(ret[len(spaceKeyPrefix):], keyInfix)
	binary.BigEndian.PutUint64(ret[len(ret)-8:], sid)
	return ret
}

func (k *keysGenerator) decodeSpaceKey(key []byte) proto.SpaceID {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

func (k *keysGenerator) encodePartKey(sid proto.SpaceID, partID proto.PartID) []byte {
	ret := make([]byte, len(partKeyPrefix)+len(keyInfix)+8+len(keyInfix)+4)
	copy(ret, partKeyPrefix)
	copy(ret[len(partKeyPrefix):], keyInfix)
	binary.BigEndian.PutUint64(ret[len(partKeyPrefix)+len(keyInfix):], sid)
	copy(ret[len(ret)-4-len(keyInfix):], keyInfix)
	binary.BigEndian.PutUint32(ret[len(ret)-4:], partID)
	return ret
}

func (k *keysGenerator) decodePartKey(key []byte) proto.PartID {
	return binary.BigEndian.Uint32(key[len(key)-4:])
}

func (k *keysGenerator) encodeSpaceKeyPrefix() []byte {
	ret := make([]byte, len(spaceKeyPrefix)+len(keyInfix))
	copy(ret, spaceKeyPrefix)
	copy(ret[len(spaceKeyPrefix):], keyInfix)
	return ret
}

func (k *keysGenerator) encodePartKeyPrefix(sid proto.SpaceID) []byte {
	ret := make([]byte, len(partKeyPrefix)+len(keyInfix)+8+len(keyInfix))
	copy(ret, partKeyPrefix)
	copy(ret[len(partKeyPrefix):], keyInfix)
	binary.BigEndian.PutUint64(ret[len(partKeyPrefix)+len(keyInfix):], sid)
	copy(ret[len(ret)-len(keyInfix):], keyInfix)
	return ret
}
