package catalog

import (
	"sync"
	"time"

	"github.com/cubefs/graphmeta/metrics"
)

type EntityClass int

const (
	EntitySpace EntityClass = iota + 1
)

func (e EntityClass) String() string {
	switch e {
	case EntitySpace:
		return "space"
	default:
		return "unknown"
	}
}

// namespaceLocks holds one process wide lock per entity class. Mutations of a
// class hold the write side, queries hold the read side. Not reentrant.
type namespaceLocks struct {
	locks map[EntityClass]*sync.RWMutex
}

func newNamespaceLocks() *namespaceLocks {
	return &namespaceLocks{
		locks: map[EntityClass]*sync.RWMutex{
			EntitySpace: {},
		},
	}
}

func (l *namespaceLocks) get(class EntityClass) *sync.RWMutex {
	lk, ok := l.locks[class]
	if !ok {
		panic("no namespace lock of entity class " + class.String())
	}
	return lk
}

// lock takes the write side of class and returns the matching unlock.
func (l *namespaceLocks) lock(class EntityClass) (unlock func()) {
	lk := l.get(class)
	lk.Lock()
	start := time.Now()
	return func() {
		metrics.NamespaceLockHold.WithLabelValues(class.String()).Observe(time.Since(start).Seconds())
		lk.Unlock()
	}
}
