package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNamespaceLocks(t *testing.T) {
	l := newNamespaceLocks()
	require.Same(t, l.get(EntitySpace), l.get(EntitySpace))
	require.Panics(t, func() { l.get(EntityClass(100)) })

	unlock := l.lock(EntitySpace)
	acquired := make(chan struct{})
	go func() {
		lk := l.get(EntitySpace)
		lk.RLock()
		close(acquired)
		lk.RUnlock()
	}()

	select {
	case <-acquired:
		t.Fatal("read lock acquired while write lock held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	<-acquired
}
