package meter

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyLocks serializes read-modify-write sequences per key. The underlying
// KV store offers plain get/set only, so without this two concurrent writers
// on the same index or aggregate key would both read the same prior value
// and the second write would clobber the first. Striping keeps the lock
// table bounded; unrelated keys rarely share a stripe.
//
// The guarantee is per-process. Multiple processes writing the same keyspace
// would need an authority in the store itself.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

// lock acquires the stripe for key and returns its unlock function.
func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
