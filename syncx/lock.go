package syncx

import (
	"sync"
)

// LockMap hands out one mutex per key.
type LockMap[K comparable] struct {
	locks sync.Map
}

func (lm *LockMap[K]) LoadOrCreate(key K) *sync.Mutex {
	v, ok := lm.locks.Load(key)
	if !ok {
		v, _ = lm.locks.LoadOrStore(key, &sync.Mutex{})
	}
	return v.(*sync.Mutex)
}
