// Package keyedmutex serializes mutations per entity key: swipe
// processing per user pair, message appends per match, reputation
// recompute per user.
package keyedmutex

import (
	"hash/fnv"
	"sync"
)

const stripes = 64

// KeyedMutex maps string keys onto a fixed set of lock stripes. Two
// different keys may share a stripe; that only costs contention, never
// correctness.
type KeyedMutex struct {
	locks [stripes]sync.Mutex
}

func New() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the stripe for key and returns the unlock func.
func (m *KeyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &m.locks[h.Sum32()%stripes]
	mu.Lock()
	return mu.Unlock
}
