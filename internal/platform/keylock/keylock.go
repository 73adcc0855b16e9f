// Package keylock provides mutual exclusion keyed by an arbitrary string, used
// to serialise check-then-write sequences on the same booking triple.
package keylock

import (
	"context"
	"hash/fnv"
	"sync"
)

// Locker acquires an exclusive lock on key. The returned func releases it and
// must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// DefaultShards is the shard count used by NewSharded when n <= 0.
const DefaultShards = 256

// Sharded is an in-process Locker. Keys are hashed onto a fixed set of
// mutexes, so two distinct keys may share a shard; that only costs
// contention, never correctness.
type Sharded struct {
	shards []sync.Mutex
}

// NewSharded creates a Sharded locker with n shards.
func NewSharded(n int) *Sharded {
	if n <= 0 {
		n = DefaultShards
	}
	return &Sharded{shards: make([]sync.Mutex, n)}
}

// Lock blocks until the shard owning key is free. A context that is already
// done is reported before waiting.
func (s *Sharded) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mu := &s.shards[s.shardFor(key)]
	mu.Lock()
	var once sync.Once
	return func() { once.Do(mu.Unlock) }, nil
}

func (s *Sharded) shardFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.shards)))
}
