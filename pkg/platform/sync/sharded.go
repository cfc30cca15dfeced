package sync

import (
	"hash/fnv"
	"sync"
)

const defaultShards = 32

// ShardedMutex provides fine-grained locking using sharded mutexes.
// Operations are distributed across N shards based on a hash of the resource
// key, so unrelated keys rarely contend while equal keys always serialize.
type ShardedMutex struct {
	shards []sync.Mutex
}

// NewShardedMutex creates a ShardedMutex with the given shard count.
// A non-positive count falls back to 32 shards.
func NewShardedMutex(shards int) *ShardedMutex {
	if shards <= 0 {
		shards = defaultShards
	}
	return &ShardedMutex{shards: make([]sync.Mutex, shards)}
}

// Lock acquires the lock for the given key's shard.
// Empty keys default to shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the lock for the given key's shard.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// WithLock runs fn while holding the key's shard lock.
func (m *ShardedMutex) WithLock(key string, fn func() error) error {
	m.Lock(key)
	defer m.Unlock(key)
	return fn()
}

func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}
