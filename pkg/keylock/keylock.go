package keylock

import (
	"hash/fnv"
	"sync"
)

// KeyLock serializes work per string key without a single global lock. Keys
// are hashed onto a fixed set of shards, so two events for the same identity
// always contend on the same mutex while unrelated identities almost never do.
type KeyLock struct {
	shards []sync.Mutex
}

const defaultShards = 64

// New creates a KeyLock with the given shard count (rounded up to at least 1).
func New(shards int) *KeyLock {
	if shards < 1 {
		shards = defaultShards
	}
	return &KeyLock{shards: make([]sync.Mutex, shards)}
}

func (k *KeyLock) shard(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &k.shards[h.Sum32()%uint32(len(k.shards))]
}

// Lock acquires the shard mutex for key.
func (k *KeyLock) Lock(key string) {
	k.shard(key).Lock()
}

// Unlock releases the shard mutex for key.
func (k *KeyLock) Unlock(key string) {
	k.shard(key).Unlock()
}
