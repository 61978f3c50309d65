// Package runtime is the live side of the delivery engine: connection
// registry, message dispatch and reconnection replay. It holds no
// durable state and no business rules.
package runtime

import (
	"hash/fnv"
	"sync"

	"market-chat/contract"
	"market-chat/domain"
)

const registryShards = 32

// Registry maps a user identity to its live connections. It is the
// most contended structure in the system: every fan-out and every
// connect/disconnect goes through it. Users are spread over fixed
// shards, each with its own RWMutex, so unrelated users' traffic never
// serializes on one lock.
type Registry struct {
	shards [registryShards]registryShard
}

type registryShard struct {
	mu    sync.RWMutex
	users map[domain.UserID]map[string]contract.Conn
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].users = make(map[domain.UserID]map[string]contract.Conn)
	}
	return r
}

func (r *Registry) shardFor(user domain.UserID) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(user))
	return &r.shards[h.Sum32()%registryShards]
}

// Register adds the connection to its user's set. The entry is created
// on the user's first connection.
func (r *Registry) Register(c contract.Conn) {
	shard := r.shardFor(c.User())
	shard.mu.Lock()
	defer shard.mu.Unlock()

	conns, ok := shard.users[c.User()]
	if !ok {
		conns = make(map[string]contract.Conn)
		shard.users[c.User()] = conns
	}
	conns[c.ID()] = c
}

// Unregister removes one connection. Removing an unknown id is a
// no-op; the user entry disappears when its set becomes empty.
func (r *Registry) Unregister(user domain.UserID, connID string) {
	shard := r.shardFor(user)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	conns, ok := shard.users[user]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(shard.users, user)
	}
}

// ConnectionsFor returns a snapshot of the user's live connections.
// The slice is owned by the caller; later register/unregister calls
// never mutate it.
func (r *Registry) ConnectionsFor(user domain.UserID) []contract.Conn {
	shard := r.shardFor(user)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	conns, ok := shard.users[user]
	if !ok {
		return nil
	}
	snapshot := make([]contract.Conn, 0, len(conns))
	for _, c := range conns {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

func (r *Registry) Connected(user domain.UserID) bool {
	shard := r.shardFor(user)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return len(shard.users[user]) > 0
}
