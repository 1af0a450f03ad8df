// Package consensus defines the single RPC the importer consumes from the
// distributed consensus module (spec section 6): add(key, delta) returning
// the pre-increment value. The real Raft/etcd-backed implementation is an
// external collaborator out of scope for this core (spec section 1); this
// package only carries the interface plus an in-process counter usable in
// tests and as a single-node default, the way spec section 9's "Global
// state" note asks factories to be dependency-injected rather than
// process-global.
package consensus

import (
	"context"
	"sync"
)

// Consensus is the interface the importer consumes. Add atomically
// increments the counter named key by delta and returns its value before
// the increment.
type Consensus interface {
	Add(ctx context.Context, key string, delta int64) (prior int64, err error)
}

// InProcess is a single-node Consensus backed by an in-memory counter map,
// suitable for tests and for a standalone node with no real replication.
type InProcess struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewInProcess returns a ready InProcess counter.
func NewInProcess() *InProcess {
	return &InProcess{counters: make(map[string]int64)}
}

// Add implements Consensus.
func (c *InProcess) Add(_ context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prior := c.counters[key]
	c.counters[key] = prior + delta
	return prior, nil
}
