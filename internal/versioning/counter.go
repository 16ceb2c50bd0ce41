// Package versioning keeps the per-item monotonic version counters used as
// optimistic concurrency tokens.
//
// A counter is a plain per-item integer, not a vector clock: it orders the
// edits of one replica and detects that another replica moved past it, which
// is enough for last-writer-wins-class strategies only.
package versioning

import (
	"sync"

	"github.com/iudanet/postboy/internal/models"
)

// Counters хранит последнюю известную версию каждой сущности
type Counters struct {
	versions map[models.ItemKey]int64
	mu       sync.Mutex
}

// NewCounters creates an empty set of counters
func NewCounters() *Counters {
	return &Counters{versions: make(map[models.ItemKey]int64)}
}

// NewCountersFrom restores counters, e.g. after a restart
func NewCountersFrom(versions map[models.ItemKey]int64) *Counters {
	c := NewCounters()
	for k, v := range versions {
		if v > 0 {
			c.versions[k] = v
		}
	}
	return c
}

// Current returns the last committed or observed version, 0 if unknown
func (c *Counters) Current(key models.ItemKey) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.versions[key]
}

// Peek returns the version the next local change of key would get.
// It does not advance the counter; call Commit once the change is accepted.
func (c *Counters) Peek(key models.ItemKey) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.versions[key] + 1
}

// Commit records version as used. Lower or equal versions are ignored,
// so the counter never goes back.
func (c *Counters) Commit(key models.ItemKey, version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if version > c.versions[key] {
		c.versions[key] = version
	}
}

// Observe merges a version seen on the remote side:
// counter = max(local, remote). The next local change gets max+1.
func (c *Counters) Observe(key models.ItemKey, remote int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remote > c.versions[key] {
		c.versions[key] = remote
	}
	return c.versions[key]
}

// Snapshot returns a copy of all counters
func (c *Counters) Snapshot() map[models.ItemKey]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[models.ItemKey]int64, len(c.versions))
	for k, v := range c.versions {
		out[k] = v
	}
	return out
}
