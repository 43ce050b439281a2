// Package confirm implements the two-step delete flow: the first request
// for an entity arms a pending-confirm state, a second request for the
// same entity within the TTL is the confirmation. Each (owner, kind) holds
// at most one armed entity, so asking about a different row discards the
// previous pending delete.
package confirm

import (
	"sync"
	"time"
)

const DefaultTTL = 30 * time.Second

type key struct {
	owner string
	kind  string
}

type pending struct {
	id      string
	armedAt time.Time
}

type Tracker struct {
	mu  sync.Mutex
	ttl time.Duration
	arm map[key]pending
	now func() time.Time
}

func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		ttl: ttl,
		arm: make(map[key]pending),
		now: time.Now,
	}
}

// Confirm advances the state machine for (owner, kind, id) and reports
// whether the delete is confirmed. The first call arms the entity and
// returns false; a second call for the same id within the TTL returns true
// and disarms. An expired or mismatched pending entry is replaced, not
// confirmed.
func (t *Tracker) Confirm(owner, kind, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{owner: owner, kind: kind}
	now := t.now()
	if p, ok := t.arm[k]; ok && p.id == id && now.Sub(p.armedAt) <= t.ttl {
		delete(t.arm, k)
		return true
	}
	t.arm[k] = pending{id: id, armedAt: now}
	return false
}

// Reset clears any pending delete for (owner, kind); called when the
// client navigates away from the page that armed it.
func (t *Tracker) Reset(owner, kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.arm, key{owner: owner, kind: kind})
}
