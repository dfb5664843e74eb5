// Package cooldown rate-limits repeated conversational behaviors per key.
//
// Expiry is evaluated lazily against the caller's logical clock; there are
// no background timers and expired entries are only replaced on the next
// Ping of the same key. Key cardinality is expected to stay bounded.
package cooldown

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultTTL is used when a Registry is created with a non-positive TTL.
const DefaultTTL = 10 * time.Second

// Verdict is the answer to a Ping.
type Verdict struct {
	Suppressed bool
	Remaining  time.Duration
}

// MarshalJSON encodes the remaining time in whole milliseconds.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Suppressed     bool  `json:"suppressed"`
		TTLRemainingMS int64 `json:"ttl_remaining_ms"`
	}{v.Suppressed, v.Remaining.Milliseconds()})
}

// Registry maps caller-defined keys to expiry times. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.Mutex
	expires    map[string]time.Time
	defaultTTL time.Duration
}

// New returns an empty Registry.
func New(defaultTTL time.Duration) *Registry {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Registry{
		expires:    map[string]time.Time{},
		defaultTTL: defaultTTL,
	}
}

// Ping is PingTTL with the registry's default TTL.
func (r *Registry) Ping(key string, now time.Time) Verdict {
	return r.PingTTL(key, now, r.defaultTTL)
}

// PingTTL reports whether key is inside an active window. An active window is
// left untouched. Otherwise a new window of ttl starting at now is opened and
// the ping is not suppressed.
func (r *Registry) PingTTL(key string, now time.Time, ttl time.Duration) Verdict {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if exp, ok := r.expires[key]; ok && now.Before(exp) {
		return Verdict{Suppressed: true, Remaining: exp.Sub(now)}
	}
	r.expires[key] = now.Add(ttl)
	return Verdict{}
}

// Clear removes the entry for key.
func (r *Registry) Clear(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.expires, key)
}

// Reset removes every entry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expires = map[string]time.Time{}
}

// Len returns the number of stored entries, expired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.expires)
}

// DefaultTTL returns the TTL used by Ping.
func (r *Registry) DefaultTTL() time.Duration {
	return r.defaultTTL
}
