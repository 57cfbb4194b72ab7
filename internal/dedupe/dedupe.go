// Package dedupe suppresses repeated identical submissions for a short
// window, absorbing client-side double-clicks. The guard is process-local and
// best-effort: it does not survive restarts and does not coordinate across
// server instances. It is a debounce, not a lock.
package dedupe

import (
	"strings"
	"sync"
	"time"
)

type Guard struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry deadline
}

func NewGuard(window time.Duration) *Guard {
	if window <= 0 {
		window = 5 * time.Second
	}
	return &Guard{
		window:  window,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

// Key builds a composite guard key from the identifying tuple of a
// submission.
func Key(parts ...string) string {
	return strings.Join(parts, "-")
}

// Acquire claims the key for the guard window. It returns false when the key
// is already held and unexpired, meaning the submission is a duplicate and
// should be suppressed.
func (g *Guard) Acquire(key string) bool {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if deadline, held := g.entries[key]; held && now.Before(deadline) {
		return false
	}

	g.entries[key] = now.Add(g.window)
	g.sweepLocked(now)
	return true
}

// Release frees the key before its window expires, once processing finished.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, key)
}

// sweepLocked drops expired entries so the map stays bounded by the number of
// distinct submissions per window.
func (g *Guard) sweepLocked(now time.Time) {
	for key, deadline := range g.entries {
		if !now.Before(deadline) {
			delete(g.entries, key)
		}
	}
}
