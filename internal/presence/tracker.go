package presence

import (
	"sync"
	"time"
)

// Tracker keeps per-user live connection state for this process only.
// It starts empty, is mutated solely by Connect/Disconnect, and is never
// persisted; after a restart every user is offline until they reconnect.
// It is not synchronized across processes, so a horizontally scaled
// deployment would report inconsistent presence. That limitation is
// accepted; scaling presence out would require an external shared store.
type Tracker struct {
	mu       sync.RWMutex
	conns    map[int]map[string]struct{}
	lastSeen map[int]time.Time
	now      func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		conns:    make(map[int]map[string]struct{}),
		lastSeen: make(map[int]time.Time),
		now:      time.Now,
	}
}

// Connect registers a connection and reports whether the user just
// transitioned offline→online. A second tab connecting while the user is
// already online returns false, so callers broadcast exactly one event
// per transition.
func (t *Tracker) Connect(userID int, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		t.conns[userID] = set
	}
	set[connID] = struct{}{}
	t.lastSeen[userID] = t.now()
	return len(set) == 1
}

// Disconnect removes a connection and reports whether the user just
// transitioned online→offline. Removing an unknown connection is a no-op.
func (t *Tracker) Disconnect(userID int, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	t.lastSeen[userID] = t.now()
	if len(set) == 0 {
		delete(t.conns, userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (t *Tracker) IsOnline(userID int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns[userID]) > 0
}

// LastSeen returns the user's last connect/disconnect time, if any.
func (t *Tracker) LastSeen(userID int) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ts, ok := t.lastSeen[userID]
	return ts, ok
}

// OnlineSubset filters userIDs down to those currently online,
// preserving input order.
func (t *Tracker) OnlineSubset(userIDs []int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	online := make([]int, 0, len(userIDs))
	for _, id := range userIDs {
		if len(t.conns[id]) > 0 {
			online = append(online, id)
		}
	}
	return online
}
