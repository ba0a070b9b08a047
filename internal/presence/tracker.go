package presence

import (
	"log"
	"sync"
	"time"

	"roomchat/backend/internal/storage"
)

// Tracker derives per-user online/offline state from the number of that
// user's currently active connections. A user goes online on the 0→1
// transition and offline on 1→0; intermediate transitions are silent, so a
// multi-device user stays online until the last connection drops.
type Tracker struct {
	mu      sync.Mutex
	counts  map[string]int
	storage storage.Storage

	now func() time.Time
}

func NewTracker(s storage.Storage) *Tracker {
	return &Tracker{
		counts:  make(map[string]int),
		storage: s,
		now:     time.Now,
	}
}

// Bind registers one more active connection for userID. It returns true when
// the user transitioned offline→online. The persisted online flag is updated
// best-effort: a storage failure is logged, never surfaced.
func (t *Tracker) Bind(userID string) bool {
	t.mu.Lock()
	t.counts[userID]++
	wentOnline := t.counts[userID] == 1
	t.mu.Unlock()

	if wentOnline && t.storage != nil {
		if err := t.storage.SetUserPresence(userID, true, time.Time{}); err != nil {
			log.Printf("WARNING: Failed to persist online status for %s: %v", userID, err)
		}
	}
	return wentOnline
}

// Unbind releases one active connection for userID. It returns true when the
// user transitioned online→offline; in that case LastSeen is stamped with the
// unbind time. Persistence is best-effort and never blocks teardown.
func (t *Tracker) Unbind(userID string) bool {
	t.mu.Lock()
	n, ok := t.counts[userID]
	if !ok {
		t.mu.Unlock()
		return false
	}
	n--
	wentOffline := n <= 0
	if wentOffline {
		delete(t.counts, userID)
	} else {
		t.counts[userID] = n
	}
	t.mu.Unlock()

	if wentOffline && t.storage != nil {
		if err := t.storage.SetUserPresence(userID, false, t.now()); err != nil {
			log.Printf("WARNING: Failed to persist offline status for %s: %v", userID, err)
		}
	}
	return wentOffline
}

// IsOnline reports whether userID has at least one active connection.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[userID] > 0
}

// Connections returns the current connection count for userID.
func (t *Tracker) Connections(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[userID]
}
