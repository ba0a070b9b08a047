package rooms

import "sync"

// roomLocks serializes all membership and invitation mutations for a given
// room ID. One mutex per room; the guard map itself is held only long enough
// to fetch the room's mutex.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for roomID and returns its unlock function.
func (r *roomLocks) lock(roomID string) func() {
	r.mu.Lock()
	m, ok := r.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[roomID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
