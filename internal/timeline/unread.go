package timeline

import "sync"

// Unread counts messages received for chats that are not open. It is a
// client-side cache: Reset on reconnect and rebuild from history.
type Unread struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewUnread() *Unread {
	return &Unread{counts: make(map[string]int)}
}

// Increment bumps the counter of key, a peer id or group id.
func (u *Unread) Increment(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts[key]++
	return u.counts[key]
}

// MarkRead clears the counter of key.
func (u *Unread) MarkRead(key string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.counts, key)
}

func (u *Unread) Count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[key]
}

// Snapshot returns a copy of every non-zero counter.
func (u *Unread) Snapshot() map[string]int {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]int, len(u.counts))
	for k, v := range u.counts {
		out[k] = v
	}
	return out
}

// Reset drops every counter.
func (u *Unread) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts = make(map[string]int)
}
