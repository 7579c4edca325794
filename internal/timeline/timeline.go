// Package timeline merges persisted history with live events into the
// ordered, deduplicated message list a chat view renders.
package timeline

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
)

// ErrUnavailable is returned by Entries after a failed history load.
var ErrUnavailable = errors.New("unable to load history")

type State int

const (
	Loading State = iota
	Ready
	Unavailable
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Entry is one rendered message. An entry without an ID is an optimistic
// local copy waiting for the persisted one.
type Entry struct {
	ID              string
	ClientMessageID string
	SenderID        string
	Text            string
	FileURL         string
	FileName        string
	SenderName      string
	Timestamp       time.Time
	Pending         bool
	Failed          bool
}

func FromDirect(m message.EnrichedDirect) Entry {
	return Entry{
		ID:              m.ID,
		ClientMessageID: deref(m.ClientMessageID),
		SenderID:        m.SenderID,
		Text:            m.Text,
		FileURL:         m.FileURL,
		FileName:        m.FileName,
		SenderName:      m.SenderName,
		Timestamp:       m.Timestamp,
	}
}

func FromGroup(m message.EnrichedGroup) Entry {
	return Entry{
		ID:              m.ID,
		ClientMessageID: deref(m.ClientMessageID),
		SenderID:        m.From,
		Text:            m.Text,
		FileURL:         m.FileURL,
		FileName:        m.FileName,
		SenderName:      m.SenderName,
		Timestamp:       m.Time,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Timeline is safe for concurrent use: history loads, live events and
// local sends usually arrive on different goroutines.
type Timeline struct {
	mu      sync.Mutex
	state   State
	entries []Entry
	pending []Entry // arrived while loading

	byID      map[string]struct{}
	byClient  map[string]int      // client message id -> index of optimistic entry
	confirmed map[string]struct{} // client message ids with a persisted entry
}

// New returns a timeline waiting for its history.
func New() *Timeline {
	return &Timeline{
		state:     Loading,
		byID:      make(map[string]struct{}),
		byClient:  make(map[string]int),
		confirmed: make(map[string]struct{}),
	}
}

func (t *Timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// LoadHistory installs the persisted history and merges every event that
// arrived while it was loading. Local sends not yet persisted, including
// failed ones, survive a reload unless the history already holds them.
func (t *Timeline) LoadHistory(history []Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var unsent []Entry
	for _, e := range t.entries {
		if e.ID == "" && e.ClientMessageID != "" {
			unsent = append(unsent, e)
		}
	}

	t.entries = nil
	t.byID = make(map[string]struct{}, len(history))
	t.byClient = make(map[string]int)
	t.confirmed = make(map[string]struct{})

	sorted := append([]Entry(nil), history...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	for _, e := range sorted {
		if e.ID == "" {
			continue
		}
		if _, dup := t.byID[e.ID]; dup {
			continue
		}
		t.byID[e.ID] = struct{}{}
		if e.ClientMessageID != "" {
			t.confirmed[e.ClientMessageID] = struct{}{}
		}
		t.entries = append(t.entries, e)
	}

	t.state = Ready
	for _, e := range unsent {
		t.merge(e)
	}
	buffered := t.pending
	t.pending = nil
	for _, e := range buffered {
		t.merge(e)
	}
}

// FailHistory marks the load as failed. Live events keep being buffered so
// a later Reload and LoadHistory lose nothing.
func (t *Timeline) FailHistory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Unavailable
}

// Reload puts an unavailable timeline back into Loading.
func (t *Timeline) Reload() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Unavailable {
		t.state = Loading
	}
}

// Add feeds a persisted message, either from the live channel or from the
// response of a send.
func (t *Timeline) Add(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Ready {
		t.pending = append(t.pending, e)
		return
	}
	t.merge(e)
}

// AddOptimistic renders a local send before it is persisted.
func (t *Timeline) AddOptimistic(clientMessageID, senderID, text string, at time.Time) Entry {
	e := Entry{
		ClientMessageID: clientMessageID,
		SenderID:        senderID,
		Text:            text,
		Timestamp:       at,
		Pending:         true,
	}
	t.Add(e)
	return e
}

// MarkFailed flags the optimistic entry of a send that did not persist.
func (t *Timeline) MarkFailed(clientMessageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.byClient[clientMessageID]; ok {
		t.entries[i].Failed = true
		return
	}
	for i := range t.pending {
		if t.pending[i].Pending && t.pending[i].ClientMessageID == clientMessageID {
			t.pending[i].Failed = true
		}
	}
}

// merge must be called with mu held and the timeline Ready.
func (t *Timeline) merge(e Entry) {
	if e.ID == "" {
		if e.ClientMessageID == "" {
			return
		}
		if _, ok := t.byClient[e.ClientMessageID]; ok {
			return
		}
		if _, ok := t.confirmed[e.ClientMessageID]; ok {
			return
		}
		t.insert(e)
		return
	}

	if _, dup := t.byID[e.ID]; dup {
		return
	}
	t.byID[e.ID] = struct{}{}

	if e.ClientMessageID != "" {
		t.confirmed[e.ClientMessageID] = struct{}{}
		if i, ok := t.byClient[e.ClientMessageID]; ok {
			// the server timestamp decides the position, not the local one
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			delete(t.byClient, e.ClientMessageID)
		}
	}
	t.insert(e)
}

func (t *Timeline) insert(e Entry) {
	i := sort.Search(len(t.entries), func(i int) bool { return less(e, t.entries[i]) })
	t.entries = append(t.entries, Entry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = e
	t.reindex()
}

func (t *Timeline) reindex() {
	for k := range t.byClient {
		delete(t.byClient, k)
	}
	for i, e := range t.entries {
		if e.ID == "" && e.ClientMessageID != "" {
			t.byClient[e.ClientMessageID] = i
		}
	}
}

// Entries returns a copy of the ordered list. It returns ErrUnavailable
// after a failed load and nil while still loading.
func (t *Timeline) Entries() ([]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case Unavailable:
		return nil, ErrUnavailable
	case Loading:
		return nil, nil
	}
	return append([]Entry(nil), t.entries...), nil
}

// less orders by timestamp, then by id so equal timestamps are stable
// across reloads. Optimistic entries sort after persisted ones at the same
// instant.
func less(a, b Entry) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if (a.ID == "") != (b.ID == "") {
		return a.ID != ""
	}
	return a.ID < b.ID
}
