package websocket

import (
	"encoding/json"
	"strings"
)

const publishedKeysSize = 4096

// publishedKeys is a fixed-size set of recently published payload keys.
// The oldest key is forgotten once the set is full.
type publishedKeys struct {
	seen map[string]struct{}
	ring []string
	next int
}

func newPublishedKeys(size int) *publishedKeys {
	return &publishedKeys{
		seen: make(map[string]struct{}, size),
		ring: make([]string, size),
	}
}

// add records key and reports whether it was not already present.
func (p *publishedKeys) add(key string) bool {
	if _, ok := p.seen[key]; ok {
		return false
	}
	if old := p.ring[p.next]; old != "" {
		delete(p.seen, old)
	}
	p.ring[p.next] = key
	p.next = (p.next + 1) % len(p.ring)
	p.seen[key] = struct{}{}
	return true
}

// publishKey names a payload by event and persisted id. Payloads without an
// id are never treated as duplicates.
func publishKey(event string, data json.RawMessage) string {
	var body struct {
		ID string `json:"id"`
	}
	if len(data) == 0 || json.Unmarshal(data, &body) != nil {
		return ""
	}
	id := strings.TrimSpace(body.ID)
	if id == "" {
		return ""
	}
	return event + ":" + id
}

// encodeKeyed is Encode plus the publish key of data.
func encodeKeyed(event string, data interface{}) ([]byte, string, error) {
	f := Frame{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, "", err
		}
		f.Data = raw
	}
	frame, err := json.Marshal(f)
	if err != nil {
		return nil, "", err
	}
	return frame, publishKey(event, f.Data), nil
}
