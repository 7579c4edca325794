// Package rooms derives live-channel room identifiers. Room ids are pure
// functions of participant ids or a group id, so any client can rebuild the
// room it needs without asking the server.
package rooms

import (
	"strings"
)

// Separator joins the two participant ids of a private room.
const Separator = "_"

// Route says how an inbound live message found its room.
type Route int

const (
	// RouteNone means neither a room nor a sender/receiver pair was present.
	RouteNone Route = iota
	// RouteExplicit means the event named its room.
	RouteExplicit
	// RoutePair means the room was derived from the sender/receiver pair.
	RoutePair
)

func (r Route) String() string {
	switch r {
	case RouteExplicit:
		return "explicit"
	case RoutePair:
		return "pair"
	default:
		return "none"
	}
}

// PrivateRoomID returns the room shared by a and b: the two ids sorted
// lexicographically and joined with Separator. PrivateRoomID(a, b) ==
// PrivateRoomID(b, a) for every pair.
func PrivateRoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + Separator + b
}

// GroupRoomID returns the room of a group, which is the group id itself.
func GroupRoomID(groupID string) string {
	return groupID
}

// Resolve picks the target room of an inbound message. An explicit room
// wins over a sender/receiver pair; with neither, the route is RouteNone and
// the room is empty.
func Resolve(room, senderID, receiverID string) (string, Route) {
	if room = strings.TrimSpace(room); room != "" {
		return room, RouteExplicit
	}
	if senderID != "" && receiverID != "" {
		return PrivateRoomID(senderID, receiverID), RoutePair
	}
	return "", RouteNone
}

// Participants splits a private room id back into its two participants. It
// reports false for ids that were not built by PrivateRoomID from ids
// without the separator.
func Participants(roomID string) (string, string, bool) {
	parts := strings.Split(roomID, Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
