package websocket

import (
	"context"
	"errors"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/rooms"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

// RoomAuthorizer decides whether a connection may join a room. A nil
// authorizer lets every join through.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID, room string) (bool, error)
}

// GroupLookup is the slice of the group repository the authorizer needs.
type GroupLookup interface {
	GetGroupByID(ctx context.Context, id string) (group.Group, error)
}

// MembershipAuthorizer allows a private room join only to its two
// participants and a group room join only to the group's members.
// Anonymous connections are always refused.
type MembershipAuthorizer struct {
	groups GroupLookup
}

func NewMembershipAuthorizer(groups GroupLookup) *MembershipAuthorizer {
	return &MembershipAuthorizer{groups: groups}
}

func (a *MembershipAuthorizer) CanJoin(ctx context.Context, userID, room string) (bool, error) {
	if userID == "" || room == "" {
		return false, nil
	}

	if first, second, ok := rooms.Participants(room); ok {
		return userID == first || userID == second, nil
	}

	g, err := a.groups.GetGroupByID(ctx, room)
	if errors.Is(err, chaterrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return g.HasMember(userID), nil
}
