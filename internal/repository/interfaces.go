// Package repository is the persistence gateway: CRUD against durable
// storage for users, direct messages, group messages, groups and file
// metadata. Each create persists a single independent entity.
package repository

import (
	"context"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]user.User, error)
	// FindUsersExcept returns every user but exceptID, ordered by name.
	// An empty exceptID returns everyone.
	FindUsersExcept(ctx context.Context, exceptID string) ([]user.User, error)
}

type MessageRepository interface {
	CreateDirectMessage(ctx context.Context, m *message.DirectMessage) error
	CreateGroupMessage(ctx context.Context, m *message.GroupMessage) error
	// GetDirectMessagesBetween returns the messages exchanged by a and b in
	// either direction, oldest first.
	GetDirectMessagesBetween(ctx context.Context, a, b string) ([]message.DirectMessage, error)
	// GetGroupMessages returns the messages of a group, oldest first.
	GetGroupMessages(ctx context.Context, groupID string) ([]message.GroupMessage, error)
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, g *group.Group) error
	GetGroupByID(ctx context.Context, id string) (group.Group, error)
	// FindGroupsForMember returns the groups listing member, newest first.
	// An empty member returns every group.
	FindGroupsForMember(ctx context.Context, member string) ([]group.Group, error)
	DeleteGroup(ctx context.Context, id string) error
}

type FileRepository interface {
	CreateFileRecord(ctx context.Context, f *file.File) error
	GetFileByID(ctx context.Context, id string) (file.File, error)
	GetFilesByIDs(ctx context.Context, ids []string) (map[string]file.File, error)
}

// Store bundles the gateway repositories of one backing store.
type Store struct {
	Users    UserRepository
	Messages MessageRepository
	Groups   GroupRepository
	Files    FileRepository

	// Ping reports whether the backing store is reachable.
	Ping func(ctx context.Context) error
}
