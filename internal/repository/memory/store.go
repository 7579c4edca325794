// Package memory is a process-local implementation of the persistence
// gateway. It backs STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

// Store keeps every entity in maps guarded by one RWMutex.
type Store struct {
	mu            sync.RWMutex
	users         map[string]user.User
	directs       []message.DirectMessage
	groupMessages []message.GroupMessage
	groups        map[string]group.Group
	files         map[string]file.File
}

func New() *Store {
	return &Store{
		users:  make(map[string]user.User),
		groups: make(map[string]group.Group),
		files:  make(map[string]file.File),
	}
}

// Gateway exposes s through the repository interfaces.
func (s *Store) Gateway() repository.Store {
	return repository.Store{
		Users:    s,
		Messages: s,
		Groups:   s,
		Files:    s,
		Ping:     func(context.Context) error { return nil },
	}
}

func (s *Store) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return chaterrors.ErrAlreadyExists
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) || existing.Username == u.Username {
			return chaterrors.ErrAlreadyExists
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return user.User{}, chaterrors.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, chaterrors.ErrNotFound
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]user.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *Store) FindUsersExcept(_ context.Context, exceptID string) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]user.User, 0, len(s.users))
	for id, u := range s.users {
		if exceptID != "" && id == exceptID {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateDirectMessage(_ context.Context, m *message.DirectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directs = append(s.directs, *m)
	return nil
}

func (s *Store) CreateGroupMessage(_ context.Context, m *message.GroupMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupMessages = append(s.groupMessages, *m)
	return nil
}

func (s *Store) GetDirectMessagesBetween(_ context.Context, a, b string) ([]message.DirectMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []message.DirectMessage
	for _, m := range s.directs {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetGroupMessages(_ context.Context, groupID string) ([]message.GroupMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []message.GroupMessage
	for _, m := range s.groupMessages {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateGroup(_ context.Context, g *group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; ok {
		return chaterrors.ErrAlreadyExists
	}
	stored := *g
	stored.Members = append([]string(nil), g.Members...)
	s.groups[g.ID] = stored
	return nil
}

func (s *Store) GetGroupByID(_ context.Context, id string) (group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return group.Group{}, chaterrors.ErrNotFound
	}
	return g, nil
}

func (s *Store) FindGroupsForMember(_ context.Context, member string) ([]group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]group.Group, 0)
	for _, g := range s.groups {
		if member == "" || g.HasMember(member) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return chaterrors.ErrNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *Store) CreateFileRecord(_ context.Context, f *file.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[f.ID]; ok {
		return chaterrors.ErrAlreadyExists
	}
	s.files[f.ID] = *f
	return nil
}

func (s *Store) GetFileByID(_ context.Context, id string) (file.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return file.File{}, chaterrors.ErrNotFound
	}
	return f, nil
}

func (s *Store) GetFilesByIDs(_ context.Context, ids []string) (map[string]file.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]file.File, len(ids))
	for _, id := range ids {
		if f, ok := s.files[id]; ok {
			out[id] = f
		}
	}
	return out, nil
}
