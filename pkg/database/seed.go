package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	Password      string
	TestUserCount int
	WithGroup     bool
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		Password:      "Password@123",
		TestUserCount: 3,
		WithGroup:     true,
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	Users    []user.User
	Group    *group.Group
	Messages []message.DirectMessage
}

// SeedDevelopment creates test users (alice, bob, ...), a conversation
// between the first two and, optionally, a group containing all of them.
// Users that already exist are reused.
func SeedDevelopment(ctx context.Context, store repository.Store, cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	names := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	if cfg.TestUserCount > len(names) {
		cfg.TestUserCount = len(names)
	}

	result := &SeedResult{}
	now := time.Now().UTC()
	for _, name := range names[:cfg.TestUserCount] {
		email := name + "@example.com"
		u := user.User{
			ID:           uuid.NewString(),
			Name:         name,
			Username:     email,
			Email:        email,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := store.Users.Create(ctx, &u)
		if errors.Is(err, chaterrors.ErrAlreadyExists) {
			u, err = store.Users.GetUserByEmail(ctx, email)
		}
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", email, err)
		}
		result.Users = append(result.Users, u)
		log.Printf("Seeded user %s (%s)", email, u.ID)
	}

	if len(result.Users) >= 2 {
		a, b := result.Users[0], result.Users[1]
		for i, text := range []string{"hi " + b.Name, "hello " + a.Name} {
			from, to := a, b
			if i%2 == 1 {
				from, to = b, a
			}
			m := message.DirectMessage{
				ID:         uuid.NewString(),
				SenderID:   from.ID,
				ReceiverID: to.ID,
				Text:       text,
				Timestamp:  now.Add(time.Duration(i) * time.Second),
			}
			if err := store.Messages.CreateDirectMessage(ctx, &m); err != nil {
				return nil, fmt.Errorf("seed message: %w", err)
			}
			result.Messages = append(result.Messages, m)
		}
	}

	if cfg.WithGroup && len(result.Users) > 0 {
		members := make([]string, 0, len(result.Users))
		for _, u := range result.Users {
			members = append(members, u.ID)
		}
		creator := result.Users[0].ID
		g := group.Group{
			ID:        uuid.NewString(),
			Name:      "general",
			Members:   group.NormalizeMembers(members),
			CreatedBy: &creator,
			CreatedAt: now,
		}
		if err := store.Groups.CreateGroup(ctx, &g); err != nil {
			return nil, fmt.Errorf("seed group: %w", err)
		}
		result.Group = &g
	}

	return result, nil
}
