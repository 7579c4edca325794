package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PresenceStatus is the record kept per user under presence:<userId>.
type PresenceStatus struct {
	UserID   string    `json:"userId"`
	IsOnline bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"`
}

// PresenceStore mirrors the in-process presence view into Redis so other
// processes and operators can read it.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// Redis key prefixes for presence
const (
	presenceKeyPrefix = "presence:"       // JSON PresenceStatus per user
	presenceOnlineSet = "presence:online" // Set of online user IDs
)

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &PresenceStore{
		client: client,
		ttl:    ttl,
	}
}

// SetOnline marks a user as online
func (p *PresenceStore) SetOnline(ctx context.Context, userID string) error {
	return p.write(ctx, PresenceStatus{UserID: userID, IsOnline: true, LastSeen: time.Now().UTC()})
}

// SetOffline marks a user as offline, keeping the record for last-seen queries.
func (p *PresenceStore) SetOffline(ctx context.Context, userID string) error {
	return p.write(ctx, PresenceStatus{UserID: userID, IsOnline: false, LastSeen: time.Now().UTC()})
}

func (p *PresenceStore) write(ctx context.Context, status PresenceStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+status.UserID, data, p.ttl)
	if status.IsOnline {
		pipe.SAdd(ctx, presenceOnlineSet, status.UserID)
	} else {
		pipe.SRem(ctx, presenceOnlineSet, status.UserID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// GetPresence returns the stored status, or an offline status when unknown.
func (p *PresenceStore) GetPresence(ctx context.Context, userID string) (*PresenceStatus, error) {
	data, err := p.client.Get(ctx, presenceKeyPrefix+userID).Result()
	if err == goredis.Nil {
		return &PresenceStatus{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}

	var status PresenceStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetOnlineUsers returns all online user IDs
func (p *PresenceStore) GetOnlineUsers(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, presenceOnlineSet).Result()
}

// Reset clears the online set. Called at start-up: a fresh process has no
// connections, so every previously online user is stale.
func (p *PresenceStore) Reset(ctx context.Context) error {
	return p.client.Del(ctx, presenceOnlineSet).Err()
}
