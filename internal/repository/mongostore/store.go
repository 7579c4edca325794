// Package mongostore implements the persistence gateway on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

const (
	usersCollection         = "users"
	directMessagesCollection = "direct_messages"
	groupMessagesCollection = "group_messages"
	groupsCollection        = "groups"
	filesCollection         = "files"
)

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Gateway exposes s through the repository interfaces.
func (s *Store) Gateway() repository.Store {
	return repository.Store{
		Users:    s,
		Messages: s,
		Groups:   s,
		Files:    s,
		Ping: func(ctx context.Context) error {
			return s.db.Client().Ping(ctx, readpref.Primary())
		},
	}
}

// EnsureIndexes creates the unique and ordering indexes the queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		directMessagesCollection: {
			{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		groupMessagesCollection: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "time", Value: 1}}},
		},
		groupsCollection: {
			{Keys: bson.D{{Key: "members", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		filesCollection: {
			{Keys: bson.D{{Key: "filename", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Drop removes every collection owned by the gateway.
func (s *Store) Drop(ctx context.Context) error {
	for _, coll := range []string{usersCollection, directMessagesCollection, groupMessagesCollection, groupsCollection, filesCollection} {
		if err := s.db.Collection(coll).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", coll, err)
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return chaterrors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return chaterrors.ErrAlreadyExists
	default:
		return err
	}
}

func (s *Store) insert(ctx context.Context, coll string, doc interface{}) error {
	_, err := s.db.Collection(coll).InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) findOne(ctx context.Context, coll string, filter bson.M, out interface{}) error {
	return translate(s.db.Collection(coll).FindOne(ctx, filter).Decode(out))
}

func (s *Store) findAll(ctx context.Context, coll string, filter bson.M, sort bson.D, out interface{}) error {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	cur, err := s.db.Collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func (s *Store) Create(ctx context.Context, u *user.User) error {
	return s.insert(ctx, usersCollection, u)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := s.findOne(ctx, usersCollection, bson.M{"_id": id}, &u)
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.findOne(ctx, usersCollection, bson.M{"email": email}, &u)
	return u, err
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]user.User, error) {
	out := make(map[string]user.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []user.User
	if err := s.findAll(ctx, usersCollection, bson.M{"_id": bson.M{"$in": ids}}, nil, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *Store) FindUsersExcept(ctx context.Context, exceptID string) ([]user.User, error) {
	filter := bson.M{}
	if exceptID != "" {
		filter["_id"] = bson.M{"$ne": exceptID}
	}
	users := make([]user.User, 0)
	err := s.findAll(ctx, usersCollection, filter, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}, &users)
	return users, err
}

func (s *Store) CreateDirectMessage(ctx context.Context, m *message.DirectMessage) error {
	return s.insert(ctx, directMessagesCollection, m)
}

func (s *Store) CreateGroupMessage(ctx context.Context, m *message.GroupMessage) error {
	return s.insert(ctx, groupMessagesCollection, m)
}

func (s *Store) GetDirectMessagesBetween(ctx context.Context, a, b string) ([]message.DirectMessage, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	var out []message.DirectMessage
	err := s.findAll(ctx, directMessagesCollection, filter, bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}, &out)
	return out, err
}

func (s *Store) GetGroupMessages(ctx context.Context, groupID string) ([]message.GroupMessage, error) {
	var out []message.GroupMessage
	err := s.findAll(ctx, groupMessagesCollection, bson.M{"group_id": groupID}, bson.D{{Key: "time", Value: 1}, {Key: "_id", Value: 1}}, &out)
	return out, err
}

func (s *Store) CreateGroup(ctx context.Context, g *group.Group) error {
	return s.insert(ctx, groupsCollection, g)
}

func (s *Store) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	var g group.Group
	err := s.findOne(ctx, groupsCollection, bson.M{"_id": id}, &g)
	return g, err
}

func (s *Store) FindGroupsForMember(ctx context.Context, member string) ([]group.Group, error) {
	filter := bson.M{}
	if member != "" {
		filter["members"] = member
	}
	groups := make([]group.Group, 0)
	err := s.findAll(ctx, groupsCollection, filter, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, &groups)
	return groups, err
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	res, err := s.db.Collection(groupsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}

func (s *Store) CreateFileRecord(ctx context.Context, f *file.File) error {
	return s.insert(ctx, filesCollection, f)
}

func (s *Store) GetFileByID(ctx context.Context, id string) (file.File, error) {
	var f file.File
	err := s.findOne(ctx, filesCollection, bson.M{"_id": id}, &f)
	return f, err
}

func (s *Store) GetFilesByIDs(ctx context.Context, ids []string) (map[string]file.File, error) {
	out := make(map[string]file.File, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var files []file.File
	if err := s.findAll(ctx, filesCollection, bson.M{"_id": bson.M{"$in": ids}}, nil, &files); err != nil {
		return nil, err
	}
	for _, f := range files {
		out[f.ID] = f
	}
	return out, nil
}
