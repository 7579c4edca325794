package repository

import (
	"context"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"

	"gorm.io/gorm"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return user.User{}, translate(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return user.User{}, translate(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]user.User, error) {
	out := make(map[string]user.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []user.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *PostgresUserRepository) FindUsersExcept(ctx context.Context, exceptID string) ([]user.User, error) {
	var users []user.User
	q := r.db.WithContext(ctx).Model(&user.User{})
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Order("name ASC").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}
