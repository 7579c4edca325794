package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// translate maps driver errors onto the shared sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return chaterrors.ErrNotFound
	case isUniqueViolation(err):
		return chaterrors.ErrAlreadyExists
	default:
		return err
	}
}

// NewPostgresStore wires the gorm-backed repositories around db.
func NewPostgresStore(db *gorm.DB) Store {
	return Store{
		Users:    NewUserRepository(db),
		Messages: NewMessageRepository(db),
		Groups:   NewGroupRepository(db),
		Files:    NewFileRepository(db),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}
