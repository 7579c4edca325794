package services

import (
	"context"
	"strings"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Contacts lists every user except exceptID, ordered by name.
func (s *UserService) Contacts(ctx context.Context, exceptID string) ([]user.User, error) {
	return s.userRepo.FindUsersExcept(ctx, strings.TrimSpace(exceptID))
}

// ListUsers returns every registered user.
func (s *UserService) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.userRepo.FindUsersExcept(ctx, "")
}
