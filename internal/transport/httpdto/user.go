package httpdto

import (
	"time"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
)

func NewUserDTO(u user.User) UserDTO {
	dto := UserDTO{
		ID:       u.ID,
		Name:     u.DisplayName(),
		Username: u.Username,
		Email:    u.Email,
	}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func NewUserDTOs(users []user.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserDTO(u))
	}
	return out
}

// PresenceResponse lists the users currently online
type PresenceResponse struct {
	Online []string `json:"online"`
}
