package httpdto

import "github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"

// CreateGroupRequest is used for POST /api/groups
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"createdBy"`
}

// GroupResponse wraps a created group
type GroupResponse struct {
	Group group.Group `json:"group"`
}

// PostGroupMessageRequest is used for POST /api/groups/:id/message
type PostGroupMessageRequest struct {
	From            string `json:"from"`
	Text            string `json:"text"`
	FileID          string `json:"fileId"`
	ClientMessageID string `json:"clientMessageId"`
}
