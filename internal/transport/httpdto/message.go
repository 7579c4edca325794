package httpdto

// SendMessageRequest is used for POST /api/messages/send
type SendMessageRequest struct {
	SenderID        string `json:"senderId"`
	ReceiverID      string `json:"receiverId"`
	GroupID         string `json:"groupId"`
	Text            string `json:"text"`
	FileID          string `json:"fileId"`
	ClientMessageID string `json:"clientMessageId"`
}
