package message

// Attachment is the file information joined onto a message before it is
// handed to a client.
type Attachment struct {
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// EnrichedDirect is a DirectMessage as returned by the send and history
// endpoints and as fanned out on the live channel.
type EnrichedDirect struct {
	DirectMessage
	Attachment
	SenderName string `json:"senderName,omitempty"`
}

// EnrichedGroup is the group equivalent of EnrichedDirect.
type EnrichedGroup struct {
	GroupMessage
	Attachment
	SenderName string `json:"senderName,omitempty"`
}
