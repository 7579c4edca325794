package message

import (
	"time"
)

// DirectMessage represents the direct_messages table. Ordering inside a
// {sender, receiver} pair is by Timestamp ascending.
type DirectMessage struct {
	ID              string    `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	SenderID        string    `gorm:"type:varchar(64);not null;index:idx_dm_pair,priority:1" json:"senderId" bson:"sender_id"`
	ReceiverID      string    `gorm:"type:varchar(64);index:idx_dm_pair,priority:2" json:"receiverId,omitempty" bson:"receiver_id,omitempty"`
	GroupID         *string   `gorm:"type:varchar(64)" json:"groupId,omitempty" bson:"group_id,omitempty"`
	Text            string    `gorm:"type:text" json:"text" bson:"text"`
	FileID          *string   `gorm:"type:varchar(64)" json:"fileId,omitempty" bson:"file_id,omitempty"`
	ClientMessageID *string   `gorm:"type:varchar(128)" json:"clientMessageId,omitempty" bson:"client_message_id,omitempty"`
	Timestamp       time.Time `gorm:"column:sent_at;not null;index:idx_dm_pair,priority:3" json:"timestamp" bson:"timestamp"`
}

// GroupMessage represents the group_messages table. Ordering inside a group
// is by Time ascending.
type GroupMessage struct {
	ID              string    `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	GroupID         string    `gorm:"type:varchar(64);not null;index:idx_gm_group,priority:1" json:"groupId" bson:"group_id"`
	From            string    `gorm:"column:from_id;type:varchar(64);not null" json:"from" bson:"from"`
	Text            string    `gorm:"type:text" json:"text" bson:"text"`
	FileID          *string   `gorm:"type:varchar(64)" json:"fileId,omitempty" bson:"file_id,omitempty"`
	ClientMessageID *string   `gorm:"type:varchar(128)" json:"clientMessageId,omitempty" bson:"client_message_id,omitempty"`
	Time            time.Time `gorm:"column:sent_at;not null;index:idx_gm_group,priority:2" json:"time" bson:"time"`
}

func (DirectMessage) TableName() string {
	return "direct_messages"
}

func (GroupMessage) TableName() string {
	return "group_messages"
}
