package repository

import (
	"context"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"

	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) CreateDirectMessage(ctx context.Context, m *message.DirectMessage) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *PostgresMessageRepository) CreateGroupMessage(ctx context.Context, m *message.GroupMessage) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *PostgresMessageRepository) GetDirectMessagesBetween(ctx context.Context, a, b string) ([]message.DirectMessage, error) {
	var messages []message.DirectMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

func (r *PostgresMessageRepository) GetGroupMessages(ctx context.Context, groupID string) ([]message.GroupMessage, error) {
	var messages []message.GroupMessage
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, translate(err)
	}
	return messages, nil
}
