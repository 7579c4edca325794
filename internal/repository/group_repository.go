package repository

import (
	"context"
	"encoding/json"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"

	"gorm.io/gorm"
)

type PostgresGroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &PostgresGroupRepository{db: db}
}

func (r *PostgresGroupRepository) CreateGroup(ctx context.Context, g *group.Group) error {
	return translate(r.db.WithContext(ctx).Create(g).Error)
}

func (r *PostgresGroupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	var g group.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return group.Group{}, translate(err)
	}
	return g, nil
}

func (r *PostgresGroupRepository) FindGroupsForMember(ctx context.Context, member string) ([]group.Group, error) {
	var groups []group.Group
	q := r.db.WithContext(ctx).Model(&group.Group{})
	if member != "" {
		// members is a jsonb array; containment matches a single element
		needle, err := json.Marshal([]string{member})
		if err != nil {
			return nil, err
		}
		q = q.Where("members @> ?::jsonb", string(needle))
	}
	if err := q.Order("created_at DESC").Find(&groups).Error; err != nil {
		return nil, translate(err)
	}
	return groups, nil
}

func (r *PostgresGroupRepository) DeleteGroup(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&group.Group{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}
