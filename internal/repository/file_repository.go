package repository

import (
	"context"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"

	"gorm.io/gorm"
)

type PostgresFileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &PostgresFileRepository{db: db}
}

func (r *PostgresFileRepository) CreateFileRecord(ctx context.Context, f *file.File) error {
	return translate(r.db.WithContext(ctx).Create(f).Error)
}

func (r *PostgresFileRepository) GetFileByID(ctx context.Context, id string) (file.File, error) {
	var f file.File
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return file.File{}, translate(err)
	}
	return f, nil
}

func (r *PostgresFileRepository) GetFilesByIDs(ctx context.Context, ids []string) (map[string]file.File, error) {
	out := make(map[string]file.File, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var files []file.File
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&files).Error; err != nil {
		return nil, translate(err)
	}
	for _, f := range files {
		out[f.ID] = f
	}
	return out, nil
}
