package file

import (
	"time"
)

// File represents the files table: metadata for an uploaded blob. The blob
// itself lives in the configured blob store under Filename.
type File struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	Filename     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"filename" bson:"filename"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"originalName" bson:"original_name"`
	Path         string    `gorm:"type:text" json:"path" bson:"path"`
	MimeType     string    `gorm:"type:varchar(255)" json:"mimeType,omitempty" bson:"mime_type,omitempty"`
	SizeBytes    int64     `gorm:"not null" json:"size" bson:"size"`
	UploadedBy   string    `gorm:"type:varchar(64);not null" json:"uploadedBy" bson:"uploaded_by"`
	UploadedAt   time.Time `gorm:"not null" json:"uploadedAt" bson:"uploaded_at"`
}

func (File) TableName() string {
	return "files"
}
