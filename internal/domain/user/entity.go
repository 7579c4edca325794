package user

import (
	"time"
)

// User represents the users table
type User struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	Name         string    `gorm:"type:varchar(120)" json:"name" bson:"name"`
	Username     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username" bson:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" bson:"email"`
	PasswordHash string    `gorm:"not null" json:"-" bson:"password_hash"`
	ProfilePic   string    `json:"profilePic,omitempty" bson:"profile_pic,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName falls back to the username when no name was given at signup.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
