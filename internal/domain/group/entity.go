package group

import (
	"strings"
	"time"
)

// MaxMembers caps the member list of a group at creation time.
const MaxMembers = 10

// Group represents the groups table. Membership is fixed at creation.
type Group struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	Members   []string  `gorm:"type:jsonb;serializer:json;not null" json:"members" bson:"members"`
	CreatedBy *string   `gorm:"type:varchar(64)" json:"createdBy" bson:"created_by"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt" bson:"created_at"`
}

func (Group) TableName() string {
	return "groups"
}

// HasMember reports whether userID is in the member list.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// NormalizeMembers trims, drops empties, removes duplicates keeping first
// occurrence order, and truncates to MaxMembers.
func NormalizeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
		if len(out) == MaxMembers {
			break
		}
	}
	return out
}
