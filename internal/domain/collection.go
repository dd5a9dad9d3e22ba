package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection is a named, owned grouping of listings. Exactly one of UserID
// and OrgID is set; ownership is fixed at creation.
type Collection struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Label      string     `gorm:"column:label;not null" json:"label"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid;index" json:"userId,omitempty"`
	OrgID      *uuid.UUID `gorm:"column:org_id;type:uuid;index" json:"orgId,omitempty"`
	IsDefault  bool       `gorm:"column:is_default;default:false" json:"isDefault"`
	IsPublic   bool       `gorm:"column:is_public;default:false" json:"isPublic"`
	ShareToken *string    `gorm:"column:share_token" json:"shareToken,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

func (Collection) TableName() string {
	return "collections"
}

// BeforeCreate sets the id if the DB has no uuid default.
func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CollectionPatch is a partial collection update.
type CollectionPatch struct {
	Label     *string `json:"label,omitempty"`
	IsDefault *bool   `json:"isDefault,omitempty"`
	IsPublic  *bool   `json:"isPublic,omitempty"`
}
