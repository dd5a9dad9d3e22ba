package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Change-event actions recorded by the API on every mutation.
const (
	EventCreated     = "CREATED"
	EventUpdated     = "UPDATED"
	EventDeleted     = "DELETED"
	EventPublished   = "PUBLISHED"
	EventUnpublished = "UNPUBLISHED"
)

// ChangeEvent is an audit row written alongside each collection/listing
// mutation. EventData carries the action-specific payload as JSON.
type ChangeEvent struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EntityType string         `gorm:"column:entity_type;type:varchar(20);not null" json:"entityType"`
	EntityID   uuid.UUID      `gorm:"column:entity_id;type:uuid;not null;index" json:"entityId"`
	Action     string         `gorm:"column:action;type:varchar(20);not null" json:"action"`
	EventData  datatypes.JSON `gorm:"column:event_data;type:json" json:"eventData"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"createdAt"`
}

func (ChangeEvent) TableName() string {
	return "change_events"
}

func (e *ChangeEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
