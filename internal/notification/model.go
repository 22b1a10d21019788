package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InAppNotification is a persisted message shown to a user in the app
type InAppNotification struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"user_id"`
	EventID   *string    `gorm:"type:uuid" json:"event_id,omitempty"`
	Action    string     `gorm:"not null" json:"action"`
	Title     string     `gorm:"not null" json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (n *InAppNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// eventMessage is the wire format published to the broker on event changes
type eventMessage struct {
	Action     string `json:"action"`
	EventID    string `json:"event_id"`
	EventTitle string `json:"event_title"`
	ActorID    string `json:"actor_id"`
	OccurredAt string `json:"occurred_at"`
}
