package participant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Participant statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Participant is a user's registration for an event
type Participant struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	EventID      string     `gorm:"type:uuid;not null;index" json:"event_id"`
	UserID       string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Role         string     `gorm:"type:varchar(50);default:attendee" json:"role"`
	Status       string     `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	RegisteredAt time.Time  `gorm:"autoCreateTime" json:"registered_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`
}

func (Participant) TableName() string { return "event_participants" }

func (p *Participant) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type RegisterRequest struct {
	Role string `json:"role"`
}

type UpdateStatusRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
	Status        string `json:"status" binding:"required"`
}
