package rbac

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event-scoped roles. Superuser is global, never stored per event.
const (
	RoleOwner     = "owner"
	RoleEditor    = "editor"
	RoleViewer    = "viewer"
	RoleSuperuser = "events_superuser"
)

// Action is what the caller wants to do with an event
type Action string

const (
	ActionView               Action = "view"
	ActionEdit               Action = "edit"
	ActionDelete             Action = "delete"
	ActionManageParticipants Action = "manage_participants"
)

// requiredRoles maps an action to the roles that satisfy it. An empty set
// means any resolved role suffices, including the implicit viewer role on
// published events.
var requiredRoles = map[Action][]string{
	ActionView:               {},
	ActionEdit:               {RoleOwner, RoleEditor},
	ActionDelete:             {RoleOwner},
	ActionManageParticipants: {RoleOwner, RoleEditor},
}

// EventPermission is an explicit grant layered on top of implicit ownership.
// Scoped to either a user or a business, never both. Expiry is compared
// against the current time at query time.
type EventPermission struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	EventID    string     `gorm:"type:uuid;not null;index" json:"event_id"`
	UserID     *string    `gorm:"type:uuid;index" json:"user_id"`
	BusinessID *string    `gorm:"type:uuid;index" json:"business_id"`
	Role       string     `gorm:"type:varchar(20);not null" json:"role"`
	GrantedBy  string     `gorm:"type:uuid" json:"granted_by"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (EventPermission) TableName() string { return "event_permissions" }

func (p *EventPermission) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed bool
	Role    string
	Reason  string
}

const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonInsufficient    = "insufficient permissions"
	ReasonSuperuser       = "superuser bypass"
)
