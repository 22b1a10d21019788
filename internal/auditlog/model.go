package auditlog

import (
	"time"
)

// Common audit actions
const (
	ActionEventCreated       = "EVENT_CREATED"
	ActionEventUpdated       = "EVENT_UPDATED"
	ActionEventDeleted       = "EVENT_DELETED"
	ActionRuleUpsertFailed   = "RULE_UPSERT_FAILED"
	ActionSuperuserBypass    = "SUPERUSER_BYPASS"
	ActionAccessDenied       = "ACCESS_DENIED"
	ActionParticipantJoined  = "PARTICIPANT_JOINED"
	ActionParticipantUpdated = "PARTICIPANT_UPDATED"
	ActionParticipantRemoved = "PARTICIPANT_REMOVED"
)

// AuditLog represents the audit_logs table
type AuditLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *string   `gorm:"type:uuid;index" json:"user_id"` // nullable (anonymous denials)
	EventID   *string   `gorm:"type:uuid;index" json:"event_id"`
	Action    string    `gorm:"size:100;not null;index" json:"action"`
	Details   string    `gorm:"type:jsonb" json:"details"` // freeform JSON details
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Status    string    `gorm:"size:20;not null;index" json:"status"` // success/failure
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName overrides table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogFilter represents filters for querying audit logs
type AuditLogFilter struct {
	UserID   *string    `json:"user_id"`
	EventID  *string    `json:"event_id"`
	Action   string     `json:"action"`
	Status   string     `json:"status"`
	FromDate *time.Time `json:"from_date"`
	ToDate   *time.Time `json:"to_date"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

// PaginatedAuditLogs represents paginated audit log response
type PaginatedAuditLogs struct {
	Data       []AuditLog `json:"data"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
}
