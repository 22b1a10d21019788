package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event statuses observed in the wild. The column is an open string set, so
// these are defaults and filters rather than a closed enum.
const (
	StatusDraft        = "draft"
	StatusPublished    = "published"
	StatusScrapedDraft = "scraped_draft"
	StatusCancelled    = "cancelled"
)

// Recurrence frequencies
const (
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
	FreqYearly  = "yearly"
)

// Event is a schedulable activity, optionally owned by a business
type Event struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	EventType       string     `gorm:"type:varchar(100);index" json:"event_type"`
	Status          string     `gorm:"type:varchar(50);not null;default:draft;index" json:"status"`
	BusinessID      *string    `gorm:"type:uuid;index" json:"business_id"`
	CreatedBy       string     `gorm:"type:uuid;not null;index" json:"created_by"`
	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         time.Time  `gorm:"not null" json:"end_time"`
	TimezoneID      string     `gorm:"type:varchar(64)" json:"timezone_id"`
	IsRecurring     bool       `gorm:"default:false" json:"is_recurring"`
	MaxParticipants *int       `json:"max_participants"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// RecurrenceRule is owned 1:1 by a recurring event. Weekday numbers use
// 0=Sunday..6=Saturday; BySetPos uses 1..4 for the Nth weekday of the month
// and -1 for the last one.
type RecurrenceRule struct {
	ID              string                      `gorm:"type:uuid;primaryKey" json:"id"`
	EventID         string                      `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	Frequency       string                      `gorm:"type:varchar(20);not null" json:"frequency"`
	Interval        int                         `gorm:"default:1" json:"interval"`
	ByWeekday       datatypes.JSONSlice[int]    `gorm:"type:jsonb" json:"byweekday"`
	ByMonthDay      *int                        `json:"bymonthday"`
	BySetPos        *int                        `json:"bysetpos"`
	Until           *time.Time                  `json:"until"`
	Count           *int                        `json:"count"`
	Exceptions      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"exceptions"`
	AdditionalDates datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"additional_dates"`
	Timezone        string                      `gorm:"type:varchar(64);default:UTC" json:"timezone"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RecurrenceRule) TableName() string { return "recurrence_rules" }

func (r *RecurrenceRule) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Occurrence is a derived materialisation of a recurring event on one
// calendar date. Never persisted: it lives in the occurrence cache and in
// response payloads only. The embedded parent carries every event field; the
// copy's start/end are overwritten with the concrete instants.
type Occurrence struct {
	Event
	OccurrenceID   string `json:"occurrence_id"`
	ParentEvent    string `json:"parent_event"`
	OccurrenceDate string `json:"occurrence_date"`
	IsOccurrence   bool   `json:"is_occurrence"`
	IsAdditional   bool   `json:"is_additional,omitempty"`
}

// ===========================
// Request / response DTOs

// RecurrenceRuleInput mirrors the recurrence_rules payload accepted on
// event create/update
type RecurrenceRuleInput struct {
	Frequency       string     `json:"frequency" binding:"required"`
	Interval        int        `json:"interval"`
	ByWeekday       []int      `json:"byweekday"`
	ByMonthDay      *int       `json:"bymonthday"`
	BySetPos        *int       `json:"bysetpos"`
	Until           *time.Time `json:"until"`
	Count           *int       `json:"count"`
	Exceptions      []string   `json:"exceptions"`
	AdditionalDates []string   `json:"additional_dates"`
	Timezone        string     `json:"timezone"`
}

type CreateEventRequest struct {
	Title           string               `json:"title" binding:"required"`
	Description     string               `json:"description"`
	EventType       string               `json:"event_type"`
	Status          string               `json:"status"`
	BusinessID      *string              `json:"business_id"`
	StartTime       time.Time            `json:"start_time" binding:"required"`
	EndTime         time.Time            `json:"end_time" binding:"required"`
	TimezoneID      string               `json:"timezone_id"`
	IsRecurring     bool                 `json:"is_recurring"`
	MaxParticipants *int                 `json:"max_participants"`
	RecurrenceRules *RecurrenceRuleInput `json:"recurrence_rules"`
}

// UpdateEventRequest is a partial update; nil means "leave unchanged".
// RecurrenceRules uses RulesSet to distinguish "absent" from "explicit null"
// (explicit null clears the rule and toggles is_recurring off).
type UpdateEventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	EventType       *string    `json:"event_type"`
	Status          *string    `json:"status"`
	BusinessID      *string    `json:"business_id"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	TimezoneID      *string    `json:"timezone_id"`
	MaxParticipants *int       `json:"max_participants"`

	RecurrenceRules *RecurrenceRuleInput `json:"recurrence_rules"`
	RulesSet        bool                 `json:"-"`
}

func (r *UpdateEventRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateEventRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = UpdateEventRequest(a)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err == nil {
		_, r.RulesSet = keys["recurrence_rules"]
	}
	return nil
}

// ListFilter carries the query parameters of GET /events
type ListFilter struct {
	BusinessID string
	Status     string
	EventType  string
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
	Limit      int
	Offset     int
}

// Pagination is the envelope's pagination block
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}
