package event

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("event not found")

// Visibility narrows the base event query per the caller's standing.
// Exactly one mode applies: superusers see everything, authenticated users
// see published rows or their own, anonymous callers published only.
type Visibility struct {
	All           bool
	PublishedOnly bool
	// PublishedOrOwn: rows with status published OR created by this user
	PublishedOrOwn string
	// Status: exact status filter (authenticated, non-superuser callers)
	Status string
}

type Repository interface {
	Create(ctx context.Context, e *Event) error
	FindByID(ctx context.Context, id string) (*Event, error)
	// List fetches base event rows without any date-window filter: a
	// recurring parent outside the window may still own occurrences inside it
	List(ctx context.Context, filter ListFilter, vis Visibility) ([]Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error

	RuleByEventID(ctx context.Context, eventID string) (*RecurrenceRule, error)
	RulesByEventIDs(ctx context.Context, eventIDs []string) ([]RecurrenceRule, error)
	UpsertRule(ctx context.Context, rule *RecurrenceRule) error
	DeleteRule(ctx context.Context, eventID string) error
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Event, error) {
	var e Event
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, vis Visibility) ([]Event, error) {
	query := r.db.WithContext(ctx).Model(&Event{}).Order("start_time ASC")

	if filter.BusinessID != "" {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}

	switch {
	case vis.All:
		// no status restriction
	case vis.Status != "":
		query = query.Where("status = ?", vis.Status)
	case vis.PublishedOrOwn != "":
		query = query.Where("status = ? OR created_by = ?", StatusPublished, vis.PublishedOrOwn)
	default:
		query = query.Where("status = ?", StatusPublished)
	}

	var events []Event
	err := query.Find(&events).Error
	return events, err
}

func (r *repository) Update(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Event{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) RuleByEventID(ctx context.Context, eventID string) (*RecurrenceRule, error) {
	var rule RecurrenceRule
	err := r.db.WithContext(ctx).First(&rule, "event_id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// RulesByEventIDs batch-fetches rules for all recurring events in one query
func (r *repository) RulesByEventIDs(ctx context.Context, eventIDs []string) ([]RecurrenceRule, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	var rules []RecurrenceRule
	err := r.db.WithContext(ctx).Where("event_id IN ?", eventIDs).Find(&rules).Error
	return rules, err
}

func (r *repository) UpsertRule(ctx context.Context, rule *RecurrenceRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"frequency", "interval", "by_weekday", "by_month_day", "by_set_pos",
				"until", "count", "exceptions", "additional_dates", "timezone", "updated_at",
			}),
		}).
		Create(rule).Error
}

func (r *repository) DeleteRule(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).Delete(&RecurrenceRule{}, "event_id = ?", eventID).Error
}
