package rbac

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Store is the narrow slice of the data layer the authorization engine
// consults. Kept as an interface so the decision procedure is testable
// without a database.
type Store interface {
	// HasActiveRole reports whether the user holds an active global role
	HasActiveRole(ctx context.Context, userID, role string) (bool, error)
	// EventCreator returns events.created_by, or "" if the event is unknown
	EventCreator(ctx context.Context, eventID string) (string, error)
	// EventIsPublished reports whether the event exists with status published
	EventIsPublished(ctx context.Context, eventID string) (bool, error)
	// UserGrantRole returns the role of a non-expired user-level grant, "" if none
	UserGrantRole(ctx context.Context, eventID, userID string, now time.Time) (string, error)
	// ActiveBusinessIDs returns ids of businesses the user actively belongs to
	ActiveBusinessIDs(ctx context.Context, userID string) ([]string, error)
	// BusinessGrantRole returns the role of a non-expired business-level grant, "" if none
	BusinessGrantRole(ctx context.Context, eventID string, businessIDs []string, now time.Time) (string, error)
	// CreateGrant records an explicit permission (used to auto-grant owner on create)
	CreateGrant(ctx context.Context, grant *EventPermission) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) HasActiveRole(ctx context.Context, userID, role string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table("user_roles").
		Where("user_id = ? AND role = ? AND is_active = TRUE", userID, role).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) EventCreator(ctx context.Context, eventID string) (string, error) {
	var createdBy string
	err := s.db.WithContext(ctx).
		Table("events").
		Select("created_by").
		Where("id = ?", eventID).
		Scan(&createdBy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return createdBy, err
}

func (s *gormStore) EventIsPublished(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table("events").
		Where("id = ? AND status = ?", eventID, "published").
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) UserGrantRole(ctx context.Context, eventID, userID string, now time.Time) (string, error) {
	var roles []string
	err := s.db.WithContext(ctx).
		Model(&EventPermission{}).
		Select("role").
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Limit(1).
		Scan(&roles).Error
	if err != nil || len(roles) == 0 {
		return "", err
	}
	return roles[0], nil
}

func (s *gormStore) ActiveBusinessIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Table("partners").
		Select("business_id").
		Where("user_id = ? AND is_active = TRUE", userID).
		Scan(&ids).Error
	return ids, err
}

func (s *gormStore) BusinessGrantRole(ctx context.Context, eventID string, businessIDs []string, now time.Time) (string, error) {
	if len(businessIDs) == 0 {
		return "", nil
	}

	var roles []string
	err := s.db.WithContext(ctx).
		Model(&EventPermission{}).
		Select("role").
		Where("event_id = ? AND business_id IN ?", eventID, businessIDs).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Limit(1).
		Scan(&roles).Error
	if err != nil || len(roles) == 0 {
		return "", err
	}
	return roles[0], nil
}

func (s *gormStore) CreateGrant(ctx context.Context, grant *EventPermission) error {
	return s.db.WithContext(ctx).Create(grant).Error
}
