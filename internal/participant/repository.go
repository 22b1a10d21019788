package participant

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("participant not found")

type Repository interface {
	Create(ctx context.Context, p *Participant) error
	FindByID(ctx context.Context, id string) (*Participant, error)
	FindByEventAndUser(ctx context.Context, eventID, userID string) (*Participant, error)
	ListByEvent(ctx context.Context, eventID string) ([]Participant, error)
	CountConfirmed(ctx context.Context, eventID string) (int, error)
	Update(ctx context.Context, p *Participant) error
	Delete(ctx context.Context, id string) error
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, p *Participant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Participant, error) {
	var p Participant
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindByEventAndUser(ctx context.Context, eventID, userID string) (*Participant, error) {
	var p Participant
	err := r.db.WithContext(ctx).
		First(&p, "event_id = ? AND user_id = ?", eventID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID string) ([]Participant, error) {
	var participants []Participant
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("registered_at DESC").
		Find(&participants).Error
	return participants, err
}

func (r *repository) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Participant{}).
		Where("event_id = ? AND status = ?", eventID, StatusConfirmed).
		Count(&count).Error
	return int(count), err
}

func (r *repository) Update(ctx context.Context, p *Participant) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Participant{}, "id = ?", id).Error
}
