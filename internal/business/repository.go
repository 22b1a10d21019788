package business

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("business not found")

type Repository interface {
	Create(ctx context.Context, b *Business) error
	FindByID(ctx context.Context, id string) (*Business, error)
	List(ctx context.Context) ([]Business, error)
	Update(ctx context.Context, b *Business) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, p *Partner) error
	FindMember(ctx context.Context, businessID, userID string) (*Partner, error)
	ListMembers(ctx context.Context, businessID string) ([]Partner, error)
	RemoveMember(ctx context.Context, businessID, userID string) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, b *Business) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id string) (*Business, error) {
	var b Business
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *gormRepository) List(ctx context.Context) ([]Business, error) {
	var businesses []Business
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&businesses).Error
	return businesses, err
}

func (r *gormRepository) Update(ctx context.Context, b *Business) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Business{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) AddMember(ctx context.Context, p *Partner) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *gormRepository) FindMember(ctx context.Context, businessID, userID string) (*Partner, error) {
	var p Partner
	err := r.db.WithContext(ctx).
		First(&p, "business_id = ? AND user_id = ? AND is_active = ?", businessID, userID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) ListMembers(ctx context.Context, businessID string) ([]Partner, error) {
	var members []Partner
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND is_active = ?", businessID, true).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *gormRepository) RemoveMember(ctx context.Context, businessID, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&Partner{}).
		Where("business_id = ? AND user_id = ?", businessID, userID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
