package auth

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// EnsureUser upserts the local mirror row for an identity
	EnsureUser(ctx context.Context, identity *Identity) error
	FindByID(ctx context.Context, userID string) (*User, error)
	ActiveRoles(ctx context.Context, userID string) ([]string, error)
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) EnsureUser(ctx context.Context, identity *Identity) error {
	user := &User{ID: identity.ID, Email: identity.Email}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
		}).
		Create(user).Error
}

func (r *repository) FindByID(ctx context.Context, userID string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) ActiveRoles(ctx context.Context, userID string) ([]string, error) {
	var roles []string
	err := r.db.WithContext(ctx).
		Model(&UserRole{}).
		Select("role").
		Where("user_id = ? AND is_active = TRUE", userID).
		Scan(&roles).Error
	return roles, err
}
