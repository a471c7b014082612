package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"drinkup/internal/db"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByPhoneHash returns the user registered under the given phone
// hash, or gorm.ErrRecordNotFound.
func (r *UserRepository) FindByPhoneHash(ctx context.Context, phoneHash string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "phone_hash = ?", phoneHash).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Save(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// ListActiveExcept returns all active users except the given one.
// Feed candidate pool; a linear scan is fine at current population
// sizes.
func (r *UserRepository) ListActiveExcept(ctx context.Context, excludeID string) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("status = ? AND id <> ?", db.UserStatusActive, excludeID).
		Find(&users).Error
	return users, err
}

// ListByStatus returns users in the given status, oldest first.
func (r *UserRepository) ListByStatus(ctx context.Context, status string) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// SetStatus transitions a user's moderation status.
func (r *UserRepository) SetStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SetProExpiry marks the user pro until the given time.
func (r *UserRepository) SetProExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_pro": true, "pro_expires_at": expiresAt}).Error
}
