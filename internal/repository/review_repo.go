package repository

import (
	"context"

	"gorm.io/gorm"

	"drinkup/internal/db"
)

// ReviewRepository provides access to the write-once review log.
type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(database *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: database}
}

func (r *ReviewRepository) Create(ctx context.Context, review *db.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *ReviewRepository) Get(ctx context.Context, id string) (*db.Review, error) {
	var review db.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListForReviewee returns every review targeting a user, in insertion
// order. The reputation recompute folds over the full set.
func (r *ReviewRepository) ListForReviewee(ctx context.Context, revieweeID string) ([]db.Review, error) {
	var reviews []db.Review
	err := r.db.WithContext(ctx).
		Where("reviewee_id = ?", revieweeID).
		Order("created_at ASC").
		Find(&reviews).Error
	return reviews, err
}

// ListRecentForReviewee returns the newest `limit` reviews for a user.
func (r *ReviewRepository) ListRecentForReviewee(ctx context.Context, revieweeID string, limit int) ([]db.Review, error) {
	var reviews []db.Review
	err := r.db.WithContext(ctx).
		Where("reviewee_id = ?", revieweeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	return reviews, err
}

// ListByStatus returns reviews in the given moderation status.
func (r *ReviewRepository) ListByStatus(ctx context.Context, status string) ([]db.Review, error) {
	var reviews []db.Review
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&reviews).Error
	return reviews, err
}

// SetStatus transitions a review's moderation status.
func (r *ReviewRepository) SetStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&db.Review{}).
		Where("id = ?", id).
		Update("status", status).Error
}
