package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drinkup/internal/db"
)

// SwipeRepository provides access to the append-only swipe ledger.
// Rows are only ever inserted; re-swiping the same target appends a new
// event rather than overwriting.
type SwipeRepository struct {
	db *gorm.DB
}

func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Append records a new swipe event and returns it.
func (r *SwipeRepository) Append(ctx context.Context, swiperID, targetID, direction string) (*db.Swipe, error) {
	swipe := db.Swipe{
		ID:        uuid.NewString(),
		SwiperID:  swiperID,
		TargetID:  targetID,
		Direction: direction,
	}
	if err := r.db.WithContext(ctx).Create(&swipe).Error; err != nil {
		return nil, err
	}
	return &swipe, nil
}

// HasLike reports whether swiper has ever liked target. Backs the
// reciprocity check on a new like.
func (r *SwipeRepository) HasLike(ctx context.Context, swiperID, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ? AND target_id = ? AND direction = ?", swiperID, targetID, db.SwipeLike).
		Count(&count).Error
	return count > 0, err
}

// SeenTargets returns the distinct set of targets the swiper has ever
// swiped, either direction. A candidate surfaces in the feed at most
// once, regardless of outcome.
func (r *SwipeRepository) SeenTargets(ctx context.Context, swiperID string) (map[string]struct{}, error) {
	var targetIDs []string
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Distinct("target_id").
		Where("swiper_id = ?", swiperID).
		Pluck("target_id", &targetIDs).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		seen[id] = struct{}{}
	}
	return seen, nil
}
