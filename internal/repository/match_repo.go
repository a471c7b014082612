package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drinkup/internal/db"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

func (r *MatchRepository) Get(ctx context.Context, id string) (*db.Match, error) {
	var match db.Match
	if err := r.db.WithContext(ctx).First(&match, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// Create inserts a new active match for the given pair.
func (r *MatchRepository) Create(ctx context.Context, userA, userB string) (*db.Match, error) {
	match := db.Match{
		ID:       uuid.NewString(),
		UserA:    userA,
		UserB:    userB,
		PairKey:  db.PairKey(userA, userB),
		IsActive: true,
	}
	if err := r.db.WithContext(ctx).Create(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// FindActiveByPair returns the active match for an unordered user pair,
// or nil when none exists. Backs the at-most-one-active-match-per-pair
// guarantee.
func (r *MatchRepository) FindActiveByPair(ctx context.Context, userA, userB string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("pair_key = ? AND is_active = ?", db.PairKey(userA, userB), true).
		First(&match).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

// ListForUser returns all matches where the user is a participant,
// newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID string) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error
	return matches, err
}

// Close deactivates a match. The only mutable field on a match.
func (r *MatchRepository) Close(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
