package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"drinkup/internal/db"
)

// ReputationRepository stores the derived per-user reputation snapshot.
type ReputationRepository struct {
	db *gorm.DB
}

func NewReputationRepository(database *gorm.DB) *ReputationRepository {
	return &ReputationRepository{db: database}
}

func (r *ReputationRepository) Get(ctx context.Context, userID string) (*db.Reputation, error) {
	var reputation db.Reputation
	if err := r.db.WithContext(ctx).First(&reputation, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &reputation, nil
}

// GetMany returns snapshots for the given user ids keyed by user id.
// Users without a snapshot are simply absent; callers substitute the
// zero snapshot.
func (r *ReputationRepository) GetMany(ctx context.Context, userIDs []string) (map[string]db.Reputation, error) {
	var reputations []db.Reputation
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&reputations).Error; err != nil {
		return nil, err
	}
	out := make(map[string]db.Reputation, len(reputations))
	for _, rep := range reputations {
		out[rep.UserID] = rep
	}
	return out, nil
}

// Replace upserts the snapshot for a user, fully overwriting any prior
// one. Recompute is idempotent so last-write-wins is correct.
func (r *ReputationRepository) Replace(ctx context.Context, reputation *db.Reputation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"avg_warmth", "avg_sanity", "avg_stamina", "score", "badges", "updated_at",
			}),
		}).
		Create(reputation).Error
}
