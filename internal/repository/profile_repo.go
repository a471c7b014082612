package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"drinkup/internal/db"
)

// Default center used for freshly materialized locations until the
// client reports a real position.
const (
	defaultLat = 55.751244
	defaultLon = 37.618423
)

// ProfileRepository owns the Profile and Location records plus the
// lazy materialization that guarantees both exist for every user once
// first referenced.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// EnsureUser materializes the profile, location and reputation rows for
// a user on first reference. Uses insert-or-ignore so concurrent first
// touches cannot race a read-then-write.
func (r *ProfileRepository) EnsureUser(ctx context.Context, userID string) error {
	nickname := "user_" + userID
	if len(userID) >= 4 {
		nickname = "user_" + userID[len(userID)-4:]
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile := db.Profile{
			UserID:        userID,
			Nickname:      nickname,
			FavoriteDrink: "prosecco",
			TalkTopics:    db.StringList{"politics", "childhood", "cats"},
			MoodTags:      db.StringList{},
			Photos:        db.StringList{},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
			return err
		}
		location := db.Location{
			UserID:         userID,
			Lat:            defaultLat,
			Lon:            defaultLon,
			City:           "Moscow",
			VisibilityMode: db.VisibilityVisible,
			SearchRadiusM:  3000,
			LastSeenAt:     time.Now(),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&location).Error; err != nil {
			return err
		}
		reputation := db.Reputation{UserID: userID, Badges: db.StringList{}}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reputation).Error
	})
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*db.Profile, error) {
	var profile db.Profile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetMany returns profiles for the given user ids keyed by user id.
func (r *ProfileRepository) GetMany(ctx context.Context, userIDs []string) (map[string]db.Profile, error) {
	var profiles []db.Profile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	out := make(map[string]db.Profile, len(profiles))
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

func (r *ProfileRepository) Save(ctx context.Context, profile *db.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *ProfileRepository) GetLocation(ctx context.Context, userID string) (*db.Location, error) {
	var location db.Location
	if err := r.db.WithContext(ctx).First(&location, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// GetLocations returns locations for the given user ids keyed by user id.
func (r *ProfileRepository) GetLocations(ctx context.Context, userIDs []string) (map[string]db.Location, error) {
	var locations []db.Location
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&locations).Error; err != nil {
		return nil, err
	}
	out := make(map[string]db.Location, len(locations))
	for _, l := range locations {
		out[l.UserID] = l
	}
	return out, nil
}

func (r *ProfileRepository) SaveLocation(ctx context.Context, location *db.Location) error {
	return r.db.WithContext(ctx).Save(location).Error
}
