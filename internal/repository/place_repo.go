package repository

import (
	"context"

	"gorm.io/gorm"

	"drinkup/internal/db"
)

// PlaceRepository provides data access methods for the Place model.
type PlaceRepository struct {
	db *gorm.DB
}

func NewPlaceRepository(database *gorm.DB) *PlaceRepository {
	return &PlaceRepository{db: database}
}

func (r *PlaceRepository) Create(ctx context.Context, place *db.Place) error {
	return r.db.WithContext(ctx).Create(place).Error
}

func (r *PlaceRepository) Get(ctx context.Context, id string) (*db.Place, error) {
	var place db.Place
	if err := r.db.WithContext(ctx).First(&place, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &place, nil
}

func (r *PlaceRepository) Save(ctx context.Context, place *db.Place) error {
	return r.db.WithContext(ctx).Save(place).Error
}

// ListByStatus returns places in the given status, oldest first.
func (r *PlaceRepository) ListByStatus(ctx context.Context, status string) ([]db.Place, error) {
	var places []db.Place
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&places).Error
	return places, err
}
