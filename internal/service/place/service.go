// Package place handles user-submitted venues and short-lived
// "ready now" beacons.
package place

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/geo"
	"drinkup/internal/repository"
)

// Beacons of this type drop out of nearby results after two hours.
const (
	typeReadyNow   = "ready_now"
	readyNowWindow = 2 * time.Hour
)

// CreateRequest carries a new place submission.
type CreateRequest struct {
	Type  string   `json:"type"`
	Title string   `json:"title"`
	Desc  string   `json:"desc"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Media []string `json:"media"`
}

// NearbyView is a place as shown in nearby results. Coordinates are
// truncated to ~100m so exact addresses are not exposed.
type NearbyView struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Desc      string   `json:"desc"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Media     []string `json:"media"`
	CreatorID string   `json:"creator_id"`
}

type Service struct {
	appCtx      *app.AppContext
	placeRepo   *repository.PlaceRepository
	profileRepo *repository.ProfileRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		placeRepo:   repository.NewPlaceRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// Create submits a new place. It starts pending and enters the
// moderation queue. Missing coordinates default to the creator's
// current location.
func (s *Service) Create(ctx context.Context, creatorID string, req CreateRequest) (*db.Place, error) {
	if req.Type == "" || req.Title == "" {
		return nil, svcErr.Validation("type and title are required")
	}
	lat, lon := req.Lat, req.Lon
	if lat == 0 && lon == 0 {
		if location, err := s.profileRepo.GetLocation(ctx, creatorID); err == nil {
			lat, lon = location.Lat, location.Lon
		}
	}
	place := &db.Place{
		ID:        uuid.NewString(),
		CreatorID: creatorID,
		Type:      req.Type,
		Title:     req.Title,
		Desc:      req.Desc,
		Lat:       lat,
		Lon:       lon,
		Media:     db.StringList(req.Media),
		Status:    db.StatusPending,
	}
	if err := s.placeRepo.Create(ctx, place); err != nil {
		return nil, svcErr.Wrap("failed to store place", err)
	}
	return place, nil
}

// Nearby lists active places within radius meters of the given point,
// optionally filtered by type. Expired ready-now beacons are dropped.
func (s *Service) Nearby(ctx context.Context, lat, lon float64, radiusM int, placeType string) ([]NearbyView, error) {
	if radiusM <= 0 {
		radiusM = 5000
	}
	places, err := s.placeRepo.ListByStatus(ctx, db.StatusActive)
	if err != nil {
		return nil, svcErr.Wrap("failed to list places", err)
	}

	now := time.Now()
	origin := geo.Point{Lat: lat, Lon: lon}
	views := []NearbyView{}
	for _, place := range places {
		if place.Type == typeReadyNow && now.Sub(place.CreatedAt) > readyNowWindow {
			continue
		}
		if placeType != "" && place.Type != placeType {
			continue
		}
		if geo.DistanceMeters(origin, geo.Point{Lat: place.Lat, Lon: place.Lon}) > radiusM {
			continue
		}
		views = append(views, NearbyView{
			ID:        place.ID,
			Type:      place.Type,
			Title:     place.Title,
			Desc:      place.Desc,
			Lat:       round3(place.Lat),
			Lon:       round3(place.Lon),
			Media:     place.Media,
			CreatorID: place.CreatorID,
		})
	}
	return views, nil
}

// SetStatus transitions a place between active/hidden/blocked. Only the
// creator or an admin may do it; everyone else gets not_found.
func (s *Service) SetStatus(ctx context.Context, placeID, requesterID string, isAdmin bool, status string) (*db.Place, error) {
	if status != db.StatusActive && status != db.StatusHidden && status != db.StatusBlocked {
		return nil, svcErr.Validation("status must be active, hidden or blocked")
	}
	place, err := s.placeRepo.Get(ctx, placeID)
	if err != nil {
		return nil, svcErr.NotFound("place not found")
	}
	if place.CreatorID != requesterID && !isAdmin {
		return nil, svcErr.NotFound("place not found")
	}
	place.Status = status
	if err := s.placeRepo.Save(ctx, place); err != nil {
		return nil, svcErr.Wrap("failed to update place", err)
	}
	return place, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
