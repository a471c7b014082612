// Package profile owns the self-profile surface and the public profile
// view other components embed (match lists, user lookup).
package profile

import (
	"context"
	"time"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/repository"
	"drinkup/internal/service/review"
)

const maxPhotos = 5

// PublicProfile is the view of a user exposed to other users.
type PublicProfile struct {
	UserID        string           `json:"user_id"`
	Nickname      string           `json:"nickname"`
	FavoriteDrink string           `json:"favorite_drink"`
	TalkTopics    []string         `json:"talk_topics"`
	MoodTags      []string         `json:"mood_tags"`
	Photos        []string         `json:"photos"`
	Reputation    *review.Snapshot `json:"reputation"`
}

// MeView bundles everything the owner sees about themselves.
type MeView struct {
	User       *db.User         `json:"user"`
	Profile    *db.Profile      `json:"profile"`
	Location   *db.Location     `json:"location"`
	Reputation *review.Snapshot `json:"reputation"`
}

// UpdateMeRequest carries the owner-editable fields. Nil pointers mean
// "leave unchanged".
type UpdateMeRequest struct {
	Nickname      *string   `json:"nickname"`
	Bio           *string   `json:"bio"`
	FavoriteDrink *string   `json:"favorite_drink"`
	HaveAtHome    *[]string `json:"have_at_home"`
	BringWithYou  *[]string `json:"bring_with_you"`
	TalkTopics    *[]string `json:"talk_topics"`
	MoodTags      *[]string `json:"mood_tags"`
	Age           *int      `json:"age"`
	Gender        *string   `json:"gender"`
}

// UpdateLocationRequest carries owner location updates.
type UpdateLocationRequest struct {
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	VisibilityMode *string  `json:"visibility_mode"`
	SearchRadiusM  *int     `json:"search_radius_m"`
}

type Service struct {
	appCtx      *app.AppContext
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
	reviewSvc   *review.Service
}

func NewService(appCtx *app.AppContext, reviewSvc *review.Service) *Service {
	return &Service{
		appCtx:      appCtx,
		userRepo:    repository.NewUserRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		reviewSvc:   reviewSvc,
	}
}

// Ensure lazily materializes profile, location and reputation for the
// user. Invoked on auth and on first reference.
func (s *Service) Ensure(ctx context.Context, userID string) error {
	if err := s.profileRepo.EnsureUser(ctx, userID); err != nil {
		return svcErr.Wrap("failed to materialize user records", err)
	}
	return nil
}

// Me returns the owner view.
func (s *Service) Me(ctx context.Context, userID string) (*MeView, error) {
	if err := s.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("user not found", err)
	}
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("profile not found", err)
	}
	location, err := s.profileRepo.GetLocation(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("location not found", err)
	}
	snapshot, err := s.reviewSvc.GetReputation(ctx, userID)
	if err != nil {
		snapshot = review.ZeroSnapshot(userID)
	}
	return &MeView{User: user, Profile: profile, Location: location, Reputation: snapshot}, nil
}

// UpdateMe applies owner edits to profile fields and the age/gender
// attributes living on the user row.
func (s *Service) UpdateMe(ctx context.Context, userID string, req UpdateMeRequest) (*db.Profile, error) {
	if err := s.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("profile not found", err)
	}

	if req.Nickname != nil {
		profile.Nickname = *req.Nickname
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.FavoriteDrink != nil {
		profile.FavoriteDrink = *req.FavoriteDrink
	}
	if req.HaveAtHome != nil {
		profile.HaveAtHome = db.StringList(*req.HaveAtHome)
	}
	if req.BringWithYou != nil {
		profile.BringWithYou = db.StringList(*req.BringWithYou)
	}
	if req.TalkTopics != nil {
		profile.TalkTopics = db.StringList(*req.TalkTopics)
	}
	if req.MoodTags != nil {
		profile.MoodTags = db.StringList(*req.MoodTags)
	}
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, svcErr.Wrap("failed to save profile", err)
	}

	if req.Age != nil || req.Gender != nil {
		user, err := s.userRepo.Get(ctx, userID)
		if err != nil {
			return nil, svcErr.Wrap("user not found", err)
		}
		if req.Age != nil {
			user.Age = *req.Age
		}
		if req.Gender != nil {
			user.Gender = *req.Gender
		}
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, svcErr.Wrap("failed to save user", err)
		}
	}
	return profile, nil
}

// UpdatePhotos replaces the photo list, keeping at most five.
func (s *Service) UpdatePhotos(ctx context.Context, userID string, photos []string) ([]string, error) {
	if photos == nil {
		return nil, svcErr.Validation("photos array is required")
	}
	if err := s.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("profile not found", err)
	}
	if len(photos) > maxPhotos {
		photos = photos[:maxPhotos]
	}
	profile.Photos = db.StringList(photos)
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, svcErr.Wrap("failed to save photos", err)
	}
	return profile.Photos, nil
}

// UpdateLocation applies owner location edits and refreshes last-seen.
func (s *Service) UpdateLocation(ctx context.Context, userID string, req UpdateLocationRequest) (*db.Location, error) {
	if err := s.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	location, err := s.profileRepo.GetLocation(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("location not found", err)
	}
	if req.Lat != nil {
		location.Lat = *req.Lat
	}
	if req.Lon != nil {
		location.Lon = *req.Lon
	}
	if req.VisibilityMode != nil {
		location.VisibilityMode = *req.VisibilityMode
	}
	if req.SearchRadiusM != nil {
		location.SearchRadiusM = *req.SearchRadiusM
	}
	location.LastSeenAt = time.Now()
	if err := s.profileRepo.SaveLocation(ctx, location); err != nil {
		return nil, svcErr.Wrap("failed to save location", err)
	}
	return location, nil
}

// Public builds the public view of a user: profile basics plus the
// reputation snapshot (zero snapshot when none exists yet).
func (s *Service) Public(ctx context.Context, userID string) (*PublicProfile, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("user not found", err)
	}
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("profile not found", err)
	}
	snapshot, err := s.reviewSvc.GetReputation(ctx, user.ID)
	if err != nil {
		snapshot = review.ZeroSnapshot(user.ID)
	}
	return &PublicProfile{
		UserID:        user.ID,
		Nickname:      profile.Nickname,
		FavoriteDrink: profile.FavoriteDrink,
		TalkTopics:    profile.TalkTopics,
		MoodTags:      profile.MoodTags,
		Photos:        profile.Photos,
		Reputation:    snapshot,
	}, nil
}
