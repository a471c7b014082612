// Package feed implements the discovery feed: geospatial and preference
// filtering over the candidate pool with deterministic ranking.
package feed

import (
	"context"
	"sort"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/geo"
	"drinkup/internal/repository"
	"drinkup/internal/service/review"
	"drinkup/internal/utils/pagination"
)

const topTopics = 3

// Filters narrows the candidate pool. Zero values mean "not applied";
// AgeMax of zero leaves the upper bound open.
type Filters struct {
	AgeMin       int
	AgeMax       int
	Drink        string
	EveningStyle string
	Topics       []string
}

// Card is one feed entry summarizing a candidate.
type Card struct {
	UserID        string           `json:"user_id"`
	Nickname      string           `json:"nickname"`
	DistanceM     int              `json:"distance_m"`
	FavoriteDrink string           `json:"favorite_drink"`
	Tags          []string         `json:"tags"`
	PreviewPhotos []string         `json:"preview_photos"`
	Reputation    *review.Snapshot `json:"reputation"`
}

// Service generates ranked discovery feeds. Pure read over current
// state; no side effects beyond lazy viewer materialization.
type Service struct {
	appCtx         *app.AppContext
	userRepo       *repository.UserRepository
	profileRepo    *repository.ProfileRepository
	swipeRepo      *repository.SwipeRepository
	reputationRepo *repository.ReputationRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:         appCtx,
		userRepo:       repository.NewUserRepository(appCtx.DB),
		profileRepo:    repository.NewProfileRepository(appCtx.DB),
		swipeRepo:      repository.NewSwipeRepository(appCtx.DB),
		reputationRepo: repository.NewReputationRepository(appCtx.DB),
	}
}

// GenerateFeed builds one page of the viewer's discovery feed.
//
// Pipeline:
//  1. exclusion set = every target the viewer ever swiped, either way
//  2. pool = active users except self, with a visible location
//  3. filters in sequence: age range, drink, evening style, topics
//  4. distance + reputation snapshot per survivor
//  5. sort by distance asc, score desc, candidate id asc
//  6. 1-based page slicing; next page number or nil
func (s *Service) GenerateFeed(ctx context.Context, viewerID string, filters Filters, page, pageSize int) ([]Card, *int, error) {
	page, pageSize = pagination.Normalize(page, pageSize)

	if err := s.profileRepo.EnsureUser(ctx, viewerID); err != nil {
		return nil, nil, svcErr.Wrap("failed to materialize viewer", err)
	}
	viewerLocation, err := s.profileRepo.GetLocation(ctx, viewerID)
	if err != nil {
		return nil, nil, svcErr.Wrap("viewer location not found", err)
	}

	seen, err := s.swipeRepo.SeenTargets(ctx, viewerID)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to load swipe history", err)
	}

	candidates, err := s.userRepo.ListActiveExcept(ctx, viewerID)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to load candidate pool", err)
	}

	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if _, swiped := seen[candidate.ID]; swiped {
			continue
		}
		ids = append(ids, candidate.ID)
	}
	locations, err := s.profileRepo.GetLocations(ctx, ids)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to load candidate locations", err)
	}
	profiles, err := s.profileRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to load candidate profiles", err)
	}
	reputations, err := s.reputationRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to load reputations", err)
	}

	viewerPoint := geo.Point{Lat: viewerLocation.Lat, Lon: viewerLocation.Lon}
	cards := make([]Card, 0, len(ids))
	for _, candidate := range candidates {
		if _, swiped := seen[candidate.ID]; swiped {
			continue
		}
		location, ok := locations[candidate.ID]
		if !ok || location.VisibilityMode == db.VisibilityHidden {
			continue
		}
		profile, hasProfile := profiles[candidate.ID]
		if !matches(candidate, profile, hasProfile, filters) {
			continue
		}

		snapshot := review.ZeroSnapshot(candidate.ID)
		if reputation, ok := reputations[candidate.ID]; ok {
			snapshot = review.SnapshotFromModel(&reputation)
		}
		cards = append(cards, Card{
			UserID:        candidate.ID,
			Nickname:      profile.Nickname,
			DistanceM:     geo.DistanceMeters(viewerPoint, geo.Point{Lat: location.Lat, Lon: location.Lon}),
			FavoriteDrink: profile.FavoriteDrink,
			Tags:          firstN(profile.TalkTopics, topTopics),
			PreviewPhotos: firstN(profile.Photos, 1),
			Reputation:    snapshot,
		})
	}

	// candidate id as final tiebreak keeps the order deterministic for
	// identical distance and score
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].DistanceM != cards[j].DistanceM {
			return cards[i].DistanceM < cards[j].DistanceM
		}
		if cards[i].Reputation.Score != cards[j].Reputation.Score {
			return cards[i].Reputation.Score > cards[j].Reputation.Score
		}
		return cards[i].UserID < cards[j].UserID
	})

	start, end, nextPage := pagination.Bounds(len(cards), page, pageSize)
	return cards[start:end], nextPage, nil
}

// matches applies the filter set in sequence. A candidate without a
// profile row survives only when no profile-backed filter is active.
func matches(candidate db.User, profile db.Profile, hasProfile bool, filters Filters) bool {
	if filters.AgeMin > 0 && candidate.Age < filters.AgeMin {
		return false
	}
	if filters.AgeMax > 0 && candidate.Age > filters.AgeMax {
		return false
	}
	if filters.Drink != "" {
		if !hasProfile || profile.FavoriteDrink != filters.Drink {
			return false
		}
	}
	if filters.EveningStyle != "" {
		if !hasProfile || !contains(profile.MoodTags, filters.EveningStyle) {
			return false
		}
	}
	if len(filters.Topics) > 0 {
		if !hasProfile || !overlaps(profile.TalkTopics, filters.Topics) {
			return false
		}
	}
	return true
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, v := range a {
		if contains(b, v) {
			return true
		}
	}
	return false
}

func firstN(list []string, n int) []string {
	if len(list) < n {
		n = len(list)
	}
	out := make([]string, n)
	copy(out, list[:n])
	return out
}
