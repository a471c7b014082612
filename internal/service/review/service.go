// Package review implements review submission and the reputation
// aggregation pipeline: review → per-user rolling averages → badges.
package review

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/repository"
	"drinkup/internal/utils/keyedmutex"
)

// Badge names awarded by the threshold function. Each scale average is
// evaluated independently; a user can hold zero to three badges.
const (
	BadgeSociability = "sociability"
	BadgeEndurance   = "endurance"
	BadgeListener    = "listener"

	badgeThreshold = 4.5
)

const (
	recentReviewLimit = 5
	snapshotCacheTTL  = time.Hour
)

// Scales carries one review's three 1-5 ratings.
type Scales struct {
	Warmth  int `json:"warmth"`
	Sanity  int `json:"sanity"`
	Stamina int `json:"stamina"`
}

// Averages in a snapshot are rounded to two decimals at this boundary;
// raw means live in the store.
type Averages struct {
	Warmth  float64 `json:"warmth"`
	Sanity  float64 `json:"sanity"`
	Stamina float64 `json:"stamina"`
}

// Snapshot is the derived reputation view consumed by the feed ranker
// and the public reputation endpoint.
type Snapshot struct {
	UserID   string   `json:"user_id"`
	Score    float64  `json:"score"`
	Badges   []string `json:"badges"`
	Averages Averages `json:"averages"`
}

// SubmitReviewRequest carries a new peer review.
type SubmitReviewRequest struct {
	RevieweeID string     `json:"reviewee_id"`
	Scales     Scales     `json:"scales"`
	Flags      []string   `json:"flags"`
	Comment    string     `json:"comment"`
	MeetingAt  *time.Time `json:"meeting_at"`
}

// Service implements review submission and reputation reads.
type Service struct {
	appCtx         *app.AppContext
	reviewRepo     *repository.ReviewRepository
	reputationRepo *repository.ReputationRepository
	locks          *keyedmutex.KeyedMutex
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:         appCtx,
		reviewRepo:     repository.NewReviewRepository(appCtx.DB),
		reputationRepo: repository.NewReputationRepository(appCtx.DB),
		locks:          keyedmutex.New(),
	}
}

// SubmitReview persists the review and synchronously recomputes the
// reviewee's reputation snapshot. Concurrent reviews of the same target
// serialize on a per-user lock so each recompute folds a consistent
// review set.
func (s *Service) SubmitReview(ctx context.Context, reviewerID string, req SubmitReviewRequest) (*db.Review, error) {
	if req.RevieweeID == "" {
		return nil, svcErr.Validation("reviewee_id is required")
	}
	for _, scale := range []int{req.Scales.Warmth, req.Scales.Sanity, req.Scales.Stamina} {
		if scale < 1 || scale > 5 {
			return nil, svcErr.Validation("scales must be between 1 and 5")
		}
	}

	meetingAt := time.Now()
	if req.MeetingAt != nil {
		meetingAt = *req.MeetingAt
	}
	review := &db.Review{
		ID:         uuid.NewString(),
		ReviewerID: reviewerID,
		RevieweeID: req.RevieweeID,
		Warmth:     req.Scales.Warmth,
		Sanity:     req.Scales.Sanity,
		Stamina:    req.Scales.Stamina,
		Flags:      db.StringList(req.Flags),
		Comment:    req.Comment,
		Status:     db.StatusApproved,
		MeetingAt:  meetingAt,
	}

	unlock := s.locks.Lock("reputation:" + req.RevieweeID)
	defer unlock()

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, svcErr.Wrap("failed to store review", err)
	}
	if err := s.recompute(ctx, req.RevieweeID); err != nil {
		return nil, err
	}

	s.appCtx.Logger.Debug("review submitted", "reviewer", reviewerID, "reviewee", req.RevieweeID)
	return review, nil
}

// recompute folds the full review set for the user into a fresh
// snapshot, replaces the stored one and refreshes the cache. Caller
// holds the per-user lock.
func (s *Service) recompute(ctx context.Context, userID string) error {
	reviews, err := s.reviewRepo.ListForReviewee(ctx, userID)
	if err != nil {
		return svcErr.Wrap("failed to load reviews", err)
	}

	reputation := db.Reputation{UserID: userID, Badges: db.StringList{}}
	if len(reviews) > 0 {
		var warmth, sanity, stamina float64
		for _, review := range reviews {
			warmth += float64(review.Warmth)
			sanity += float64(review.Sanity)
			stamina += float64(review.Stamina)
		}
		n := float64(len(reviews))
		reputation.AvgWarmth = warmth / n
		reputation.AvgSanity = sanity / n
		reputation.AvgStamina = stamina / n
		reputation.Score = (reputation.AvgWarmth + reputation.AvgSanity + reputation.AvgStamina) / 3

		if reputation.AvgWarmth >= badgeThreshold {
			reputation.Badges = append(reputation.Badges, BadgeSociability)
		}
		if reputation.AvgStamina >= badgeThreshold {
			reputation.Badges = append(reputation.Badges, BadgeEndurance)
		}
		if reputation.AvgSanity >= badgeThreshold {
			reputation.Badges = append(reputation.Badges, BadgeListener)
		}
	}

	if err := s.reputationRepo.Replace(ctx, &reputation); err != nil {
		return svcErr.Wrap("failed to replace reputation", err)
	}
	s.cacheSnapshot(ctx, SnapshotFromModel(&reputation))
	return nil
}

// GetReputation returns the snapshot for a user. Cache-first with DB
// fallback, matching how hot read paths are served elsewhere.
func (s *Service) GetReputation(ctx context.Context, userID string) (*Snapshot, error) {
	key := s.appCtx.RedisCache.KeyForReputation(userID)
	if cached, _ := s.appCtx.RedisCache.Get(ctx, key); cached != "" {
		var snapshot Snapshot
		if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
			return &snapshot, nil
		}
	}

	reputation, err := s.reputationRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("reputation not found", err)
	}
	snapshot := SnapshotFromModel(reputation)
	s.cacheSnapshot(ctx, snapshot)
	return snapshot, nil
}

// ListRecentReviews returns the newest reviews targeting a user.
func (s *Service) ListRecentReviews(ctx context.Context, userID string) ([]db.Review, error) {
	reviews, err := s.reviewRepo.ListRecentForReviewee(ctx, userID, recentReviewLimit)
	if err != nil {
		return nil, svcErr.Wrap("failed to list reviews", err)
	}
	return reviews, nil
}

func (s *Service) cacheSnapshot(ctx context.Context, snapshot *Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	key := s.appCtx.RedisCache.KeyForReputation(snapshot.UserID)
	if err := s.appCtx.RedisCache.Set(ctx, key, string(payload), snapshotCacheTTL); err != nil {
		s.appCtx.Logger.Warn("failed to cache reputation snapshot", "user", snapshot.UserID, "err", err)
	}
}

// SnapshotFromModel converts a stored reputation row into the exposed
// snapshot, rounding at the boundary.
func SnapshotFromModel(reputation *db.Reputation) *Snapshot {
	badges := reputation.Badges
	if badges == nil {
		badges = db.StringList{}
	}
	return &Snapshot{
		UserID: reputation.UserID,
		Score:  round2(reputation.Score),
		Badges: badges,
		Averages: Averages{
			Warmth:  round2(reputation.AvgWarmth),
			Sanity:  round2(reputation.AvgSanity),
			Stamina: round2(reputation.AvgStamina),
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ZeroSnapshot is the default for users with no computed reputation yet.
func ZeroSnapshot(userID string) *Snapshot {
	return &Snapshot{UserID: userID, Badges: []string{}}
}
