// Package swipe implements the swipe ledger and mutual-match detection.
package swipe

import (
	"context"
	"time"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/repository"
	"drinkup/internal/service/profile"
	"drinkup/internal/utils/keyedmutex"
)

// MatchView is one entry of a user's match list.
type MatchView struct {
	ID        string                 `json:"id"`
	OtherUser *profile.PublicProfile `json:"other_user"`
	CreatedAt time.Time              `json:"created_at"`
	IsActive  bool                   `json:"is_active"`
}

// Service records swipe events and detects reciprocal likes.
type Service struct {
	appCtx     *app.AppContext
	swipeRepo  *repository.SwipeRepository
	matchRepo  *repository.MatchRepository
	profileSvc *profile.Service
	pairLocks  *keyedmutex.KeyedMutex
}

func NewService(appCtx *app.AppContext, profileSvc *profile.Service) *Service {
	return &Service{
		appCtx:     appCtx,
		swipeRepo:  repository.NewSwipeRepository(appCtx.DB),
		matchRepo:  repository.NewMatchRepository(appCtx.DB),
		profileSvc: profileSvc,
		pairLocks:  keyedmutex.New(),
	}
}

// RecordSwipe appends a swipe event to the ledger and, on a like,
// checks for a reciprocal prior like. The append, the reciprocity scan
// and the match insert run under a per-pair lock so two racing
// reciprocal likes cannot create two matches.
//
// Re-swiping the same target re-appends; the ledger stays append-only
// and the set-based reads on top of it are unaffected. A reciprocal
// like for a pair that already holds an active match returns that
// match instead of creating a duplicate.
func (s *Service) RecordSwipe(ctx context.Context, swiperID, targetID, direction string) (*db.Swipe, *db.Match, error) {
	if targetID == "" {
		return nil, nil, svcErr.Validation("target_id is required")
	}
	if targetID == swiperID {
		return nil, nil, svcErr.Validation("cannot swipe on yourself")
	}
	if direction != db.SwipeLike && direction != db.SwipePass {
		return nil, nil, svcErr.Validation("direction must be like or pass")
	}

	unlock := s.pairLocks.Lock(db.PairKey(swiperID, targetID))
	defer unlock()

	swipe, err := s.swipeRepo.Append(ctx, swiperID, targetID, direction)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to record swipe", err)
	}

	if direction != db.SwipeLike {
		return swipe, nil, nil
	}

	reciprocal, err := s.swipeRepo.HasLike(ctx, targetID, swiperID)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to check reciprocity", err)
	}
	if !reciprocal {
		return swipe, nil, nil
	}

	existing, err := s.matchRepo.FindActiveByPair(ctx, swiperID, targetID)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to look up match", err)
	}
	if existing != nil {
		return swipe, existing, nil
	}

	match, err := s.matchRepo.Create(ctx, swiperID, targetID)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to create match", err)
	}
	s.appCtx.Logger.Info("match created", "match", match.ID, "user_a", swiperID, "user_b", targetID)
	return swipe, match, nil
}

// ListMatches returns the user's matches with the other participant's
// public profile attached.
func (s *Service) ListMatches(ctx context.Context, userID string) ([]MatchView, error) {
	matches, err := s.matchRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("failed to list matches", err)
	}
	views := make([]MatchView, 0, len(matches))
	for _, match := range matches {
		otherID := match.UserA
		if otherID == userID {
			otherID = match.UserB
		}
		other, err := s.profileSvc.Public(ctx, otherID)
		if err != nil {
			// the other side may be mid-materialization; skip rather
			// than fail the whole list
			s.appCtx.Logger.Warn("failed to resolve match participant", "match", match.ID, "err", err)
			continue
		}
		views = append(views, MatchView{
			ID:        match.ID,
			OtherUser: other,
			CreatedAt: match.CreatedAt,
			IsActive:  match.IsActive,
		})
	}
	return views, nil
}

// CloseMatch deactivates a match for one of its participants. Anyone
// else gets not_found; participant identity is never revealed to
// non-participants.
func (s *Service) CloseMatch(ctx context.Context, matchID, requesterID string) error {
	match, err := s.matchRepo.Get(ctx, matchID)
	if err != nil {
		return svcErr.NotFound("match not found")
	}
	if match.UserA != requesterID && match.UserB != requesterID {
		return svcErr.NotFound("match not found")
	}
	if err := s.matchRepo.Close(ctx, matchID); err != nil {
		return svcErr.Wrap("failed to close match", err)
	}
	return nil
}
