// Package chat guards match-scoped conversations: only participants can
// read, only participants of an active match can write.
package chat

import (
	"context"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/repository"
	"drinkup/internal/utils/keyedmutex"
)

const defaultMessageLimit = 50

// PostMessageRequest carries a new message; at least one of Text and
// Attachment must be set.
type PostMessageRequest struct {
	Text       string `json:"text"`
	Attachment string `json:"attachment"`
}

type Service struct {
	appCtx      *app.AppContext
	matchRepo   *repository.MatchRepository
	messageRepo *repository.MessageRepository
	matchLocks  *keyedmutex.KeyedMutex
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		messageRepo: repository.NewMessageRepository(appCtx.DB),
		matchLocks:  keyedmutex.New(),
	}
}

// requireParticipant loads the match and returns not_found both for
// unknown ids and for requesters who are not a participant, so callers
// cannot distinguish the two.
func (s *Service) requireParticipant(ctx context.Context, matchID, requesterID string) (*db.Match, error) {
	match, err := s.matchRepo.Get(ctx, matchID)
	if err != nil {
		return nil, svcErr.NotFound("match not found")
	}
	if match.UserA != requesterID && match.UserB != requesterID {
		return nil, svcErr.NotFound("match not found")
	}
	return match, nil
}

// ListMessages returns the most recent `limit` messages in creation
// order. Closed matches remain readable to their participants.
func (s *Service) ListMessages(ctx context.Context, matchID, requesterID string, limit int) ([]db.Message, error) {
	if _, err := s.requireParticipant(ctx, matchID, requesterID); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = defaultMessageLimit
	}
	messages, err := s.messageRepo.ListRecent(ctx, matchID, limit)
	if err != nil {
		return nil, svcErr.Wrap("failed to list messages", err)
	}
	return messages, nil
}

// PostMessage appends a message to an active match. The append runs
// under a per-match lock so creation order is well defined.
func (s *Service) PostMessage(ctx context.Context, matchID, requesterID string, req PostMessageRequest) (*db.Message, error) {
	match, err := s.requireParticipant(ctx, matchID, requesterID)
	if err != nil {
		return nil, err
	}
	if !match.IsActive {
		return nil, svcErr.NotFound("match not found")
	}
	if req.Text == "" && req.Attachment == "" {
		return nil, svcErr.Validation("message must have text or attachment")
	}

	unlock := s.matchLocks.Lock(matchID)
	defer unlock()

	message, err := s.messageRepo.Append(ctx, matchID, requesterID, req.Text, req.Attachment)
	if err != nil {
		return nil, svcErr.Wrap("failed to store message", err)
	}
	return message, nil
}
