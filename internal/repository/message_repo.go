package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drinkup/internal/db"
)

// MessageRepository provides access to per-match message lists.
// Append-only; no edit or delete exists.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Append stores a new message on the match. The auto-increment Seq
// assigned here is the creation-order key.
func (r *MessageRepository) Append(ctx context.Context, matchID, senderID, text, attachment string) (*db.Message, error) {
	message := db.Message{
		ID:         uuid.NewString(),
		MatchID:    matchID,
		SenderID:   senderID,
		Text:       text,
		Attachment: attachment,
	}
	if err := r.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListRecent returns the most recent `limit` messages of a match in
// creation order (oldest of the window first, not reversed). Ordering
// is by insert sequence, which stays correct when timestamps collide.
func (r *MessageRepository) ListRecent(ctx context.Context, matchID string, limit int) ([]db.Message, error) {
	var window []db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("seq DESC").
		Limit(limit).
		Find(&window).Error
	if err != nil {
		return nil, err
	}
	// flip back to creation order
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window, nil
}
