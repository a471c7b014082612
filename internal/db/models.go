package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User statuses. Banned users stay in the table; ban is a status
// transition, never a delete.
const (
	UserStatusActive        = "active"
	UserStatusPendingReview = "pending_review"
	UserStatusBanned        = "banned"
)

// Swipe directions.
const (
	SwipeLike = "like"
	SwipePass = "pass"
)

// Moderation-facing statuses shared by places and reviews.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusActive   = "active"
	StatusHidden   = "hidden"
	StatusBlocked  = "blocked"
)

// Location visibility modes.
const (
	VisibilityVisible = "visible"
	VisibilityHidden  = "hidden"
)

// StringList stores an ordered list of strings as a JSON column.
// Used for talk topics, mood tags, photos, badges and media lists.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported StringList source type %T", src)
	}
}

// User table. Identity and moderation state only; everything a
// candidate card shows lives on Profile.
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	PhoneHash    string `gorm:"uniqueIndex;size:64;not null"`
	Age          int    `gorm:"not null"`
	Gender       string `gorm:"size:16"`
	Status       string `gorm:"size:16;not null;default:active;index"`
	IsPro        bool
	ProExpiresAt *time.Time
	KYCStatus    string    `gorm:"size:16;default:pending"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Profile is materialized lazily on a user's first reference.
type Profile struct {
	UserID        string `gorm:"primaryKey;size:36"`
	Nickname      string `gorm:"size:64"`
	Bio           string `gorm:"size:512"`
	FavoriteDrink string `gorm:"size:64"`
	HaveAtHome    StringList `gorm:"type:text"`
	BringWithYou  StringList `gorm:"type:text"`
	TalkTopics    StringList `gorm:"type:text"`
	MoodTags      StringList `gorm:"type:text"`
	Photos        StringList `gorm:"type:text"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

// Location is materialized lazily alongside Profile. A hidden
// visibility mode removes the user from everyone's feed.
type Location struct {
	UserID         string  `gorm:"primaryKey;size:36"`
	Lat            float64 `gorm:"not null"`
	Lon            float64 `gorm:"not null"`
	City           string  `gorm:"size:64"`
	VisibilityMode string  `gorm:"size:16;not null;default:visible"`
	SearchRadiusM  int     `gorm:"not null;default:3000"`
	LastSeenAt     time.Time
}

// Swipe is one event in the append-only swipe ledger. Rows are never
// updated or deleted; the ledger is the sole source of truth for feed
// exclusion and reciprocity detection.
//
// Indexes:
//   - idx_swiper_target(swiper_id, target_id)
//     Backs the feed exclusion set ("everything this viewer ever swiped").
//   - idx_target_swiper_direction(target_id, swiper_id, direction)
//     Backs the O(1) reciprocal-like lookup on a new like.
type Swipe struct {
	ID        string    `gorm:"primaryKey;size:36"`
	SwiperID  string    `gorm:"size:36;not null;index:idx_swiper_target,priority:1"`
	TargetID  string    `gorm:"size:36;not null;index:idx_swiper_target,priority:2;index:idx_target_swiper_direction,priority:2"`
	Direction string    `gorm:"size:8;not null;index:idx_target_swiper_direction,priority:3"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match links two users after a reciprocal like. PairKey is the
// order-independent identity of the pair and backs the
// one-active-match-per-pair guarantee.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserA     string    `gorm:"size:36;not null;index"`
	UserB     string    `gorm:"size:36;not null;index"`
	PairKey   string    `gorm:"size:80;not null;index"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// PairKey returns the canonical order-independent key for a user pair.
func PairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// Message belongs to a match. Append-only; order is creation order.
// Seq is the auto-increment insert sequence and the sole ordering key:
// timestamps can collide within a millisecond, the sequence cannot.
type Message struct {
	Seq        int64     `gorm:"primaryKey;autoIncrement;index:idx_match_seq,priority:2"`
	ID         string    `gorm:"uniqueIndex;size:36;not null"`
	MatchID    string    `gorm:"size:36;not null;index:idx_match_seq,priority:1"`
	SenderID   string    `gorm:"size:36;not null"`
	Text       string    `gorm:"size:2048"`
	Attachment string    `gorm:"size:512"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Review is one peer review after a meeting. Write-once; the reputation
// snapshot is recomputed from the full review set on every insert.
type Review struct {
	ID         string `gorm:"primaryKey;size:36"`
	ReviewerID string `gorm:"size:36;not null"`
	RevieweeID string `gorm:"size:36;not null;index"`
	Warmth     int    `gorm:"not null"`
	Sanity     int    `gorm:"not null"`
	Stamina    int    `gorm:"not null"`
	Flags      StringList `gorm:"type:text"`
	Comment    string     `gorm:"size:1024"`
	Status     string     `gorm:"size:16;not null;default:approved;index"`
	MeetingAt  time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Reputation is the derived snapshot for one user: plain means over all
// reviews targeting them plus the badge set. Fully replaced on each
// recompute, never updated incrementally.
type Reputation struct {
	UserID     string  `gorm:"primaryKey;size:36"`
	AvgWarmth  float64 `gorm:"not null;default:0"`
	AvgSanity  float64 `gorm:"not null;default:0"`
	AvgStamina float64 `gorm:"not null;default:0"`
	Score      float64 `gorm:"not null;default:0"`
	Badges     StringList `gorm:"type:text"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
}

// Place is a user-submitted venue or "ready now" beacon. Starts pending
// and enters the moderation queue until approved.
type Place struct {
	ID        string  `gorm:"primaryKey;size:36"`
	CreatorID string  `gorm:"size:36;not null;index"`
	Type      string  `gorm:"size:32;not null"`
	Title     string  `gorm:"size:128;not null"`
	Desc      string  `gorm:"size:1024"`
	Lat       float64 `gorm:"not null"`
	Lon       float64 `gorm:"not null"`
	Media     StringList `gorm:"type:text"`
	Status    string     `gorm:"size:16;not null;default:pending;index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

// AbuseReport is stored for the moderation collaborator; the core only
// appends them.
type AbuseReport struct {
	ID         string    `gorm:"primaryKey;size:36"`
	ReporterID string    `gorm:"size:36;not null"`
	TargetType string    `gorm:"size:16;not null"`
	TargetID   string    `gorm:"size:36;not null"`
	Reason     string    `gorm:"size:512"`
	Status     string    `gorm:"size:16;not null;default:pending"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Payment is a confirmed sandbox purchase of a pro product.
type Payment struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"size:36;not null;index"`
	Provider    string `gorm:"size:32;not null"`
	ProductID   string `gorm:"size:32;not null"`
	Amount      int64  `gorm:"not null"`
	Currency    string `gorm:"size:8;not null"`
	Status      string `gorm:"size:16;not null"`
	StartedAt   time.Time
	ConfirmedAt time.Time
}

// AuditLog records admin moderation decisions.
type AuditLog struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ActorType string    `gorm:"size:16;not null"`
	ActorID   string    `gorm:"size:36;not null"`
	Action    string    `gorm:"size:64;not null"`
	Payload   string    `gorm:"size:1024"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
