// Package moderation builds the pending-entity queue and applies admin
// decisions. The queue is recomputed from current state on every call;
// nothing is cached.
package moderation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/repository"
)

// Queue entry target types.
const (
	TargetUser   = "user"
	TargetPlace  = "place"
	TargetReview = "review"
)

// Decisions an admin can apply to a queue entry.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
	DecisionBan     = "ban"
)

// Entry is one item awaiting an admin decision.
type Entry struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Status string `json:"status"`
	Title  string `json:"title,omitempty"`
}

type Service struct {
	appCtx     *app.AppContext
	userRepo   *repository.UserRepository
	placeRepo  *repository.PlaceRepository
	reviewRepo *repository.ReviewRepository
	auditRepo  *repository.AuditRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		userRepo:   repository.NewUserRepository(appCtx.DB),
		placeRepo:  repository.NewPlaceRepository(appCtx.DB),
		reviewRepo: repository.NewReviewRepository(appCtx.DB),
		auditRepo:  repository.NewAuditRepository(appCtx.DB),
	}
}

// BuildQueue scans the three collections and emits users awaiting
// review, then pending places, then pending reviews.
func (s *Service) BuildQueue(ctx context.Context) ([]Entry, error) {
	queue := []Entry{}

	users, err := s.userRepo.ListByStatus(ctx, db.UserStatusPendingReview)
	if err != nil {
		return nil, svcErr.Wrap("failed to scan users", err)
	}
	for _, user := range users {
		queue = append(queue, Entry{Type: TargetUser, ID: user.ID, Status: db.StatusPending})
	}

	places, err := s.placeRepo.ListByStatus(ctx, db.StatusPending)
	if err != nil {
		return nil, svcErr.Wrap("failed to scan places", err)
	}
	for _, place := range places {
		queue = append(queue, Entry{Type: TargetPlace, ID: place.ID, Status: db.StatusPending, Title: place.Title})
	}

	reviews, err := s.reviewRepo.ListByStatus(ctx, db.StatusPending)
	if err != nil {
		return nil, svcErr.Wrap("failed to scan reviews", err)
	}
	for _, review := range reviews {
		queue = append(queue, Entry{Type: TargetReview, ID: review.ID, Status: db.StatusPending})
	}

	return queue, nil
}

// Resolve applies an admin decision to a queue entry and records it in
// the audit log. The queue reflects the transition on the next call.
func (s *Service) Resolve(ctx context.Context, targetType, targetID, decision string) error {
	if decision != DecisionApprove && decision != DecisionReject && decision != DecisionBan {
		return svcErr.Validation("decision must be approve, reject or ban")
	}

	switch targetType {
	case TargetUser:
		status := db.UserStatusActive
		if decision == DecisionBan {
			status = db.UserStatusBanned
		}
		if err := s.userRepo.SetStatus(ctx, targetID, status); err != nil {
			return svcErr.Wrap("failed to update user status", err)
		}
	case TargetPlace:
		status := db.StatusBlocked
		if decision == DecisionApprove {
			status = db.StatusActive
		}
		place, err := s.placeRepo.Get(ctx, targetID)
		if err != nil {
			return svcErr.NotFound("place not found")
		}
		place.Status = status
		if err := s.placeRepo.Save(ctx, place); err != nil {
			return svcErr.Wrap("failed to update place status", err)
		}
	case TargetReview:
		status := db.StatusRejected
		if decision == DecisionApprove {
			status = db.StatusApproved
		}
		if err := s.reviewRepo.SetStatus(ctx, targetID, status); err != nil {
			return svcErr.Wrap("failed to update review status", err)
		}
	default:
		return svcErr.Validation("unknown target type")
	}

	payload, _ := json.Marshal(map[string]string{
		"type": targetType, "id": targetID, "decision": decision,
	})
	entry := &db.AuditLog{
		ID:        uuid.NewString(),
		ActorType: "admin",
		ActorID:   "admin",
		Action:    "moderation_resolve",
		Payload:   string(payload),
	}
	if err := s.auditRepo.AppendLog(ctx, entry); err != nil {
		return svcErr.Wrap("failed to append audit log", err)
	}
	return nil
}

// SubmitReport stores an abuse report for later moderation.
func (s *Service) SubmitReport(ctx context.Context, reporterID, targetType, targetID, reason string) (*db.AbuseReport, error) {
	if targetType == "" || targetID == "" {
		return nil, svcErr.Validation("target_type and target_id are required")
	}
	report := &db.AbuseReport{
		ID:         uuid.NewString(),
		ReporterID: reporterID,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
		Status:     db.StatusPending,
	}
	if err := s.auditRepo.AppendReport(ctx, report); err != nil {
		return nil, svcErr.Wrap("failed to store report", err)
	}
	return report, nil
}
