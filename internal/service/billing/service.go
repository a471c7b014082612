// Package billing is the thin pro-subscription collaborator: a static
// catalog and sandbox-confirmed purchases.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/repository"
)

// Product is one purchasable pro tier.
type Product struct {
	ID           string `json:"id"`
	Price        int64  `json:"price"`
	Currency     string `json:"currency"`
	DurationDays int    `json:"durationDays"`
}

var catalog = []Product{
	{ID: "pro_week", Price: 49900, Currency: "RUB", DurationDays: 7},
	{ID: "pro_month", Price: 129900, Currency: "RUB", DurationDays: 30},
	{ID: "pro_year", Price: 999900, Currency: "RUB", DurationDays: 365},
}

// Status is the caller-facing pro state.
type Status struct {
	IsPro     bool       `json:"is_pro"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type Service struct {
	appCtx    *app.AppContext
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		userRepo:  repository.NewUserRepository(appCtx.DB),
		auditRepo: repository.NewAuditRepository(appCtx.DB),
	}
}

// Products returns the catalog.
func (s *Service) Products() []Product {
	return catalog
}

// Purchase confirms a sandbox payment and extends the user's pro
// expiry by the product duration from now.
func (s *Service) Purchase(ctx context.Context, userID, productID, provider string) (*db.Payment, time.Time, error) {
	var product *Product
	for i := range catalog {
		if catalog[i].ID == productID {
			product = &catalog[i]
			break
		}
	}
	if product == nil {
		return nil, time.Time{}, svcErr.Validation("unknown product")
	}
	if provider == "" {
		provider = "sandbox"
	}

	now := time.Now()
	payment := &db.Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		Provider:    provider,
		ProductID:   product.ID,
		Amount:      product.Price,
		Currency:    product.Currency,
		Status:      "confirmed",
		StartedAt:   now,
		ConfirmedAt: now,
	}
	if err := s.auditRepo.AppendPayment(ctx, payment); err != nil {
		return nil, time.Time{}, svcErr.Wrap("failed to store payment", err)
	}

	expiresAt := now.Add(time.Duration(product.DurationDays) * 24 * time.Hour)
	if err := s.userRepo.SetProExpiry(ctx, userID, expiresAt); err != nil {
		return nil, time.Time{}, svcErr.Wrap("failed to extend pro expiry", err)
	}
	return payment, expiresAt, nil
}

// GetStatus reports whether the user's pro subscription is live.
func (s *Service) GetStatus(ctx context.Context, userID string) (*Status, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Wrap("user not found", err)
	}
	status := &Status{ExpiresAt: user.ProExpiresAt}
	status.IsPro = user.ProExpiresAt != nil && user.ProExpiresAt.After(time.Now())
	return status, nil
}
