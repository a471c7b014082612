// Package auth is the identity collaborator: phone-code issuance and
// bearer-token resolution. Codes and tokens live in Redis under their
// natural TTLs; the core treats the resolved user as opaque input.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drinkup/internal/app"
	"drinkup/internal/db"
	svcErr "drinkup/internal/errors"
	"drinkup/internal/repository"
	"drinkup/internal/service/profile"
)

// codeEntry is the pending-verification payload stored in Redis.
type codeEntry struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// Tokens is an issued access/refresh pair.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service struct {
	appCtx     *app.AppContext
	userRepo   *repository.UserRepository
	profileSvc *profile.Service
}

func NewService(appCtx *app.AppContext, profileSvc *profile.Service) *Service {
	return &Service{
		appCtx:     appCtx,
		userRepo:   repository.NewUserRepository(appCtx.DB),
		profileSvc: profileSvc,
	}
}

// RequestCode issues a 4-digit verification code for the phone number.
// The code is returned to the caller in development builds only; a real
// deployment hands it to an SMS gateway instead.
func (s *Service) RequestCode(ctx context.Context, phone string) (requestID, code string, err error) {
	if phone == "" {
		return "", "", svcErr.Validation("phone is required")
	}
	requestID = uuid.NewString()
	code = fmt.Sprintf("%04d", 1000+rand.Intn(9000))

	payload, err := json.Marshal(codeEntry{Phone: phone, Code: code})
	if err != nil {
		return "", "", svcErr.Wrap("failed to encode code entry", err)
	}
	key := s.appCtx.RedisCache.KeyForAuthCode(requestID)
	if err := s.appCtx.RedisCache.Set(ctx, key, string(payload), s.appCtx.Config.Auth.CodeTTL); err != nil {
		return "", "", svcErr.Wrap("failed to store code", err)
	}
	return requestID, code, nil
}

// VerifyCode checks a submitted code, finds or creates the user for the
// phone and issues a token pair. A fresh user gets their profile,
// location and reputation rows materialized immediately.
func (s *Service) VerifyCode(ctx context.Context, requestID, code string) (*db.User, *Tokens, error) {
	key := s.appCtx.RedisCache.KeyForAuthCode(requestID)
	raw, err := s.appCtx.RedisCache.Get(ctx, key)
	if err != nil {
		return nil, nil, svcErr.Wrap("failed to load code", err)
	}
	if raw == "" {
		return nil, nil, svcErr.Validation("request not found or code expired")
	}
	var entry codeEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, nil, svcErr.Wrap("corrupt code entry", err)
	}
	if entry.Code != code {
		return nil, nil, svcErr.Unauthorized("invalid code")
	}
	_ = s.appCtx.RedisCache.Del(ctx, key)

	phoneHash := db.HashPhone(entry.Phone)
	user, err := s.userRepo.FindByPhoneHash(ctx, phoneHash)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &db.User{
			ID:        uuid.NewString(),
			PhoneHash: phoneHash,
			Age:       18,
			Status:    db.UserStatusActive,
			KYCStatus: db.StatusPending,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, nil, svcErr.Wrap("failed to create user", err)
		}
	} else if err != nil {
		return nil, nil, svcErr.Wrap("failed to look up user", err)
	}

	if err := s.profileSvc.Ensure(ctx, user.ID); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh rotates an access token off a live refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	key := s.appCtx.RedisCache.KeyForRefreshToken(refreshToken)
	userID, err := s.appCtx.RedisCache.Get(ctx, key)
	if err != nil {
		return "", svcErr.Wrap("failed to load refresh token", err)
	}
	if userID == "" {
		return "", svcErr.Unauthorized("invalid refresh token")
	}
	accessToken := uuid.NewString()
	accessKey := s.appCtx.RedisCache.KeyForAccessToken(accessToken)
	if err := s.appCtx.RedisCache.Set(ctx, accessKey, userID, s.appCtx.Config.Auth.AccessTTL); err != nil {
		return "", svcErr.Wrap("failed to store access token", err)
	}
	return accessToken, nil
}

// ResolveUser maps a bearer access token to its user. Banned users are
// rejected here, before any operation sees them.
func (s *Service) ResolveUser(ctx context.Context, accessToken string) (*db.User, error) {
	if accessToken == "" {
		return nil, svcErr.Unauthorized("missing token")
	}
	key := s.appCtx.RedisCache.KeyForAccessToken(accessToken)
	userID, err := s.appCtx.RedisCache.Get(ctx, key)
	if err != nil {
		return nil, svcErr.Wrap("failed to load access token", err)
	}
	if userID == "" {
		return nil, svcErr.Unauthorized("invalid or expired token")
	}
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Unauthorized("unknown user")
	}
	if user.Status == db.UserStatusBanned {
		return nil, svcErr.Unauthorized("account banned")
	}
	return user, nil
}

func (s *Service) issueTokens(ctx context.Context, userID string) (*Tokens, error) {
	tokens := &Tokens{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
	}
	cacheCfg := s.appCtx.Config.Auth
	accessKey := s.appCtx.RedisCache.KeyForAccessToken(tokens.AccessToken)
	if err := s.appCtx.RedisCache.Set(ctx, accessKey, userID, cacheCfg.AccessTTL); err != nil {
		return nil, svcErr.Wrap("failed to store access token", err)
	}
	refreshKey := s.appCtx.RedisCache.KeyForRefreshToken(tokens.RefreshToken)
	if err := s.appCtx.RedisCache.Set(ctx, refreshKey, userID, cacheCfg.RefreshTTL); err != nil {
		return nil, svcErr.Wrap("failed to store refresh token", err)
	}
	return tokens, nil
}
