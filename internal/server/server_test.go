package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"drinkup/internal/app"
	"drinkup/internal/cache"
	"drinkup/internal/config"
	"drinkup/internal/db"
	"drinkup/internal/server"
)

func setupRouter(t *testing.T) (*app.AppContext, http.Handler) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(dbase, redisCache, logger, cfg)
	return appCtx, server.New(appCtx).Router()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// login runs the full phone-code flow and returns an auth header set.
func login(t *testing.T, router http.Handler, phone string) (string, map[string]string) {
	t.Helper()
	rec, resp := doJSON(t, router, http.MethodPost, "/v1/auth/request_code", map[string]string{"phone": phone}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	requestID, _ := resp["request_id"].(string)
	code, _ := resp["mock_code"].(string)
	require.NotEmpty(t, requestID)
	require.NotEmpty(t, code)

	rec, resp = doJSON(t, router, http.MethodPost, "/v1/auth/verify_code", map[string]string{
		"request_id": requestID, "code": code,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	userID, _ := resp["user_id"].(string)
	accessToken, _ := resp["access_token"].(string)
	require.NotEmpty(t, userID)
	require.NotEmpty(t, accessToken)

	return userID, map[string]string{"Authorization": "Bearer " + accessToken}
}

func TestHealthz(t *testing.T) {
	_, router := setupRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestAuthedRoutesRejectMissingToken(t *testing.T) {
	_, router := setupRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/v1/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/v1/feed", nil, map[string]string{
		"Authorization": "Bearer bogus",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginAndMe(t *testing.T) {
	_, router := setupRouter(t)

	userID, headers := login(t, router, "+79001234567")

	rec, resp := doJSON(t, router, http.MethodGet, "/v1/me", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	user, _ := resp["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, userID, user["ID"])
	assert.NotNil(t, resp["profile"])
	assert.NotNil(t, resp["reputation"])
}

func TestSwipeMatchAndChatOverHTTP(t *testing.T) {
	_, router := setupRouter(t)

	aliceID, aliceHeaders := login(t, router, "+79001111111")
	bobID, bobHeaders := login(t, router, "+79002222222")

	rec, resp := doJSON(t, router, http.MethodPost, "/v1/swipes", map[string]string{
		"target_id": bobID, "direction": "like",
	}, aliceHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resp["match"])

	rec, resp = doJSON(t, router, http.MethodPost, "/v1/swipes", map[string]string{
		"target_id": aliceID, "direction": "like",
	}, bobHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	match, _ := resp["match"].(map[string]any)
	require.NotNil(t, match)
	matchID, _ := match["ID"].(string)
	require.NotEmpty(t, matchID)

	rec, _ = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/messages", map[string]string{
		"text": "privet",
	}, aliceHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = doJSON(t, router, http.MethodGet, "/v1/matches/"+matchID+"/messages", nil, bobHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	items, _ := resp["items"].([]any)
	require.Len(t, items, 1)

	// a third account cannot see the conversation
	_, malloryHeaders := login(t, router, "+79003333333")
	rec, _ = doJSON(t, router, http.MethodGet, "/v1/matches/"+matchID+"/messages", nil, malloryHeaders)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewAndReputationOverHTTP(t *testing.T) {
	_, router := setupRouter(t)

	_, aliceHeaders := login(t, router, "+79001111111")
	bobID, _ := login(t, router, "+79002222222")

	rec, _ := doJSON(t, router, http.MethodPost, "/v1/reviews", map[string]any{
		"reviewee_id": bobID,
		"scales":      map[string]int{"warmth": 5, "sanity": 4, "stamina": 5},
	}, aliceHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doJSON(t, router, http.MethodGet, "/v1/reputation/"+bobID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 4.67, resp["score"], 0.001)
	badges, _ := resp["badges"].([]any)
	assert.Contains(t, badges, "sociability")
	assert.Contains(t, badges, "endurance")
}

func TestAdminRoutesRequireKey(t *testing.T) {
	appCtx, router := setupRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/v1/admin/moderation/queue", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp := doJSON(t, router, http.MethodGet, "/v1/admin/moderation/queue", nil, map[string]string{
		"X-Admin-Key": appCtx.Config.Auth.AdminKey,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	_, hasItems := resp["items"]
	assert.True(t, hasItems)
}
