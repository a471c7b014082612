package profile_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
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
	svcErr "drinkup/internal/errors"
	"drinkup/internal/service/profile"
	"drinkup/internal/service/review"
)

func setupAppCtx(t *testing.T) *app.AppContext {
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

	return app.New(dbase, redisCache, logger, cfg)
}

func setupService(t *testing.T) (*app.AppContext, *profile.Service) {
	t.Helper()
	appCtx := setupAppCtx(t)
	return appCtx, profile.NewService(appCtx, review.NewService(appCtx))
}

func createUser(t *testing.T, gdb *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.User{
		ID: id, PhoneHash: "hash-" + id, Age: 30, Status: db.UserStatusActive,
	}).Error)
}

func strPtr(v string) *string   { return &v }
func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupService(t)

	require.NoError(t, svc.Ensure(ctx, "alice"))

	nickname := strPtr("Alisa")
	_, err := svc.UpdateMe(ctx, "alice", profile.UpdateMeRequest{Nickname: nickname})
	require.NoError(t, err)

	// a second Ensure must not reset the edited profile
	require.NoError(t, svc.Ensure(ctx, "alice"))

	var stored db.Profile
	require.NoError(t, appCtx.DB.First(&stored, "user_id = ?", "alice").Error)
	assert.Equal(t, "Alisa", stored.Nickname)
}

func TestMeReturnsAllSections(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupService(t)
	createUser(t, appCtx.DB, "alice")

	me, err := svc.Me(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", me.User.ID)
	assert.NotEmpty(t, me.Profile.Nickname)
	assert.NotZero(t, me.Location.Lat)
	require.NotNil(t, me.Reputation)
	assert.Equal(t, 0.0, me.Reputation.Score)
}

func TestUpdateMePartialEdits(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupService(t)
	createUser(t, appCtx.DB, "alice")

	topics := []string{"books", "hiking"}
	updated, err := svc.UpdateMe(ctx, "alice", profile.UpdateMeRequest{
		FavoriteDrink: strPtr("cider"),
		TalkTopics:    &topics,
		Age:           intPtr(27),
	})
	require.NoError(t, err)
	assert.Equal(t, "cider", updated.FavoriteDrink)
	assert.Equal(t, db.StringList(topics), updated.TalkTopics)

	// untouched fields keep their materialized defaults
	assert.NotEmpty(t, updated.Nickname)

	var user db.User
	require.NoError(t, appCtx.DB.First(&user, "id = ?", "alice").Error)
	assert.Equal(t, 27, user.Age)
}

func TestUpdatePhotosCapslist(t *testing.T) {
	ctx := context.Background()
	_, svc := setupService(t)

	photos := []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg", "7.jpg"}
	kept, err := svc.UpdatePhotos(ctx, "alice", photos)
	require.NoError(t, err)
	assert.Equal(t, photos[:5], kept)

	_, err = svc.UpdatePhotos(ctx, "alice", nil)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))
}

func TestUpdateLocationRefreshesLastSeen(t *testing.T) {
	ctx := context.Background()
	_, svc := setupService(t)

	before := time.Now().Add(-time.Minute)
	location, err := svc.UpdateLocation(ctx, "alice", profile.UpdateLocationRequest{
		Lat:            f64Ptr(59.9386),
		Lon:            f64Ptr(30.3141),
		VisibilityMode: strPtr(db.VisibilityHidden),
	})
	require.NoError(t, err)
	assert.Equal(t, 59.9386, location.Lat)
	assert.Equal(t, 30.3141, location.Lon)
	assert.Equal(t, db.VisibilityHidden, location.VisibilityMode)
	assert.True(t, location.LastSeenAt.After(before))
}

func TestPublicHidesOwnerOnlyFields(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupService(t)
	createUser(t, appCtx.DB, "bob")
	require.NoError(t, svc.Ensure(ctx, "bob"))

	public, err := svc.Public(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", public.UserID)
	require.NotNil(t, public.Reputation)

	_, err = svc.Public(ctx, "nobody")
	assert.Error(t, err)
}
