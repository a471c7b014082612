package place_test

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
	"drinkup/internal/service/place"
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

func TestCreateStartsPending(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := place.NewService(appCtx)

	created, err := svc.Create(ctx, "alice", place.CreateRequest{
		Type: "bar", Title: "Rooftop", Lat: 55.755, Lon: 37.617,
	})
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, created.Status)

	// pending places never show up nearby
	views, err := svc.Nearby(ctx, 55.755, 37.617, 5000, "")
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = svc.Create(ctx, "alice", place.CreateRequest{Type: "bar"})
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))
}

func TestCreateDefaultsToCreatorLocation(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := place.NewService(appCtx)

	require.NoError(t, appCtx.DB.Create(&db.Location{
		UserID: "alice", Lat: 55.7, Lon: 37.6,
		VisibilityMode: db.VisibilityVisible, LastSeenAt: time.Now(),
	}).Error)

	created, err := svc.Create(ctx, "alice", place.CreateRequest{Type: "bar", Title: "Local"})
	require.NoError(t, err)
	assert.Equal(t, 55.7, created.Lat)
	assert.Equal(t, 37.6, created.Lon)
}

func TestNearbyFiltersRadiusTypeAndExpiry(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := place.NewService(appCtx)

	mk := func(id, placeType string, lat, lon float64, createdAt time.Time) {
		require.NoError(t, appCtx.DB.Create(&db.Place{
			ID: id, CreatorID: "alice", Type: placeType, Title: id,
			Lat: lat, Lon: lon, Status: db.StatusActive, CreatedAt: createdAt,
		}).Error)
	}
	now := time.Now()
	mk("near-bar", "bar", 55.755, 37.617, now)
	mk("far-bar", "bar", 56.5, 37.617, now)
	mk("near-beacon", "ready_now", 55.756, 37.617, now)
	mk("stale-beacon", "ready_now", 55.756, 37.617, now.Add(-3*time.Hour))

	views, err := svc.Nearby(ctx, 55.755, 37.617, 5000, "")
	require.NoError(t, err)
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	assert.ElementsMatch(t, []string{"near-bar", "near-beacon"}, ids)

	views, err = svc.Nearby(ctx, 55.755, 37.617, 5000, "bar")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "near-bar", views[0].ID)
	// coordinates are coarsened in the listing
	assert.Equal(t, 55.755, views[0].Lat)
	assert.Equal(t, 37.617, views[0].Lon)
}

func TestSetStatusCreatorOrAdmin(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := place.NewService(appCtx)

	created, err := svc.Create(ctx, "alice", place.CreateRequest{
		Type: "bar", Title: "Rooftop", Lat: 55.755, Lon: 37.617,
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, created.ID, "mallory", false, db.StatusHidden)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))

	updated, err := svc.SetStatus(ctx, created.ID, "alice", false, db.StatusHidden)
	require.NoError(t, err)
	assert.Equal(t, db.StatusHidden, updated.Status)

	updated, err = svc.SetStatus(ctx, created.ID, "mallory", true, db.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, db.StatusActive, updated.Status)

	_, err = svc.SetStatus(ctx, created.ID, "alice", false, "pending")
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))
}
