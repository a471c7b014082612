package billing_test

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
	"drinkup/internal/service/billing"
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

func createUser(t *testing.T, gdb *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.User{
		ID: id, PhoneHash: "hash-" + id, Age: 30, Status: db.UserStatusActive,
	}).Error)
}

func TestProductsCatalog(t *testing.T) {
	appCtx := setupAppCtx(t)
	svc := billing.NewService(appCtx)

	products := svc.Products()
	require.Len(t, products, 3)
	assert.Equal(t, "pro_week", products[0].ID)
	assert.Equal(t, int64(49900), products[0].Price)
	assert.Equal(t, "RUB", products[0].Currency)
}

func TestPurchaseExtendsProStatus(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := billing.NewService(appCtx)
	createUser(t, appCtx.DB, "alice")

	before, err := svc.GetStatus(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, before.IsPro)

	payment, expiresAt, err := svc.Purchase(ctx, "alice", "pro_month", "")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", payment.Status)
	assert.Equal(t, "sandbox", payment.Provider)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), expiresAt, time.Minute)

	after, err := svc.GetStatus(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, after.IsPro)
	require.NotNil(t, after.ExpiresAt)

	var stored db.Payment
	require.NoError(t, appCtx.DB.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, int64(129900), stored.Amount)
}

func TestPurchaseUnknownProduct(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := billing.NewService(appCtx)
	createUser(t, appCtx.DB, "alice")

	_, _, err := svc.Purchase(ctx, "alice", "pro_decade", "")
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))
}
