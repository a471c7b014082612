package chat_test

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
	"drinkup/internal/repository"
	"drinkup/internal/service/chat"
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

func createMatch(t *testing.T, appCtx *app.AppContext, userA, userB string) *db.Match {
	t.Helper()
	match, err := repository.NewMatchRepository(appCtx.DB).Create(context.Background(), userA, userB)
	require.NoError(t, err)
	return match
}

func TestPostAndListMessages(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := chat.NewService(appCtx)
	match := createMatch(t, appCtx, "alice", "bob")

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.PostMessage(ctx, match.ID, "alice", chat.PostMessageRequest{Text: text})
		require.NoError(t, err)
	}

	messages, err := svc.ListMessages(ctx, match.ID, "bob", 0)
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
	assert.Equal(t, "third", messages[2].Text)
}

func TestListMessagesLimitKeepsNewest(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := chat.NewService(appCtx)
	match := createMatch(t, appCtx, "alice", "bob")

	for i := 1; i <= 5; i++ {
		_, err := svc.PostMessage(ctx, match.ID, "alice", chat.PostMessageRequest{
			Text: fmt.Sprintf("msg-%d", i),
		})
		require.NoError(t, err)
	}

	messages, err := svc.ListMessages(ctx, match.ID, "alice", 2)
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, "msg-4", messages[0].Text)
	assert.Equal(t, "msg-5", messages[1].Text)
}

func TestChatNonParticipantGetsNotFound(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := chat.NewService(appCtx)
	match := createMatch(t, appCtx, "alice", "bob")

	_, err := svc.ListMessages(ctx, match.ID, "mallory", 0)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))

	_, err = svc.PostMessage(ctx, match.ID, "mallory", chat.PostMessageRequest{Text: "hi"})
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))

	_, err = svc.ListMessages(ctx, "no-such-match", "alice", 0)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))
}

func TestClosedMatchReadableButNotWritable(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := chat.NewService(appCtx)
	match := createMatch(t, appCtx, "alice", "bob")

	_, err := svc.PostMessage(ctx, match.ID, "alice", chat.PostMessageRequest{Text: "before close"})
	require.NoError(t, err)

	require.NoError(t, repository.NewMatchRepository(appCtx.DB).Close(ctx, match.ID))

	_, err = svc.PostMessage(ctx, match.ID, "bob", chat.PostMessageRequest{Text: "after close"})
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))

	messages, err := svc.ListMessages(ctx, match.ID, "bob", 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "before close", messages[0].Text)
}

func TestListMessagesOrderSurvivesTimestampTie(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := chat.NewService(appCtx)
	match := createMatch(t, appCtx, "alice", "bob")

	// identical timestamps and ids chosen so lexical uuid order would
	// invert the append order
	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, appCtx.DB.Create(&db.Message{
		ID: "zzzz-first", MatchID: match.ID, SenderID: "alice",
		Text: "first", CreatedAt: at,
	}).Error)
	require.NoError(t, appCtx.DB.Create(&db.Message{
		ID: "aaaa-second", MatchID: match.ID, SenderID: "bob",
		Text: "second", CreatedAt: at,
	}).Error)

	messages, err := svc.ListMessages(ctx, match.ID, "alice", 0)
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
}

func TestPostMessageRequiresContent(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	svc := chat.NewService(appCtx)
	match := createMatch(t, appCtx, "alice", "bob")

	_, err := svc.PostMessage(ctx, match.ID, "alice", chat.PostMessageRequest{})
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))

	msg, err := svc.PostMessage(ctx, match.ID, "alice", chat.PostMessageRequest{Attachment: "photo.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", msg.Attachment)
}
