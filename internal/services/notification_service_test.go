package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotifications(t *testing.T, env *testEnv, userID string, n int) []*models.Notification {
	t.Helper()
	out := make([]*models.Notification, 0, n)
	for i := 0; i < n; i++ {
		at := testNow.Add(time.Duration(i) * time.Minute)
		env.notifications.WithClock(func() time.Time { return at })
		notif, err := env.notifications.Notify(context.Background(), userID, models.NotificationSystem,
			fmt.Sprintf("Note %d", i), "hello", nil)
		require.NoError(t, err)
		out = append(out, notif)
	}
	env.notifications.WithClock(fixedClock)
	return out
}

func TestNotifyPublishes(t *testing.T) {
	env := newTestEnv()

	notif, err := env.notifications.Notify(context.Background(), "u1", models.NotificationSystem, "Hi", "there",
		map[string]interface{}{"k": "v"})
	require.NoError(t, err)
	assert.NotEmpty(t, notif.ID)
	assert.False(t, notif.Read)
	assert.True(t, notif.CreatedAt.Equal(testNow))
	assert.Equal(t, 1, env.publisher.published["u1"])
}

func TestListPaginatesNewestFirst(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedNotifications(t, env, "u1", 5)
	seedNotifications(t, env, "u2", 2)

	page, err := env.notifications.List(ctx, "u1", 1, 2, false)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, "Note 4", page.Notifications[0].Title)
	assert.Equal(t, "Note 3", page.Notifications[1].Title)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 2, Total: 5, TotalPages: 3, HasMore: true}, page.Pagination)
	assert.EqualValues(t, 5, page.UnreadCount)

	page, err = env.notifications.List(ctx, "u1", 3, 2, false)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, "Note 0", page.Notifications[0].Title)
	assert.False(t, page.Pagination.HasMore)

	page, err = env.notifications.List(ctx, "u1", 9, 2, false)
	require.NoError(t, err)
	assert.Empty(t, page.Notifications)
}

func TestListClampsPaging(t *testing.T) {
	env := newTestEnv()
	seedNotifications(t, env, "u1", 1)

	page, err := env.notifications.List(context.Background(), "u1", 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, DefaultNotificationLimit, page.Pagination.Limit)

	page, err = env.notifications.List(context.Background(), "u1", 1, 1000, false)
	require.NoError(t, err)
	assert.Equal(t, MaxNotificationLimit, page.Pagination.Limit)

	_, err = env.notifications.List(context.Background(), "u1", 100000000000000001, 100, false)
	assertKind(t, err, apperr.KindValidation)
}

func TestMarkReadAndUnreadOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	notes := seedNotifications(t, env, "u1", 3)

	require.NoError(t, env.notifications.MarkRead(ctx, "u1", notes[0].ID))

	// a second mark keeps the first readAt
	env.notifications.WithClock(func() time.Time { return testNow.Add(time.Hour) })
	require.NoError(t, env.notifications.MarkRead(ctx, "u1", notes[0].ID))

	stored, err := env.store.GetNotification(ctx, notes[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)
	require.NotNil(t, stored.ReadAt)
	assert.True(t, stored.ReadAt.Equal(testNow))

	count, err := env.notifications.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	page, err := env.notifications.List(ctx, "u1", 1, 10, true)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)
	assert.EqualValues(t, 2, page.Pagination.Total)

	updated, err := env.notifications.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	count, err = env.notifications.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	notes := seedNotifications(t, env, "owner", 1)

	err := env.notifications.MarkRead(ctx, "intruder", notes[0].ID)
	assertKind(t, err, apperr.KindAuthorization)

	err = env.notifications.Delete(ctx, "intruder", notes[0].ID)
	assertKind(t, err, apperr.KindAuthorization)

	err = env.notifications.MarkRead(ctx, "owner", "missing")
	assertKind(t, err, apperr.KindNotFound)

	require.NoError(t, env.notifications.Delete(ctx, "owner", notes[0].ID))
	err = env.notifications.Delete(ctx, "owner", notes[0].ID)
	assertKind(t, err, apperr.KindNotFound)
}

func TestDeleteAllOnlyTouchesOwner(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedNotifications(t, env, "u1", 3)
	seedNotifications(t, env, "u2", 1)

	deleted, err := env.notifications.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	page, err := env.notifications.List(ctx, "u2", 1, 10, false)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 1)
}
