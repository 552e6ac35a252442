package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/internal/repository/memory"
	jwtutil "github.com/Dias221467/Recovery_Tracker/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type recordingPublisher struct {
	mu        sync.Mutex
	published map[string]int
}

func (p *recordingPublisher) Publish(userID string, n *models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.published == nil {
		p.published = map[string]int{}
	}
	p.published[userID]++
}

type testEnv struct {
	store         *memory.Store
	publisher     *recordingPublisher
	notifications *NotificationService
	milestones    *MilestoneService
	friends       *FriendService
	users         *UserService
}

func newTestEnv() *testEnv {
	store := memory.New()
	pub := &recordingPublisher{}
	notifications := NewNotificationService(store, pub).WithClock(fixedClock)
	return &testEnv{
		store:         store,
		publisher:     pub,
		notifications: notifications,
		milestones:    NewMilestoneService(store, store, notifications).WithClock(fixedClock),
		friends:       NewFriendService(store, store, notifications).WithClock(fixedClock),
		users: NewUserService(store, store, store, store,
			jwtutil.NewManager("test-secret", time.Hour), nil).WithClock(fixedClock),
	}
}

// seedUser stores a user and returns it.
func (e *testEnv) seedUser(t *testing.T, id, email string, sobrietyDaysAgo int) *models.User {
	t.Helper()
	u := models.NewUser(id, email)
	if sobrietyDaysAgo >= 0 {
		d := testNow.AddDate(0, 0, -sobrietyDaysAgo)
		u.Profile.SobrietyDate = &d
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) notificationsOf(t *testing.T, userID, notifType string) []models.Notification {
	t.Helper()
	page, err := e.notifications.List(context.Background(), userID, 1, MaxNotificationLimit, false)
	require.NoError(t, err)
	var out []models.Notification
	for _, n := range page.Notifications {
		if n.Type == notifType {
			out = append(out, n)
		}
	}
	return out
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, kind), "unexpected error: %v", err)
}
