package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/internal/recovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListWithProgressOneYearIn(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedUser(t, "u1", "one@example.com", 400)

	_, err := env.milestones.BulkCreate(ctx, "u1", []string{"30-days", "1-year", "2-years"})
	require.NoError(t, err)

	list, err := env.milestones.ListWithProgress(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 400, list.CurrentDays)
	require.Len(t, list.Milestones, 3)
	oneYear := list.Milestones[1]
	assert.Equal(t, "1 Year", oneYear.Title)
	assert.True(t, oneYear.Reached)
	assert.Equal(t, 100, oneYear.Progress)
	assert.Equal(t, 0, oneYear.DaysRemaining)

	require.NotNil(t, list.NextMilestone)
	assert.Equal(t, "2 Years", list.NextMilestone.Title)
	assert.InDelta(t, 9.59, list.ProgressToNext, 0.01)

	// listing never writes
	assert.Equal(t, 0, list.AchievedCount)
	for _, m := range list.Milestones {
		assert.False(t, m.Achieved)
	}
}

func TestListWithProgressWithoutSobrietyDate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedUser(t, "u1", "one@example.com", -1)

	_, err := env.milestones.Create(ctx, "u1", MilestoneInput{Title: "First week", DaysRequired: 7})
	require.NoError(t, err)

	list, err := env.milestones.ListWithProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, list.CurrentDays)
	assert.Nil(t, list.SobrietyDate)
	require.Len(t, list.Milestones, 1)
	assert.Equal(t, 0, list.Milestones[0].Progress)
	assert.Equal(t, 7, list.Milestones[0].DaysRemaining)

	// a user that never wrote a profile still gets a list
	list, err = env.milestones.ListWithProgress(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list.Milestones)
	assert.Nil(t, list.NextMilestone)
}

func TestCreateRejectsDuplicateTitle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.milestones.Create(ctx, "u1", MilestoneInput{Title: "30 Days", DaysRequired: 30})
	require.NoError(t, err)
	assert.Equal(t, recovery.CategoryCustom, first.Category)

	_, err = env.milestones.Create(ctx, "u1", MilestoneInput{Title: "30 Days", DaysRequired: 31})
	assertKind(t, err, apperr.KindConflict)
	assert.Equal(t, 400, apperr.As(err).Status())

	list, err := env.milestones.ListWithProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list.Milestones, 1)

	// titles are only unique per user
	_, err = env.milestones.Create(ctx, "u2", MilestoneInput{Title: "30 Days", DaysRequired: 30})
	assert.NoError(t, err)
}

func TestCreateValidatesInput(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name string
		in   MilestoneInput
	}{
		{"missing title", MilestoneInput{Title: "  ", DaysRequired: 10}},
		{"zero days", MilestoneInput{Title: "Zero", DaysRequired: 0}},
		{"too many days", MilestoneInput{Title: "Forever", DaysRequired: recovery.MaxDaysRequired + 1}},
		{"unknown category", MilestoneInput{Title: "Odd", DaysRequired: 10, Category: "weird"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.milestones.Create(context.Background(), "u1", tt.in)
			assertKind(t, err, apperr.KindValidation)
		})
	}
}

func TestAchieveTwiceKeepsTimestamp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedUser(t, "u1", "one@example.com", 10)

	m, err := env.milestones.Create(ctx, "u1", MilestoneInput{Title: "Big day", DaysRequired: 500})
	require.NoError(t, err)

	achieved, err := env.milestones.Achieve(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.True(t, achieved.Achieved)
	require.NotNil(t, achieved.AchievedAt)
	assert.True(t, achieved.AchievedAt.Equal(testNow))

	env.milestones.WithClock(func() time.Time { return testNow.Add(48 * time.Hour) })
	_, err = env.milestones.Achieve(ctx, "u1", m.ID)
	assertKind(t, err, apperr.KindConflict)

	stored, err := env.milestones.Get(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.True(t, stored.AchievedAt.Equal(testNow))

	notes := env.notificationsOf(t, "u1", models.NotificationMilestoneAchieved)
	require.Len(t, notes, 1)
	assert.Equal(t, m.ID, notes[0].Data["milestoneId"])
	assert.Equal(t, "Big day", notes[0].Data["title"])
}

func TestConcurrentAchieveHasOneWinner(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	m, err := env.milestones.Create(ctx, "u1", MilestoneInput{Title: "Race", DaysRequired: 5})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.milestones.Achieve(ctx, "u1", m.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Len(t, env.notificationsOf(t, "u1", models.NotificationMilestoneAchieved), 1)
}

func TestMilestoneOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	m, err := env.milestones.Create(ctx, "owner", MilestoneInput{Title: "Mine", DaysRequired: 3})
	require.NoError(t, err)

	_, err = env.milestones.Get(ctx, "intruder", m.ID)
	assertKind(t, err, apperr.KindAuthorization)

	title := "Stolen"
	_, err = env.milestones.Update(ctx, "intruder", m.ID, MilestoneUpdate{Title: &title})
	assertKind(t, err, apperr.KindAuthorization)

	err = env.milestones.Delete(ctx, "intruder", m.ID)
	assertKind(t, err, apperr.KindAuthorization)

	_, err = env.milestones.Achieve(ctx, "intruder", m.ID)
	assertKind(t, err, apperr.KindAuthorization)

	_, err = env.milestones.Get(ctx, "owner", "missing")
	assertKind(t, err, apperr.KindNotFound)

	require.NoError(t, env.milestones.Delete(ctx, "owner", m.ID))
	_, err = env.milestones.Get(ctx, "owner", m.ID)
	assertKind(t, err, apperr.KindNotFound)
}

func TestUpdateMilestone(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.milestones.Create(ctx, "u1", MilestoneInput{Title: "A", DaysRequired: 3})
	require.NoError(t, err)
	_, err = env.milestones.Create(ctx, "u1", MilestoneInput{Title: "B", DaysRequired: 4})
	require.NoError(t, err)
	_, err = env.milestones.Achieve(ctx, "u1", a.ID)
	require.NoError(t, err)

	taken := "B"
	_, err = env.milestones.Update(ctx, "u1", a.ID, MilestoneUpdate{Title: &taken})
	assertKind(t, err, apperr.KindConflict)

	badDays := 0
	_, err = env.milestones.Update(ctx, "u1", a.ID, MilestoneUpdate{DaysRequired: &badDays})
	assertKind(t, err, apperr.KindValidation)

	// keeping its own title is not a conflict
	same, days := "A", 10
	updated, err := env.milestones.Update(ctx, "u1", a.ID, MilestoneUpdate{Title: &same, DaysRequired: &days})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.DaysRequired)

	stored, err := env.milestones.Get(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.DaysRequired)
	assert.True(t, stored.Achieved)
	assert.True(t, stored.AchievedAt.Equal(testNow))

	annual, blank := "annual", ""
	_, err = env.milestones.Update(ctx, "u1", a.ID, MilestoneUpdate{Category: &annual})
	require.NoError(t, err)
	updated, err = env.milestones.Update(ctx, "u1", a.ID, MilestoneUpdate{Category: &blank})
	require.NoError(t, err)
	assert.Equal(t, "custom", updated.Category)
	stored, err = env.milestones.Get(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "custom", stored.Category)
}

func TestBulkCreate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.milestones.Create(ctx, "u1", MilestoneInput{Title: "30 Days", DaysRequired: 30})
	require.NoError(t, err)

	created, err := env.milestones.BulkCreate(ctx, "u1", []string{"1-week", "30-days", "1-week", "90-days"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "1 Week", created[0].Title)
	assert.Equal(t, "1-week", created[0].StandardID)
	assert.Equal(t, recovery.CategoryEarly, created[0].Category)
	assert.Equal(t, "90 Days", created[1].Title)

	again, err := env.milestones.BulkCreate(ctx, "u1", []string{"1-week"})
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = env.milestones.BulkCreate(ctx, "u1", []string{"1-week", "18-months"})
	assertKind(t, err, apperr.KindValidation)
	assert.Equal(t, []string{"18-months"}, apperr.As(err).Details)

	_, err = env.milestones.BulkCreate(ctx, "u1", nil)
	assertKind(t, err, apperr.KindValidation)

	list, err := env.milestones.ListWithProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list.Milestones, 3)
}

func TestSyncAchievements(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedUser(t, "u1", "one@example.com", 100)

	_, err := env.milestones.BulkCreate(ctx, "u1", []string{"30-days", "90-days", "6-months"})
	require.NoError(t, err)

	achieved, err := env.milestones.SyncAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, achieved, 2)
	assert.Equal(t, "30 Days", achieved[0].Title)
	assert.Equal(t, "90 Days", achieved[1].Title)

	again, err := env.milestones.SyncAchievements(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again)

	assert.Len(t, env.notificationsOf(t, "u1", models.NotificationMilestoneAchieved), 2)
	assert.Equal(t, 2, env.publisher.published["u1"])

	list, err := env.milestones.ListWithProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, list.AchievedCount)
}

func TestSyncRespectsMilestoneNotificationSetting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	u := env.seedUser(t, "u1", "one@example.com", 40)
	u.NotificationSettings.Milestones = false
	require.NoError(t, env.store.SaveUser(ctx, u))

	_, err := env.milestones.BulkCreate(ctx, "u1", []string{"30-days"})
	require.NoError(t, err)

	achieved, err := env.milestones.SyncAchievements(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, achieved, 1)
	assert.Empty(t, env.notificationsOf(t, "u1", models.NotificationMilestoneAchieved))
}

func TestSweepAll(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedUser(t, "u1", "one@example.com", 8)
	env.seedUser(t, "u2", "two@example.com", 31)
	env.seedUser(t, "u3", "three@example.com", -1)

	for _, id := range []string{"u1", "u2", "u3"} {
		_, err := env.milestones.BulkCreate(ctx, id, []string{"1-week", "30-days"})
		require.NoError(t, err)
	}

	n, err := env.milestones.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = env.milestones.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
