package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEmailIsUnique(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, models.NewUser("a", "a@example.com")))
	err := s.CreateUser(ctx, models.NewUser("b", "a@example.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	b := models.NewUser("b", "b@example.com")
	require.NoError(t, s.SaveUser(ctx, b))
	b.Email = "a@example.com"
	assert.ErrorIs(t, s.SaveUser(ctx, b), repository.ErrDuplicate)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLegacyUserIsUpgradedAndStored(t *testing.T) {
	s := New()
	ctx := context.Background()
	sober := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateUser(ctx, &models.User{
		ID:                 "old",
		Email:              "old@example.com",
		SchemaVersion:      1,
		LegacySobrietyDate: &sober,
	}))

	u, err := s.GetUserByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.Profile.SobrietyDate)
	assert.True(t, u.Profile.SobrietyDate.Equal(sober))
	assert.Equal(t, models.CurrentUserSchema, s.users["old"].SchemaVersion)
	assert.Nil(t, s.users["old"].LegacySobrietyDate)

	ids, err := s.ListUserIDsWithSobrietyDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids)
}

func TestMilestoneBatchIsAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateMilestone(ctx, &models.Milestone{UserID: "u1", Title: "A", DaysRequired: 5}))

	err := s.CreateMilestones(ctx, []*models.Milestone{
		{UserID: "u1", Title: "B", DaysRequired: 1},
		{UserID: "u1", Title: "A", DaysRequired: 2},
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	list, err := s.ListMilestones(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkAchievedIsConditional(t *testing.T) {
	s := New()
	ctx := context.Background()
	m := &models.Milestone{UserID: "u1", Title: "A", DaysRequired: 5}
	require.NoError(t, s.CreateMilestone(ctx, m))

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := s.MarkAchieved(ctx, m.ID, first)
	require.NoError(t, err)
	assert.True(t, got.Achieved)

	_, err = s.MarkAchieved(ctx, m.ID, first.Add(time.Hour))
	assert.ErrorIs(t, err, repository.ErrConflict)

	stored, err := s.GetMilestone(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.AchievedAt.Equal(first))
}

func TestFriendshipTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	f := &models.Friendship{UserID: "a", FriendID: "b", Status: models.FriendshipPending}
	require.NoError(t, s.CreateFriendship(ctx, f))
	assert.ErrorIs(t, s.CreateFriendship(ctx, &models.Friendship{UserID: "a", FriendID: "b"}), repository.ErrDuplicate)

	_, err := s.TransitionStatus(ctx, f.ID, models.FriendshipAccepted, models.FriendshipPending, now)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = s.TransitionStatus(ctx, f.ID, models.FriendshipPending, models.FriendshipAccepted, now)
	require.NoError(t, err)
	require.NoError(t, s.UpsertAccepted(ctx, "b", "a", now))
	require.NoError(t, s.UpsertAccepted(ctx, "b", "a", now))

	assert.ErrorIs(t, s.DeleteIfStatus(ctx, f.ID, models.FriendshipPending), repository.ErrConflict)

	related, err := s.RelatedUserIDs(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "b"}, related)

	n, err := s.DeleteAcceptedPair(ctx, "a", "b")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestNotificationsNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateNotification(ctx, &models.Notification{
			UserID:    "u1",
			Title:     string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	items, total, err := s.ListNotifications(ctx, "u1", false, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Title)
	assert.Equal(t, "b", items[1].Title)

	_, _, err = s.ListNotifications(ctx, "u1", false, -100, 2)
	assert.Error(t, err)

	updated, err := s.MarkAllRead(ctx, "u1", base)
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	unread, err := s.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, unread)
}
