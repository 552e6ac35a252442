package services

import (
	"context"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/models"
)

// The stores below are satisfied by the Mongo repositories and by the
// in-memory store in internal/repository/memory.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
	FindByRecoveryType(ctx context.Context, recoveryType string, excludeIDs []string, limit int) ([]models.User, error)
	ListUserIDsWithSobrietyDate(ctx context.Context) ([]string, error)
}

type MilestoneStore interface {
	CreateMilestone(ctx context.Context, m *models.Milestone) error
	CreateMilestones(ctx context.Context, ms []*models.Milestone) error
	GetMilestone(ctx context.Context, id string) (*models.Milestone, error)
	GetMilestoneByTitle(ctx context.Context, userID, title string) (*models.Milestone, error)
	ListMilestones(ctx context.Context, userID string) ([]models.Milestone, error)
	UpdateMilestone(ctx context.Context, m *models.Milestone) error
	MarkAchieved(ctx context.Context, id string, at time.Time) (*models.Milestone, error)
	DeleteMilestone(ctx context.Context, id string) error
	DeleteMilestonesByUser(ctx context.Context, userID string) (int64, error)
}

// FriendshipStore exposes the conditional writes the state machine depends on:
// TransitionStatus and DeleteIfStatus fail with repository.ErrConflict when
// the row is no longer in the expected status.
type FriendshipStore interface {
	CreateFriendship(ctx context.Context, f *models.Friendship) error
	GetFriendship(ctx context.Context, id string) (*models.Friendship, error)
	FindFriendship(ctx context.Context, userID, friendID string) (*models.Friendship, error)
	TransitionStatus(ctx context.Context, id, from, to string, at time.Time) (*models.Friendship, error)
	UpsertAccepted(ctx context.Context, userID, friendID string, at time.Time) error
	DeleteIfStatus(ctx context.Context, id, status string) error
	DeleteAcceptedPair(ctx context.Context, a, b string) (int64, error)
	ListByUser(ctx context.Context, userID, status string) ([]models.Friendship, error)
	ListByFriend(ctx context.Context, friendID, status string) ([]models.Friendship, error)
	RelatedUserIDs(ctx context.Context, userID string) ([]string, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, skip, limit int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteNotification(ctx context.Context, id string) error
	DeleteNotificationsByUser(ctx context.Context, userID string) (int64, error)
}

// Notifier is what the milestone and friend services use to raise
// notifications. NotificationService implements it.
type Notifier interface {
	Notify(ctx context.Context, userID, notifType, title, message string, data map[string]interface{}) (*models.Notification, error)
}

// Publisher pushes a freshly stored notification to live connections.
type Publisher interface {
	Publish(userID string, n *models.Notification)
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time
