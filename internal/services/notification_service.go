package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

type NotificationService struct {
	repo      NotificationStore
	publisher Publisher
	now       Clock
}

// NewNotificationService creates a NotificationService. publisher may be nil.
func NewNotificationService(repo NotificationStore, publisher Publisher) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock replaces the service clock.
func (s *NotificationService) WithClock(now Clock) *NotificationService {
	s.now = now
	return s
}

// Notify stores a notification for a user and pushes it to any live connection.
func (s *NotificationService) Notify(ctx context.Context, userID, notifType, title, message string, data map[string]interface{}) (*models.Notification, error) {
	notif := &models.Notification{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateNotification(ctx, notif); err != nil {
		return nil, apperr.Upstream("Failed to create notification", err)
	}

	logrus.WithFields(logrus.Fields{
		"userID": userID,
		"type":   notifType,
	}).Info("Notification created")

	if s.publisher != nil {
		s.publisher.Publish(userID, notif)
	}
	return notif, nil
}

// List returns one page of a user's notifications. page starts at 1.
func (s *NotificationService) List(ctx context.Context, userID string, page, limit int, unreadOnly bool) (*models.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}
	if page > math.MaxInt32/limit {
		return nil, apperr.Validation("page is out of range")
	}

	items, total, err := s.repo.ListNotifications(ctx, userID, unreadOnly, (page-1)*limit, limit)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch notifications", err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("Failed to count notifications", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.NotificationPage{
		Notifications: items,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    page < totalPages,
		},
		UnreadCount: unread,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Upstream("Failed to count notifications", err)
	}
	return n, nil
}

// MarkRead flags one of the user's notifications as read. Marking a read
// notification again succeeds and keeps the first readAt.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, id, s.now()); err != nil {
		return apperr.Upstream("Failed to mark notification as read", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, apperr.Upstream("Failed to mark notifications as read", err)
	}
	logrus.WithField("userID", userID).Infof("Marked %d notifications read", n)
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteNotification(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Notification not found")
		}
		return apperr.Upstream("Failed to delete notification", err)
	}
	return nil
}

func (s *NotificationService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.DeleteNotificationsByUser(ctx, userID)
	if err != nil {
		return 0, apperr.Upstream("Failed to delete notifications", err)
	}
	return n, nil
}

func (s *NotificationService) owned(ctx context.Context, userID, id string) (*models.Notification, error) {
	notif, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Notification not found")
		}
		return nil, apperr.Upstream("Failed to fetch notification", err)
	}
	if notif.UserID != userID {
		logrus.WithFields(logrus.Fields{
			"userID":         userID,
			"notificationID": id,
		}).Warn("Forbidden notification access attempt")
		return nil, apperr.Forbidden("Not authorized to access this notification")
	}
	return notif, nil
}
