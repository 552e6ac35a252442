package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

// MaxSuggestions caps SuggestFriends.
const MaxSuggestions = 10

// FriendService handles business logic for managing friendships.
//
// A pair moves NONE -> pending -> accepted. Declining deletes the pending row;
// removing a friend deletes both accepted rows. Every status change goes
// through a conditional write so two concurrent accepts cannot both win.
type FriendService struct {
	friendRepo FriendshipStore
	userRepo   UserStore
	notifier   Notifier
	now        Clock
}

// NewFriendService creates a new FriendService.
func NewFriendService(friendRepo FriendshipStore, userRepo UserStore, notifier Notifier) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		now:        time.Now,
	}
}

// WithClock replaces the service clock.
func (s *FriendService) WithClock(now Clock) *FriendService {
	s.now = now
	return s
}

// SendRequest creates a pending request from requesterID to the user with
// targetEmail.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, targetEmail, message string) (*models.Friendship, error) {
	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == "" {
		return nil, apperr.Validation("friendEmail is required")
	}

	target, err := s.userRepo.GetUserByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Upstream("Failed to look up user", err)
	}
	if target.ID == requesterID {
		return nil, apperr.Validation("Cannot send a friend request to yourself")
	}

	existing, err := s.friendRepo.FindFriendship(ctx, requesterID, target.ID)
	switch {
	case err == nil:
		return nil, duplicateFriendship(existing.Status)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Upstream("Failed to check friendship", err)
	}

	request := &models.Friendship{
		UserID:   requesterID,
		FriendID: target.ID,
		Status:   models.FriendshipPending,
		Message:  strings.TrimSpace(message),
	}
	if err := s.friendRepo.CreateFriendship(ctx, request); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// a concurrent request created the row first
			if row, ferr := s.friendRepo.FindFriendship(ctx, requesterID, target.ID); ferr == nil {
				return nil, duplicateFriendship(row.Status)
			}
			return nil, apperr.Conflict("Friend request already sent")
		}
		return nil, apperr.Upstream("Failed to create friend request", err)
	}

	logrus.WithFields(logrus.Fields{
		"requestID":   request.ID,
		"requesterID": requesterID,
		"targetID":    target.ID,
	}).Info("Friend request sent")

	if target.NotificationSettings.FriendRequests {
		requester, _ := s.userRepo.GetUserByID(ctx, requesterID)
		data := map[string]interface{}{
			"requestId":   request.ID,
			"requesterId": requesterID,
			"message":     request.Message,
		}
		name := "Someone"
		if requester != nil {
			data["requesterEmail"] = requester.Email
			name = requester.Name()
		}
		s.notify(ctx, target.ID, models.NotificationFriendRequest,
			"New friend request",
			fmt.Sprintf("%s sent you a friend request", name),
			data,
		)
	}
	return request, nil
}

func duplicateFriendship(status string) error {
	if status == models.FriendshipAccepted {
		return apperr.Conflict("You are already friends with this user")
	}
	return apperr.Conflict("Friend request already sent")
}

// AcceptRequest accepts a pending request addressed to actorID and creates the
// reciprocal row.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actorID string) (*models.Friendship, error) {
	request, err := s.pendingFor(ctx, requestID, actorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	accepted, err := s.friendRepo.TransitionStatus(ctx, request.ID, models.FriendshipPending, models.FriendshipAccepted, now)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("Friend request is no longer pending")
		}
		return nil, apperr.Upstream("Failed to accept friend request", err)
	}
	if err := s.friendRepo.UpsertAccepted(ctx, accepted.FriendID, accepted.UserID, now); err != nil {
		// put the request back to pending so the accept can be retried
		if _, rerr := s.friendRepo.TransitionStatus(context.WithoutCancel(ctx), accepted.ID, models.FriendshipAccepted, models.FriendshipPending, now); rerr != nil {
			logrus.WithError(rerr).WithField("requestID", requestID).Error("Failed to roll back friend request acceptance")
		}
		return nil, apperr.Upstream("Failed to create reciprocal friendship", err)
	}

	logrus.WithFields(logrus.Fields{
		"requestID":   requestID,
		"requesterID": accepted.UserID,
		"targetID":    actorID,
	}).Info("Friend request accepted")

	requester, err := s.userRepo.GetUserByID(ctx, accepted.UserID)
	if err == nil && requester.NotificationSettings.FriendRequests {
		name := "Your friend"
		if actor, aerr := s.userRepo.GetUserByID(ctx, actorID); aerr == nil {
			name = actor.Name()
		}
		s.notify(ctx, accepted.UserID, models.NotificationFriendRequestAccepted,
			"Friend request accepted",
			fmt.Sprintf("%s accepted your friend request", name),
			map[string]interface{}{"requestId": accepted.ID, "friendId": actorID},
		)
	}
	return accepted, nil
}

// DeclineRequest deletes a pending request addressed to actorID.
func (s *FriendService) DeclineRequest(ctx context.Context, requestID, actorID string) error {
	request, err := s.pendingFor(ctx, requestID, actorID)
	if err != nil {
		return err
	}
	if err := s.friendRepo.DeleteIfStatus(ctx, request.ID, models.FriendshipPending); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return apperr.Conflict("Friend request is no longer pending")
		}
		return apperr.Upstream("Failed to decline friend request", err)
	}

	logrus.WithField("requestID", requestID).Info("Friend request declined")
	return nil
}

// pendingFor loads a request and checks it is pending and addressed to actorID.
func (s *FriendService) pendingFor(ctx context.Context, requestID, actorID string) (*models.Friendship, error) {
	request, err := s.friendRepo.GetFriendship(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Friend request not found")
		}
		return nil, apperr.Upstream("Failed to fetch friend request", err)
	}
	if request.FriendID != actorID {
		logrus.WithFields(logrus.Fields{
			"requestID": requestID,
			"actorID":   actorID,
		}).Warn("Forbidden friend request access attempt")
		return nil, apperr.Forbidden("Not authorized to respond to this request")
	}
	if request.Status != models.FriendshipPending {
		return nil, apperr.Conflict("Friend request is no longer pending")
	}
	return request, nil
}

// RemoveFriend deletes both accepted rows between actorID and friendID and
// reports how many rows went. Removing a non-friend removes nothing.
func (s *FriendService) RemoveFriend(ctx context.Context, actorID, friendID string) (int64, error) {
	n, err := s.friendRepo.DeleteAcceptedPair(ctx, actorID, friendID)
	if err != nil {
		return 0, apperr.Upstream("Failed to remove friend", err)
	}
	logrus.WithFields(logrus.Fields{
		"userID":   actorID,
		"friendID": friendID,
		"removed":  n,
	}).Info("Friend removed")
	return n, nil
}

// ListFriends returns the user's accepted friends. Rows whose counterpart no
// longer exists are skipped.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]models.FriendSummary, error) {
	rows, err := s.friendRepo.ListByUser(ctx, userID, models.FriendshipAccepted)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch friends", err)
	}

	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.FriendID)
	}
	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	friends := make([]models.FriendSummary, 0, len(rows))
	for _, f := range rows {
		u, ok := users[f.FriendID]
		if !ok {
			continue
		}
		friends = append(friends, models.FriendSummary{
			ID:              u.ID,
			FriendshipID:    f.ID,
			DisplayName:     u.Name(),
			Email:           u.Email,
			AvatarURL:       u.Profile.AvatarURL,
			RecoveryType:    u.Profile.RecoveryType,
			SobrietyDate:    visibleSobrietyDate(u),
			PrivacySettings: u.PrivacySettings,
			FriendshipDate:  f.CreatedAt,
		})
	}
	return friends, nil
}

// ListPendingRequests returns pending requests addressed to the user.
func (s *FriendService) ListPendingRequests(ctx context.Context, userID string) ([]models.PendingRequest, error) {
	rows, err := s.friendRepo.ListByFriend(ctx, userID, models.FriendshipPending)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch friend requests", err)
	}

	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.UserID)
	}
	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	requests := make([]models.PendingRequest, 0, len(rows))
	for _, f := range rows {
		u, ok := users[f.UserID]
		if !ok {
			continue
		}
		requests = append(requests, models.PendingRequest{
			ID:          f.ID,
			RequesterID: u.ID,
			Email:       u.Email,
			DisplayName: u.Name(),
			AvatarURL:   u.Profile.AvatarURL,
			Message:     f.Message,
			CreatedAt:   f.CreatedAt,
		})
	}
	return requests, nil
}

// SuggestFriends returns up to MaxSuggestions users with the same recovery
// type. Anyone already in a row with the user, in either direction, is left out.
func (s *FriendService) SuggestFriends(ctx context.Context, userID string) ([]models.FriendSuggestion, error) {
	suggestions := []models.FriendSuggestion{}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return suggestions, nil
		}
		return nil, apperr.Upstream("Failed to fetch user", err)
	}
	if user.Profile.RecoveryType == "" {
		return suggestions, nil
	}

	related, err := s.friendRepo.RelatedUserIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch friendships", err)
	}
	exclude := append(related, userID)

	users, err := s.userRepo.FindByRecoveryType(ctx, user.Profile.RecoveryType, exclude, MaxSuggestions)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch suggestions", err)
	}
	for _, u := range users {
		suggestions = append(suggestions, models.FriendSuggestion{
			ID:           u.ID,
			DisplayName:  u.Name(),
			AvatarURL:    u.Profile.AvatarURL,
			RecoveryType: u.Profile.RecoveryType,
			Program:      u.Profile.Program,
		})
	}
	return suggestions, nil
}

func (s *FriendService) usersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	users, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch users", err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func (s *FriendService) notify(ctx context.Context, userID, notifType, title, message string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, userID, notifType, title, message, data); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"userID": userID,
			"type":   notifType,
		}).Warn("Failed to send friendship notification")
	}
}

// visibleSobrietyDate hides the date from friends when the owner keeps it private.
func visibleSobrietyDate(u models.User) *time.Time {
	if u.PrivacySettings.SobrietyDate == models.VisibilityPrivate {
		return nil
	}
	return u.Profile.SobrietyDate
}
