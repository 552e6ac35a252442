package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/internal/recovery"
	"github.com/Dias221467/Recovery_Tracker/internal/repository"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
	"github.com/sirupsen/logrus"
)

var errDuplicateTitle = apperr.Conflict("A milestone with this title already exists")

// MilestoneInput holds the fields of a new custom milestone.
type MilestoneInput struct {
	Title        string
	Description  string
	DaysRequired int
	Category     string
	Icon         string
	Color        string
}

// MilestoneUpdate holds the fields to change; nil fields are left as they are.
type MilestoneUpdate struct {
	Title        *string
	Description  *string
	DaysRequired *int
	Category     *string
	Icon         *string
	Color        *string
}

// MilestoneService encapsulates the business logic for milestones.
type MilestoneService struct {
	repo     MilestoneStore
	userRepo UserStore
	notifier Notifier
	now      Clock
}

// NewMilestoneService creates a new instance of MilestoneService.
func NewMilestoneService(repo MilestoneStore, userRepo UserStore, notifier Notifier) *MilestoneService {
	return &MilestoneService{
		repo:     repo,
		userRepo: userRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock replaces the service clock.
func (s *MilestoneService) WithClock(now Clock) *MilestoneService {
	s.now = now
	return s
}

// Standard returns the built-in milestone catalogue.
func (s *MilestoneService) Standard() []recovery.StandardMilestone {
	return recovery.StandardMilestones()
}

// ListWithProgress returns every milestone of the user with its progress at
// the user's current day count. It does not change anything.
func (s *MilestoneService) ListWithProgress(ctx context.Context, userID string) (*models.MilestoneList, error) {
	sobrietyDate, err := s.sobrietyDate(ctx, userID)
	if err != nil {
		return nil, err
	}
	milestones, err := s.repo.ListMilestones(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch milestones", err)
	}

	currentDays := recovery.CurrentDays(sobrietyDate, s.now())
	list := &models.MilestoneList{
		Milestones:   make([]models.MilestoneProgress, 0, len(milestones)),
		CurrentDays:  currentDays,
		SobrietyDate: sobrietyDate,
	}

	thresholds := make([]recovery.Threshold, 0, len(milestones))
	for _, m := range milestones {
		eval := recovery.Evaluate(m.DaysRequired, currentDays)
		remaining := m.DaysRequired - currentDays
		if remaining < 0 {
			remaining = 0
		}
		list.Milestones = append(list.Milestones, models.MilestoneProgress{
			Milestone:     m,
			Progress:      eval.ProgressPercent,
			Reached:       eval.Achieved,
			DaysRemaining: remaining,
		})
		if m.Achieved {
			list.AchievedCount++
		}
		thresholds = append(thresholds, recovery.Threshold{ID: m.ID, Title: m.Title, DaysRequired: m.DaysRequired})
	}

	if next, ok := recovery.NextMilestone(currentDays, thresholds); ok {
		for i := range milestones {
			if milestones[i].ID == next.ID {
				list.NextMilestone = &milestones[i]
				break
			}
		}
	}
	list.ProgressToNext = recovery.ProgressToNext(currentDays, thresholds)

	logger.Log.WithFields(logrus.Fields{
		"user_id":      userID,
		"current_days": currentDays,
		"count":        len(milestones),
	}).Debug("Milestones evaluated")
	return list, nil
}

// Get returns one milestone owned by the user.
func (s *MilestoneService) Get(ctx context.Context, userID, id string) (*models.Milestone, error) {
	return s.owned(ctx, userID, id)
}

// Create adds a custom milestone. Titles are unique per user.
func (s *MilestoneService) Create(ctx context.Context, userID string, in MilestoneInput) (*models.Milestone, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateMilestone(in.Title, in.DaysRequired, in.Category); err != nil {
		return nil, err
	}
	if in.Category == "" {
		in.Category = recovery.CategoryCustom
	}

	if err := s.ensureTitleFree(ctx, userID, in.Title, ""); err != nil {
		return nil, err
	}

	m := &models.Milestone{
		UserID:       userID,
		Title:        in.Title,
		Description:  in.Description,
		DaysRequired: in.DaysRequired,
		Category:     in.Category,
		Icon:         in.Icon,
		Color:        in.Color,
	}
	if err := s.repo.CreateMilestone(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicateTitle
		}
		logger.Log.WithError(err).Error("Service failed to create milestone")
		return nil, apperr.Upstream("Failed to create milestone", err)
	}

	logger.Log.WithField("milestone_id", m.ID).Info("Milestone created in service layer")
	return m, nil
}

// Update changes the editable fields of a milestone. The achieved flag and
// achievedAt are never touched here.
func (s *MilestoneService) Update(ctx context.Context, userID, id string, in MilestoneUpdate) (*models.Milestone, error) {
	m, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		m.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.DaysRequired != nil {
		m.DaysRequired = *in.DaysRequired
	}
	if in.Category != nil {
		m.Category = *in.Category
		if m.Category == "" {
			m.Category = recovery.CategoryCustom
		}
	}
	if in.Icon != nil {
		m.Icon = *in.Icon
	}
	if in.Color != nil {
		m.Color = *in.Color
	}
	if err := validateMilestone(m.Title, m.DaysRequired, m.Category); err != nil {
		return nil, err
	}
	if in.Title != nil {
		if err := s.ensureTitleFree(ctx, userID, m.Title, m.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateMilestone(ctx, m); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, errDuplicateTitle
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("Milestone not found")
		}
		return nil, apperr.Upstream("Failed to update milestone", err)
	}
	return m, nil
}

func (s *MilestoneService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteMilestone(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Milestone not found")
		}
		return apperr.Upstream("Failed to delete milestone", err)
	}
	return nil
}

// Achieve marks a milestone achieved. A milestone that is already achieved is
// rejected and keeps its original achievedAt.
func (s *MilestoneService) Achieve(ctx context.Context, userID, id string) (*models.Milestone, error) {
	m, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m.Achieved {
		return nil, apperr.Conflict("Milestone is already achieved")
	}

	achieved, err := s.markAchieved(ctx, m)
	if err != nil {
		return nil, err
	}
	if achieved == nil {
		// lost the race to another request
		return nil, apperr.Conflict("Milestone is already achieved")
	}
	return achieved, nil
}

// BulkCreate copies catalogue entries into the user's milestones. Entries
// whose title the user already has are skipped; the rest go in one write.
func (s *MilestoneService) BulkCreate(ctx context.Context, userID string, standardIDs []string) ([]models.Milestone, error) {
	if len(standardIDs) == 0 {
		return nil, apperr.Validation("milestoneIds must contain at least one id")
	}

	var unknown []string
	picked := make([]recovery.StandardMilestone, 0, len(standardIDs))
	seen := map[string]struct{}{}
	for _, id := range standardIDs {
		std, ok := recovery.LookupStandard(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		picked = append(picked, std)
	}
	if len(unknown) > 0 {
		return nil, apperr.Validation("Unknown standard milestone ids", unknown...)
	}

	existing, err := s.repo.ListMilestones(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch milestones", err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		taken[m.Title] = struct{}{}
	}

	batch := make([]*models.Milestone, 0, len(picked))
	for _, std := range picked {
		if _, skip := taken[std.Title]; skip {
			continue
		}
		batch = append(batch, &models.Milestone{
			UserID:       userID,
			Title:        std.Title,
			Description:  std.Description,
			DaysRequired: std.DaysRequired,
			Category:     std.Category,
			Icon:         std.Icon,
			Color:        std.Color,
			StandardID:   std.ID,
		})
	}

	created := make([]models.Milestone, 0, len(batch))
	if len(batch) == 0 {
		return created, nil
	}
	if err := s.repo.CreateMilestones(ctx, batch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicateTitle
		}
		return nil, apperr.Upstream("Failed to create milestones", err)
	}
	for _, m := range batch {
		created = append(created, *m)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"requested": len(standardIDs),
		"created":   len(created),
	}).Info("Standard milestones created")
	return created, nil
}

// SyncAchievements achieves every milestone the user has reached by now and
// returns the ones that changed.
func (s *MilestoneService) SyncAchievements(ctx context.Context, userID string) ([]models.Milestone, error) {
	sobrietyDate, err := s.sobrietyDate(ctx, userID)
	if err != nil {
		return nil, err
	}
	currentDays := recovery.CurrentDays(sobrietyDate, s.now())

	milestones, err := s.repo.ListMilestones(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch milestones", err)
	}

	achieved := []models.Milestone{}
	for i := range milestones {
		m := &milestones[i]
		if m.Achieved || !recovery.Evaluate(m.DaysRequired, currentDays).Achieved {
			continue
		}
		updated, err := s.markAchieved(ctx, m)
		if err != nil {
			return achieved, err
		}
		if updated != nil {
			achieved = append(achieved, *updated)
		}
	}
	return achieved, nil
}

// SweepAll runs SyncAchievements for every user with a sobriety date. It keeps
// going past per-user failures and returns how many milestones were achieved.
func (s *MilestoneService) SweepAll(ctx context.Context) (int, error) {
	userIDs, err := s.userRepo.ListUserIDsWithSobrietyDate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	total := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		achieved, err := s.SyncAchievements(ctx, userID)
		total += len(achieved)
		if err != nil {
			logger.Log.WithError(err).WithField("user_id", userID).Warn("Milestone sync failed")
		}
	}
	return total, nil
}

// markAchieved flips the flag through the store's conditional update. It
// returns nil, nil when another writer got there first.
func (s *MilestoneService) markAchieved(ctx context.Context, m *models.Milestone) (*models.Milestone, error) {
	at := *recovery.MarkAchieved(m.AchievedAt, s.now())
	updated, err := s.repo.MarkAchieved(ctx, m.ID, at)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, nil
		}
		return nil, apperr.Upstream("Failed to mark milestone achieved", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":      updated.UserID,
		"milestone_id": updated.ID,
	}).Info("Milestone achieved")
	s.notifyAchieved(ctx, updated)
	return updated, nil
}

func (s *MilestoneService) notifyAchieved(ctx context.Context, m *models.Milestone) {
	if s.notifier == nil {
		return
	}
	if user, err := s.userRepo.GetUserByID(ctx, m.UserID); err == nil && !user.NotificationSettings.Milestones {
		return
	}

	data := map[string]interface{}{
		"milestoneId":  m.ID,
		"title":        m.Title,
		"daysRequired": m.DaysRequired,
	}
	_, err := s.notifier.Notify(ctx, m.UserID, models.NotificationMilestoneAchieved,
		"Milestone achieved!",
		fmt.Sprintf("Congratulations! You reached \"%s\".", m.Title),
		data,
	)
	if err != nil {
		logger.Log.WithError(err).WithField("milestone_id", m.ID).Warn("Failed to send milestone notification")
	}
}

func (s *MilestoneService) owned(ctx context.Context, userID, id string) (*models.Milestone, error) {
	m, err := s.repo.GetMilestone(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Milestone not found")
		}
		return nil, apperr.Upstream("Failed to fetch milestone", err)
	}
	if m.UserID != userID {
		logger.Log.WithFields(logrus.Fields{
			"user_id":      userID,
			"milestone_id": id,
		}).Warn("Forbidden milestone access attempt")
		return nil, apperr.Forbidden("Not authorized to access this milestone")
	}
	return m, nil
}

func (s *MilestoneService) ensureTitleFree(ctx context.Context, userID, title, exceptID string) error {
	existing, err := s.repo.GetMilestoneByTitle(ctx, userID, title)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperr.Upstream("Failed to check milestone title", err)
	case existing.ID != exceptID:
		return errDuplicateTitle
	}
	return nil
}

func (s *MilestoneService) sobrietyDate(ctx context.Context, userID string) (*time.Time, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Upstream("Failed to fetch user", err)
	}
	return user.Profile.SobrietyDate, nil
}

func validateMilestone(title string, days int, category string) error {
	var details []string
	if title == "" {
		details = append(details, "title is required")
	}
	if days < 1 || days > recovery.MaxDaysRequired {
		details = append(details, fmt.Sprintf("daysRequired must be between 1 and %d", recovery.MaxDaysRequired))
	}
	if category != "" && !recovery.IsCategory(category) {
		details = append(details, "category is not recognized")
	}
	if len(details) > 0 {
		return apperr.Validation("Invalid milestone", details...)
	}
	return nil
}
