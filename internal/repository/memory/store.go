// Package memory is a process-local implementation of the document stores.
// It backs development runs without MONGO_URI and the service tests, and
// enforces the same unique keys and conditional updates as the Mongo stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/internal/repository"
)

type Store struct {
	mu            sync.RWMutex
	users         map[string]models.User
	milestones    map[string]models.Milestone
	friendships   map[string]models.Friendship
	notifications map[string]models.Notification

	// Reads counts every store call, so tests can assert nothing was touched.
	Reads int
}

func New() *Store {
	return &Store{
		users:         map[string]models.User{},
		milestones:    map[string]models.Milestone{},
		friendships:   map[string]models.Friendship{},
		notifications: map[string]models.Notification{},
	}
}

func (s *Store) touch() { s.Reads++ }

func (s *Store) Ping(ctx context.Context) error { return nil }

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("failed to insert user: %w", repository.ErrDuplicate)
		}
	}
	if u.ID == "" {
		u.ID = repository.NewID()
	}
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("failed to insert user: %w", repository.ErrDuplicate)
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to find user: %w", repository.ErrNotFound)
	}
	return s.upgraded(u), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for _, u := range s.users {
		if u.Email == email {
			return s.upgraded(u), nil
		}
	}
	return nil, fmt.Errorf("failed to find user: %w", repository.ErrNotFound)
}

// upgraded applies the schema upgrade and stores it back. Caller holds mu.
func (s *Store) upgraded(u models.User) *models.User {
	if models.UpgradeUser(&u) {
		s.users[u.ID] = u
	}
	return &u
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for id, existing := range s.users {
		if id != u.ID && existing.Email != "" && existing.Email == u.Email {
			return fmt.Errorf("failed to save user: %w", repository.ErrDuplicate)
		}
	}
	u.UpdatedAt = time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = u.UpdatedAt
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	delete(s.users, id)
	return nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *s.upgraded(u))
		}
	}
	return out, nil
}

func (s *Store) FindByRecoveryType(ctx context.Context, recoveryType string, excludeIDs []string, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	out := []models.User{}
	for _, id := range s.sortedUserIDs() {
		u := *s.upgraded(s.users[id])
		if _, skip := excluded[id]; skip || u.Profile.RecoveryType != recoveryType {
			continue
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ListUserIDsWithSobrietyDate(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	var ids []string
	for _, id := range s.sortedUserIDs() {
		u := s.users[id]
		if u.Profile.SobrietyDate != nil || u.LegacySobrietyDate != nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) sortedUserIDs() []string {
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// --- milestones ---

func (s *Store) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	return s.CreateMilestones(ctx, []*models.Milestone{m})
}

// CreateMilestones is all-or-nothing like a single batched write.
func (s *Store) CreateMilestones(ctx context.Context, ms []*models.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	seen := map[string]struct{}{}
	for _, m := range ms {
		key := m.UserID + "\x00" + m.Title
		if _, dup := seen[key]; dup || s.titleTaken(m.UserID, m.Title, "") {
			return fmt.Errorf("failed to insert milestone: %w", repository.ErrDuplicate)
		}
		seen[key] = struct{}{}
	}

	now := time.Now()
	for _, m := range ms {
		if m.ID == "" {
			m.ID = repository.NewID()
		}
		m.CreatedAt = now
		m.UpdatedAt = now
		s.milestones[m.ID] = *m
	}
	return nil
}

func (s *Store) titleTaken(userID, title, exceptID string) bool {
	for id, m := range s.milestones {
		if id != exceptID && m.UserID == userID && m.Title == title {
			return true
		}
	}
	return false
}

func (s *Store) GetMilestone(ctx context.Context, id string) (*models.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.milestones[id]
	if !ok {
		return nil, fmt.Errorf("failed to find milestone %s: %w", id, repository.ErrNotFound)
	}
	return &m, nil
}

func (s *Store) GetMilestoneByTitle(ctx context.Context, userID, title string) (*models.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.milestones {
		if m.UserID == userID && m.Title == title {
			m := m
			return &m, nil
		}
	}
	return nil, fmt.Errorf("failed to find milestone by title: %w", repository.ErrNotFound)
}

func (s *Store) ListMilestones(ctx context.Context, userID string) ([]models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	out := []models.Milestone{}
	for _, m := range s.milestones {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysRequired != out[j].DaysRequired {
			return out[i].DaysRequired < out[j].DaysRequired
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.milestones[m.ID]
	if !ok {
		return fmt.Errorf("failed to update milestone %s: %w", m.ID, repository.ErrNotFound)
	}
	if s.titleTaken(current.UserID, m.Title, m.ID) {
		return fmt.Errorf("failed to update milestone: %w", repository.ErrDuplicate)
	}
	current.Title = m.Title
	current.Description = m.Description
	current.DaysRequired = m.DaysRequired
	current.Category = m.Category
	current.Icon = m.Icon
	current.Color = m.Color
	current.UpdatedAt = time.Now()
	m.UpdatedAt = current.UpdatedAt
	s.milestones[m.ID] = current
	return nil
}

func (s *Store) MarkAchieved(ctx context.Context, id string, at time.Time) (*models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.milestones[id]
	if !ok || m.Achieved {
		return nil, fmt.Errorf("failed to mark milestone %s achieved: %w", id, repository.ErrConflict)
	}
	m.Achieved = true
	m.AchievedAt = &at
	m.UpdatedAt = at
	s.milestones[id] = m
	return &m, nil
}

func (s *Store) DeleteMilestone(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.milestones[id]; !ok {
		return fmt.Errorf("failed to delete milestone %s: %w", id, repository.ErrNotFound)
	}
	delete(s.milestones, id)
	return nil
}

func (s *Store) DeleteMilestonesByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, m := range s.milestones {
		if m.UserID == userID {
			delete(s.milestones, id)
			n++
		}
	}
	return n, nil
}

// --- friendships ---

func (s *Store) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if _, ok := s.pair(f.UserID, f.FriendID); ok {
		return fmt.Errorf("failed to create friendship: %w", repository.ErrDuplicate)
	}
	if f.ID == "" {
		f.ID = repository.NewID()
	}
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	s.friendships[f.ID] = *f
	return nil
}

// pair finds the row for an ordered pair. Caller holds mu.
func (s *Store) pair(userID, friendID string) (models.Friendship, bool) {
	for _, f := range s.friendships {
		if f.UserID == userID && f.FriendID == friendID {
			return f, true
		}
	}
	return models.Friendship{}, false
}

func (s *Store) GetFriendship(ctx context.Context, id string) (*models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.friendships[id]
	if !ok {
		return nil, fmt.Errorf("failed to find friendship: %w", repository.ErrNotFound)
	}
	return &f, nil
}

func (s *Store) FindFriendship(ctx context.Context, userID, friendID string) (*models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.pair(userID, friendID)
	if !ok {
		return nil, fmt.Errorf("failed to find friendship: %w", repository.ErrNotFound)
	}
	return &f, nil
}

func (s *Store) TransitionStatus(ctx context.Context, id, from, to string, at time.Time) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.friendships[id]
	if !ok || f.Status != from {
		return nil, fmt.Errorf("failed to update friendship %s: %w", id, repository.ErrConflict)
	}
	f.Status = to
	f.UpdatedAt = at
	s.friendships[id] = f
	return &f, nil
}

func (s *Store) UpsertAccepted(ctx context.Context, userID, friendID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.pair(userID, friendID)
	if !ok {
		f = models.Friendship{ID: repository.NewID(), UserID: userID, FriendID: friendID, CreatedAt: at}
	}
	f.Status = models.FriendshipAccepted
	f.UpdatedAt = at
	s.friendships[f.ID] = f
	return nil
}

func (s *Store) DeleteIfStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.friendships[id]
	if !ok || f.Status != status {
		return fmt.Errorf("failed to delete friendship %s: %w", id, repository.ErrConflict)
	}
	delete(s.friendships, id)
	return nil
}

func (s *Store) DeleteAcceptedPair(ctx context.Context, a, b string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, f := range s.friendships {
		if f.Status != models.FriendshipAccepted {
			continue
		}
		if (f.UserID == a && f.FriendID == b) || (f.UserID == b && f.FriendID == a) {
			delete(s.friendships, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) ListByUser(ctx context.Context, userID, status string) ([]models.Friendship, error) {
	return s.listFriendships(func(f models.Friendship) bool {
		return f.UserID == userID && f.Status == status
	}), nil
}

func (s *Store) ListByFriend(ctx context.Context, friendID, status string) ([]models.Friendship, error) {
	return s.listFriendships(func(f models.Friendship) bool {
		return f.FriendID == friendID && f.Status == status
	}), nil
}

func (s *Store) RelatedUserIDs(ctx context.Context, userID string) ([]string, error) {
	rows := s.listFriendships(func(f models.Friendship) bool {
		return f.UserID == userID || f.FriendID == userID
	})
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		if f.UserID == userID {
			ids = append(ids, f.FriendID)
		} else {
			ids = append(ids, f.UserID)
		}
	}
	return ids, nil
}

func (s *Store) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, f := range s.friendships {
		if f.UserID == userID || f.FriendID == userID {
			delete(s.friendships, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) listFriendships(match func(models.Friendship) bool) []models.Friendship {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	out := []models.Friendship{}
	for _, f := range s.friendships {
		if match(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// --- notifications ---

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if n.ID == "" {
		n.ID = repository.NewID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	s.notifications[n.ID] = *n
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("failed to find notification: %w", repository.ErrNotFound)
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, skip, limit int) ([]models.Notification, int64, error) {
	all := s.userNotifications(userID, unreadOnly)
	total := int64(len(all))
	if skip < 0 || limit < 1 {
		return nil, 0, fmt.Errorf("invalid page window skip=%d limit=%d", skip, limit)
	}
	if skip >= len(all) {
		return []models.Notification{}, total, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], total, nil
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	return int64(len(s.userNotifications(userID, true))), nil
}

func (s *Store) userNotifications(userID string, unreadOnly bool) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	out := []models.Notification{}
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) MarkRead(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.Read {
		return nil
	}
	n.Read = true
	n.ReadAt = &at
	s.notifications[id] = n
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.ReadAt = &at
			s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[id]; !ok {
		return fmt.Errorf("failed to delete notification %s: %w", id, repository.ErrNotFound)
	}
	delete(s.notifications, id)
	return nil
}

func (s *Store) DeleteNotificationsByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, n := range s.notifications {
		if n.UserID == userID {
			delete(s.notifications, id)
			count++
		}
	}
	return count, nil
}
