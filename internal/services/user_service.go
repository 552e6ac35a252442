package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/internal/repository"
	jwtutil "github.com/Dias221467/Recovery_Tracker/pkg/jwt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const MinPasswordLength = 6

// TokenIssuer issues and verifies bearer tokens. *jwt.Manager implements it.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
	Verify(token string) (*jwtutil.Claims, error)
}

// Mailer sends plain text mail. *email.SMTPMailer implements it.
type Mailer interface {
	Send(to, subject, body string) error
}

// AuthResult is returned by the login operations.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ProfileUpdate carries the fields to merge into a user; nil means unchanged.
type ProfileUpdate struct {
	DisplayName   *string
	Profile       ProfileFields
	Privacy       PrivacyFields
	Notifications NotificationFields
}

type ProfileFields struct {
	FirstName    *string
	LastInitial  *string
	Nickname     *string
	RecoveryType *string
	Program      *string
	SobrietyDate *time.Time
	Bio          *string
	AvatarURL    *string
}

type PrivacyFields struct {
	Profile      *string
	SobrietyDate *string
	Milestones   *string
}

type NotificationFields struct {
	FriendRequests *bool
	Milestones     *bool
	Reminders      *bool
	Support        *bool
}

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo          UserStore
	milestones    MilestoneStore
	friendships   FriendshipStore
	notifications NotificationStore
	tokens        TokenIssuer
	mailer        Mailer
	now           Clock
}

// NewUserService creates a new instance of UserService. The other stores are
// used to cascade account deletion. mailer may be nil.
func NewUserService(repo UserStore, milestones MilestoneStore, friendships FriendshipStore, notifications NotificationStore, tokens TokenIssuer, mailer Mailer) *UserService {
	return &UserService{
		repo:          repo,
		milestones:    milestones,
		friendships:   friendships,
		notifications: notifications,
		tokens:        tokens,
		mailer:        mailer,
		now:           time.Now,
	}
}

// WithClock replaces the service clock.
func (s *UserService) WithClock(now Clock) *UserService {
	s.now = now
	return s
}

// Signup creates an account with a hashed password and default settings.
func (s *UserService) Signup(ctx context.Context, email, password, displayName string) (*models.User, error) {
	logrus.Info("Registering new user")

	email = normalizeEmail(email)
	var details []string
	if email == "" {
		details = append(details, "email is required")
	}
	if len(password) < MinPasswordLength {
		details = append(details, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(details) > 0 {
		return nil, apperr.Validation("Invalid signup request", details...)
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		logrus.WithField("email", email).Warn("Email already in use")
		return nil, apperr.Conflict("Email already in use")
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Upstream("Failed to check email", err)
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, apperr.Upstream("Failed to hash password", err)
	}

	user := models.NewUser(repository.NewID(), email)
	user.PasswordHash = string(hashedPwd)
	user.DisplayName = strings.TrimSpace(displayName)
	user.Profile.AnonymousID = uuid.NewString()

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Email already in use")
		}
		logrus.WithError(err).Error("User registration failed")
		return nil, apperr.Upstream("Failed to register user", err)
	}

	s.sendWelcome(user)

	logrus.WithField("userID", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *UserService) sendWelcome(user *models.User) {
	if s.mailer == nil {
		return
	}
	to, name := user.Email, user.Name()
	go func() {
		body := fmt.Sprintf("Hi %s,\n\nWelcome to Recovery Tracker. One day at a time.", name)
		if err := s.mailer.Send(to, "Welcome to Recovery Tracker", body); err != nil {
			logrus.WithError(err).WithField("email", to).Warn("Failed to send welcome email")
		}
	}()
}

// Login checks a password and issues a bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperr.Authentication("Invalid email or password")

	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperr.Upstream("Failed to fetch user", err)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		logrus.WithField("email", user.Email).Warn("Authentication failed")
		return nil, invalid
	}
	return s.issue(user)
}

// LoginWithToken exchanges a still-valid token for a fresh one plus the
// profile. A subject without a user document gets a defaulted profile.
func (s *UserService) LoginWithToken(ctx context.Context, idToken string) (*AuthResult, error) {
	claims, err := s.tokens.Verify(idToken)
	if err != nil {
		return nil, apperr.Authentication("Invalid or expired token")
	}
	user, err := s.GetProfile(ctx, claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate JWT token")
		return nil, apperr.Upstream("Failed to generate token", err)
	}
	logrus.WithField("userID", user.ID).Info("User logged in successfully")
	return &AuthResult{Token: token, User: user}, nil
}

// GetProfile returns the user document, or a defaulted one that is not
// stored when the user has never written a profile.
func (s *UserService) GetProfile(ctx context.Context, userID, email string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewUser(userID, email), nil
		}
		return nil, apperr.Upstream("Failed to fetch profile", err)
	}
	return user, nil
}

// UpdateProfile merges in into the user's document, creating it on first write.
func (s *UserService) UpdateProfile(ctx context.Context, userID, email string, in ProfileUpdate) (*models.User, error) {
	if err := s.validateProfile(in); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	if user.Profile.AnonymousID == "" {
		user.Profile.AnonymousID = uuid.NewString()
	}
	applyProfile(user, in)

	if err := s.repo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Email already in use")
		}
		return nil, apperr.Upstream("Failed to update profile", err)
	}

	logrus.WithField("userID", userID).Info("Profile updated")
	return user, nil
}

func (s *UserService) validateProfile(in ProfileUpdate) error {
	var details []string
	p := in.Profile
	if p.RecoveryType != nil && *p.RecoveryType != "" {
		if _, ok := models.RecoveryTypes[*p.RecoveryType]; !ok {
			details = append(details, "recoveryType is not recognized")
		}
	}
	if p.Program != nil && *p.Program != "" {
		if _, ok := models.Programs[*p.Program]; !ok {
			details = append(details, "program is not recognized")
		}
	}
	if p.SobrietyDate != nil && p.SobrietyDate.After(s.now()) {
		details = append(details, "sobrietyDate cannot be in the future")
	}
	for field, v := range map[string]*string{
		"privacySettings.profile":      in.Privacy.Profile,
		"privacySettings.sobrietyDate": in.Privacy.SobrietyDate,
		"privacySettings.milestones":   in.Privacy.Milestones,
	} {
		if v != nil && !validVisibility(*v) {
			details = append(details, field+" must be public, friends or private")
		}
	}
	if len(details) > 0 {
		return apperr.Validation("Invalid profile", details...)
	}
	return nil
}

func validVisibility(v string) bool {
	switch v {
	case models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate:
		return true
	}
	return false
}

func applyProfile(user *models.User, in ProfileUpdate) {
	setString(&user.DisplayName, in.DisplayName)

	p, f := &user.Profile, in.Profile
	setString(&p.FirstName, f.FirstName)
	setString(&p.LastInitial, f.LastInitial)
	setString(&p.Nickname, f.Nickname)
	setString(&p.RecoveryType, f.RecoveryType)
	setString(&p.Program, f.Program)
	setString(&p.Bio, f.Bio)
	setString(&p.AvatarURL, f.AvatarURL)
	if f.SobrietyDate != nil {
		d := f.SobrietyDate.UTC()
		p.SobrietyDate = &d
	}

	setString(&user.PrivacySettings.Profile, in.Privacy.Profile)
	setString(&user.PrivacySettings.SobrietyDate, in.Privacy.SobrietyDate)
	setString(&user.PrivacySettings.Milestones, in.Privacy.Milestones)

	n, ns := &user.NotificationSettings, in.Notifications
	setBool(&n.FriendRequests, ns.FriendRequests)
	setBool(&n.Milestones, ns.Milestones)
	setBool(&n.Reminders, ns.Reminders)
	setBool(&n.Support, ns.Support)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// DeleteAccount removes the user and everything they own: milestones,
// notifications and every friendship row that mentions them.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	milestones, err := s.milestones.DeleteMilestonesByUser(ctx, userID)
	if err != nil {
		return apperr.Upstream("Failed to delete milestones", err)
	}
	notifications, err := s.notifications.DeleteNotificationsByUser(ctx, userID)
	if err != nil {
		return apperr.Upstream("Failed to delete notifications", err)
	}
	friendships, err := s.friendships.DeleteByUser(ctx, userID)
	if err != nil {
		return apperr.Upstream("Failed to delete friendships", err)
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Upstream("Failed to delete user", err)
	}

	logrus.WithFields(logrus.Fields{
		"userID":        userID,
		"milestones":    milestones,
		"notifications": notifications,
		"friendships":   friendships,
	}).Info("Account deleted")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
