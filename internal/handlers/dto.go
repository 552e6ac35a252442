package handlers

import (
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/services"
)

type SignupRequest struct {
	Email       string `json:"email"       validate:"required,email,max=255"`
	Password    string `json:"password"    validate:"required,min=6,max=128"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// LoginRequest takes either an idToken or an email and password.
type LoginRequest struct {
	IDToken  string `json:"idToken"`
	Email    string `json:"email"    validate:"required_without=IDToken,omitempty,email"`
	Password string `json:"password" validate:"required_without=IDToken"`
}

type ProfileRequest struct {
	DisplayName          *string                      `json:"displayName"          validate:"omitempty,max=100"`
	Profile              *ProfileFieldsRequest        `json:"profile"`
	PrivacySettings      *PrivacyRequest              `json:"privacySettings"`
	NotificationSettings *NotificationSettingsRequest `json:"notificationSettings"`
}

type ProfileFieldsRequest struct {
	FirstName    *string `json:"firstName"    validate:"omitempty,max=50"`
	LastInitial  *string `json:"lastInitial"  validate:"omitempty,max=1"`
	Nickname     *string `json:"nickname"     validate:"omitempty,max=50"`
	RecoveryType *string `json:"recoveryType" validate:"omitempty,max=50"`
	Program      *string `json:"program"      validate:"omitempty,max=50"`
	SobrietyDate *string `json:"sobrietyDate"`
	Bio          *string `json:"bio"          validate:"omitempty,max=500"`
	AvatarURL    *string `json:"avatarUrl"    validate:"omitempty,max=2048"`
}

type PrivacyRequest struct {
	Profile      *string `json:"profile"      validate:"omitempty,oneof=public friends private"`
	SobrietyDate *string `json:"sobrietyDate" validate:"omitempty,oneof=public friends private"`
	Milestones   *string `json:"milestones"   validate:"omitempty,oneof=public friends private"`
}

type NotificationSettingsRequest struct {
	FriendRequests *bool `json:"friendRequests"`
	Milestones     *bool `json:"milestones"`
	Reminders      *bool `json:"reminders"`
	Support        *bool `json:"support"`
}

// toUpdate converts the request, parsing the sobriety date.
func (req ProfileRequest) toUpdate() (services.ProfileUpdate, error) {
	in := services.ProfileUpdate{DisplayName: req.DisplayName}
	if p := req.Profile; p != nil {
		in.Profile = services.ProfileFields{
			FirstName:    p.FirstName,
			LastInitial:  p.LastInitial,
			Nickname:     p.Nickname,
			RecoveryType: p.RecoveryType,
			Program:      p.Program,
			Bio:          p.Bio,
			AvatarURL:    p.AvatarURL,
		}
		if p.SobrietyDate != nil && *p.SobrietyDate != "" {
			d, err := parseDate(*p.SobrietyDate)
			if err != nil {
				return in, apperr.Validation("Validation failed", "profile.sobrietyDate must be an ISO 8601 date")
			}
			in.Profile.SobrietyDate = &d
		}
	}
	if p := req.PrivacySettings; p != nil {
		in.Privacy = services.PrivacyFields{Profile: p.Profile, SobrietyDate: p.SobrietyDate, Milestones: p.Milestones}
	}
	if n := req.NotificationSettings; n != nil {
		in.Notifications = services.NotificationFields{
			FriendRequests: n.FriendRequests,
			Milestones:     n.Milestones,
			Reminders:      n.Reminders,
			Support:        n.Support,
		}
	}
	return in, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

type MilestoneRequest struct {
	Title        string `json:"title"        validate:"required,max=100"`
	Description  string `json:"description"  validate:"max=500"`
	DaysRequired int    `json:"daysRequired" validate:"required,min=1,max=36500"`
	Category     string `json:"category"     validate:"omitempty,oneof=early foundation extended annual custom"`
	Icon         string `json:"icon"         validate:"max=50"`
	Color        string `json:"color"        validate:"max=20"`
}

type MilestoneUpdateRequest struct {
	Title        *string `json:"title"        validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description"  validate:"omitempty,max=500"`
	DaysRequired *int    `json:"daysRequired" validate:"omitempty,min=1,max=36500"`
	Category     *string `json:"category"     validate:"omitempty,oneof=early foundation extended annual custom"`
	Icon         *string `json:"icon"         validate:"omitempty,max=50"`
	Color        *string `json:"color"        validate:"omitempty,max=20"`
}

type BulkCreateRequest struct {
	MilestoneIDs []string `json:"milestoneIds" validate:"required,min=1,max=50,dive,required"`
}

type FriendRequestBody struct {
	FriendEmail string `json:"friendEmail" validate:"required,email,max=255"`
	Message     string `json:"message"     validate:"max=500"`
}
