package models

import (
	"time"
)

// CurrentUserSchema is the document version written by this service.
// Version 1 documents kept profile fields flat on the user document.
const CurrentUserSchema = 2

// Privacy levels.
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

var RecoveryTypes = map[string]struct{}{
	"alcohol":  {},
	"drugs":    {},
	"gambling": {},
	"food":     {},
	"sex":      {},
	"other":    {},
}

var Programs = map[string]struct{}{
	"AA":                 {},
	"NA":                 {},
	"SMART":              {},
	"CA":                 {},
	"GA":                 {},
	"OA":                 {},
	"Celebrate Recovery": {},
	"Refuge Recovery":    {},
	"none":               {},
	"other":              {},
}

// User represents an account in the recovery tracker.
type User struct {
	ID                   string               `bson:"_id" json:"id"`
	Email                string               `bson:"email" json:"email"`
	PasswordHash         string               `bson:"password_hash,omitempty" json:"-"`
	DisplayName          string               `bson:"display_name" json:"displayName"`
	Profile              Profile              `bson:"profile" json:"profile"`
	PrivacySettings      PrivacySettings      `bson:"privacy_settings" json:"privacySettings"`
	NotificationSettings NotificationSettings `bson:"notification_settings" json:"notificationSettings"`
	SchemaVersion        int                  `bson:"schema_version" json:"-"`
	CreatedAt            time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time            `bson:"updated_at" json:"updatedAt"`

	// v1 flat fields, only ever read
	LegacyFirstName    string     `bson:"first_name,omitempty" json:"-"`
	LegacyLastInitial  string     `bson:"last_initial,omitempty" json:"-"`
	LegacyRecoveryType string     `bson:"recovery_type,omitempty" json:"-"`
	LegacyProgram      string     `bson:"program,omitempty" json:"-"`
	LegacySobrietyDate *time.Time `bson:"sobriety_date,omitempty" json:"-"`
	LegacyBio          string     `bson:"bio,omitempty" json:"-"`
}

type Profile struct {
	FirstName    string     `bson:"first_name" json:"firstName"`
	LastInitial  string     `bson:"last_initial" json:"lastInitial"`
	Nickname     string     `bson:"nickname" json:"nickname"`
	RecoveryType string     `bson:"recovery_type" json:"recoveryType"`
	Program      string     `bson:"program" json:"program"`
	SobrietyDate *time.Time `bson:"sobriety_date,omitempty" json:"sobrietyDate"`
	Bio          string     `bson:"bio" json:"bio"`
	AvatarURL    string     `bson:"avatar_url" json:"avatarUrl"`
	AnonymousID  string     `bson:"anonymous_id" json:"anonymousId"`
}

type PrivacySettings struct {
	Profile      string `bson:"profile" json:"profile"`
	SobrietyDate string `bson:"sobriety_date" json:"sobrietyDate"`
	Milestones   string `bson:"milestones" json:"milestones"`
}

type NotificationSettings struct {
	FriendRequests bool `bson:"friend_requests" json:"friendRequests"`
	Milestones     bool `bson:"milestones" json:"milestones"`
	Reminders      bool `bson:"reminders" json:"reminders"`
	Support        bool `bson:"support" json:"support"`
}

func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		Profile:      VisibilityFriends,
		SobrietyDate: VisibilityFriends,
		Milestones:   VisibilityFriends,
	}
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{FriendRequests: true, Milestones: true, Reminders: true, Support: true}
}

// NewUser returns a user with default settings at the current schema version.
func NewUser(id, email string) *User {
	return &User{
		ID:                   id,
		Email:                email,
		PrivacySettings:      DefaultPrivacySettings(),
		NotificationSettings: DefaultNotificationSettings(),
		SchemaVersion:        CurrentUserSchema,
	}
}

// Name is what other users see.
func (u *User) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Profile.Nickname != "":
		return u.Profile.Nickname
	case u.Profile.FirstName != "":
		if u.Profile.LastInitial != "" {
			return u.Profile.FirstName + " " + u.Profile.LastInitial + "."
		}
		return u.Profile.FirstName
	}
	return u.Email
}

// UpgradeUser moves v1 flat fields under profile and fills settings that older
// documents never had. It reports whether the document changed.
func UpgradeUser(u *User) bool {
	if u == nil || u.SchemaVersion >= CurrentUserSchema {
		return false
	}

	p := &u.Profile
	if p.FirstName == "" {
		p.FirstName = u.LegacyFirstName
	}
	if p.LastInitial == "" {
		p.LastInitial = u.LegacyLastInitial
	}
	if p.RecoveryType == "" {
		p.RecoveryType = u.LegacyRecoveryType
	}
	if p.Program == "" {
		p.Program = u.LegacyProgram
	}
	if p.SobrietyDate == nil {
		p.SobrietyDate = u.LegacySobrietyDate
	}
	if p.Bio == "" {
		p.Bio = u.LegacyBio
	}

	if u.PrivacySettings == (PrivacySettings{}) {
		u.PrivacySettings = DefaultPrivacySettings()
	}
	if u.NotificationSettings == (NotificationSettings{}) {
		u.NotificationSettings = DefaultNotificationSettings()
	}

	u.LegacyFirstName = ""
	u.LegacyLastInitial = ""
	u.LegacyRecoveryType = ""
	u.LegacyProgram = ""
	u.LegacySobrietyDate = nil
	u.LegacyBio = ""
	u.SchemaVersion = CurrentUserSchema
	return true
}
