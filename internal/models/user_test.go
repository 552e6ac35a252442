package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUpgradeUserMovesLegacyFields(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	u := &User{
		ID:                 "u1",
		Email:              "sam@example.com",
		LegacyFirstName:    "Sam",
		LegacyLastInitial:  "K",
		LegacyRecoveryType: "alcohol",
		LegacyProgram:      "AA",
		LegacySobrietyDate: &date,
		LegacyBio:          "hi",
	}

	assert.True(t, UpgradeUser(u))
	assert.Equal(t, "Sam", u.Profile.FirstName)
	assert.Equal(t, "K", u.Profile.LastInitial)
	assert.Equal(t, "alcohol", u.Profile.RecoveryType)
	assert.Equal(t, "AA", u.Profile.Program)
	assert.Equal(t, "hi", u.Profile.Bio)
	if assert.NotNil(t, u.Profile.SobrietyDate) {
		assert.True(t, u.Profile.SobrietyDate.Equal(date))
	}
	assert.Nil(t, u.LegacySobrietyDate)
	assert.Empty(t, u.LegacyFirstName)
	assert.Equal(t, DefaultNotificationSettings(), u.NotificationSettings)
	assert.Equal(t, DefaultPrivacySettings(), u.PrivacySettings)
	assert.Equal(t, CurrentUserSchema, u.SchemaVersion)

	// second pass is a no-op
	assert.False(t, UpgradeUser(u))
}

func TestUpgradeUserPrefersNestedFields(t *testing.T) {
	u := &User{
		LegacyFirstName: "Old",
		Profile:         Profile{FirstName: "New"},
	}
	UpgradeUser(u)
	assert.Equal(t, "New", u.Profile.FirstName)
}

func TestName(t *testing.T) {
	u := NewUser("u1", "a@b.co")
	assert.Equal(t, "a@b.co", u.Name())
	u.Profile.FirstName = "Jo"
	u.Profile.LastInitial = "R"
	assert.Equal(t, "Jo R.", u.Name())
	u.DisplayName = "Jo"
	assert.Equal(t, "Jo", u.Name())
}
