package models

import (
	"time"
)

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship is one directed row of a relationship. Declined requests are
// deleted rather than stored, and an accepted pair is two rows.
type Friendship struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	FriendID  string    `bson:"friend_id" json:"friendId"`
	Status    string    `bson:"status" json:"status"`
	Message   string    `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FriendSummary is the counterpart's profile subset shown in a friend list.
type FriendSummary struct {
	ID              string          `json:"id"`
	FriendshipID    string          `json:"friendshipId"`
	DisplayName     string          `json:"displayName"`
	Email           string          `json:"email"`
	AvatarURL       string          `json:"avatarUrl"`
	RecoveryType    string          `json:"recoveryType"`
	SobrietyDate    *time.Time      `json:"sobrietyDate"`
	PrivacySettings PrivacySettings `json:"privacySettings"`
	FriendshipDate  time.Time       `json:"friendshipDate"`
}

// PendingRequest is an incoming request joined with the requester.
type PendingRequest struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requesterId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FriendSuggestion is a user sharing the requester's recovery type.
type FriendSuggestion struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	AvatarURL    string `json:"avatarUrl"`
	RecoveryType string `json:"recoveryType"`
	Program      string `json:"program"`
}
