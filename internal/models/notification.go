package models

import (
	"time"
)

const (
	NotificationFriendRequest         = "friend_request"
	NotificationFriendRequestAccepted = "friend_request_accepted"
	NotificationMilestoneAchieved     = "milestone_achieved"
	NotificationSystem                = "system"
	NotificationReminder              = "reminder"
	NotificationSupport               = "support"
)

type Notification struct {
	ID        string                 `bson:"_id" json:"id"`
	UserID    string                 `bson:"user_id" json:"userId"`
	Type      string                 `bson:"type" json:"type"`
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"` // payload pointing at the milestone/request
	Read      bool                   `bson:"read" json:"read"`
	ReadAt    *time.Time             `bson:"read_at,omitempty" json:"readAt"`
	CreatedAt time.Time              `bson:"created_at" json:"createdAt"`
}

// NotificationPage is one page of GET /notifications.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Pagination    Pagination     `json:"pagination"`
	UnreadCount   int64          `json:"unreadCount"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}
