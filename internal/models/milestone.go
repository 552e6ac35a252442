package models

import (
	"time"
)

// Milestone is a day-count threshold owned by a user.
type Milestone struct {
	ID           string     `bson:"_id" json:"id"`
	UserID       string     `bson:"user_id" json:"userId"`
	Title        string     `bson:"title" json:"title"`
	Description  string     `bson:"description,omitempty" json:"description,omitempty"`
	DaysRequired int        `bson:"days_required" json:"daysRequired"`
	Category     string     `bson:"category" json:"category"`
	Icon         string     `bson:"icon,omitempty" json:"icon,omitempty"`
	Color        string     `bson:"color,omitempty" json:"color,omitempty"`
	StandardID   string     `bson:"standard_id,omitempty" json:"standardId,omitempty"`
	Achieved     bool       `bson:"achieved" json:"achieved"`
	AchievedAt   *time.Time `bson:"achieved_at,omitempty" json:"achievedAt"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updatedAt"`
}

// MilestoneProgress is a milestone as returned by GET /milestones.
type MilestoneProgress struct {
	Milestone
	Progress      int  `json:"progress"`
	Reached       bool `json:"reached"`
	DaysRemaining int  `json:"daysRemaining"`
}

// MilestoneList is the body of GET /milestones.
type MilestoneList struct {
	Milestones     []MilestoneProgress `json:"milestones"`
	CurrentDays    int                 `json:"currentDays"`
	SobrietyDate   *time.Time          `json:"sobrietyDate"`
	NextMilestone  *Milestone          `json:"nextMilestone"`
	ProgressToNext float64             `json:"progressToNext"`
	AchievedCount  int                 `json:"achievedCount"`
}
