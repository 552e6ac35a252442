// Package recovery holds the day-count arithmetic behind milestones.
// Nothing in here touches storage; callers pass the clock in.
package recovery

import (
	"errors"
	"math"
	"sort"
	"time"
)

// MaxDaysRequired caps a milestone threshold at roughly a hundred years.
const MaxDaysRequired = 36500

const msPerDay = 86_400_000

var (
	ErrInvalidDate = errors.New("sobriety date is missing or invalid")
	ErrFutureDate  = errors.New("sobriety date is in the future")
)

// Threshold is the minimal view of a milestone the engine needs.
type Threshold struct {
	ID           string
	Title        string
	DaysRequired int
}

// Evaluation is the progress of one milestone at a given day count.
type Evaluation struct {
	ProgressPercent int  `json:"progress"`
	Achieved        bool `json:"reached"`
}

// ElapsedDays returns the number of whole days between sobrietyDate and now.
func ElapsedDays(sobrietyDate, now time.Time) (int, error) {
	if sobrietyDate.IsZero() {
		return 0, ErrInvalidDate
	}
	if sobrietyDate.After(now) {
		return 0, ErrFutureDate
	}
	ms := now.Sub(sobrietyDate).Milliseconds()
	return int(ms / msPerDay), nil
}

// CurrentDays is ElapsedDays clamped to zero for missing or future dates.
func CurrentDays(sobrietyDate *time.Time, now time.Time) int {
	if sobrietyDate == nil {
		return 0
	}
	days, err := ElapsedDays(*sobrietyDate, now)
	if err != nil {
		return 0
	}
	return days
}

// Evaluate reports progress toward a single threshold.
func Evaluate(daysRequired, currentDays int) Evaluation {
	if daysRequired <= 0 {
		return Evaluation{ProgressPercent: 100, Achieved: true}
	}
	pct := int(math.Round(float64(currentDays) / float64(daysRequired) * 100))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	achieved := currentDays >= daysRequired
	// rounding can reach 100 one day early on large thresholds
	if !achieved && pct == 100 {
		pct = 99
	}
	return Evaluation{ProgressPercent: pct, Achieved: achieved}
}

// NextMilestone returns the threshold with the smallest DaysRequired strictly
// greater than currentDays.
func NextMilestone(currentDays int, thresholds []Threshold) (Threshold, bool) {
	var (
		next  Threshold
		found bool
	)
	for _, t := range thresholds {
		if t.DaysRequired <= currentDays {
			continue
		}
		if !found || t.DaysRequired < next.DaysRequired {
			next = t
			found = true
		}
	}
	return next, found
}

// AchievedMilestones returns every threshold already reached, ascending by days.
func AchievedMilestones(currentDays int, thresholds []Threshold) []Threshold {
	achieved := make([]Threshold, 0, len(thresholds))
	for _, t := range thresholds {
		if t.DaysRequired <= currentDays {
			achieved = append(achieved, t)
		}
	}
	sort.SliceStable(achieved, func(i, j int) bool {
		return achieved[i].DaysRequired < achieved[j].DaysRequired
	})
	return achieved
}

// ProgressToNext interpolates between the last reached threshold and the next one.
func ProgressToNext(currentDays int, thresholds []Threshold) float64 {
	next, ok := NextMilestone(currentDays, thresholds)
	if !ok {
		return 100
	}

	prevDays := 0
	if achieved := AchievedMilestones(currentDays, thresholds); len(achieved) > 0 {
		prevDays = achieved[len(achieved)-1].DaysRequired
	}

	span := next.DaysRequired - prevDays
	if span <= 0 {
		return 100
	}
	pct := float64(currentDays-prevDays) / float64(span) * 100
	return math.Max(0, math.Min(100, pct))
}

// MarkAchieved returns the timestamp to persist for an achievement. An existing
// timestamp is never replaced.
func MarkAchieved(achievedAt *time.Time, now time.Time) *time.Time {
	if achievedAt != nil && !achievedAt.IsZero() {
		return achievedAt
	}
	t := now
	return &t
}
