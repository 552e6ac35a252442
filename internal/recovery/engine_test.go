package recovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardThresholds() []Threshold {
	var out []Threshold
	for _, m := range StandardMilestones() {
		out = append(out, Threshold{ID: m.ID, Title: m.Title, DaysRequired: m.DaysRequired})
	}
	return out
}

func TestElapsedDays(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	days, err := ElapsedDays(now.Add(-400*24*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 400, days)

	days, err = ElapsedDays(now.Add(-23*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 0, days)

	_, err = ElapsedDays(now.Add(time.Hour), now)
	assert.ErrorIs(t, err, ErrFutureDate)

	_, err = ElapsedDays(time.Time{}, now)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCurrentDaysClampsFutureDates(t *testing.T) {
	now := time.Now()
	future := now.Add(72 * time.Hour)
	assert.Equal(t, 0, CurrentDays(&future, now))
	assert.Equal(t, 0, CurrentDays(nil, now))
}

func TestEvaluateBelowThreshold(t *testing.T) {
	for _, required := range []int{1, 7, 30, 365, 3650, MaxDaysRequired} {
		for current := 0; current < required; current += 1 + required/50 {
			ev := Evaluate(required, current)
			assert.False(t, ev.Achieved, "required=%d current=%d", required, current)
			assert.GreaterOrEqual(t, ev.ProgressPercent, 0)
			assert.Less(t, ev.ProgressPercent, 100, "required=%d current=%d", required, current)
		}
		ev := Evaluate(required, required-1)
		assert.False(t, ev.Achieved)
		assert.Less(t, ev.ProgressPercent, 100)
	}
}

func TestEvaluateAtOrAboveThreshold(t *testing.T) {
	for _, required := range []int{1, 30, 365} {
		for _, current := range []int{required, required + 1, required * 10} {
			ev := Evaluate(required, current)
			assert.True(t, ev.Achieved)
			assert.Equal(t, 100, ev.ProgressPercent)
		}
	}
}

func TestMarkAchievedKeepsFirstTimestamp(t *testing.T) {
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	at := MarkAchieved(nil, first)
	require.NotNil(t, at)

	for i := 1; i < 5; i++ {
		at = MarkAchieved(at, first.Add(time.Duration(i)*24*time.Hour))
	}
	assert.True(t, at.Equal(first))
}

func TestNextMilestoneIsMonotonic(t *testing.T) {
	thresholds := standardThresholds()
	prev := 0
	for days := 0; days <= 4000; days++ {
		next, ok := NextMilestone(days, thresholds)
		if !ok {
			assert.Greater(t, days, 3649)
			continue
		}
		assert.Greater(t, next.DaysRequired, days)
		assert.GreaterOrEqual(t, next.DaysRequired, prev)
		prev = next.DaysRequired
	}

	_, ok := NextMilestone(10, nil)
	assert.False(t, ok)
}

func TestAchievedMilestonesSorted(t *testing.T) {
	thresholds := []Threshold{{Title: "c", DaysRequired: 90}, {Title: "a", DaysRequired: 1}, {Title: "b", DaysRequired: 30}, {Title: "d", DaysRequired: 365}}
	got := AchievedMilestones(100, thresholds)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 30, 90}, []int{got[0].DaysRequired, got[1].DaysRequired, got[2].DaysRequired})
}

func TestProgressToNext(t *testing.T) {
	thresholds := standardThresholds()

	assert.InDelta(t, 0, ProgressToNext(0, thresholds), 0.001)
	assert.InDelta(t, 100, ProgressToNext(5000, thresholds), 0.001)
	assert.InDelta(t, 50, ProgressToNext(45, []Threshold{{DaysRequired: 30}, {DaysRequired: 60}}), 0.001)
	// no previous threshold: interpolate from zero
	assert.InDelta(t, 50, ProgressToNext(15, []Threshold{{DaysRequired: 30}}), 0.001)
	assert.InDelta(t, 100, ProgressToNext(3, nil), 0.001)
}

func TestOneYearScenario(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	sobriety := now.Add(-400 * 24 * time.Hour)
	thresholds := standardThresholds()

	days, err := ElapsedDays(sobriety, now)
	require.NoError(t, err)
	assert.Equal(t, 400, days)

	oneYear, ok := LookupStandard("1-year")
	require.True(t, ok)
	ev := Evaluate(oneYear.DaysRequired, days)
	assert.True(t, ev.Achieved)
	assert.Equal(t, 100, ev.ProgressPercent)

	next, ok := NextMilestone(days, thresholds)
	require.True(t, ok)
	assert.Equal(t, "2 Years", next.Title)
	assert.Equal(t, 730, next.DaysRequired)
	assert.InDelta(t, 9.589, ProgressToNext(days, thresholds), 0.01)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryEarly, CategoryFor(1))
	assert.Equal(t, CategoryFoundation, CategoryFor(30))
	assert.Equal(t, CategoryFoundation, CategoryFor(90))
	assert.Equal(t, CategoryExtended, CategoryFor(270))
	assert.Equal(t, CategoryAnnual, CategoryFor(365))

	for _, m := range StandardMilestones() {
		assert.True(t, IsCategory(m.Category), m.ID)
	}
	assert.False(t, IsCategory("weekly"))
}
