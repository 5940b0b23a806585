package planner

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityScore(t *testing.T) {
	tests := []struct {
		difficulty Level
		importance Level
		score      int
		reviews    int
	}{
		{LevelLow, LevelLow, 1, 1},
		{LevelLow, LevelMedium, 2, 1},
		{LevelHigh, LevelLow, 3, 2},
		{LevelMedium, LevelMedium, 4, 2},
		{LevelMedium, LevelHigh, 6, 3},
		{LevelHigh, LevelHigh, 9, 5},
		{Level("unknown"), LevelHigh, 3, 2},
	}
	for _, tt := range tests {
		s := subject("x", tt.difficulty, tt.importance)
		assert.Equal(t, tt.score, PriorityScore(s), "%s x %s", tt.difficulty, tt.importance)
		assert.Equal(t, tt.reviews, ReviewCount(tt.score))
	}

	assert.Equal(t, 4, ReviewCount(7))
	assert.Equal(t, 4, ReviewCount(8))
	assert.Equal(t, 3, ReviewCount(5))
	assert.Equal(t, 1, ReviewCount(0))
}

func TestPrioritize_StableAndNonMutating(t *testing.T) {
	input := []Subject{
		subject("a", LevelMedium, LevelMedium),
		subject("b", LevelHigh, LevelHigh),
		subject("c", LevelMedium, LevelMedium),
		subject("d", LevelLow, LevelLow),
		subject("e", LevelHigh, LevelLow),
	}
	ordered := Prioritize(input)

	var names []string
	for _, s := range ordered {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"b", "a", "c", "e", "d"}, names)
	assert.Equal(t, "a", input[0].Name)
}

func TestHoursMinutes(t *testing.T) {
	assert.Equal(t, Minutes(120), Hours(2).Minutes())
	assert.Equal(t, Minutes(90), Hours(1.5).Minutes())
	assert.Equal(t, Minutes(20), Hours(1.0/3).Minutes())
	assert.Equal(t, Minutes(0), Hours(-1).Minutes())
}

func TestCapacityTracker(t *testing.T) {
	week := NewWeekAvailability(1.5, time.Monday, time.Wednesday)
	prior := []ScheduleItem{{Date: today, DurationMinutes: 60}}
	c := NewCapacityTracker(week, prior)

	assert.True(t, c.IsSelected(today))
	assert.False(t, c.IsSelected(day(1)))
	assert.Equal(t, Minutes(90), c.Budget(today))
	assert.Equal(t, Minutes(0), c.Budget(day(1)))
	assert.Equal(t, Minutes(60), c.Committed(today))

	assert.True(t, c.HasCapacity(today, 30))
	assert.False(t, c.HasCapacity(today, 60))
	assert.False(t, c.HasCapacity(day(1), 30), "tuesday is closed")

	c.Commit(today, 30)
	assert.False(t, c.HasCapacity(today, 1))
	assert.True(t, c.HasCapacity(day(2), 90))
	assert.False(t, c.HasCapacity(day(2), 91))
}

func TestSlotFinder_EarliestDateWins(t *testing.T) {
	horizon := Window{From: today, To: day(14)}
	c := NewCapacityTracker(NewWeekAvailability(1, time.Wednesday, time.Friday), nil)
	f := NewSlotFinder(c, horizon, 0)
	s := subject("x", LevelHigh, LevelHigh)

	date, ok, err := f.Find(s, 60, horizon, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, day(2), date)
	assert.Equal(t, Minutes(60), c.Committed(day(2)))

	date, ok, err = f.Find(s, 60, horizon, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, day(4), date)
}

func TestSlotFinder_PreferredDate(t *testing.T) {
	horizon := Window{From: today, To: day(14)}
	c := NewCapacityTracker(NewWeekAvailability(1), nil)
	f := NewSlotFinder(c, horizon, 0)
	s := subject("x", LevelLow, LevelLow)

	preferred := day(5)
	date, ok, err := f.Find(s, 30, horizon, &preferred)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, day(5), date)

	date, ok, err = f.Find(s, 30, horizon, &preferred)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, day(5), date)

	// Full preferred date falls back to the earliest date of the horizon.
	date, ok, err = f.Find(s, 30, horizon, &preferred)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, today, date)

	// A preferred date outside the window also falls back.
	outside := day(30)
	date, ok, err = f.Find(s, 30, Window{From: day(1), To: day(3)}, &outside)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, today, date)
}

func TestSlotFinder_NotFound(t *testing.T) {
	horizon := Window{From: today, To: day(3)}
	c := NewCapacityTracker(NewWeekAvailability(0.5), nil)
	f := NewSlotFinder(c, horizon, 0)

	_, ok, err := f.Find(subject("x", LevelHigh, LevelHigh), 60, horizon, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	preferred := day(1)
	_, ok, err = f.Find(subject("x", LevelHigh, LevelHigh), 60, horizon, &preferred)
	require.NoError(t, err)
	assert.False(t, ok)
	for d := today; !d.After(day(3)); d = d.AddDays(1) {
		assert.Equal(t, Minutes(0), c.Committed(d))
	}
}

func TestSlotFinder_MalformedWindow(t *testing.T) {
	c := NewCapacityTracker(NewWeekAvailability(1), nil)
	f := NewSlotFinder(c, Window{From: today, To: day(3)}, 0)

	for _, w := range []Window{
		{From: day(3), To: today},
		{},
		{From: today, To: civil.Date{Year: 2025, Month: time.February, Day: 30}},
	} {
		_, ok, err := f.Find(subject("x", LevelLow, LevelLow), 30, w, nil)
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, errors.Is(err, ErrInvalidWindow))
		assert.True(t, errors.Is(err, ErrInvalidInput))
	}
}

func TestNewGenerator_RejectsBadConfig(t *testing.T) {
	for _, cfg := range []Config{
		{ReviewCadence: []int{1, 1, 2}},
		{ReviewCadence: []int{0, 3}},
		{StudyDuration: -60},
		{ReviewThresholds: []ReviewThreshold{{MinScore: 3, Reviews: 0}}},
	} {
		_, err := NewGenerator(cfg)
		assert.Error(t, err)
	}

	g := mustGenerator(t, Config{ReviewThresholds: []ReviewThreshold{{MinScore: 2, Reviews: 2}, {MinScore: 6, Reviews: 4}}})
	assert.Equal(t, 4, g.ReviewCount(subject("x", LevelHigh, LevelMedium)))
	assert.Equal(t, 2, g.ReviewCount(subject("x", LevelMedium, LevelLow)))
	assert.Equal(t, 1, g.ReviewCount(subject("x", LevelLow, LevelLow)))
	assert.Equal(t, DefaultConfig().ReviewCadence, g.Config().ReviewCadence)
}

func TestCalculateStatistics(t *testing.T) {
	schedule := []ScheduleItem{
		{ID: 1, Date: day(-2), Type: SessionStudy, SubjectName: "a", AtRisk: true},
		{ID: 2, Date: day(-1), Type: SessionReview, SubjectName: "a", Completed: true, AtRisk: true},
		{ID: 3, Date: today, Type: SessionStudy, SubjectName: "b", AtRisk: true},
		{ID: 4, Date: day(1), Type: SessionReview, SubjectName: "b", AtRisk: true},
		{ID: 5, Date: day(2), Type: SessionStudy, SubjectName: "c"},
	}

	assert.Equal(t, Statistics{
		TotalSessions:      5,
		StudySessions:      3,
		ReviewSessions:     2,
		OverdueSessions:    1,
		AtRiskSubjectCount: 1,
	}, CalculateStatistics(schedule, 2, today))
	assert.Equal(t, 2, CalculateStatistics(schedule, 0, today).AtRiskSubjectCount)
}
