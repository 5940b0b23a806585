package planner

import (
	"time"

	"cloud.google.com/go/civil"
)

// CapacityTracker tracks the minutes committed to each calendar date against
// the hour budget of that date's weekday. It belongs to a single generation
// run and must not be shared between runs.
type CapacityTracker struct {
	week      map[int]WeekdayAvailability
	committed map[civil.Date]Minutes
}

// NewCapacityTracker builds a tracker preloaded with the prior schedule.
func NewCapacityTracker(week []WeekdayAvailability, prior []ScheduleItem) *CapacityTracker {
	c := &CapacityTracker{
		week:      make(map[int]WeekdayAvailability, len(week)),
		committed: make(map[civil.Date]Minutes),
	}
	for _, day := range week {
		c.week[day.ID] = day
	}
	for _, item := range prior {
		c.committed[item.Date] += item.DurationMinutes
	}
	return c
}

// IsSelected reports whether the weekday of date is open for study.
func (c *CapacityTracker) IsSelected(date civil.Date) bool {
	day, ok := c.week[int(weekdayOf(date))]
	return ok && day.Selected
}

// Budget returns the daily limit for date, zero when its weekday is closed.
func (c *CapacityTracker) Budget(date civil.Date) Minutes {
	day, ok := c.week[int(weekdayOf(date))]
	if !ok || !day.Selected {
		return 0
	}
	return day.HoursAvailable.Minutes()
}

// Committed returns the minutes already planned on date.
func (c *CapacityTracker) Committed(date civil.Date) Minutes {
	return c.committed[date]
}

// HasCapacity reports whether a session of the given length still fits on date.
func (c *CapacityTracker) HasCapacity(date civil.Date, duration Minutes) bool {
	if !c.IsSelected(date) {
		return false
	}
	return c.committed[date]+duration <= c.Budget(date)
}

// Commit books duration on date. Call it only once a slot is accepted.
func (c *CapacityTracker) Commit(date civil.Date, duration Minutes) {
	c.committed[date] += duration
}

func weekdayOf(date civil.Date) time.Weekday {
	return date.In(time.UTC).Weekday()
}
