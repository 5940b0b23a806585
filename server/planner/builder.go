// Package planner generates exam study schedules.
//
// Subjects are ordered by priority score (difficulty points times importance
// points). Each subject gets one study session on the earliest day with room
// for it, then a priority-driven number of shorter review sessions at fixed
// offsets after the study day. Per-day capacity comes from an hours-per-weekday
// budget. Sessions that cannot be placed become notifications, not errors.
//
// A Generator holds no state between runs; given the same Request it always
// produces the same Result.
package planner

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
)

// Generator builds schedules with a fixed configuration.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator. Zero-value config fields take defaults;
// invalid values return an error.
func NewGenerator(cfg Config) (*Generator, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: normalized}, nil
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// ReviewCount returns the number of reviews a subject is entitled to.
func (g *Generator) ReviewCount(s Subject) int {
	return g.cfg.reviewCount(PriorityScore(s))
}

// Generate runs both passes and returns the date-sorted schedule, the
// notifications for every session that could not be placed and the
// statistics of the result.
func (g *Generator) Generate(req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	horizon := Window{From: req.Today, To: req.Deadline}
	b := &scheduleBuilder{
		cfg:     g.cfg,
		horizon: horizon,
		finder:  NewSlotFinder(NewCapacityTracker(req.Availability, req.PriorSchedule), horizon, g.cfg.MaxSlotAttempts),
		nextID:  MaxItemID(req.PriorSchedule),
	}
	priorMaxID := b.nextID

	subjects := Prioritize(req.Subjects)
	studyDates := make([]*civil.Date, len(subjects))
	for i, subject := range subjects {
		date, err := b.scheduleStudy(subject)
		if err != nil {
			return nil, err
		}
		studyDates[i] = date
	}
	for i, subject := range subjects {
		if studyDates[i] == nil {
			continue
		}
		if err := b.scheduleReviews(subject, *studyDates[i]); err != nil {
			return nil, err
		}
	}

	schedule := make([]ScheduleItem, 0, len(req.PriorSchedule)+len(b.items))
	schedule = append(schedule, req.PriorSchedule...)
	schedule = append(schedule, b.items...)
	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].Date.Before(schedule[j].Date)
	})

	notifications := b.notifications
	if notifications == nil {
		notifications = []string{}
	}
	return &Result{
		Schedule:      schedule,
		Notifications: notifications,
		Statistics:    CalculateStatistics(schedule, priorMaxID, req.Today),
	}, nil
}

// Validate checks the preconditions of a generation run.
func (r *Request) Validate() error {
	if r == nil {
		return inputError("request", "request is nil")
	}
	if len(r.Subjects) == 0 {
		return inputError("subjects", "at least one subject is required")
	}
	if err := validateAvailability(r.Availability); err != nil {
		return err
	}
	if !r.Today.IsValid() {
		return inputError("today", "%q is not a valid date", r.Today)
	}
	if !r.Deadline.IsValid() {
		return inputError("deadline", "%q is not a valid date", r.Deadline)
	}
	if !r.Deadline.After(r.Today) {
		return inputError("deadline", "deadline %s must be after today %s", r.Deadline, r.Today)
	}
	return nil
}

func validateAvailability(week []WeekdayAvailability) error {
	if len(week) != 7 {
		return inputError("availability", "expected 7 weekdays, got %d", len(week))
	}
	seen := make(map[int]bool, 7)
	usable := false
	for _, day := range week {
		if day.ID < 0 || day.ID > 6 {
			return inputError("availability", "weekday id %d out of range 0-6", day.ID)
		}
		if seen[day.ID] {
			return inputError("availability", "weekday id %d listed twice", day.ID)
		}
		seen[day.ID] = true
		if day.HoursAvailable < 0 {
			return inputError("availability", "weekday %d has negative hours", day.ID)
		}
		if day.Selected && day.HoursAvailable > 0 {
			usable = true
		}
	}
	if !usable {
		return inputError("availability", "no weekday is selected with available hours")
	}
	return nil
}

// MaxItemID returns the highest id in items, or 0.
func MaxItemID(items []ScheduleItem) int64 {
	var maxID int64
	for _, item := range items {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	return maxID
}

// scheduleBuilder carries the mutable state of one run.
type scheduleBuilder struct {
	cfg           Config
	horizon       Window
	finder        *SlotFinder
	nextID        int64
	items         []ScheduleItem
	notifications []string
}

func (b *scheduleBuilder) scheduleStudy(subject Subject) (*civil.Date, error) {
	date, ok, err := b.finder.Find(subject, b.cfg.StudyDuration, b.horizon, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		b.notify("could not schedule study for %s", subject.Name)
		return nil, nil
	}
	b.append(subject, date, SessionStudy, 0, b.cfg.StudyDuration)
	return &date, nil
}

func (b *scheduleBuilder) scheduleReviews(subject Subject, studyDate civil.Date) error {
	n := b.cfg.reviewCount(PriorityScore(subject))
	for i, offset := range b.cfg.reviewOffsets(subject, n) {
		cycle := i + 1
		target := studyDate.AddDays(offset)
		if target.After(b.horizon.To) {
			// Out of range, not a failure.
			continue
		}
		date, ok, err := b.finder.Find(subject, b.cfg.ReviewDuration, b.horizon, &target)
		if err != nil {
			return err
		}
		if !ok {
			b.notify("could not schedule review %d for %s", cycle, subject.Name)
			continue
		}
		b.append(subject, date, SessionReview, cycle, b.cfg.ReviewDuration)
	}
	return nil
}

func (b *scheduleBuilder) append(subject Subject, date civil.Date, kind SessionType, cycle int, duration Minutes) {
	b.nextID++
	b.items = append(b.items, ScheduleItem{
		ID:              b.nextID,
		Date:            date,
		DisciplineName:  subject.DisciplineName,
		SubjectName:     subject.Name,
		DurationMinutes: duration,
		Type:            kind,
		ReviewCycle:     cycle,
		PriorityScore:   PriorityScore(subject),
		AtRisk:          subject.Performance != nil && *subject.Performance < b.cfg.AtRiskThreshold,
	})
}

func (b *scheduleBuilder) notify(format string, args ...any) {
	b.notifications = append(b.notifications, fmt.Sprintf(format, args...))
}
