package planner

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
)

// Minutes is a session length or a committed amount of study time.
type Minutes int

// Hours is a daily availability budget.
type Hours float64

// Minutes converts an hour budget to whole minutes, rounding down so the
// budget is never exceeded.
func (h Hours) Minutes() Minutes {
	if h <= 0 {
		return 0
	}
	return Minutes(math.Floor(float64(h)*60 + 1e-9))
}

// Level grades a subject's difficulty or importance.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Points returns the weight of the level. Unknown levels weigh as low.
func (l Level) Points() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	default:
		return 1
	}
}

// IsValid reports whether l is one of the known levels.
func (l Level) IsValid() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// SessionType distinguishes first-exposure study blocks from spaced reviews.
type SessionType string

const (
	SessionStudy  SessionType = "study"
	SessionReview SessionType = "review"
)

// Subject is a topic of a discipline that must be studied before the deadline.
type Subject struct {
	ID             int64   `json:"id"`
	DisciplineID   int64   `json:"discipline_id"`
	DisciplineName string  `json:"discipline_name"`
	Name           string  `json:"name"`
	Difficulty     Level   `json:"difficulty"`
	Importance     Level   `json:"importance"`
	EstimatedHours float64 `json:"estimated_hours"`
	// Performance is the tracked score in [0, 100], nil when never measured.
	Performance *float64 `json:"performance,omitempty"`
}

// WeekdayAvailability is the study budget for one day of the week.
type WeekdayAvailability struct {
	// ID follows time.Weekday: 0 is Sunday, 6 is Saturday.
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Selected       bool   `json:"selected"`
	HoursAvailable Hours  `json:"hours_available"`
}

// NewWeekAvailability returns the seven weekday entries with the given days
// selected at hours per day. With no days given every weekday is selected.
func NewWeekAvailability(hours Hours, days ...time.Weekday) []WeekdayAvailability {
	selected := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		selected[d] = true
	}
	week := make([]WeekdayAvailability, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		entry := WeekdayAvailability{
			ID:   int(d),
			Name: d.String(),
		}
		if len(days) == 0 || selected[d] {
			entry.Selected = true
			entry.HoursAvailable = hours
		}
		week = append(week, entry)
	}
	return week
}

// ScheduleItem is one planned session.
type ScheduleItem struct {
	ID              int64       `json:"id"`
	Date            civil.Date  `json:"date"`
	DisciplineName  string      `json:"discipline_name"`
	SubjectName     string      `json:"subject_name"`
	DurationMinutes Minutes     `json:"duration_minutes"`
	Completed       bool        `json:"completed"`
	Type            SessionType `json:"type"`
	// ReviewCycle is 0 for study sessions and 1..N for the i-th review.
	ReviewCycle   int  `json:"review_cycle"`
	PriorityScore int  `json:"priority_score"`
	AtRisk        bool `json:"at_risk"`
}

// Statistics summarises a schedule.
type Statistics struct {
	TotalSessions      int `json:"total_sessions"`
	StudySessions      int `json:"study_sessions"`
	ReviewSessions     int `json:"review_sessions"`
	OverdueSessions    int `json:"overdue_sessions"`
	AtRiskSubjectCount int `json:"at_risk_subject_count"`
}

// Request holds the inputs of one generation run.
type Request struct {
	Subjects     []Subject             `json:"subjects"`
	Availability []WeekdayAvailability `json:"availability"`
	Deadline     civil.Date            `json:"deadline"`
	// Today is the date the generator runs on. It is an input so runs are
	// reproducible.
	Today civil.Date `json:"today"`
	// PriorSchedule is read-only seed data: ids continue after its highest id
	// and its sessions count against daily capacity.
	PriorSchedule []ScheduleItem `json:"prior_schedule,omitempty"`
}

// Result is the output of one generation run.
type Result struct {
	Schedule      []ScheduleItem `json:"schedule"`
	Notifications []string       `json:"notifications"`
	Statistics    Statistics     `json:"statistics"`
}
