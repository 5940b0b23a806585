package plan

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/hrygo/studyplan/server/planner"
)

// Service defines the plan management operations built around the pure
// schedule generator. Every method returns *errors.PlanError on failure.
type Service interface {
	// GeneratePlan runs the generator from today and stores the resulting plan.
	GeneratePlan(ctx context.Context, req *GenerateRequest) (*Plan, error)

	// ExtendPlan schedules more subjects into an existing plan. Stored
	// sessions are kept as they are and count against daily capacity.
	ExtendPlan(ctx context.Context, uid string, req *ExtendRequest) (*Plan, error)

	// GetPlan returns a plan with its full schedule.
	GetPlan(ctx context.Context, uid string) (*Plan, error)

	// ListPlans returns every plan without schedules, newest first.
	ListPlans(ctx context.Context) ([]*PlanSummary, error)

	// DeletePlan removes a plan and its sessions.
	DeletePlan(ctx context.Context, uid string) error

	// SetSessionCompleted marks one session done or pending.
	SetSessionCompleted(ctx context.Context, uid string, sessionID int64, completed bool) (*planner.ScheduleItem, error)

	// ListSessions returns the sessions of a plan matching the CEL filter.
	// An empty filter returns them all.
	ListSessions(ctx context.Context, uid string, filter string) ([]planner.ScheduleItem, error)

	// OverallStatistics aggregates every stored plan.
	OverallStatistics(ctx context.Context) (*OverallStatistics, error)
}

// GenerateRequest is the input of GeneratePlan.
type GenerateRequest struct {
	Name         string                        `json:"name"`
	Subjects     []planner.Subject             `json:"subjects"`
	Availability []planner.WeekdayAvailability `json:"availability"`
	Deadline     civil.Date                    `json:"deadline"`
	// Timezone decides what "today" is for the plan. Empty uses the server's.
	Timezone string `json:"timezone,omitempty"`
}

// ExtendRequest is the input of ExtendPlan.
type ExtendRequest struct {
	Subjects []planner.Subject `json:"subjects"`
	// Availability replaces the stored weekly budget when set.
	Availability []planner.WeekdayAvailability `json:"availability,omitempty"`
	// Deadline moves the plan deadline when set.
	Deadline *civil.Date `json:"deadline,omitempty"`
}

// Plan is a stored plan with its schedule.
type Plan struct {
	UID       string     `json:"uid"`
	Name      string     `json:"name"`
	Timezone  string     `json:"timezone"`
	Deadline  civil.Date `json:"deadline"`
	CreatedTs int64      `json:"created_ts"`
	UpdatedTs int64      `json:"updated_ts"`
	Synced    bool       `json:"synced"`
	// AsOf is today in the plan's timezone when the view was built.
	AsOf civil.Date `json:"as_of"`

	Subjects      []planner.Subject             `json:"subjects"`
	Availability  []planner.WeekdayAvailability `json:"availability"`
	Schedule      []planner.ScheduleItem        `json:"schedule"`
	Notifications []string                      `json:"notifications"`
	Statistics    planner.Statistics            `json:"statistics"`
}

// PlanSummary is a plan without its schedule.
type PlanSummary struct {
	UID        string             `json:"uid"`
	Name       string             `json:"name"`
	Timezone   string             `json:"timezone"`
	Deadline   civil.Date         `json:"deadline"`
	CreatedTs  int64              `json:"created_ts"`
	UpdatedTs  int64              `json:"updated_ts"`
	Synced     bool               `json:"synced"`
	Statistics planner.Statistics `json:"statistics"`
}

// OverallStatistics aggregates all plans.
type OverallStatistics struct {
	TotalPlans  int `json:"total_plans"`
	ActivePlans int `json:"active_plans"`
	// PlannedHours sums every session, rounded to one decimal.
	PlannedHours float64 `json:"planned_hours"`
	// AverageCompletionRate is the mean, over all plans, of the percentage of
	// sessions up to today that are completed.
	AverageCompletionRate int `json:"average_completion_rate"`
	TotalSessions         int `json:"total_sessions"`
	CompletedSessions     int `json:"completed_sessions"`
}
