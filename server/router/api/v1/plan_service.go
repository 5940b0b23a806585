package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/studyplan/server/planner"
	"github.com/hrygo/studyplan/server/service/plan"
)

// ListPlansResponse is the body of GET /api/v1/plans.
type ListPlansResponse struct {
	Plans []*plan.PlanSummary `json:"plans"`
}

// ListSessionsResponse is the body of GET /api/v1/plans/:uid/sessions.
type ListSessionsResponse struct {
	Sessions []planner.ScheduleItem `json:"sessions"`
}

// UpdateSessionRequest is the body of PATCH /api/v1/plans/:uid/sessions/:id.
type UpdateSessionRequest struct {
	Completed *bool `json:"completed"`
}

// GeneratePlan generates and stores a new plan.
// POST /api/v1/plans
func (s *APIV1Service) GeneratePlan(c echo.Context) error {
	req := &plan.GenerateRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	created, err := s.PlanService.GeneratePlan(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// ListPlans lists stored plans.
// GET /api/v1/plans
func (s *APIV1Service) ListPlans(c echo.Context) error {
	plans, err := s.PlanService.ListPlans(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ListPlansResponse{Plans: plans})
}

// GetPlan returns one plan with its schedule.
// GET /api/v1/plans/:uid
func (s *APIV1Service) GetPlan(c echo.Context) error {
	p, err := s.PlanService.GetPlan(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// DeletePlan deletes a plan.
// DELETE /api/v1/plans/:uid
func (s *APIV1Service) DeletePlan(c echo.Context) error {
	if err := s.PlanService.DeletePlan(c.Request().Context(), c.Param("uid")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExtendPlan schedules more subjects into a plan.
// POST /api/v1/plans/:uid/extend
func (s *APIV1Service) ExtendPlan(c echo.Context) error {
	req := &plan.ExtendRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	p, err := s.PlanService.ExtendPlan(c.Request().Context(), c.Param("uid"), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// ListSessions lists the sessions of a plan, optionally filtered by a CEL expression.
// GET /api/v1/plans/:uid/sessions?filter=<expr>
func (s *APIV1Service) ListSessions(c echo.Context) error {
	sessions, err := s.PlanService.ListSessions(c.Request().Context(), c.Param("uid"), c.QueryParam("filter"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ListSessionsResponse{Sessions: sessions})
}

// UpdateSession marks a session completed or pending.
// PATCH /api/v1/plans/:uid/sessions/:id
func (s *APIV1Service) UpdateSession(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid session id", err)
	}
	req := &UpdateSessionRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if req.Completed == nil {
		return badRequest(c, "completed is required", nil)
	}

	item, err := s.PlanService.SetSessionCompleted(c.Request().Context(), c.Param("uid"), id, *req.Completed)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// GetOverallStatistics aggregates every plan.
// GET /api/v1/statistics
func (s *APIV1Service) GetOverallStatistics(c echo.Context) error {
	stats, err := s.PlanService.OverallStatistics(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
