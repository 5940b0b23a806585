package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/studyplan/internal/profile"
	"github.com/hrygo/studyplan/server/internal/observability"
	"github.com/hrygo/studyplan/server/middleware"
	"github.com/hrygo/studyplan/server/service/plan"
)

// maxBodySize bounds request bodies; a plan input is a few kilobytes.
const maxBodySize = "2M"

type APIV1Service struct {
	Profile     *profile.Profile
	PlanService plan.Service
	Metrics     *observability.Metrics

	rateLimiter *middleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, planService plan.Service, metrics *observability.Metrics) *APIV1Service {
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	return &APIV1Service{
		Profile:     profile,
		PlanService: planService,
		Metrics:     metrics,
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRate, middleware.DefaultBurst),
	}
}

// RegisterRoutes mounts the API on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.Healthz)

	api := e.Group("/api/v1",
		middleware.RequestContext(slog.Default()),
		middleware.RateLimit(s.rateLimiter),
		echomiddleware.BodyLimit(maxBodySize),
	)

	api.POST("/plans", s.GeneratePlan)
	api.GET("/plans", s.ListPlans)
	api.GET("/plans/:uid", s.GetPlan)
	api.DELETE("/plans/:uid", s.DeletePlan)
	api.POST("/plans/:uid/extend", s.ExtendPlan)
	api.GET("/plans/:uid/sessions", s.ListSessions)
	api.PATCH("/plans/:uid/sessions/:id", s.UpdateSession)
	api.GET("/plans/:uid/agenda.md", s.GetAgendaMarkdown)
	api.GET("/plans/:uid/agenda.html", s.GetAgendaHTML)
	api.GET("/plans/:uid/feed.rss", s.GetFeed)

	api.GET("/statistics", s.GetOverallStatistics)
	api.GET("/system/metrics", s.GetMetricsOverview)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Healthz reports liveness.
func (s *APIV1Service) Healthz(c echo.Context) error {
	version := ""
	if s.Profile != nil {
		version = s.Profile.Version
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: version})
}
