package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/studyplan/server/export"
)

const (
	mimeMarkdown = "text/markdown; charset=UTF-8"
	mimeRSS      = "application/rss+xml; charset=UTF-8"
)

// GetAgendaMarkdown renders the plan as a Markdown agenda.
// GET /api/v1/plans/:uid/agenda.md
func (s *APIV1Service) GetAgendaMarkdown(c echo.Context) error {
	p, err := s.PlanService.GetPlan(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Blob(http.StatusOK, mimeMarkdown, []byte(export.Markdown(p)))
}

// GetAgendaHTML renders the agenda as HTML.
// GET /api/v1/plans/:uid/agenda.html
func (s *APIV1Service) GetAgendaHTML(c echo.Context) error {
	p, err := s.PlanService.GetPlan(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return errorResponse(c, err)
	}
	html, err := export.HTML(p)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.HTML(http.StatusOK, html)
}

// GetFeed returns the upcoming sessions of a plan as RSS.
// GET /api/v1/plans/:uid/feed.rss
func (s *APIV1Service) GetFeed(c echo.Context) error {
	p, err := s.PlanService.GetPlan(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return errorResponse(c, err)
	}
	rss, err := export.RSS(p, s.planURL(c, p.UID))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Blob(http.StatusOK, mimeRSS, []byte(rss))
}

// planURL is the public URL of a plan, based on the configured instance URL
// or the request host.
func (s *APIV1Service) planURL(c echo.Context, uid string) string {
	base := ""
	if s.Profile != nil {
		base = strings.TrimSuffix(s.Profile.InstanceURL, "/")
	}
	if base == "" {
		base = c.Scheme() + "://" + c.Request().Host
	}
	return base + "/api/v1/plans/" + uid
}
