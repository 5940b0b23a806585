// Package export renders plans as a Markdown agenda, HTML and RSS.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hrygo/studyplan/server/planner"
	"github.com/hrygo/studyplan/server/service/plan"
	"github.com/hrygo/studyplan/server/timezone"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders the plan as an agenda grouped by day. Completed sessions
// are checked task items.
func Markdown(p *plan.Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	fmt.Fprintf(&b, "Deadline: %s\n\n", timezone.FormatDate(p.Deadline))
	fmt.Fprintf(&b, "%d sessions: %d study, %d review, %d overdue.\n",
		p.Statistics.TotalSessions, p.Statistics.StudySessions, p.Statistics.ReviewSessions, p.Statistics.OverdueSessions)

	var current civil.Date
	for i, item := range p.Schedule {
		if i == 0 || item.Date != current {
			current = item.Date
			fmt.Fprintf(&b, "\n## %s\n\n", timezone.FormatDate(current))
		}
		b.WriteString(agendaLine(item))
		b.WriteByte('\n')
	}

	if len(p.Notifications) > 0 {
		b.WriteString("\n## Not scheduled\n\n")
		for _, n := range p.Notifications {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}

func agendaLine(item planner.ScheduleItem) string {
	check := " "
	if item.Completed {
		check = "x"
	}
	kind := "Study"
	if item.Type == planner.SessionReview {
		kind = fmt.Sprintf("Review %d", item.ReviewCycle)
	}
	subject := item.SubjectName
	if item.DisciplineName != "" {
		subject = item.DisciplineName + " / " + item.SubjectName
	}
	line := fmt.Sprintf("- [%s] %s: %s (%d min)", check, kind, subject, item.DurationMinutes)
	if item.AtRisk {
		line += " **at risk**"
	}
	return line
}

// HTML renders the Markdown agenda to HTML.
func HTML(p *plan.Plan) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(p)), &buf); err != nil {
		return "", fmt.Errorf("failed to render agenda: %w", err)
	}
	return buf.String(), nil
}
