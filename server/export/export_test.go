package export

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/studyplan/server/planner"
	"github.com/hrygo/studyplan/server/service/plan"
)

var today = civil.Date{Year: 2025, Month: time.June, Day: 2}

func testPlan() *plan.Plan {
	return &plan.Plan{
		UID:       "abc123",
		Name:      "Boards",
		Timezone:  "UTC",
		Deadline:  today.AddDays(28),
		CreatedTs: 1748822400,
		UpdatedTs: 1748822400,
		AsOf:      today,
		Schedule: []planner.ScheduleItem{
			{ID: 1, Date: today.AddDays(-1), DisciplineName: "Medicine", SubjectName: "Cardiology", DurationMinutes: 60, Type: planner.SessionStudy},
			{ID: 2, Date: today, DisciplineName: "Medicine", SubjectName: "Cardiology", DurationMinutes: 30, Type: planner.SessionReview, ReviewCycle: 1, Completed: true},
			{ID: 3, Date: today, DisciplineName: "Biology", SubjectName: "Genetics", DurationMinutes: 60, Type: planner.SessionStudy, AtRisk: true},
			{ID: 4, Date: today.AddDays(2), DisciplineName: "Medicine", SubjectName: "Cardiology", DurationMinutes: 30, Type: planner.SessionReview, ReviewCycle: 2},
		},
		Notifications: []string{"Could not schedule study of Neurology (Medicine)"},
		Statistics:    planner.Statistics{TotalSessions: 4, StudySessions: 2, ReviewSessions: 2, OverdueSessions: 1},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(testPlan())

	assert.True(t, strings.HasPrefix(md, "# Boards\n\nDeadline: Mon, Jun 30 2025\n"))
	assert.Contains(t, md, "4 sessions: 2 study, 2 review, 1 overdue.")
	assert.Contains(t, md, "\n## Sun, Jun 1 2025\n\n- [ ] Study: Medicine / Cardiology (60 min)\n")
	assert.Contains(t, md, "\n## Mon, Jun 2 2025\n\n- [x] Review 1: Medicine / Cardiology (30 min)\n- [ ] Study: Biology / Genetics (60 min) **at risk**\n")
	assert.Contains(t, md, "## Wed, Jun 4 2025")
	assert.Contains(t, md, "## Not scheduled\n\n- Could not schedule study of Neurology (Medicine)\n")
	assert.Equal(t, 4, strings.Count(md, "\n## "))
}

func TestHTML(t *testing.T) {
	html, err := HTML(testPlan())
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Boards</h1>")
	assert.Contains(t, html, "<h2>Mon, Jun 2 2025</h2>")
	assert.Contains(t, html, `<input checked="" disabled="" type="checkbox">`)
	assert.Contains(t, html, "<strong>at risk</strong>")
}

func TestRSS(t *testing.T) {
	p := testPlan()
	assert.Equal(t, []int64{3, 4}, ids(Upcoming(p)))

	rss, err := RSS(p, "https://plans.example.com/plans/abc123")
	require.NoError(t, err)

	assert.Contains(t, rss, "<title>Boards</title>")
	assert.Contains(t, rss, "2025-06-02: study Genetics")
	assert.Contains(t, rss, "2025-06-04: review 2 of Cardiology")
	assert.Contains(t, rss, "https://plans.example.com/plans/abc123#session-4")
	assert.NotContains(t, rss, "review 1 of Cardiology")
	assert.NotContains(t, rss, "#session-1")
}

func ids(items []planner.ScheduleItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
