package filter

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/studyplan/server/planner"
)

var today = civil.Date{Year: 2025, Month: time.June, Day: 2}

func sessions() []planner.ScheduleItem {
	return []planner.ScheduleItem{
		{ID: 1, Date: today, SubjectName: "Cardiology", DisciplineName: "Medicine", Type: planner.SessionStudy, DurationMinutes: 60, PriorityScore: 9},
		{ID: 2, Date: today.AddDays(1), SubjectName: "Cardiology", DisciplineName: "Medicine", Type: planner.SessionReview, ReviewCycle: 1, DurationMinutes: 30, PriorityScore: 9, Completed: true},
		{ID: 3, Date: today.AddDays(3), SubjectName: "Genetics", DisciplineName: "Biology", Type: planner.SessionStudy, DurationMinutes: 60, PriorityScore: 2, AtRisk: true},
		{ID: 4, Date: today.AddDays(10), SubjectName: "Cardiology", DisciplineName: "Medicine", Type: planner.SessionReview, ReviewCycle: 2, DurationMinutes: 30, PriorityScore: 9},
	}
}

func ids(items []planner.ScheduleItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestSessionFilter_Apply(t *testing.T) {
	tests := []struct {
		expr string
		want []int64
	}{
		{"", []int64{1, 2, 3, 4}},
		{`type == "review" && !completed`, []int64{4}},
		{`at_risk`, []int64{3}},
		{`discipline == "Medicine" && review_cycle >= 1`, []int64{2, 4}},
		{`date >= "2025-06-03" && date <= "2025-06-05"`, []int64{2, 3}},
		{`days_until <= 3`, []int64{1, 2, 3}},
		{`priority_score > 5 && duration_minutes == 60`, []int64{1}},
		{`subject.startsWith("Gen")`, []int64{3}},
		{`id in [1, 4]`, []int64{1, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := f.Apply(sessions(), today)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestCompile_Rejects(t *testing.T) {
	for _, expr := range []string{
		`type ==`,
		`unknown_field == 1`,
		`priority_score + 1`,
		`completed == "yes"`,
	} {
		_, err := Compile(expr)
		require.Error(t, err, expr)
		assert.True(t, errors.Is(err, ErrInvalidFilter), expr)
	}
}

func TestSessionFilter_NilMatchesAll(t *testing.T) {
	var f *SessionFilter
	ok, err := f.Match(sessions()[0], today)
	require.NoError(t, err)
	assert.True(t, ok)

	compiled, err := Compile("  completed ")
	require.NoError(t, err)
	assert.Equal(t, "completed", compiled.String())
}
