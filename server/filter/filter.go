// Package filter evaluates CEL expressions against schedule sessions.
//
// An expression sees one session at a time through these variables:
//
//	id, date, discipline, subject, duration_minutes, completed,
//	type, review_cycle, priority_score, at_risk, days_until
//
// date is the ISO date string, so lexical comparisons order correctly
// (date >= "2025-06-01"). days_until counts days from today to the session.
package filter

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/studyplan/server/planner"
)

// ErrInvalidFilter is returned when an expression does not compile to a boolean.
var ErrInvalidFilter = errors.New("invalid filter")

var sessionEnv = mustSessionEnv()

func mustSessionEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("date", cel.StringType),
		cel.Variable("discipline", cel.StringType),
		cel.Variable("subject", cel.StringType),
		cel.Variable("duration_minutes", cel.IntType),
		cel.Variable("completed", cel.BoolType),
		cel.Variable("type", cel.StringType),
		cel.Variable("review_cycle", cel.IntType),
		cel.Variable("priority_score", cel.IntType),
		cel.Variable("at_risk", cel.BoolType),
		cel.Variable("days_until", cel.IntType),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create session filter env: %v", err))
	}
	return env
}

// SessionFilter is a compiled session expression. It is safe for concurrent use.
type SessionFilter struct {
	expr    string
	program cel.Program
}

// Compile parses and type-checks expr. The blank expression matches everything.
func Compile(expr string) (*SessionFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &SessionFilter{}, nil
	}

	ast, issues := sessionEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(ErrInvalidFilter, "%s", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.Wrapf(ErrInvalidFilter, "expression yields %s, want bool", ast.OutputType())
	}
	program, err := sessionEnv.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}
	return &SessionFilter{expr: expr, program: program}, nil
}

// String returns the source expression.
func (f *SessionFilter) String() string {
	return f.expr
}

// Match reports whether item satisfies the filter on the given day.
func (f *SessionFilter) Match(item planner.ScheduleItem, today civil.Date) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}

	out, _, err := f.program.Eval(map[string]any{
		"id":               item.ID,
		"date":             item.Date.String(),
		"discipline":       item.DisciplineName,
		"subject":          item.SubjectName,
		"duration_minutes": int64(item.DurationMinutes),
		"completed":        item.Completed,
		"type":             string(item.Type),
		"review_cycle":     int64(item.ReviewCycle),
		"priority_score":   int64(item.PriorityScore),
		"at_risk":          item.AtRisk,
		"days_until":       int64(item.Date.DaysSince(today)),
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate filter %q", f.expr)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("filter %q yielded %T", f.expr, out.Value())
	}
	return matched, nil
}

// Apply returns the items that match, keeping their order.
func (f *SessionFilter) Apply(items []planner.ScheduleItem, today civil.Date) ([]planner.ScheduleItem, error) {
	if f == nil || f.program == nil {
		return items, nil
	}
	matched := make([]planner.ScheduleItem, 0, len(items))
	for _, item := range items {
		ok, err := f.Match(item, today)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return matched, nil
}
