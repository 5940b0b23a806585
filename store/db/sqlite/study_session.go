package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/studyplan/store"
)

func (d *DB) CreateStudySessions(ctx context.Context, sessions []*store.StudySession) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO study_session (
			plan_id, id, date, discipline_name, subject_name, duration_minutes,
			completed, type, review_cycle, priority_score, at_risk
		) VALUES (`+placeholders(11)+`)
		ON CONFLICT (plan_id, id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare study session insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sessions {
		if _, err := stmt.ExecContext(ctx,
			s.PlanID, s.ID, s.Date.String(), s.DisciplineName, s.SubjectName, s.DurationMinutes,
			s.Completed, s.Type, s.ReviewCycle, s.PriorityScore, s.AtRisk,
		); err != nil {
			return fmt.Errorf("failed to create study session %d: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

func (d *DB) ListStudySessions(ctx context.Context, find *store.FindStudySession) ([]*store.StudySession, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.PlanID; v != nil {
		where, args = append(where, "plan_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Completed; v != nil {
		where, args = append(where, "completed = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Type; v != nil {
		where, args = append(where, "type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DateFrom; v != nil {
		where, args = append(where, "date >= "+placeholder(len(args)+1)), append(args, v.String())
	}
	if v := find.DateTo; v != nil {
		where, args = append(where, "date <= "+placeholder(len(args)+1)), append(args, v.String())
	}

	query := `
		SELECT plan_id, id, date, discipline_name, subject_name, duration_minutes,
			completed, type, review_cycle, priority_score, at_risk
		FROM study_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY plan_id ASC, date ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query study sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.StudySession, 0)
	for rows.Next() {
		var session store.StudySession
		var date string
		if err := rows.Scan(
			&session.PlanID,
			&session.ID,
			&date,
			&session.DisciplineName,
			&session.SubjectName,
			&session.DurationMinutes,
			&session.Completed,
			&session.Type,
			&session.ReviewCycle,
			&session.PriorityScore,
			&session.AtRisk,
		); err != nil {
			return nil, fmt.Errorf("failed to scan study session: %w", err)
		}
		if session.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		list = append(list, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate study sessions: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateStudySession(ctx context.Context, update *store.UpdateStudySession) error {
	if update.Completed == nil {
		return nil
	}
	stmt := `UPDATE study_session SET completed = ? WHERE plan_id = ? AND id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, *update.Completed, update.PlanID, update.ID); err != nil {
		return fmt.Errorf("failed to update study session: %w", err)
	}
	return nil
}
