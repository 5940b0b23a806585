package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/studyplan/store"
)

func (d *DB) CreateStudyPlan(ctx context.Context, create *store.StudyPlan) (*store.StudyPlan, error) {
	fields := []string{"uid", "name", "timezone", "deadline", "payload", "synced"}
	args := []any{create.UID, create.Name, create.Timezone, create.Deadline.String(), create.Payload, create.Synced}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		args = append(args, create.UpdatedTs)
	}

	stmt := `INSERT INTO study_plan (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create study plan: %w", err)
	}

	return create, nil
}

func (d *DB) ListStudyPlans(ctx context.Context, find *store.FindStudyPlan) ([]*store.StudyPlan, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "study_plan.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "study_plan.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Synced; v != nil {
		where, args = append(where, "study_plan.synced = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DeadlineFrom; v != nil {
		where, args = append(where, "study_plan.deadline >= "+placeholder(len(args)+1)), append(args, v.String())
	}

	query := `
		SELECT id, uid, created_ts, updated_ts, name, timezone, deadline, payload::TEXT, synced
		FROM study_plan
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY study_plan.created_ts DESC, study_plan.id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query study plans: %w", err)
	}
	defer rows.Close()

	list := make([]*store.StudyPlan, 0)
	for rows.Next() {
		var plan store.StudyPlan
		var deadline string
		if err := rows.Scan(
			&plan.ID,
			&plan.UID,
			&plan.CreatedTs,
			&plan.UpdatedTs,
			&plan.Name,
			&plan.Timezone,
			&deadline,
			&plan.Payload,
			&plan.Synced,
		); err != nil {
			return nil, fmt.Errorf("failed to scan study plan: %w", err)
		}
		if plan.Deadline, err = parseDate(deadline); err != nil {
			return nil, err
		}
		list = append(list, &plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate study plans: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateStudyPlan(ctx context.Context, update *store.UpdateStudyPlan) error {
	set, args := []string{}, []any{}

	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Name; v != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Deadline; v != nil {
		set, args = append(set, "deadline = "+placeholder(len(args)+1)), append(args, v.String())
	}
	if v := update.Payload; v != nil {
		set, args = append(set, "payload = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Synced; v != nil {
		set, args = append(set, "synced = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, update.ID)
	stmt := `UPDATE study_plan SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update study plan: %w", err)
	}
	return nil
}

func (d *DB) DeleteStudyPlan(ctx context.Context, delete *store.DeleteStudyPlan) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM study_session WHERE plan_id = $1`,
		`DELETE FROM sync_queue WHERE plan_id = $1`,
		`DELETE FROM study_plan WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, delete.ID); err != nil {
			return fmt.Errorf("failed to delete study plan: %w", err)
		}
	}
	return tx.Commit()
}
