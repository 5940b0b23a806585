package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/studyplan/store"
)

func (d *DB) UpsertSyncQueueItem(ctx context.Context, upsert *store.SyncQueueItem) error {
	if upsert.EnqueuedTs == 0 {
		upsert.EnqueuedTs = time.Now().Unix()
	}
	stmt := `INSERT INTO sync_queue (plan_id, enqueued_ts, attempts, last_error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (plan_id) DO UPDATE SET
			enqueued_ts = excluded.enqueued_ts,
			attempts = excluded.attempts,
			last_error = excluded.last_error`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.PlanID, upsert.EnqueuedTs, upsert.Attempts, upsert.LastError); err != nil {
		return fmt.Errorf("failed to upsert sync queue item: %w", err)
	}
	return nil
}

func (d *DB) ListSyncQueueItems(ctx context.Context, find *store.FindSyncQueueItem) ([]*store.SyncQueueItem, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.PlanID; v != nil {
		where, args = append(where, "plan_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT plan_id, enqueued_ts, attempts, last_error FROM sync_queue
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY enqueued_ts ASC, plan_id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync queue: %w", err)
	}
	defer rows.Close()

	list := make([]*store.SyncQueueItem, 0)
	for rows.Next() {
		var item store.SyncQueueItem
		if err := rows.Scan(&item.PlanID, &item.EnqueuedTs, &item.Attempts, &item.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan sync queue item: %w", err)
		}
		list = append(list, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync queue: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateSyncQueueItem(ctx context.Context, update *store.UpdateSyncQueueItem) error {
	set, args := []string{}, []any{}
	if v := update.Attempts; v != nil {
		set, args = append(set, "attempts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.LastError; v != nil {
		set, args = append(set, "last_error = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, update.PlanID)
	stmt := `UPDATE sync_queue SET ` + strings.Join(set, ", ") + ` WHERE plan_id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update sync queue item: %w", err)
	}
	return nil
}

func (d *DB) DeleteSyncQueueItem(ctx context.Context, planID int32) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("failed to delete sync queue item: %w", err)
	}
	return nil
}
