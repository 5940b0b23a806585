package store

import "context"

// SyncQueueItem marks a plan whose local changes must be pushed to the
// remote copy. A plan is queued at most once.
type SyncQueueItem struct {
	PlanID     int32
	EnqueuedTs int64
	Attempts   int32
	LastError  string
}

// FindSyncQueueItem is the find condition for the sync queue.
type FindSyncQueueItem struct {
	PlanID *int32
	Limit  *int
}

// UpdateSyncQueueItem records a failed push.
type UpdateSyncQueueItem struct {
	PlanID    int32
	Attempts  *int32
	LastError *string
}

// EnqueuePlanSync queues a plan, resetting its attempts when already queued.
func (s *Store) EnqueuePlanSync(ctx context.Context, planID int32) error {
	return s.driver.UpsertSyncQueueItem(ctx, &SyncQueueItem{PlanID: planID})
}

// ListSyncQueue lists queued plans, oldest first.
func (s *Store) ListSyncQueue(ctx context.Context, find *FindSyncQueueItem) ([]*SyncQueueItem, error) {
	return s.driver.ListSyncQueueItems(ctx, find)
}

// UpdateSyncQueueItem updates a queued plan.
func (s *Store) UpdateSyncQueueItem(ctx context.Context, update *UpdateSyncQueueItem) error {
	return s.driver.UpdateSyncQueueItem(ctx, update)
}

// DequeuePlanSync removes a plan from the queue.
func (s *Store) DequeuePlanSync(ctx context.Context, planID int32) error {
	return s.driver.DeleteSyncQueueItem(ctx, planID)
}
