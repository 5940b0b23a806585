package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// StudyPlan model related methods.
	CreateStudyPlan(ctx context.Context, create *StudyPlan) (*StudyPlan, error)
	ListStudyPlans(ctx context.Context, find *FindStudyPlan) ([]*StudyPlan, error)
	UpdateStudyPlan(ctx context.Context, update *UpdateStudyPlan) error
	DeleteStudyPlan(ctx context.Context, delete *DeleteStudyPlan) error

	// StudySession model related methods.
	CreateStudySessions(ctx context.Context, sessions []*StudySession) error
	ListStudySessions(ctx context.Context, find *FindStudySession) ([]*StudySession, error)
	UpdateStudySession(ctx context.Context, update *UpdateStudySession) error

	// SyncQueue model related methods.
	UpsertSyncQueueItem(ctx context.Context, upsert *SyncQueueItem) error
	ListSyncQueueItems(ctx context.Context, find *FindSyncQueueItem) ([]*SyncQueueItem, error)
	UpdateSyncQueueItem(ctx context.Context, update *UpdateSyncQueueItem) error
	DeleteSyncQueueItem(ctx context.Context, planID int32) error

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error)
}
