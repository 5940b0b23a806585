// Package plansync pushes locally changed plans to a remote copy.
//
// Every plan change queues the plan. The runner drains the queue on an
// interval and POSTs each plan as JSON to the remote URL. A plan is marked
// synced only when the pushed version is still the latest; otherwise it stays
// queued for the next pass. Merging remote changes back is not done here.
package plansync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hrygo/studyplan/server/service/plan"
	"github.com/hrygo/studyplan/store"
)

const (
	// DefaultBatchSize is the number of queued plans handled per pass.
	DefaultBatchSize = 20
	// DefaultMaxAttempts stops retrying a plan until it changes again.
	DefaultMaxAttempts = 10
	// DefaultPushRate limits pushes per second to the remote.
	DefaultPushRate = 5

	maxErrorBody = 512
)

// Store is the subset of *store.Store the runner needs.
type Store interface {
	ListSyncQueue(ctx context.Context, find *store.FindSyncQueueItem) ([]*store.SyncQueueItem, error)
	UpdateSyncQueueItem(ctx context.Context, update *store.UpdateSyncQueueItem) error
	DequeuePlanSync(ctx context.Context, planID int32) error
	GetStudyPlan(ctx context.Context, find *store.FindStudyPlan) (*store.StudyPlan, error)
	UpdateStudyPlan(ctx context.Context, update *store.UpdateStudyPlan) error
}

// PlanReader loads the plan document that is pushed.
type PlanReader interface {
	GetPlan(ctx context.Context, uid string) (*plan.Plan, error)
}

// Config configures a Runner.
type Config struct {
	RemoteURL   string
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int32
	// PushRate is the number of pushes allowed per second.
	PushRate float64
	Client   *http.Client
}

type Runner struct {
	store       Store
	plans       PlanReader
	remoteURL   string
	interval    time.Duration
	batchSize   int
	maxAttempts int32
	limiter     *rate.Limiter
	client      *http.Client
}

// NewRunner creates a sync runner.
func NewRunner(st Store, plans PlanReader, cfg Config) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.PushRate <= 0 {
		cfg.PushRate = DefaultPushRate
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Runner{
		store:       st,
		plans:       plans,
		remoteURL:   cfg.RemoteURL,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		limiter:     rate.NewLimiter(rate.Limit(cfg.PushRate), 1),
		client:      cfg.Client,
	}
}

// Run starts the background task. It returns immediately when no remote URL is set.
func (r *Runner) Run(ctx context.Context) {
	if r.remoteURL == "" {
		slog.Info("plan sync disabled, no remote url")
		return
	}

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("plan sync runner stopped")
			return
		}
	}
}

// RunOnce drains one batch of the queue and returns the number of plans synced.
func (r *Runner) RunOnce(ctx context.Context) int {
	if r.remoteURL == "" {
		return 0
	}

	items, err := r.store.ListSyncQueue(ctx, &store.FindSyncQueueItem{Limit: &r.batchSize})
	if err != nil {
		slog.Error("failed to list sync queue", "error", err)
		return 0
	}

	synced := 0
	for _, item := range items {
		if item.Attempts >= r.maxAttempts {
			continue
		}
		if err := r.limiter.Wait(ctx); err != nil {
			slog.Info("plan sync cancelled", "synced", synced)
			return synced
		}

		ok, err := r.syncPlan(ctx, item.PlanID)
		if err != nil {
			slog.Warn("failed to sync plan", "planID", item.PlanID, "attempt", item.Attempts+1, "error", err)
			r.recordFailure(ctx, item, err)
			continue
		}
		if ok {
			synced++
		}
	}
	if synced > 0 {
		slog.Info("plans synced", "count", synced)
	}
	return synced
}

// syncPlan pushes one plan. It reports false when the plan is gone or changed
// while being pushed.
func (r *Runner) syncPlan(ctx context.Context, planID int32) (bool, error) {
	stored, err := r.store.GetStudyPlan(ctx, &store.FindStudyPlan{ID: &planID})
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, r.store.DequeuePlanSync(ctx, planID)
	}

	view, err := r.plans.GetPlan(ctx, stored.UID)
	if err != nil {
		return false, err
	}
	if err := r.push(ctx, view); err != nil {
		return false, err
	}

	latest, err := r.store.GetStudyPlan(ctx, &store.FindStudyPlan{ID: &planID})
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, r.store.DequeuePlanSync(ctx, planID)
	}
	if latest.UpdatedTs != view.UpdatedTs {
		return false, nil
	}

	synced := true
	if err := r.store.UpdateStudyPlan(ctx, &store.UpdateStudyPlan{ID: planID, Synced: &synced}); err != nil {
		return false, err
	}
	return true, r.store.DequeuePlanSync(ctx, planID)
}

func (r *Runner) push(ctx context.Context, view *plan.Plan) error {
	body, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.remoteURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Plan-UID", view.UID)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push plan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("remote rejected plan: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (r *Runner) recordFailure(ctx context.Context, item *store.SyncQueueItem, cause error) {
	attempts := item.Attempts + 1
	lastError := cause.Error()
	if err := r.store.UpdateSyncQueueItem(ctx, &store.UpdateSyncQueueItem{
		PlanID:    item.PlanID,
		Attempts:  &attempts,
		LastError: &lastError,
	}); err != nil {
		slog.Error("failed to record sync failure", "planID", item.PlanID, "error", err)
	}
}
