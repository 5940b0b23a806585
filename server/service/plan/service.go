// Package plan stores and serves study plans built by the schedule generator.
//
// The generator itself is pure; this package supplies what it leaves to its
// callers: today from a clock in the plan's timezone, the stored schedule
// as prior schedule when a plan is extended, persistence of plans and
// sessions, and the sync queue entry after every change.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/hrygo/studyplan/server/internal/errors"
	"github.com/hrygo/studyplan/server/internal/observability"
	"github.com/hrygo/studyplan/server/filter"
	"github.com/hrygo/studyplan/server/planner"
	"github.com/hrygo/studyplan/server/timezone"
	"github.com/hrygo/studyplan/store"
)

// Store is the subset of *store.Store the service needs.
type Store interface {
	CreateStudyPlan(ctx context.Context, create *store.StudyPlan) (*store.StudyPlan, error)
	GetStudyPlan(ctx context.Context, find *store.FindStudyPlan) (*store.StudyPlan, error)
	ListStudyPlans(ctx context.Context, find *store.FindStudyPlan) ([]*store.StudyPlan, error)
	UpdateStudyPlan(ctx context.Context, update *store.UpdateStudyPlan) error
	DeleteStudyPlan(ctx context.Context, delete *store.DeleteStudyPlan) error
	CreateStudySessions(ctx context.Context, sessions []*store.StudySession) error
	ListStudySessions(ctx context.Context, find *store.FindStudySession) ([]*store.StudySession, error)
	GetStudySession(ctx context.Context, find *store.FindStudySession) (*store.StudySession, error)
	UpdateStudySession(ctx context.Context, update *store.UpdateStudySession) error
	EnqueuePlanSync(ctx context.Context, planID int32) error
}

// Options configures a Service.
type Options struct {
	// Timezone is used for plans created without one. Defaults to UTC.
	Timezone *time.Location
	// Clock supplies "now". Defaults to the wall clock.
	Clock timezone.Clock
	// Planner tunes the generator.
	Planner planner.Config
	// SyncEnabled queues changed plans for the sync runner.
	SyncEnabled bool
	// MaxConcurrentGenerations bounds generator runs. Defaults to DefaultMaxConcurrentGenerations.
	MaxConcurrentGenerations int64
	// Metrics receives operation metrics. Defaults to the global collector.
	Metrics *observability.Metrics
}

type service struct {
	store       Store
	generator   *planner.Generator
	location    *time.Location
	clock       timezone.Clock
	syncEnabled bool
	generations *semaphore.Weighted
	metrics     *observability.Metrics
}

// NewService creates a new plan service.
func NewService(st Store, opts Options) (Service, error) {
	generator, err := planner.NewGenerator(opts.Planner)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	if opts.Timezone == nil {
		opts.Timezone = timezone.UTC
	}
	if opts.Clock == nil {
		opts.Clock = timezone.SystemClock
	}
	if opts.MaxConcurrentGenerations <= 0 {
		opts.MaxConcurrentGenerations = DefaultMaxConcurrentGenerations
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.GlobalMetrics()
	}
	return &service{
		store:       st,
		generator:   generator,
		location:    opts.Timezone,
		clock:       opts.Clock,
		syncEnabled: opts.SyncEnabled,
		generations: semaphore.NewWeighted(opts.MaxConcurrentGenerations),
		metrics:     opts.Metrics,
	}, nil
}

func (s *service) GeneratePlan(ctx context.Context, req *GenerateRequest) (plan *Plan, err error) {
	rc := observability.RequestFromContext(ctx, OperationGenerate)
	defer func() { s.observe(rc, err) }()

	if req == nil {
		return nil, apperrors.InvalidArgument("request is required", nil)
	}
	tzName, loc, err := s.resolveTimezone(req.Timezone)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today(loc)

	result, err := s.generate(ctx, &planner.Request{
		Subjects:     req.Subjects,
		Availability: req.Availability,
		Deadline:     req.Deadline,
		Today:        today,
	})
	if err != nil {
		return nil, err
	}

	payload := &planPayload{
		Subjects:      req.Subjects,
		Availability:  req.Availability,
		Notifications: result.Notifications,
		Statistics:    result.Statistics,
	}
	raw, err := payload.encode()
	if err != nil {
		return nil, apperrors.Internal("failed to store plan", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("%s until %s", DefaultPlanName, req.Deadline)
	}
	created, err := s.store.CreateStudyPlan(ctx, &store.StudyPlan{
		UID:      shortuuid.New(),
		Name:     name,
		Timezone: tzName,
		Deadline: req.Deadline,
		Payload:  raw,
	})
	if err != nil {
		return nil, apperrors.Internal("failed to store plan", err)
	}
	rc.WithPlan(created.UID)

	sessions := make([]*store.StudySession, 0, len(result.Schedule))
	for _, item := range result.Schedule {
		sessions = append(sessions, toStoreSession(created.ID, item))
	}
	if err := s.store.CreateStudySessions(ctx, sessions); err != nil {
		if cleanupErr := s.store.DeleteStudyPlan(ctx, &store.DeleteStudyPlan{ID: created.ID}); cleanupErr != nil {
			rc.Warn("failed to remove partially stored plan", slog.String("error", cleanupErr.Error()))
		}
		return nil, apperrors.Internal("failed to store sessions", err)
	}
	s.enqueueSync(ctx, rc, created.ID)

	s.metrics.RecordSchedule(len(result.Schedule), len(result.Notifications))
	rc.Info("plan generated",
		slog.Int(observability.LogFieldSessions, len(result.Schedule)),
		slog.Int(observability.LogFieldNotifications, len(result.Notifications)),
	)

	return &Plan{
		UID:           created.UID,
		Name:          created.Name,
		Timezone:      created.Timezone,
		Deadline:      created.Deadline,
		CreatedTs:     created.CreatedTs,
		UpdatedTs:     created.UpdatedTs,
		Synced:        created.Synced,
		AsOf:          today,
		Subjects:      payload.Subjects,
		Availability:  payload.Availability,
		Schedule:      result.Schedule,
		Notifications: payload.Notifications,
		Statistics:    result.Statistics,
	}, nil
}

func (s *service) ExtendPlan(ctx context.Context, uid string, req *ExtendRequest) (plan *Plan, err error) {
	rc := observability.RequestFromContext(ctx, OperationExtend).WithPlan(uid)
	defer func() { s.observe(rc, err) }()

	if req == nil {
		return nil, apperrors.InvalidArgument("request is required", nil)
	}
	stored, payload, err := s.loadPlan(ctx, uid)
	if err != nil {
		return nil, err
	}
	prior, err := s.loadSchedule(ctx, stored.ID)
	if err != nil {
		return nil, err
	}

	availability := payload.Availability
	if len(req.Availability) > 0 {
		availability = req.Availability
	}
	deadline := stored.Deadline
	if req.Deadline != nil {
		deadline = *req.Deadline
	}
	today := s.clock.Today(s.planLocation(stored))

	result, err := s.generate(ctx, &planner.Request{
		Subjects:      req.Subjects,
		Availability:  availability,
		Deadline:      deadline,
		Today:         today,
		PriorSchedule: prior,
	})
	if err != nil {
		return nil, err
	}

	priorMaxID := planner.MaxItemID(prior)
	var added []*store.StudySession
	for _, item := range result.Schedule {
		if item.ID > priorMaxID {
			added = append(added, toStoreSession(stored.ID, item))
		}
	}
	if err := s.store.CreateStudySessions(ctx, added); err != nil {
		return nil, apperrors.Internal("failed to store sessions", err)
	}

	payload.Subjects = append(payload.Subjects, req.Subjects...)
	payload.Availability = availability
	payload.Notifications = result.Notifications
	payload.Statistics = result.Statistics
	if err := s.savePlan(ctx, stored, payload, &deadline); err != nil {
		return nil, err
	}
	s.enqueueSync(ctx, rc, stored.ID)

	s.metrics.RecordSchedule(len(added), len(result.Notifications))
	rc.Info("plan extended",
		slog.Int(observability.LogFieldSessions, len(added)),
		slog.Int(observability.LogFieldNotifications, len(result.Notifications)),
	)

	return s.GetPlan(ctx, uid)
}

func (s *service) GetPlan(ctx context.Context, uid string) (plan *Plan, err error) {
	stored, payload, err := s.loadPlan(ctx, uid)
	if err != nil {
		return nil, err
	}
	schedule, err := s.loadSchedule(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today(s.planLocation(stored))

	return &Plan{
		UID:           stored.UID,
		Name:          stored.Name,
		Timezone:      stored.Timezone,
		Deadline:      stored.Deadline,
		CreatedTs:     stored.CreatedTs,
		UpdatedTs:     stored.UpdatedTs,
		Synced:        stored.Synced,
		AsOf:          today,
		Subjects:      payload.Subjects,
		Availability:  payload.Availability,
		Schedule:      schedule,
		Notifications: payload.Notifications,
		Statistics:    planner.CalculateStatistics(schedule, 0, today),
	}, nil
}

func (s *service) ListPlans(ctx context.Context) ([]*PlanSummary, error) {
	plans, err := s.store.ListStudyPlans(ctx, &store.FindStudyPlan{})
	if err != nil {
		return nil, apperrors.Internal("failed to list plans", err)
	}
	summaries := make([]*PlanSummary, 0, len(plans))
	for _, stored := range plans {
		payload, err := decodePayload(stored.Payload)
		if err != nil {
			return nil, apperrors.Internal("failed to list plans", err)
		}
		summaries = append(summaries, toSummary(stored, payload))
	}
	return summaries, nil
}

func (s *service) DeletePlan(ctx context.Context, uid string) (err error) {
	rc := observability.RequestFromContext(ctx, OperationDelete).WithPlan(uid)
	defer func() { s.observe(rc, err) }()

	stored, _, err := s.loadPlan(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.store.DeleteStudyPlan(ctx, &store.DeleteStudyPlan{ID: stored.ID}); err != nil {
		return apperrors.Internal("failed to delete plan", err)
	}
	rc.Info("plan deleted")
	return nil
}

func (s *service) SetSessionCompleted(ctx context.Context, uid string, sessionID int64, completed bool) (item *planner.ScheduleItem, err error) {
	rc := observability.RequestFromContext(ctx, OperationComplete).WithPlan(uid)
	defer func() { s.observe(rc, err) }()

	stored, payload, err := s.loadPlan(ctx, uid)
	if err != nil {
		return nil, err
	}
	session, err := s.store.GetStudySession(ctx, &store.FindStudySession{PlanID: &stored.ID, ID: &sessionID})
	if err != nil {
		return nil, apperrors.Internal("failed to get session", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("session", sessionID)
	}

	if session.Completed != completed {
		if err := s.store.UpdateStudySession(ctx, &store.UpdateStudySession{
			PlanID:    stored.ID,
			ID:        sessionID,
			Completed: &completed,
		}); err != nil {
			return nil, apperrors.Internal("failed to update session", err)
		}
		session.Completed = completed

		schedule, err := s.loadSchedule(ctx, stored.ID)
		if err != nil {
			return nil, err
		}
		payload.Statistics = planner.CalculateStatistics(schedule, 0, s.clock.Today(s.planLocation(stored)))
		if err := s.savePlan(ctx, stored, payload, nil); err != nil {
			return nil, err
		}
		s.enqueueSync(ctx, rc, stored.ID)
		rc.Debug("session updated", slog.Int64("session_id", sessionID), slog.Bool("completed", completed))
	}

	updated := toScheduleItem(session)
	return &updated, nil
}

func (s *service) ListSessions(ctx context.Context, uid string, expr string) ([]planner.ScheduleItem, error) {
	sessionFilter, err := filter.Compile(expr)
	if err != nil {
		return nil, apperrors.InvalidArgument("invalid session filter", err)
	}
	stored, _, err := s.loadPlan(ctx, uid)
	if err != nil {
		return nil, err
	}
	schedule, err := s.loadSchedule(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	matched, err := sessionFilter.Apply(schedule, s.clock.Today(s.planLocation(stored)))
	if err != nil {
		return nil, apperrors.InvalidArgument("invalid session filter", err)
	}
	return matched, nil
}

func (s *service) OverallStatistics(ctx context.Context) (*OverallStatistics, error) {
	plans, err := s.store.ListStudyPlans(ctx, &store.FindStudyPlan{})
	if err != nil {
		return nil, apperrors.Internal("failed to list plans", err)
	}
	stats := &OverallStatistics{TotalPlans: len(plans)}
	if len(plans) == 0 {
		return stats, nil
	}

	sessions, err := s.store.ListStudySessions(ctx, &store.FindStudySession{})
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions", err)
	}
	byPlan := make(map[int32][]*store.StudySession, len(plans))
	for _, session := range sessions {
		byPlan[session.PlanID] = append(byPlan[session.PlanID], session)
	}

	var minutes int64
	var rateSum float64
	for _, stored := range plans {
		today := s.clock.Today(s.planLocation(stored))
		if !stored.Deadline.Before(today) {
			stats.ActivePlans++
		}

		var past, done int
		for _, session := range byPlan[stored.ID] {
			minutes += int64(session.DurationMinutes)
			stats.TotalSessions++
			if session.Completed {
				stats.CompletedSessions++
			}
			if !session.Date.After(today) {
				past++
				if session.Completed {
					done++
				}
			}
		}
		if past > 0 {
			rateSum += float64(done) / float64(past) * 100
		}
	}

	stats.PlannedHours = math.Round(float64(minutes)/60*10) / 10
	stats.AverageCompletionRate = int(math.Round(rateSum / float64(len(plans))))
	return stats, nil
}

// generate runs the generator, bounded by the generation semaphore.
func (s *service) generate(ctx context.Context, req *planner.Request) (*planner.Result, error) {
	if err := s.generations.Acquire(ctx, 1); err != nil {
		return nil, apperrors.ContextCanceled(err)
	}
	defer s.generations.Release(1)

	result, err := s.generator.Generate(req)
	if err != nil {
		if errors.Is(err, planner.ErrInvalidInput) {
			return nil, apperrors.InvalidArgument("invalid plan request", err)
		}
		return nil, apperrors.Internal("failed to generate schedule", err)
	}
	return result, nil
}

func (s *service) loadPlan(ctx context.Context, uid string) (*store.StudyPlan, *planPayload, error) {
	if uid == "" {
		return nil, nil, apperrors.InvalidArgument("plan uid is required", nil)
	}
	stored, err := s.store.GetStudyPlan(ctx, &store.FindStudyPlan{UID: &uid})
	if err != nil {
		return nil, nil, apperrors.Internal("failed to get plan", err)
	}
	if stored == nil {
		return nil, nil, apperrors.NotFound("plan", uid)
	}
	payload, err := decodePayload(stored.Payload)
	if err != nil {
		return nil, nil, apperrors.Internal("failed to get plan", err)
	}
	return stored, payload, nil
}

func (s *service) loadSchedule(ctx context.Context, planID int32) ([]planner.ScheduleItem, error) {
	sessions, err := s.store.ListStudySessions(ctx, &store.FindStudySession{PlanID: &planID})
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions", err)
	}
	return toScheduleItems(sessions), nil
}

// savePlan writes the payload back and marks the plan as not synced.
func (s *service) savePlan(ctx context.Context, stored *store.StudyPlan, payload *planPayload, deadline *civil.Date) error {
	raw, err := payload.encode()
	if err != nil {
		return apperrors.Internal("failed to update plan", err)
	}
	now := s.clock().Unix()
	synced := false
	if err := s.store.UpdateStudyPlan(ctx, &store.UpdateStudyPlan{
		ID:        stored.ID,
		UpdatedTs: &now,
		Deadline:  deadline,
		Payload:   &raw,
		Synced:    &synced,
	}); err != nil {
		return apperrors.Internal("failed to update plan", err)
	}
	return nil
}

// enqueueSync queues the plan for the sync runner. A failure is logged and
// the plan stays unsynced until its next change.
func (s *service) enqueueSync(ctx context.Context, rc *observability.RequestContext, planID int32) {
	if !s.syncEnabled {
		return
	}
	if err := s.store.EnqueuePlanSync(ctx, planID); err != nil {
		rc.Warn("failed to enqueue plan sync", slog.String("error", err.Error()))
	}
}

func (s *service) resolveTimezone(name string) (string, *time.Location, error) {
	if name == "" {
		return s.location.String(), s.location, nil
	}
	loc, err := timezone.ParseTimezone(name)
	if err != nil {
		return "", nil, apperrors.InvalidArgument("invalid timezone", err)
	}
	return name, loc, nil
}

func (s *service) planLocation(stored *store.StudyPlan) *time.Location {
	loc, err := timezone.ParseTimezone(stored.Timezone)
	if err != nil {
		return s.location
	}
	return loc
}

func (s *service) observe(rc *observability.RequestContext, err error) {
	s.metrics.RecordRequest(rc.Operation)
	s.metrics.RecordDuration(rc.Operation, rc.Duration())
	if err != nil {
		s.metrics.RecordFailure(rc.Operation)
		code := apperrors.GetCodeFromError(err, apperrors.ErrCodeInternal)
		rc.Error("plan operation failed", err, slog.String(observability.LogFieldErrorCode, string(code)))
	}
}
