package plan

import (
	"context"
	stderrors "errors"
	"sort"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/studyplan/server/internal/errors"
	"github.com/hrygo/studyplan/server/internal/observability"
	"github.com/hrygo/studyplan/server/planner"
	"github.com/hrygo/studyplan/server/timezone"
	"github.com/hrygo/studyplan/store"
)

// MockStoreForPlan is an in-memory implementation of the Store interface.
type MockStoreForPlan struct {
	plans    []*store.StudyPlan
	sessions []*store.StudySession
	queue    []int32
	nextID   int32

	failSessions bool
}

func (m *MockStoreForPlan) CreateStudyPlan(ctx context.Context, create *store.StudyPlan) (*store.StudyPlan, error) {
	m.nextID++
	created := *create
	created.ID = m.nextID
	created.CreatedTs = int64(1000 + m.nextID)
	created.UpdatedTs = created.CreatedTs
	m.plans = append(m.plans, &created)
	copied := created
	return &copied, nil
}

func (m *MockStoreForPlan) GetStudyPlan(ctx context.Context, find *store.FindStudyPlan) (*store.StudyPlan, error) {
	list, err := m.ListStudyPlans(ctx, find)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (m *MockStoreForPlan) ListStudyPlans(ctx context.Context, find *store.FindStudyPlan) ([]*store.StudyPlan, error) {
	result := make([]*store.StudyPlan, 0)
	for i := len(m.plans) - 1; i >= 0; i-- {
		plan := m.plans[i]
		if find.ID != nil && plan.ID != *find.ID {
			continue
		}
		if find.UID != nil && plan.UID != *find.UID {
			continue
		}
		copied := *plan
		result = append(result, &copied)
	}
	return result, nil
}

func (m *MockStoreForPlan) UpdateStudyPlan(ctx context.Context, update *store.UpdateStudyPlan) error {
	for _, plan := range m.plans {
		if plan.ID != update.ID {
			continue
		}
		if update.UpdatedTs != nil {
			plan.UpdatedTs = *update.UpdatedTs
		}
		if update.Name != nil {
			plan.Name = *update.Name
		}
		if update.Deadline != nil {
			plan.Deadline = *update.Deadline
		}
		if update.Payload != nil {
			plan.Payload = *update.Payload
		}
		if update.Synced != nil {
			plan.Synced = *update.Synced
		}
	}
	return nil
}

func (m *MockStoreForPlan) DeleteStudyPlan(ctx context.Context, delete *store.DeleteStudyPlan) error {
	plans := m.plans[:0]
	for _, plan := range m.plans {
		if plan.ID != delete.ID {
			plans = append(plans, plan)
		}
	}
	m.plans = plans

	sessions := m.sessions[:0]
	for _, session := range m.sessions {
		if session.PlanID != delete.ID {
			sessions = append(sessions, session)
		}
	}
	m.sessions = sessions
	return nil
}

func (m *MockStoreForPlan) CreateStudySessions(ctx context.Context, sessions []*store.StudySession) error {
	if m.failSessions {
		return stderrors.New("disk full")
	}
	for _, session := range sessions {
		copied := *session
		m.sessions = append(m.sessions, &copied)
	}
	return nil
}

func (m *MockStoreForPlan) ListStudySessions(ctx context.Context, find *store.FindStudySession) ([]*store.StudySession, error) {
	result := make([]*store.StudySession, 0)
	for _, session := range m.sessions {
		if find.PlanID != nil && session.PlanID != *find.PlanID {
			continue
		}
		if find.ID != nil && session.ID != *find.ID {
			continue
		}
		copied := *session
		result = append(result, &copied)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MockStoreForPlan) GetStudySession(ctx context.Context, find *store.FindStudySession) (*store.StudySession, error) {
	list, err := m.ListStudySessions(ctx, find)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (m *MockStoreForPlan) UpdateStudySession(ctx context.Context, update *store.UpdateStudySession) error {
	for _, session := range m.sessions {
		if session.PlanID == update.PlanID && session.ID == update.ID && update.Completed != nil {
			session.Completed = *update.Completed
		}
	}
	return nil
}

func (m *MockStoreForPlan) EnqueuePlanSync(ctx context.Context, planID int32) error {
	for _, id := range m.queue {
		if id == planID {
			return nil
		}
	}
	m.queue = append(m.queue, planID)
	return nil
}

// 2025-06-02 is a Monday.
var testToday = civil.Date{Year: 2025, Month: time.June, Day: 2}

func newTestService(t *testing.T, st Store, opts Options) Service {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = timezone.FixedClock(time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC))
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics(100)
	}
	svc, err := NewService(st, opts)
	require.NoError(t, err)
	return svc
}

func testSubject(name string, difficulty, importance planner.Level) planner.Subject {
	return planner.Subject{
		DisciplineName: "Medicine",
		Name:           name,
		Difficulty:     difficulty,
		Importance:     importance,
		EstimatedHours: 2,
	}
}

func generateTestPlan(t *testing.T, svc Service) *Plan {
	t.Helper()
	plan, err := svc.GeneratePlan(context.Background(), &GenerateRequest{
		Name: "Boards",
		Subjects: []planner.Subject{
			testSubject("Cardiology", planner.LevelHigh, planner.LevelHigh),
			testSubject("Dermatology", planner.LevelLow, planner.LevelLow),
		},
		Availability: planner.NewWeekAvailability(2),
		Deadline:     testToday.AddDays(60),
	})
	require.NoError(t, err)
	return plan
}

func TestService_GeneratePlan(t *testing.T) {
	st := &MockStoreForPlan{}
	metrics := observability.NewMetrics(100)
	svc := newTestService(t, st, Options{SyncEnabled: true, Metrics: metrics})

	plan := generateTestPlan(t, svc)

	assert.NotEmpty(t, plan.UID)
	assert.Equal(t, "Boards", plan.Name)
	assert.Equal(t, "UTC", plan.Timezone)
	assert.Equal(t, testToday, plan.AsOf)
	assert.False(t, plan.Synced)
	// 1 study + 5 reviews for Cardiology, 1 study + 1 review for Dermatology.
	assert.Len(t, plan.Schedule, 8)
	assert.Empty(t, plan.Notifications)
	assert.Equal(t, 8, plan.Statistics.TotalSessions)
	assert.Equal(t, 2, plan.Statistics.StudySessions)

	require.Len(t, st.sessions, 8)
	assert.Equal(t, []int32{1}, st.queue)

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.RequestTotal)
	assert.Equal(t, int64(0), snapshot.RequestFailed)
	assert.Equal(t, int64(8), snapshot.Sessions)

	got, err := svc.GetPlan(context.Background(), plan.UID)
	require.NoError(t, err)
	assert.Equal(t, plan.Schedule, got.Schedule)
	assert.Equal(t, plan.Subjects, got.Subjects)
}

func TestService_GeneratePlan_DefaultsAndTimezone(t *testing.T) {
	// 23:30 UTC on June 2 is already June 3 in Tokyo.
	st := &MockStoreForPlan{}
	svc := newTestService(t, st, Options{
		Clock: timezone.FixedClock(time.Date(2025, time.June, 2, 23, 30, 0, 0, time.UTC)),
	})

	plan, err := svc.GeneratePlan(context.Background(), &GenerateRequest{
		Subjects:     []planner.Subject{testSubject("Genetics", planner.LevelLow, planner.LevelLow)},
		Availability: planner.NewWeekAvailability(1),
		Deadline:     testToday.AddDays(10),
		Timezone:     "Asia/Tokyo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Study plan until 2025-06-12", plan.Name)
	assert.Equal(t, "Asia/Tokyo", plan.Timezone)
	assert.Equal(t, testToday.AddDays(1), plan.AsOf)
	require.NotEmpty(t, plan.Schedule)
	assert.Equal(t, testToday.AddDays(1), plan.Schedule[0].Date)
	assert.Empty(t, st.queue, "sync disabled")
}

func TestService_GeneratePlan_InvalidInput(t *testing.T) {
	metrics := observability.NewMetrics(100)
	svc := newTestService(t, &MockStoreForPlan{}, Options{Metrics: metrics})

	tests := []struct {
		name string
		req  *GenerateRequest
	}{
		{"nil request", nil},
		{"no subjects", &GenerateRequest{Availability: planner.NewWeekAvailability(1), Deadline: testToday.AddDays(5)}},
		{"deadline today", &GenerateRequest{
			Subjects:     []planner.Subject{testSubject("x", planner.LevelLow, planner.LevelLow)},
			Availability: planner.NewWeekAvailability(1),
			Deadline:     testToday,
		}},
		{"bad timezone", &GenerateRequest{
			Subjects:     []planner.Subject{testSubject("x", planner.LevelLow, planner.LevelLow)},
			Availability: planner.NewWeekAvailability(1),
			Deadline:     testToday.AddDays(5),
			Timezone:     "Mars/Olympus",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GeneratePlan(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument), err.Error())
		})
	}
	assert.Equal(t, int64(len(tests)), metrics.Snapshot().RequestFailed)
}

func TestService_GeneratePlan_SessionFailureRemovesPlan(t *testing.T) {
	st := &MockStoreForPlan{failSessions: true}
	svc := newTestService(t, st, Options{})

	_, err := svc.GeneratePlan(context.Background(), &GenerateRequest{
		Subjects:     []planner.Subject{testSubject("x", planner.LevelLow, planner.LevelLow)},
		Availability: planner.NewWeekAvailability(1),
		Deadline:     testToday.AddDays(5),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInternal))
	assert.Empty(t, st.plans)
}

func TestService_ExtendPlan(t *testing.T) {
	st := &MockStoreForPlan{}
	svc := newTestService(t, st, Options{SyncEnabled: true})
	plan := generateTestPlan(t, svc)
	before := plan.Schedule
	st.queue = nil

	newDeadline := testToday.AddDays(90)
	extended, err := svc.ExtendPlan(context.Background(), plan.UID, &ExtendRequest{
		Subjects: []planner.Subject{testSubject("Neurology", planner.LevelMedium, planner.LevelHigh)},
		Deadline: &newDeadline,
	})
	require.NoError(t, err)

	assert.Equal(t, newDeadline, extended.Deadline)
	assert.Len(t, extended.Subjects, 3)
	// Neurology scores 6: 1 study + 3 reviews.
	require.Len(t, extended.Schedule, len(before)+4)
	assert.Equal(t, []int32{1}, st.queue)
	assert.False(t, extended.Synced)

	byID := make(map[int64]planner.ScheduleItem, len(extended.Schedule))
	for _, item := range extended.Schedule {
		byID[item.ID] = item
	}
	for _, item := range before {
		assert.Equal(t, item, byID[item.ID], "existing session %d changed", item.ID)
	}
	maxBefore := planner.MaxItemID(before)
	for id := maxBefore + 1; id <= maxBefore+4; id++ {
		assert.Equal(t, "Neurology", byID[id].SubjectName)
	}
}

func TestService_ExtendPlan_NotFound(t *testing.T) {
	svc := newTestService(t, &MockStoreForPlan{}, Options{})
	_, err := svc.ExtendPlan(context.Background(), "missing", &ExtendRequest{
		Subjects: []planner.Subject{testSubject("x", planner.LevelLow, planner.LevelLow)},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestService_SetSessionCompleted(t *testing.T) {
	st := &MockStoreForPlan{}
	svc := newTestService(t, st, Options{SyncEnabled: true})
	plan := generateTestPlan(t, svc)
	st.plans[0].Synced = true
	st.queue = nil

	first := plan.Schedule[0]
	item, err := svc.SetSessionCompleted(context.Background(), plan.UID, first.ID, true)
	require.NoError(t, err)
	assert.True(t, item.Completed)
	assert.Equal(t, first.ID, item.ID)
	assert.False(t, st.plans[0].Synced)
	assert.Equal(t, []int32{1}, st.queue)

	done, err := svc.ListSessions(context.Background(), plan.UID, "completed")
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, first.ID, done[0].ID)

	_, err = svc.SetSessionCompleted(context.Background(), plan.UID, 999, true)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestService_ListSessions_Filter(t *testing.T) {
	svc := newTestService(t, &MockStoreForPlan{}, Options{})
	plan := generateTestPlan(t, svc)

	reviews, err := svc.ListSessions(context.Background(), plan.UID, `type == "review" && subject == "Cardiology"`)
	require.NoError(t, err)
	assert.Len(t, reviews, 5)

	all, err := svc.ListSessions(context.Background(), plan.UID, "")
	require.NoError(t, err)
	assert.Len(t, all, len(plan.Schedule))

	_, err = svc.ListSessions(context.Background(), plan.UID, "type ==")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
}

func TestService_ListAndDeletePlans(t *testing.T) {
	st := &MockStoreForPlan{}
	svc := newTestService(t, st, Options{})
	first := generateTestPlan(t, svc)
	second := generateTestPlan(t, svc)

	summaries, err := svc.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second.UID, summaries[0].UID)
	assert.Equal(t, 8, summaries[1].Statistics.TotalSessions)

	require.NoError(t, svc.DeletePlan(context.Background(), first.UID))
	_, err = svc.GetPlan(context.Background(), first.UID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	assert.Len(t, st.sessions, 8)

	err = svc.DeletePlan(context.Background(), first.UID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestService_OverallStatistics(t *testing.T) {
	st := &MockStoreForPlan{}
	svc := newTestService(t, st, Options{})

	empty, err := svc.OverallStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &OverallStatistics{}, empty)

	plan := generateTestPlan(t, svc)
	_ = generateTestPlan(t, svc)

	// Both study sessions of each plan are on today; complete one of them.
	_, err = svc.SetSessionCompleted(context.Background(), plan.UID, plan.Schedule[0].ID, true)
	require.NoError(t, err)

	// An expired plan with one past pending session.
	expired, err := st.CreateStudyPlan(context.Background(), &store.StudyPlan{UID: "old", Timezone: "UTC", Deadline: testToday.AddDays(-1)})
	require.NoError(t, err)
	require.NoError(t, st.CreateStudySessions(context.Background(), []*store.StudySession{
		{PlanID: expired.ID, ID: 1, Date: testToday.AddDays(-3), DurationMinutes: 45, Type: "study"},
	}))

	stats, err := svc.OverallStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalPlans)
	assert.Equal(t, 2, stats.ActivePlans)
	assert.Equal(t, 17, stats.TotalSessions)
	assert.Equal(t, 1, stats.CompletedSessions)
	// Two plans of 2*60 + 6*30 minutes plus 45 minutes.
	assert.Equal(t, 10.8, stats.PlannedHours)
	// (50 + 0 + 0) / 3 across the two live plans and the expired one.
	assert.Equal(t, 17, stats.AverageCompletionRate)
}

func TestNewService_RejectsBadPlannerConfig(t *testing.T) {
	_, err := NewService(&MockStoreForPlan{}, Options{Planner: planner.Config{ReviewCadence: []int{3, 1}}})
	assert.Error(t, err)
}
