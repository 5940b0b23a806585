package store

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
)

// StudyPlan is a generated schedule and the inputs it was generated from.
type StudyPlan struct {
	ID        int32
	UID       string
	CreatedTs int64
	UpdatedTs int64

	Name     string
	Timezone string
	Deadline civil.Date
	// Payload is the JSON document holding subjects, availability,
	// notifications and statistics of the plan.
	Payload string
	// Synced is false while local changes have not reached the remote copy.
	Synced bool
}

// FindStudyPlan is the find condition for study plans.
type FindStudyPlan struct {
	ID     *int32
	UID    *string
	Synced *bool

	// Plans whose deadline is on or after the date.
	DeadlineFrom *civil.Date

	// Pagination
	Limit  *int
	Offset *int
}

// UpdateStudyPlan is the update request for study plans.
type UpdateStudyPlan struct {
	ID        int32
	UpdatedTs *int64
	Name      *string
	Deadline  *civil.Date
	Payload   *string
	Synced    *bool
}

// DeleteStudyPlan is the delete request for study plans. Sessions and
// pending sync entries of the plan are removed with it.
type DeleteStudyPlan struct {
	ID int32
}

// CreateStudyPlan creates a new study plan.
func (s *Store) CreateStudyPlan(ctx context.Context, create *StudyPlan) (*StudyPlan, error) {
	plan, err := s.driver.CreateStudyPlan(ctx, create)
	if err != nil {
		return nil, err
	}
	s.planCache.Set(ctx, planCacheKey(plan.UID), clonePlan(plan))
	return plan, nil
}

// ListStudyPlans lists study plans ordered by creation, newest first.
func (s *Store) ListStudyPlans(ctx context.Context, find *FindStudyPlan) ([]*StudyPlan, error) {
	return s.driver.ListStudyPlans(ctx, find)
}

// GetStudyPlan returns the single plan matching find, or nil when none does.
// Lookups by UID go through the plan cache.
func (s *Store) GetStudyPlan(ctx context.Context, find *FindStudyPlan) (*StudyPlan, error) {
	if find.UID != nil && find.ID == nil && find.Synced == nil {
		if cached, ok := s.planCache.Get(ctx, planCacheKey(*find.UID), nil); ok {
			if plan, err := decodeCachedPlan(cached); err == nil {
				return plan, nil
			}
		}
	}

	list, err := s.driver.ListStudyPlans(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	plan := list[0]
	s.planCache.Set(ctx, planCacheKey(plan.UID), clonePlan(plan))
	return plan, nil
}

// UpdateStudyPlan updates a study plan and drops it from the cache.
func (s *Store) UpdateStudyPlan(ctx context.Context, update *UpdateStudyPlan) error {
	plan, err := s.GetStudyPlan(ctx, &FindStudyPlan{ID: &update.ID})
	if err != nil {
		return err
	}
	if err := s.driver.UpdateStudyPlan(ctx, update); err != nil {
		return err
	}
	if plan != nil {
		s.planCache.Delete(ctx, planCacheKey(plan.UID))
	}
	return nil
}

// DeleteStudyPlan deletes a study plan with its sessions.
func (s *Store) DeleteStudyPlan(ctx context.Context, delete *DeleteStudyPlan) error {
	plan, err := s.GetStudyPlan(ctx, &FindStudyPlan{ID: &delete.ID})
	if err != nil {
		return err
	}
	if err := s.driver.DeleteStudyPlan(ctx, delete); err != nil {
		return err
	}
	if plan != nil {
		s.planCache.Delete(ctx, planCacheKey(plan.UID))
	}
	return nil
}

func planCacheKey(uid string) string {
	return "plan:" + uid
}

// decodeCachedPlan accepts the in-memory value or the JSON bytes the redis
// tier hands back.
func decodeCachedPlan(value any) (*StudyPlan, error) {
	switch v := value.(type) {
	case *StudyPlan:
		return clonePlan(v), nil
	case []byte:
		plan := &StudyPlan{}
		if err := json.Unmarshal(v, plan); err != nil {
			return nil, errors.Wrap(err, "failed to decode cached plan")
		}
		return plan, nil
	default:
		return nil, errors.Errorf("unexpected cached plan type %T", value)
	}
}

func clonePlan(plan *StudyPlan) *StudyPlan {
	copied := *plan
	return &copied
}
