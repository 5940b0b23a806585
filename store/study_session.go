package store

import (
	"context"

	"cloud.google.com/go/civil"
)

// StudySession is one scheduled session of a plan. ID is the schedule item
// id, unique within its plan.
type StudySession struct {
	PlanID int32
	ID     int64

	Date            civil.Date
	DisciplineName  string
	SubjectName     string
	DurationMinutes int32
	Completed       bool
	Type            string
	ReviewCycle     int32
	PriorityScore   int32
	AtRisk          bool
}

// FindStudySession is the find condition for study sessions.
type FindStudySession struct {
	PlanID    *int32
	ID        *int64
	Completed *bool
	Type      *string

	// Inclusive date range.
	DateFrom *civil.Date
	DateTo   *civil.Date
}

// UpdateStudySession is the update request for a study session.
type UpdateStudySession struct {
	PlanID    int32
	ID        int64
	Completed *bool
}

// CreateStudySessions inserts sessions in one transaction. Existing sessions
// with the same (plan, id) are left untouched.
func (s *Store) CreateStudySessions(ctx context.Context, sessions []*StudySession) error {
	if len(sessions) == 0 {
		return nil
	}
	return s.driver.CreateStudySessions(ctx, sessions)
}

// ListStudySessions lists sessions ordered by date then id.
func (s *Store) ListStudySessions(ctx context.Context, find *FindStudySession) ([]*StudySession, error) {
	return s.driver.ListStudySessions(ctx, find)
}

// GetStudySession returns the session matching find, or nil.
func (s *Store) GetStudySession(ctx context.Context, find *FindStudySession) (*StudySession, error) {
	list, err := s.driver.ListStudySessions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateStudySession updates a session.
func (s *Store) UpdateStudySession(ctx context.Context, update *UpdateStudySession) error {
	return s.driver.UpdateStudySession(ctx, update)
}
