package plan

import (
	"encoding/json"
	"fmt"

	"github.com/hrygo/studyplan/server/planner"
	"github.com/hrygo/studyplan/store"
)

// planPayload is the JSON document stored in study_plan.payload.
type planPayload struct {
	Subjects      []planner.Subject             `json:"subjects"`
	Availability  []planner.WeekdayAvailability `json:"availability"`
	Notifications []string                      `json:"notifications"`
	Statistics    planner.Statistics            `json:"statistics"`
}

func (p *planPayload) encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode plan payload: %w", err)
	}
	return string(raw), nil
}

func decodePayload(raw string) (*planPayload, error) {
	payload := &planPayload{}
	if raw == "" {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		return nil, fmt.Errorf("failed to decode plan payload: %w", err)
	}
	return payload, nil
}

func toStoreSession(planID int32, item planner.ScheduleItem) *store.StudySession {
	return &store.StudySession{
		PlanID:          planID,
		ID:              item.ID,
		Date:            item.Date,
		DisciplineName:  item.DisciplineName,
		SubjectName:     item.SubjectName,
		DurationMinutes: int32(item.DurationMinutes),
		Completed:       item.Completed,
		Type:            string(item.Type),
		ReviewCycle:     int32(item.ReviewCycle),
		PriorityScore:   int32(item.PriorityScore),
		AtRisk:          item.AtRisk,
	}
}

func toScheduleItem(session *store.StudySession) planner.ScheduleItem {
	return planner.ScheduleItem{
		ID:              session.ID,
		Date:            session.Date,
		DisciplineName:  session.DisciplineName,
		SubjectName:     session.SubjectName,
		DurationMinutes: planner.Minutes(session.DurationMinutes),
		Completed:       session.Completed,
		Type:            planner.SessionType(session.Type),
		ReviewCycle:     int(session.ReviewCycle),
		PriorityScore:   int(session.PriorityScore),
		AtRisk:          session.AtRisk,
	}
}

func toScheduleItems(sessions []*store.StudySession) []planner.ScheduleItem {
	items := make([]planner.ScheduleItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, toScheduleItem(session))
	}
	return items
}

func toSummary(plan *store.StudyPlan, payload *planPayload) *PlanSummary {
	return &PlanSummary{
		UID:        plan.UID,
		Name:       plan.Name,
		Timezone:   plan.Timezone,
		Deadline:   plan.Deadline,
		CreatedTs:  plan.CreatedTs,
		UpdatedTs:  plan.UpdatedTs,
		Synced:     plan.Synced,
		Statistics: payload.Statistics,
	}
}
