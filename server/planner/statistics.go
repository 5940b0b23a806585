package planner

import "cloud.google.com/go/civil"

// CalculateStatistics counts the sessions of schedule. Sessions with an id
// above createdAfter were created by the current run; only those count
// towards at-risk subjects. Pass 0 to count every session.
func CalculateStatistics(schedule []ScheduleItem, createdAfter int64, today civil.Date) Statistics {
	stats := Statistics{TotalSessions: len(schedule)}
	atRisk := make(map[subjectKey]struct{})
	for _, item := range schedule {
		switch item.Type {
		case SessionStudy:
			stats.StudySessions++
		case SessionReview:
			stats.ReviewSessions++
		}
		if !item.Completed && item.Date.Before(today) {
			stats.OverdueSessions++
		}
		if item.AtRisk && item.ID > createdAfter {
			atRisk[subjectKey{item.DisciplineName, item.SubjectName}] = struct{}{}
		}
	}
	stats.AtRiskSubjectCount = len(atRisk)
	return stats
}

type subjectKey struct {
	discipline string
	subject    string
}
