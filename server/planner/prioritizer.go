package planner

import "sort"

// PriorityScore is difficulty points times importance points, in 1..9.
func PriorityScore(s Subject) int {
	return s.Difficulty.Points() * s.Importance.Points()
}

// ReviewCount returns the number of spaced reviews for a priority score
// using the default thresholds.
func ReviewCount(score int) int {
	return DefaultConfig().reviewCount(score)
}

// Prioritize returns the subjects ordered by descending priority score.
// Subjects with equal scores keep their input order, which decides who gets
// first pick of scarce days.
func Prioritize(subjects []Subject) []Subject {
	ordered := append([]Subject(nil), subjects...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return PriorityScore(ordered[i]) > PriorityScore(ordered[j])
	})
	return ordered
}
