package planner

import (
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultStudyDuration is the length of the single first-exposure session per subject.
	DefaultStudyDuration Minutes = 60

	// DefaultReviewDuration is the length of every spaced review session.
	DefaultReviewDuration Minutes = 30

	// DefaultMaxSlotAttempts bounds the slot search so it always terminates.
	DefaultMaxSlotAttempts = 5

	// DefaultAtRiskThreshold marks subjects whose performance is below it.
	DefaultAtRiskThreshold = 70.0
)

// DefaultReviewCadence is the days-after-study offset of each review cycle.
var DefaultReviewCadence = []int{1, 3, 7, 14, 30}

// ReviewThreshold maps a minimum priority score to a number of reviews.
type ReviewThreshold struct {
	MinScore int `json:"min_score"`
	Reviews  int `json:"reviews"`
}

// DefaultReviewThresholds buckets scores 1-2, 3-4, 5-6, 7-8 and 9 into 1..5 reviews.
var DefaultReviewThresholds = []ReviewThreshold{
	{MinScore: 9, Reviews: 5},
	{MinScore: 7, Reviews: 4},
	{MinScore: 5, Reviews: 3},
	{MinScore: 3, Reviews: 2},
}

// Performance bands used when review intervals adapt to performance.
const (
	adaptLowBelow    = 70.0
	adaptMediumBelow = 90.0
	adaptLowFactor   = 0.7
	adaptHighFactor  = 1.3
)

// Config tunes the generator. Zero values are replaced by the defaults above.
type Config struct {
	StudyDuration    Minutes           `json:"study_duration"`
	ReviewDuration   Minutes           `json:"review_duration"`
	ReviewCadence    []int             `json:"review_cadence"`
	ReviewThresholds []ReviewThreshold `json:"review_thresholds"`
	MaxSlotAttempts  int               `json:"max_slot_attempts"`
	AtRiskThreshold  float64           `json:"at_risk_threshold"`

	// AdaptIntervalsToPerformance scales review offsets by the subject's
	// performance: x0.7 below 70, x1.0 below 90, x1.3 otherwise.
	AdaptIntervalsToPerformance bool `json:"adapt_intervals_to_performance"`
}

// DefaultConfig returns the configuration every default run uses.
func DefaultConfig() Config {
	cfg, _ := Config{}.normalize()
	return cfg
}

func (c Config) normalize() (Config, error) {
	if c.StudyDuration == 0 {
		c.StudyDuration = DefaultStudyDuration
	}
	if c.ReviewDuration == 0 {
		c.ReviewDuration = DefaultReviewDuration
	}
	if c.ReviewCadence == nil {
		c.ReviewCadence = append([]int(nil), DefaultReviewCadence...)
	}
	if c.ReviewThresholds == nil {
		c.ReviewThresholds = append([]ReviewThreshold(nil), DefaultReviewThresholds...)
	}
	if c.MaxSlotAttempts == 0 {
		c.MaxSlotAttempts = DefaultMaxSlotAttempts
	}
	if c.AtRiskThreshold == 0 {
		c.AtRiskThreshold = DefaultAtRiskThreshold
	}

	if c.StudyDuration < 0 || c.ReviewDuration < 0 {
		return c, fmt.Errorf("planner: session durations must be positive")
	}
	if c.MaxSlotAttempts < 0 {
		return c, fmt.Errorf("planner: max slot attempts %d must be positive", c.MaxSlotAttempts)
	}
	for i, offset := range c.ReviewCadence {
		if offset <= 0 {
			return c, fmt.Errorf("planner: review cadence offset %d must be positive", offset)
		}
		if i > 0 && offset <= c.ReviewCadence[i-1] {
			return c, fmt.Errorf("planner: review cadence must be strictly increasing")
		}
	}
	for _, t := range c.ReviewThresholds {
		if t.Reviews <= 0 {
			return c, fmt.Errorf("planner: threshold for score %d must grant at least one review", t.MinScore)
		}
	}

	// Highest threshold first so the first match wins.
	sort.SliceStable(c.ReviewThresholds, func(i, j int) bool {
		return c.ReviewThresholds[i].MinScore > c.ReviewThresholds[j].MinScore
	})
	return c, nil
}

// reviewCount returns how many reviews a subject with the given score gets.
func (c Config) reviewCount(score int) int {
	for _, t := range c.ReviewThresholds {
		if score >= t.MinScore {
			return t.Reviews
		}
	}
	return 1
}

// reviewOffsets returns the first n cadence offsets for the subject.
func (c Config) reviewOffsets(subject Subject, n int) []int {
	if n > len(c.ReviewCadence) {
		n = len(c.ReviewCadence)
	}
	offsets := append([]int(nil), c.ReviewCadence[:n]...)
	if !c.AdaptIntervalsToPerformance || subject.Performance == nil {
		return offsets
	}

	factor := 1.0
	switch p := *subject.Performance; {
	case p < adaptLowBelow:
		factor = adaptLowFactor
	case p >= adaptMediumBelow:
		factor = adaptHighFactor
	}
	for i, offset := range offsets {
		offsets[i] = max(1, int(math.Round(float64(offset)*factor)))
	}
	return offsets
}
