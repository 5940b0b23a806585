package planner

import (
	"sort"

	"cloud.google.com/go/civil"
)

// Window is an inclusive range of calendar dates.
type Window struct {
	From civil.Date
	To   civil.Date
}

func (w Window) validate() error {
	if !w.From.IsValid() || !w.To.IsValid() {
		return windowError("window bounds %s..%s are not valid dates", w.From, w.To)
	}
	if w.To.Before(w.From) {
		return windowError("window ends %s before it starts %s", w.To, w.From)
	}
	return nil
}

func (w Window) contains(d civil.Date) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// SlotFinder picks the date a session goes on.
type SlotFinder struct {
	capacity    *CapacityTracker
	horizon     Window
	maxAttempts int
}

// NewSlotFinder returns a finder whose fallback search covers horizon, the
// [today, deadline] range of the run.
func NewSlotFinder(capacity *CapacityTracker, horizon Window, maxAttempts int) *SlotFinder {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxSlotAttempts
	}
	return &SlotFinder{
		capacity:    capacity,
		horizon:     horizon,
		maxAttempts: maxAttempts,
	}
}

type slotCandidate struct {
	date  civil.Date
	score int
}

// Find returns the earliest eligible date in window with room for duration
// and commits the capacity. With a preferred date only that date is tried
// first; if it is full the search falls back once to the whole horizon.
// A miss is reported with ok=false; errors are reserved for malformed windows.
func (f *SlotFinder) Find(subject Subject, duration Minutes, window Window, preferred *civil.Date) (date civil.Date, ok bool, err error) {
	if err := window.validate(); err != nil {
		return civil.Date{}, false, err
	}

	score := PriorityScore(subject)
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		search := window
		if preferred != nil {
			search = Window{From: *preferred, To: *preferred}
			if !window.contains(*preferred) {
				search = Window{}
			}
		}

		candidates := f.candidates(search, duration, score)
		if len(candidates) > 0 {
			// Every candidate of one call carries the same score, so the
			// stable sort keeps date order and the earliest day wins.
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].score > candidates[j].score
			})
			best := candidates[0]
			f.capacity.Commit(best.date, duration)
			return best.date, true, nil
		}

		if preferred == nil {
			break
		}
		preferred = nil
		window = f.horizon
	}
	return civil.Date{}, false, nil
}

func (f *SlotFinder) candidates(search Window, duration Minutes, score int) []slotCandidate {
	var candidates []slotCandidate
	if !search.From.IsValid() {
		return candidates
	}
	for d := search.From; !d.After(search.To); d = d.AddDays(1) {
		if f.capacity.IsSelected(d) && f.capacity.HasCapacity(d, duration) {
			candidates = append(candidates, slotCandidate{date: d, score: score})
		}
	}
	return candidates
}
