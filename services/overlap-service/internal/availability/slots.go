package availability

import (
	"iter"
	"time"
)

const (
	ThirtyMinutes = 30 * time.Minute
	SixtyMinutes  = 60 * time.Minute

	// SlotStep separates consecutive slot starts at every granularity, so
	// 60-minute slots form a sliding window that overlaps by 30 minutes.
	SlotStep = 30 * time.Minute
)

// Slot is a candidate meeting time inside an overlap.
type Slot struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// EnumerateSlots yields every slot of length d that starts on a SlotStep
// boundary from iv.Start and fits within iv. The sequence can be ranged over
// any number of times.
func EnumerateSlots(iv Interval, d time.Duration) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if d <= 0 || iv.Empty() {
			return
		}
		for cur := iv.Start; !cur.Add(d).After(iv.End); cur = cur.Add(SlotStep) {
			if !yield(Slot{Start: cur, End: cur.Add(d), Duration: d}) {
				return
			}
		}
	}
}
