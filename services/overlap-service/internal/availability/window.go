package availability

import (
	"time"

	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/zoned"
)

// WorkWindow is one person's daily availability in their own zone.
type WorkWindow struct {
	Zone  string
	Start zoned.WallClock
	End   zoned.WallClock
}

// CrossesMidnight reports whether the window ends on the following day.
func (w WorkWindow) CrossesMidnight() bool {
	return w.End.Before(w.Start)
}

// Interval is a half-open range [Start, End) of absolute instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the interval covers no time.
func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	if i.Empty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Contains reports whether other lies fully inside i.
func (i Interval) Contains(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// Intersect returns the range common to a and b. ok is false when they share
// no time; that is an ordinary outcome, not an error.
func Intersect(a, b Interval) (Interval, bool) {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	out := Interval{Start: start, End: end}
	if out.Empty() {
		return Interval{}, false
	}
	return out, true
}
