package zoned

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDayOffset = errors.New("day offset must be 0 or 1")

// transitionReach bounds how far apart two occurrences of a repeated
// wall-clock can be.
const transitionReach = 3 * time.Hour

// Resolver turns a zone-local wall-clock time into an absolute instant.
type Resolver struct {
	oracle Oracle
}

func NewResolver(oracle Oracle) *Resolver {
	return &Resolver{oracle: oracle}
}

// Now reads the oracle's clock. Callers resolving several wall-clocks for one
// evaluation read it once and pass the result to ResolveAt.
func (r *Resolver) Now() time.Time {
	return r.oracle.Now()
}

// Resolve is ResolveAt with the clock read now.
func (r *Resolver) Resolve(zone string, wall WallClock, dayOffset int) (time.Time, error) {
	return r.ResolveAt(zone, wall, dayOffset, r.oracle.Now())
}

// ResolveAt returns the instant that wall denotes in zone on the zone's date
// at now, or the following date when dayOffset is 1.
//
// The offset is looked up at a provisional instant built as if the wall-clock
// were UTC, then re-checked at the corrected instant: offsets are a function of
// the instant, so a DST transition between the guess and the answer needs a
// second pass. A wall-clock inside a spring-forward gap is pushed forward by
// the length of the gap. A wall-clock repeated by a fall-back resolves to its
// first occurrence.
func (r *Resolver) ResolveAt(zone string, wall WallClock, dayOffset int, now time.Time) (time.Time, error) {
	if dayOffset != 0 && dayOffset != 1 {
		return time.Time{}, fmt.Errorf("%w (got %d)", ErrInvalidDayOffset, dayOffset)
	}
	if !wall.Valid() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidWallClock, wall)
	}

	today, err := r.oracle.DateAt(zone, now)
	if err != nil {
		return time.Time{}, err
	}
	provisional := time.Date(today.Year, today.Month, today.Day+dayOffset, wall.Hour, wall.Minute, 0, 0, time.UTC)

	guess, err := r.oracle.UTCOffset(zone, provisional)
	if err != nil {
		return time.Time{}, err
	}
	candidate := provisional.Add(-guess)

	corrected, err := r.oracle.UTCOffset(zone, candidate)
	if err != nil {
		return time.Time{}, err
	}
	if corrected != guess {
		alt := provisional.Add(-corrected)
		ok, err := r.consistent(zone, provisional, alt)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return alt, nil
		}
		// Neither offset maps back to the wall-clock: it falls in a gap.
		if alt.After(candidate) {
			return alt, nil
		}
		return candidate, nil
	}

	return r.earliestOccurrence(zone, provisional, candidate, guess)
}

// consistent reports whether at shows the provisional wall-clock in zone.
func (r *Resolver) consistent(zone string, provisional, at time.Time) (bool, error) {
	off, err := r.oracle.UTCOffset(zone, at)
	if err != nil {
		return false, err
	}
	return provisional.Add(-off).Equal(at), nil
}

func (r *Resolver) earliestOccurrence(zone string, provisional, found time.Time, offset time.Duration) (time.Time, error) {
	best := found
	for _, probe := range []time.Time{found.Add(-transitionReach), found.Add(transitionReach)} {
		off, err := r.oracle.UTCOffset(zone, probe)
		if err != nil {
			return time.Time{}, err
		}
		if off == offset {
			continue
		}
		other := provisional.Add(-off)
		ok, err := r.consistent(zone, provisional, other)
		if err != nil {
			return time.Time{}, err
		}
		if ok && other.Before(best) {
			best = other
		}
	}
	return best, nil
}
