package availability

import (
	"fmt"
	"slices"
	"time"

	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/zoned"
)

// Engine resolves work windows and computes their common availability.
type Engine struct {
	resolver *zoned.Resolver
}

func NewEngine(resolver *zoned.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// Window resolves w into absolute instants for the zone's current day.
func (e *Engine) Window(w WorkWindow) (Interval, error) {
	return e.windowAt(w, e.resolver.Now())
}

// windowAt resolves both ends against the same instant so the start and end
// always share the zone's "today".
func (e *Engine) windowAt(w WorkWindow, now time.Time) (Interval, error) {
	start, err := e.resolver.ResolveAt(w.Zone, w.Start, 0, now)
	if err != nil {
		return Interval{}, fmt.Errorf("resolve start: %w", err)
	}
	endDay := 0
	if w.CrossesMidnight() {
		endDay = 1
	}
	end, err := e.resolver.ResolveAt(w.Zone, w.End, endDay, now)
	if err != nil {
		return Interval{}, fmt.Errorf("resolve end: %w", err)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlap returns the time both windows share. ok is false when there is none.
// The clock is read once for both windows.
func (e *Engine) Overlap(w1, w2 WorkWindow) (iv Interval, ok bool, err error) {
	now := e.resolver.Now()
	a, err := e.windowAt(w1, now)
	if err != nil {
		return Interval{}, false, err
	}
	b, err := e.windowAt(w2, now)
	if err != nil {
		return Interval{}, false, err
	}
	iv, ok = Intersect(a, b)
	return iv, ok, nil
}

// Evaluation is the outcome of one full pipeline run.
type Evaluation struct {
	Overlap    Interval
	HasOverlap bool
	Slots30    []Slot
	Slots60    []Slot
}

// HasSlots reports whether at least one slot fits at either granularity.
func (ev Evaluation) HasSlots() bool {
	return len(ev.Slots30) > 0 || len(ev.Slots60) > 0
}

// Evaluate resolves both windows, intersects them and enumerates 30 and 60
// minute slots.
func (e *Engine) Evaluate(w1, w2 WorkWindow) (Evaluation, error) {
	iv, ok, err := e.Overlap(w1, w2)
	if err != nil {
		return Evaluation{}, err
	}
	if !ok {
		return Evaluation{}, nil
	}
	return Evaluation{
		Overlap:    iv,
		HasOverlap: true,
		Slots30:    slices.Collect(EnumerateSlots(iv, ThirtyMinutes)),
		Slots60:    slices.Collect(EnumerateSlots(iv, SixtyMinutes)),
	}, nil
}
