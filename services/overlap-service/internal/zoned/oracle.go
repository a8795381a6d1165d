package zoned

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

var ErrInvalidZone = errors.New("invalid timezone")

// Date is a calendar date with no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Oracle answers the timezone-database questions the resolver needs.
type Oracle interface {
	// Now is the clock evaluations are pinned to.
	Now() time.Time
	// DateAt returns the calendar date observed in zone at the instant at.
	DateAt(zone string, at time.Time) (Date, error)
	// UTCOffset returns the zone's offset from UTC in effect at the instant at.
	UTCOffset(zone string, at time.Time) (time.Duration, error)
}

// SystemOracle answers from the Go runtime's tz database.
type SystemOracle struct {
	now  func() time.Time
	mu   sync.RWMutex
	locs map[string]*time.Location
}

// NewSystemOracle builds an oracle. A nil now defaults to time.Now.
func NewSystemOracle(now func() time.Time) *SystemOracle {
	if now == nil {
		now = time.Now
	}
	return &SystemOracle{now: now, locs: map[string]*time.Location{}}
}

// Location loads and caches the named zone.
func (o *SystemOracle) Location(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	// time.LoadLocation maps "" to UTC and "Local" to the host zone; neither is a
	// zone identifier a caller can mean here.
	if zone == "" || zone == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidZone, zone)
	}

	o.mu.RLock()
	loc, ok := o.locs[zone]
	o.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidZone, zone)
	}
	o.mu.Lock()
	o.locs[zone] = loc
	o.mu.Unlock()
	return loc, nil
}

func (o *SystemOracle) Now() time.Time {
	return o.now()
}

func (o *SystemOracle) DateAt(zone string, at time.Time) (Date, error) {
	loc, err := o.Location(zone)
	if err != nil {
		return Date{}, err
	}
	y, m, d := at.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

// CurrentDate returns today's date in zone.
func (o *SystemOracle) CurrentDate(zone string) (Date, error) {
	return o.DateAt(zone, o.now())
}

func (o *SystemOracle) UTCOffset(zone string, at time.Time) (time.Duration, error) {
	loc, err := o.Location(zone)
	if err != nil {
		return 0, err
	}
	_, secs := at.In(loc).Zone()
	return time.Duration(secs) * time.Second, nil
}

// Validate reports ErrInvalidZone for identifiers the oracle cannot resolve.
func (o *SystemOracle) Validate(zone string) error {
	_, err := o.Location(zone)
	return err
}
