package zoned

import (
	"errors"
	"testing"
	"time"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func resolverAt(now time.Time) *Resolver {
	return NewResolver(NewSystemOracle(fixedNow(now)))
}

func utc(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestResolveRoundTrip(t *testing.T) {
	now := utc(2026, time.July, 15, 12, 0)
	r := resolverAt(now)
	oracle := NewSystemOracle(fixedNow(now))

	zones := []string{"UTC", "Europe/Stockholm", "America/Chicago", "Asia/Kolkata", "Asia/Kathmandu", "Australia/Lord_Howe", "Pacific/Kiritimati", "America/St_Johns"}
	walls := []WallClock{{Hour: 0}, {Hour: 9}, {Hour: 12, Minute: 30}, {Hour: 17}, {Hour: 23, Minute: 59}}
	for _, zone := range zones {
		loc, err := oracle.Location(zone)
		if err != nil {
			t.Fatalf("load %s: %v", zone, err)
		}
		for _, wall := range walls {
			got, err := r.Resolve(zone, wall, 0)
			if err != nil {
				t.Fatalf("Resolve(%s, %s): %v", zone, wall, err)
			}
			local := got.In(loc)
			if local.Hour() != wall.Hour || local.Minute() != wall.Minute {
				t.Fatalf("Resolve(%s, %s) shows %s locally", zone, wall, local.Format("15:04"))
			}
			y, m, d := now.In(loc).Date()
			ly, lm, ld := local.Date()
			if y != ly || m != lm || d != ld {
				t.Fatalf("Resolve(%s, %s) landed on %s, want zone's today", zone, wall, local.Format("2006-01-02"))
			}
		}
	}
}

func TestResolveUsesZoneToday(t *testing.T) {
	// 23:30 UTC on the 15th is already the 16th in Tokyo.
	r := resolverAt(utc(2026, time.July, 15, 23, 30))
	got, err := r.Resolve("Asia/Tokyo", WallClock{Hour: 9}, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := utc(2026, time.July, 16, 0, 0); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}

func TestResolveNextDay(t *testing.T) {
	r := resolverAt(utc(2026, time.July, 15, 12, 0))
	start, err := r.Resolve("Europe/Stockholm", WallClock{Hour: 22}, 0)
	if err != nil {
		t.Fatalf("Resolve start: %v", err)
	}
	end, err := r.Resolve("Europe/Stockholm", WallClock{Hour: 2}, 1)
	if err != nil {
		t.Fatalf("Resolve end: %v", err)
	}
	if end.Sub(start) != 4*time.Hour {
		t.Fatalf("expected 4h window, got %s", end.Sub(start))
	}
	if want := utc(2026, time.July, 16, 0, 0); !end.Equal(want) {
		t.Fatalf("got %s, want %s", end.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}

func TestResolveAcrossSpringForward(t *testing.T) {
	cases := []struct {
		name string
		zone string
		now  time.Time
		wall WallClock
		want time.Time
	}{
		// New York jumps 02:00 EST -> 03:00 EDT at 07:00 UTC; "now" is still EST.
		{name: "new york after jump", zone: "America/New_York", now: utc(2026, time.March, 8, 6, 0), wall: WallClock{Hour: 3}, want: utc(2026, time.March, 8, 7, 0)},
		{name: "new york before jump", zone: "America/New_York", now: utc(2026, time.March, 8, 6, 0), wall: WallClock{Hour: 1}, want: utc(2026, time.March, 8, 6, 0)},
		{name: "new york evening", zone: "America/New_York", now: utc(2026, time.March, 8, 6, 0), wall: WallClock{Hour: 17}, want: utc(2026, time.March, 8, 21, 0)},
		{name: "new york gap", zone: "America/New_York", now: utc(2026, time.March, 8, 6, 0), wall: WallClock{Hour: 2, Minute: 30}, want: utc(2026, time.March, 8, 7, 30)},
		// Stockholm jumps 02:00 CET -> 03:00 CEST at 01:00 UTC.
		{name: "stockholm after jump", zone: "Europe/Stockholm", now: utc(2026, time.March, 29, 0, 30), wall: WallClock{Hour: 3}, want: utc(2026, time.March, 29, 1, 0)},
		{name: "stockholm gap", zone: "Europe/Stockholm", now: utc(2026, time.March, 29, 0, 30), wall: WallClock{Hour: 2, Minute: 30}, want: utc(2026, time.March, 29, 1, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolverAt(tc.now).Resolve(tc.zone, tc.wall, 0)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %s, want %s", got.Format(time.RFC3339), tc.want.Format(time.RFC3339))
			}
		})
	}
}

func TestResolveAcrossFallBackPicksFirstOccurrence(t *testing.T) {
	cases := []struct {
		zone string
		now  time.Time
		wall WallClock
		want time.Time
	}{
		{zone: "America/New_York", now: utc(2026, time.November, 1, 12, 0), wall: WallClock{Hour: 1, Minute: 30}, want: utc(2026, time.November, 1, 5, 30)},
		{zone: "Europe/Stockholm", now: utc(2026, time.October, 25, 10, 0), wall: WallClock{Hour: 2, Minute: 30}, want: utc(2026, time.October, 25, 0, 30)},
	}
	for _, tc := range cases {
		got, err := resolverAt(tc.now).Resolve(tc.zone, tc.wall, 0)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tc.zone, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: got %s, want %s", tc.zone, got.Format(time.RFC3339), tc.want.Format(time.RFC3339))
		}
	}
}

func TestResolveInvalidInput(t *testing.T) {
	r := resolverAt(utc(2026, time.July, 15, 12, 0))
	for _, zone := range []string{"Mars/Olympus_Mons", "", "Local"} {
		if _, err := r.Resolve(zone, WallClock{Hour: 9}, 0); !errors.Is(err, ErrInvalidZone) {
			t.Fatalf("zone %q: expected ErrInvalidZone, got %v", zone, err)
		}
	}
	if _, err := r.Resolve("UTC", WallClock{Hour: 9}, 2); !errors.Is(err, ErrInvalidDayOffset) {
		t.Fatalf("expected ErrInvalidDayOffset, got %v", err)
	}
	if _, err := r.Resolve("UTC", WallClock{Hour: 25}, 0); !errors.Is(err, ErrInvalidWallClock) {
		t.Fatalf("expected ErrInvalidWallClock, got %v", err)
	}
}

// stepOracle is a zone whose offset changes from before to after at switchAt.
type stepOracle struct {
	today    Date
	switchAt time.Time
	before   time.Duration
	after    time.Duration
	calls    int
}

func (o *stepOracle) Now() time.Time { return time.Date(o.today.Year, o.today.Month, o.today.Day, 12, 0, 0, 0, time.UTC) }

func (o *stepOracle) DateAt(string, time.Time) (Date, error) { return o.today, nil }

func (o *stepOracle) UTCOffset(_ string, at time.Time) (time.Duration, error) {
	o.calls++
	if at.Before(o.switchAt) {
		return o.before, nil
	}
	return o.after, nil
}

func TestResolveQueriesOffsetAtTargetNotNow(t *testing.T) {
	o := &stepOracle{
		today:    Date{Year: 2026, Month: time.April, Day: 1},
		switchAt: utc(2026, time.April, 1, 10, 0),
		before:   0,
		after:    2 * time.Hour,
	}
	got, err := NewResolver(o).Resolve("Test/Step", WallClock{Hour: 15}, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := utc(2026, time.April, 1, 13, 0); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
	if o.calls < 2 {
		t.Fatalf("expected the offset to be re-checked, got %d lookups", o.calls)
	}
}

func TestResolveAtUsesGivenInstant(t *testing.T) {
	ticks := 0
	oracle := NewSystemOracle(func() time.Time {
		ticks++
		return utc(2026, time.July, 16, 0, 0)
	})
	r := NewResolver(oracle)
	got, err := r.ResolveAt("UTC", WallClock{Hour: 9}, 0, time.Date(2026, time.July, 15, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveAt: %v", err)
	}
	if want := utc(2026, time.July, 15, 9, 0); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
	if ticks != 0 {
		t.Fatalf("ResolveAt read the clock %d times", ticks)
	}
}

func TestCurrentDateFollowsZone(t *testing.T) {
	oracle := NewSystemOracle(func() time.Time { return utc(2026, time.July, 15, 20, 0) })
	got, err := oracle.CurrentDate("Asia/Tokyo")
	if err != nil {
		t.Fatalf("CurrentDate: %v", err)
	}
	if got != (Date{Year: 2026, Month: time.July, Day: 16}) {
		t.Fatalf("unexpected Tokyo date %+v", got)
	}
}
