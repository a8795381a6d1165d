package zoned

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidWallClock = errors.New("invalid wall-clock time")

// WallClock is a time-of-day label with no date or zone attached.
type WallClock struct {
	Hour   int
	Minute int
}

// ParseWallClock parses a 24-hour "HH:MM" string.
func ParseWallClock(raw string) (WallClock, error) {
	raw = strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok || !twoDigits(hh) || !twoDigits(mm) {
		return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, raw)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, raw)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, raw)
	}
	wc := WallClock{Hour: h, Minute: m}
	if !wc.Valid() {
		return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, raw)
	}
	return wc, nil
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

// FromMinutes builds a WallClock from minutes past midnight.
func FromMinutes(minutes int) (WallClock, error) {
	if minutes < 0 || minutes >= 24*60 {
		return WallClock{}, fmt.Errorf("%w: %d minutes", ErrInvalidWallClock, minutes)
	}
	return WallClock{Hour: minutes / 60, Minute: minutes % 60}, nil
}

func (w WallClock) Valid() bool {
	return w.Hour >= 0 && w.Hour <= 23 && w.Minute >= 0 && w.Minute <= 59
}

// Minutes returns minutes past midnight.
func (w WallClock) Minutes() int {
	return w.Hour*60 + w.Minute
}

// Before reports whether w is earlier in the day than other. This is the same
// order as comparing the "HH:MM" strings.
func (w WallClock) Before(other WallClock) bool {
	return w.Minutes() < other.Minutes()
}

func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute)
}
