package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/availability"
)

const (
	MsgNoOverlap = "No overlapping time available."
	MsgTooShort  = "Overlap is too short for a 30-min slot."

	clockLayout = "15:04"
)

// Locator loads zones for display.
type Locator interface {
	Location(zone string) (*time.Location, error)
}

type View struct {
	HasOverlap   bool      `json:"has_overlap"`
	Message      string    `json:"message,omitempty"`
	OverlapStart string    `json:"overlap_start,omitempty"`
	OverlapEnd   string    `json:"overlap_end,omitempty"`
	Zones        []string  `json:"zones"`
	Sections     []Section `json:"sections"`
}

type Section struct {
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	Slots           []SlotView `json:"slots"`
}

type SlotView struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Person1   string `json:"person1"`
	Person2   string `json:"person2"`
}

// Render projects ev back into both zones' wall-clocks.
func Render(loc Locator, ev availability.Evaluation, zone1, zone2 string) (View, error) {
	view := View{Zones: []string{zone1, zone2}, Sections: []Section{}}
	if !ev.HasOverlap {
		view.Message = MsgNoOverlap
		return view, nil
	}

	loc1, err := loc.Location(zone1)
	if err != nil {
		return View{}, err
	}
	loc2, err := loc.Location(zone2)
	if err != nil {
		return View{}, err
	}

	view.HasOverlap = true
	view.OverlapStart = ev.Overlap.Start.UTC().Format(time.RFC3339)
	view.OverlapEnd = ev.Overlap.End.UTC().Format(time.RFC3339)

	label1, label2 := ZoneLabel(zone1), ZoneLabel(zone2)
	section := func(title string, d time.Duration, slots []availability.Slot) {
		if len(slots) == 0 {
			return
		}
		s := Section{Title: title, DurationMinutes: int(d / time.Minute), Slots: make([]SlotView, 0, len(slots))}
		for _, slot := range slots {
			s.Slots = append(s.Slots, SlotView{
				StartTime: slot.Start.UTC().Format(time.RFC3339),
				EndTime:   slot.End.UTC().Format(time.RFC3339),
				Person1:   localRange(slot, loc1, label1),
				Person2:   localRange(slot, loc2, label2),
			})
		}
		view.Sections = append(view.Sections, s)
	}
	section("30-Minute Slots", availability.ThirtyMinutes, ev.Slots30)
	section("1-Hour Slots", availability.SixtyMinutes, ev.Slots60)

	if len(view.Sections) == 0 {
		view.Message = MsgTooShort
	}
	return view, nil
}

func localRange(slot availability.Slot, loc *time.Location, label string) string {
	return fmt.Sprintf("%s - %s (%s)", slot.Start.In(loc).Format(clockLayout), slot.End.In(loc).Format(clockLayout), label)
}

// ZoneLabel turns "America/New_York" into "New York".
func ZoneLabel(zone string) string {
	label := zone
	if i := strings.LastIndex(zone, "/"); i >= 0 {
		label = zone[i+1:]
	}
	return strings.ReplaceAll(label, "_", " ")
}

// Text renders a view the way the web page lays it out, one slot per line.
func Text(v View) string {
	var b strings.Builder
	if v.Message != "" {
		b.WriteString(v.Message)
		b.WriteString("\n")
	}
	for _, s := range v.Sections {
		b.WriteString(s.Title)
		b.WriteString("\n")
		for _, slot := range s.Slots {
			fmt.Fprintf(&b, "  %s | %s\n", slot.Person1, slot.Person2)
		}
	}
	return b.String()
}
