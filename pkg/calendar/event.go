package calendar

import (
	"fmt"
	"time"

	"github.com/klokku/courseplan/pkg/selection"
)

// Event is one weekly occurrence of a selected section on one day.
type Event struct {
	Source             selection.SelectedSection
	Day                time.Weekday
	StartOffsetMinutes int // minutes after the grid start, negative before it
	DurationMinutes    int
}

// End is the grid offset the event finishes at.
func (e Event) End() int {
	return e.StartOffsetMinutes + e.DurationMinutes
}

// Clip returns the part of e visible in g, as an offset from the grid start and a height,
// both in minutes. ok is false when nothing of e is visible.
func (e Event) Clip(g Grid) (offset int, height int, ok bool) {
	if !g.Overlaps(e) {
		return 0, 0, false
	}
	start := max(e.StartOffsetMinutes, 0)
	end := min(e.End(), g.Span())
	return start, end - start, true
}

// Label is the clock range of e on g, e.g. "11:40-12:55".
func (e Event) Label(g Grid) string {
	return clock(g.MinuteOfDay(e.StartOffsetMinutes)) + "-" + clock(g.MinuteOfDay(e.End()))
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
