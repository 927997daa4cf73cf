package calendar

import (
	"errors"
	"fmt"
)

var ErrInvalidGrid = errors.New("invalid grid")

// Grid is the visible time window of the weekly calendar, in whole hours of the day.
type Grid struct {
	StartHour int
	EndHour   int
}

var DefaultGrid = Grid{StartHour: 7, EndHour: 22}

func (g Grid) Validate() error {
	if g.StartHour < 0 || g.EndHour > 24 || g.StartHour >= g.EndHour {
		return fmt.Errorf("%w: %d-%d", ErrInvalidGrid, g.StartHour, g.EndHour)
	}
	return nil
}

// Start is the first visible minute of the day.
func (g Grid) Start() int {
	return g.StartHour * 60
}

// End is the minute the visible window closes at.
func (g Grid) End() int {
	return g.EndHour * 60
}

// Span is the length of the window in minutes.
func (g Grid) Span() int {
	return g.End() - g.Start()
}

// MinuteOfDay turns a grid offset back into minutes since midnight.
func (g Grid) MinuteOfDay(offset int) int {
	return g.Start() + offset
}

// Contains reports whether e lies entirely within the window.
func (g Grid) Contains(e Event) bool {
	return e.StartOffsetMinutes >= 0 && e.End() <= g.Span()
}

// Overlaps reports whether any part of e is visible.
func (g Grid) Overlaps(e Event) bool {
	return e.StartOffsetMinutes < g.Span() && e.End() > 0
}
