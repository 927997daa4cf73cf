package calendar

import "github.com/klokku/courseplan/pkg/selection"

type Projector struct {
	grid Grid
}

func NewProjector(grid Grid) *Projector {
	return &Projector{grid: grid}
}

func (p *Projector) Grid() Grid {
	return p.grid
}

// Project turns selections into calendar events placed relative to the grid start, one per section and meeting day,
// ordered by input position and then by weekday. Sections without a usable time
// or day produce nothing. Events outside the grid are still returned; clipping
// is left to whoever draws them.
func (p *Projector) Project(sections []selection.SelectedSection) []Event {
	events := make([]Event, 0, len(sections)*2)
	for _, s := range sections {
		meeting, ok := s.SectionData.Meeting()
		if !ok {
			continue
		}
		for _, day := range meeting.Days {
			events = append(events, Event{
				Source:             s.Clone(),
				Day:                day,
				StartOffsetMinutes: meeting.Range.Start() - p.grid.Start(),
				DurationMinutes:    meeting.Range.Duration(),
			})
		}
	}
	return events
}
