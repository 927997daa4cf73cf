package calendar

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/klokku/courseplan/internal/utils"
	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

var ErrInvalidTerm = errors.New("invalid term")

const localTimeLayout = "20060102T150405"

// Term bounds the weeks a schedule repeats in. Start and End are dates; their time of day is ignored.
type Term struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

func (t Term) Validate() error {
	if t.Location == nil {
		return fmt.Errorf("%w: missing time zone", ErrInvalidTerm)
	}
	if t.End.Before(t.Start) {
		return fmt.Errorf("%w: ends %s before it starts %s", ErrInvalidTerm, t.End.Format(time.DateOnly), t.Start.Format(time.DateOnly))
	}
	return nil
}

func (t Term) firstDay() time.Time {
	return time.Date(t.Start.Year(), t.Start.Month(), t.Start.Day(), 0, 0, 0, 0, t.Location)
}

// lastMoment is the end of the term's last day.
func (t Term) lastMoment() time.Time {
	return time.Date(t.End.Year(), t.End.Month(), t.End.Day(), 23, 59, 59, 0, t.Location)
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Exporter renders projected events as an iCalendar feed with one weekly
// recurring VEVENT per event.
type Exporter struct {
	term  Term
	grid  Grid
	clock utils.Clock
}

// NewExporter renders events projected on grid.
func NewExporter(term Term, grid Grid, clock utils.Clock) *Exporter {
	return &Exporter{term: term, grid: grid, clock: clock}
}

func (x *Exporter) Export(userId string, events []Event) (string, error) {
	if err := x.term.Validate(); err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//courseplan//schedule//EN")
	cal.SetXWRCalName("Course schedule")
	cal.SetXWRTimezone(x.term.Location.String())

	stamp := x.clock.Now().UTC()
	for _, e := range events {
		rule, first, ok := x.recurrence(e)
		if !ok {
			log.Debugf("%s on %s never meets within the term, skipping", e.Source.CourseId, e.Day)
			continue
		}
		day := first.In(x.term.Location)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, x.grid.MinuteOfDay(e.StartOffsetMinutes), 0, 0, x.term.Location)
		end := start.Add(time.Duration(e.DurationMinutes) * time.Minute)

		ev := cal.AddEvent(eventUid(userId, e))
		ev.SetDtStampTime(stamp)
		ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(localTimeLayout), tzid(x.term.Location))
		ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localTimeLayout), tzid(x.term.Location))
		ev.SetSummary(summary(e))
		if e.Source.SectionData.Location != "" {
			ev.SetLocation(e.Source.SectionData.Location)
		}
		if e.Source.SectionData.Professor != "" {
			ev.SetDescription(e.Source.SectionData.Professor)
		}
		ev.AddRrule(rule.RRuleString())
	}
	return cal.Serialize(), nil
}

// recurrence builds the weekly rule of e and returns the date of its first occurrence.
func (x *Exporter) recurrence(e Event) (rrule.ROption, time.Time, bool) {
	option := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[e.Day]},
		Dtstart:   x.term.firstDay(),
		Until:     x.term.lastMoment().UTC(),
	}
	r, err := rrule.NewRRule(option)
	if err != nil {
		log.Warnf("could not build recurrence for %s: %v", e.Source.CourseId, err)
		return rrule.ROption{}, time.Time{}, false
	}
	first := r.After(x.term.firstDay(), true)
	if first.IsZero() {
		return rrule.ROption{}, time.Time{}, false
	}
	return option, first, true
}

func eventUid(userId string, e Event) string {
	return fmt.Sprintf("%s-%s-%d-%s@courseplan", userId, e.Source.CourseId, e.Source.SectionIndex, e.Day.String()[:2])
}

func summary(e Event) string {
	if e.Source.CourseName == "" {
		return e.Source.CourseId
	}
	return e.Source.CourseId + " " + e.Source.CourseName
}

func tzid(loc *time.Location) ical.PropertyParameter {
	return &ical.KeyValues{Key: string(ical.ParameterTzid), Value: []string{loc.String()}}
}
