package calendar

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/klokku/courseplan/internal/utils"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fallTerm(t *testing.T) Term {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return Term{
		Start:    time.Date(2026, time.September, 2, 0, 0, 0, 0, loc),
		End:      time.Date(2026, time.December, 14, 0, 0, 0, 0, loc),
		Location: loc,
	}
}

func TestExporter_Export(t *testing.T) {
	clock := utils.FixedClock{At: time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)}
	exporter := NewExporter(fallTerm(t), DefaultGrid, clock)
	s := section("COMS4111", []string{"M", "W"}, "11:40am - 12:55pm")
	s.CourseName = "Databases"
	s.SectionData.Location = "Mudd 833"
	s.SectionData.Professor = "Jae Lee"
	events := NewProjector(DefaultGrid).Project([]selection.SelectedSection{s})

	// when
	out, err := exporter.Export("alice", events)

	// then
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "UID:alice-COMS4111-0-Mo@courseplan")
	assert.Contains(t, out, "UID:alice-COMS4111-0-We@courseplan")
	assert.Contains(t, out, "DTSTAMP:20261001T120000Z")
	assert.Contains(t, out, "SUMMARY:COMS4111 Databases")
	assert.Contains(t, out, "LOCATION:Mudd 833")
	assert.Contains(t, out, "DESCRIPTION:Jae Lee")
	assert.Contains(t, out, "TZID=America/New_York")
	// the term starts on a Wednesday: Monday meetings begin the following week
	assert.Contains(t, out, "20260907T114000")
	assert.Contains(t, out, "20260907T125500")
	assert.Contains(t, out, "20260902T114000")
	assert.Contains(t, out, "FREQ=WEEKLY")
	assert.Contains(t, out, "BYDAY=MO")
	assert.Contains(t, out, "BYDAY=WE")
	assert.Contains(t, out, "UNTIL=20261215T045959Z")

	t.Run("should be reproducible", func(t *testing.T) {
		again, err := exporter.Export("alice", events)
		require.NoError(t, err)
		assert.Equal(t, out, again)
	})
}

func TestExporter_Export_NoEvents(t *testing.T) {
	exporter := NewExporter(fallTerm(t), DefaultGrid, utils.SystemClock{})

	out, err := exporter.Export("alice", nil)

	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestExporter_Export_InvalidTerm(t *testing.T) {
	term := fallTerm(t)
	term.End = term.Start.AddDate(0, 0, -1)

	_, err := NewExporter(term, DefaultGrid, utils.SystemClock{}).Export("alice", nil)

	assert.ErrorIs(t, err, ErrInvalidTerm)
}
