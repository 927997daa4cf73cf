package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/klokku/courseplan/internal/config"
	"github.com/klokku/courseplan/pkg/schedule"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/timeslot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = config.Application{
	Schedule: config.Schedule{GridStartHour: 7, GridEndHour: 22, RequestTimeout: time.Second},
	Term:     config.Term{Start: "2026-09-02", End: "2026-12-14", Timezone: "America/New_York"},
}

func setupSession(t *testing.T) (*session, *schedule.RemoteStub) {
	api := schedule.NewRemoteStub()
	require.NoError(t, api.Put(selection.SelectedSection{
		UserId:       "alice",
		CourseId:     "COMS1004",
		CourseName:   "Intro to CS",
		SectionIndex: 1,
		SectionData:  timeslot.TimeSlot{Days: []string{"M", "W"}, Time: "11:40am - 12:55pm", Location: "Mudd 833"},
		Credits:      3,
	}))
	require.NoError(t, api.Put(selection.SelectedSection{
		UserId:      "alice",
		CourseId:    "ASTR1420",
		CourseName:  "Night Sky",
		SectionData: timeslot.TimeSlot{Days: []string{"F"}, Time: "10:00pm - 11:30pm"},
		Credits:     1,
	}))
	s, err := newSession(context.Background(), testConfig, api, "alice")
	require.NoError(t, err)
	return s, api
}

func TestSession_Print(t *testing.T) {
	t.Run("should list own meetings with credits", func(t *testing.T) {
		s, _ := setupSession(t)
		s.store.Highlight("COMS1004")
		var out bytes.Buffer

		require.NoError(t, s.print(&out))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "Schedule of alice (self)", lines[0])
		assert.Contains(t, lines[1], "*")
		assert.Contains(t, lines[1], "Mon")
		assert.Contains(t, lines[1], "11:40-12:55")
		assert.Contains(t, lines[1], "Mudd 833")
		assert.Contains(t, lines[2], "Wed")
		assert.Contains(t, lines[3], "Fri")
		assert.Contains(t, lines[3], "outside calendar hours")
		assert.Equal(t, "Total credits: 4", lines[4])
	})

	t.Run("should show a friend's schedule without credits", func(t *testing.T) {
		s, api := setupSession(t)
		api.Befriend("alice", "bob")
		var out bytes.Buffer

		require.NoError(t, s.viewer.ViewFriend(context.Background(), "bob"))
		require.NoError(t, s.print(&out))

		assert.Equal(t, "Schedule of bob (viewing)\nNo classes.\n", out.String())
	})
}

func TestNewSession(t *testing.T) {
	t.Run("should reject an invalid grid", func(t *testing.T) {
		cfg := testConfig
		cfg.Schedule.GridStartHour = 23

		_, err := newSession(context.Background(), cfg, schedule.NewRemoteStub(), "alice")

		assert.Error(t, err)
	})

	t.Run("should require a user", func(t *testing.T) {
		_, err := newSession(context.Background(), testConfig, schedule.NewRemoteStub(), "")

		assert.ErrorIs(t, err, schedule.ErrNoUser)
	})
}

func TestSession_Export(t *testing.T) {
	s, _ := setupSession(t)

	feed, err := s.exporter.Export("alice", s.viewer.Events())

	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(feed, "BEGIN:VEVENT"))
}
