package calendar

import (
	"context"
	"errors"
	"net/http"

	"github.com/klokku/courseplan/internal/rest"
	"github.com/klokku/courseplan/pkg/friend"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

type SelectionsProvider func(ctx context.Context) ([]selection.SelectedSection, error)

type FriendSelectionsProvider func(ctx context.Context, friendUid string) ([]selection.SelectedSection, error)

type Handler struct {
	projector        *Projector
	exporter         *Exporter
	selections       SelectionsProvider
	friendSelections FriendSelectionsProvider
}

type GridDTO struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

type EventDTO struct {
	CourseId           string `json:"courseId"`
	CourseName         string `json:"courseName"`
	SectionIndex       int    `json:"sectionIndex"`
	Day                string `json:"day"`
	Weekday            int    `json:"weekday"`
	StartOffsetMinutes int    `json:"startOffsetMinutes"`
	DurationMinutes    int    `json:"durationMinutes"`
	Label              string `json:"label"`
	Professor          string `json:"professor,omitempty"`
	Location           string `json:"location,omitempty"`
	Full               bool   `json:"full"`
	InGrid             bool   `json:"inGrid"`
}

type CalendarDTO struct {
	Grid   GridDTO    `json:"grid"`
	Events []EventDTO `json:"events"`
}

func NewHandler(projector *Projector, exporter *Exporter, selections SelectionsProvider, friendSelections FriendSelectionsProvider) *Handler {
	return &Handler{
		projector:        projector,
		exporter:         exporter,
		selections:       selections,
		friendSelections: friendSelections,
	}
}

// GetEvents godoc
// @Summary Weekly calendar events of the current user, or of a friend
// @Tags Calendar
// @Produce json
// @Param friend query string false "Friend uid"
// @Success 200 {object} CalendarDTO
// @Failure 403 {object} rest.ErrorResponse "Not friends"
// @Router /api/calendar/event [get]
// @Security XUserId
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	var sections []selection.SelectedSection
	var err error
	if friendUid := r.URL.Query().Get("friend"); friendUid != "" {
		sections, err = h.friendSelections(r.Context(), friendUid)
	} else {
		sections, err = h.selections(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	grid := h.projector.Grid()
	events := h.projector.Project(sections)
	dto := CalendarDTO{
		Grid:   GridDTO{StartHour: grid.StartHour, EndHour: grid.EndHour},
		Events: make([]EventDTO, 0, len(events)),
	}
	for _, e := range events {
		dto.Events = append(dto.Events, eventToDTO(e, grid))
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

// ExportSchedule godoc
// @Summary The current user's schedule as an iCalendar feed
// @Tags Calendar
// @Produce text/calendar
// @Success 200 {string} string "iCalendar"
// @Router /api/calendar/export.ics [get]
// @Security XUserId
func (h *Handler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentUid(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	sections, err := h.selections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := h.exporter.Export(userId, h.projector.Project(sections))
	if err != nil {
		log.Errorf("could not export schedule of %s: %v", userId, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Warnf("could not write calendar export: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "user not found", http.StatusForbidden)
	case errors.Is(err, friend.ErrNotFriends):
		rest.WriteError(w, http.StatusForbidden, "Not friends", err.Error())
	default:
		log.Errorf("calendar request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func eventToDTO(e Event, grid Grid) EventDTO {
	return EventDTO{
		CourseId:           e.Source.CourseId,
		CourseName:         e.Source.CourseName,
		SectionIndex:       e.Source.SectionIndex,
		Day:                e.Day.String(),
		Weekday:            int(e.Day),
		StartOffsetMinutes: e.StartOffsetMinutes,
		DurationMinutes:    e.DurationMinutes,
		Label:              e.Label(grid),
		Professor:          e.Source.SectionData.Professor,
		Location:           e.Source.SectionData.Location,
		Full:               e.Source.SectionData.IsFull(),
		InGrid:             grid.Contains(e),
	}
}
