package selection

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/klokku/courseplan/internal/rest"
	"github.com/klokku/courseplan/pkg/timeslot"
	"github.com/klokku/courseplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

// SelectionDTO is the wire form of a SelectedSection. SectionData is either the
// time slot object or the same object encoded as a string.
type SelectionDTO struct {
	UserId       string          `json:"userId,omitempty"`
	CourseId     string          `json:"courseId"`
	CourseName   string          `json:"courseName"`
	SectionIndex *int            `json:"sectionIndex"`
	SectionData  json.RawMessage `json:"sectionData"`
	Credits      int             `json:"credits"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetSelections godoc
// @Summary List the current user's selected sections
// @Tags Selection
// @Produce json
// @Success 200 {array} SelectionDTO
// @Failure 403 {string} string "User not found"
// @Router /api/selection [get]
// @Security XUserId
func (h *Handler) GetSelections(w http.ResponseWriter, r *http.Request) {
	selections, err := h.service.GetSelections(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]SelectionDTO, 0, len(selections))
	for _, s := range selections {
		dto, err := SelectionToDTO(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		dtos = append(dtos, dto)
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// AddSelection godoc
// @Summary Select a course section
// @Tags Selection
// @Accept json
// @Param selection body SelectionDTO true "Selection"
// @Success 201
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Section already selected"
// @Router /api/selection [post]
// @Security XUserId
func (h *Handler) AddSelection(w http.ResponseWriter, r *http.Request) {
	var dto SelectionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if dto.SectionIndex == nil {
		rest.WriteError(w, http.StatusBadRequest, "sectionIndex is required", "")
		return
	}
	sectionData, err := timeslot.Decode(dto.SectionData)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid sectionData", err.Error())
		return
	}

	err = h.service.AddSelection(r.Context(), dto.CourseId, dto.CourseName, *dto.SectionIndex, sectionData, dto.Credits)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RemoveSelection godoc
// @Summary Remove one section, or every section of a course when sectionIndex is omitted
// @Tags Selection
// @Param courseId path string true "Course id"
// @Param sectionIndex query int false "Section index"
// @Success 204
// @Failure 400 {object} rest.ErrorResponse "Invalid section index"
// @Router /api/selection/{courseId} [delete]
// @Security XUserId
func (h *Handler) RemoveSelection(w http.ResponseWriter, r *http.Request) {
	courseId := mux.Vars(r)["courseId"]

	var sectionIndex *int
	if raw := r.URL.Query().Get("sectionIndex"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid sectionIndex", "sectionIndex must be a non-negative integer")
			return
		}
		sectionIndex = &index
	}

	if err := h.service.RemoveSelection(r.Context(), courseId, sectionIndex); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "user not found", http.StatusForbidden)
	case errors.Is(err, ErrDuplicateSelection):
		rest.WriteError(w, http.StatusConflict, "Section already selected", err.Error())
	case errors.Is(err, ErrInvalidSelection):
		rest.WriteError(w, http.StatusBadRequest, "Invalid selection", err.Error())
	default:
		log.Errorf("selection request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func SelectionToDTO(s SelectedSection) (SelectionDTO, error) {
	slot := s.SectionData
	if slot.Days == nil {
		slot.Days = []string{}
	}
	data, err := json.Marshal(slot)
	if err != nil {
		return SelectionDTO{}, err
	}
	index := s.SectionIndex
	return SelectionDTO{
		UserId:       s.UserId,
		CourseId:     s.CourseId,
		CourseName:   s.CourseName,
		SectionIndex: &index,
		SectionData:  data,
		Credits:      s.Credits,
	}, nil
}

// DTOToSelection never fails on section data: undecodable data becomes an empty
// time slot, which renders as a section without meetings.
func DTOToSelection(dto SelectionDTO) SelectedSection {
	s := SelectedSection{
		UserId:     dto.UserId,
		CourseId:   dto.CourseId,
		CourseName: dto.CourseName,
		Credits:    dto.Credits,
	}
	if dto.SectionIndex != nil {
		s.SectionIndex = *dto.SectionIndex
	}
	slot, err := timeslot.Decode(dto.SectionData)
	if err != nil {
		log.Debugf("section data of %s/%d not decodable: %v", dto.CourseId, s.SectionIndex, err)
		slot = timeslot.TimeSlot{}
	}
	s.SectionData = slot
	return s
}
