package friend

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/courseplan/internal/rest"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

type FriendDTO struct {
	Uid         string `json:"uid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	School      string `json:"school,omitempty"`
}

type AddFriendRequest struct {
	Uid string `json:"uid"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListFriends godoc
// @Summary List the current user's friends
// @Tags Friend
// @Produce json
// @Success 200 {array} FriendDTO
// @Router /api/friend [get]
// @Security XUserId
func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.service.ListFriends(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]FriendDTO, 0, len(friends))
	for _, f := range friends {
		dtos = append(dtos, FriendDTO{Uid: f.Uid, Username: f.Username, DisplayName: f.DisplayName, School: f.School})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// AddFriend godoc
// @Summary Add a friend by uid
// @Tags Friend
// @Accept json
// @Param friend body AddFriendRequest true "Friend"
// @Success 204
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "User not found"
// @Router /api/friend [post]
// @Security XUserId
func (h *Handler) AddFriend(w http.ResponseWriter, r *http.Request) {
	var req AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Uid == "" {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "uid is required")
		return
	}
	if err := h.service.AddFriend(r.Context(), req.Uid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFriendSelections godoc
// @Summary Read-only list of a friend's selected sections
// @Tags Friend
// @Produce json
// @Param userUid path string true "Friend uid"
// @Success 200 {array} selection.SelectionDTO
// @Failure 403 {object} rest.ErrorResponse "Not friends"
// @Router /api/friend/{userUid}/selection [get]
// @Security XUserId
func (h *Handler) GetFriendSelections(w http.ResponseWriter, r *http.Request) {
	friendUid := mux.Vars(r)["userUid"]

	selections, err := h.service.GetFriendSelections(r.Context(), friendUid)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]selection.SelectionDTO, 0, len(selections))
	for _, s := range selections {
		dto, err := selection.SelectionToDTO(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		dtos = append(dtos, dto)
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "user not found", http.StatusForbidden)
	case errors.Is(err, ErrNotFriends):
		rest.WriteError(w, http.StatusForbidden, "Not friends", err.Error())
	case errors.Is(err, ErrSelfFriendship):
		rest.WriteError(w, http.StatusBadRequest, "Invalid friend", err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		rest.WriteError(w, http.StatusNotFound, "User not found", "")
	default:
		log.Errorf("friend request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
