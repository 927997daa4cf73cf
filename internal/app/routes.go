package app

import (
	"github.com/gorilla/mux"
	"github.com/klokku/courseplan/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// User management
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")

	// Selections
	r.HandleFunc("/api/selection", deps.SelectionHandler.GetSelections).Methods("GET")
	r.HandleFunc("/api/selection", deps.SelectionHandler.AddSelection).Methods("POST")
	r.HandleFunc("/api/selection/{courseId}", deps.SelectionHandler.RemoveSelection).Methods("DELETE")

	// Friends
	r.HandleFunc("/api/friend", deps.FriendHandler.ListFriends).Methods("GET")
	r.HandleFunc("/api/friend", deps.FriendHandler.AddFriend).Methods("POST")
	r.HandleFunc("/api/friend/{userUid}/selection", deps.FriendHandler.GetFriendSelections).Methods("GET")

	// Calendar
	r.HandleFunc("/api/calendar/event", deps.CalendarHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/calendar/export.ics", deps.CalendarHandler.ExportSchedule).Methods("GET")
}
