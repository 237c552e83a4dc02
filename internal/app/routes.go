package app

import (
	"github.com/gorilla/mux"
	"github.com/schedra/schedra/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Events. PUT and DELETE accept an optional occurrenceDate query
	// parameter to target a single occurrence of a recurring event
	// instead of the whole series.
	r.HandleFunc("/api/event", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/event", deps.EventHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.GetEvent).Methods("GET")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.DeleteEvent).Methods("DELETE")

	// Aggregated views
	r.HandleFunc("/api/calendar", deps.AgendaHandler.GetCalendar).Methods("GET")
	r.HandleFunc("/api/upcoming", deps.AgendaHandler.GetUpcoming).Methods("GET")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.GetCurrentUser).Methods("GET")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user", deps.UserHandler.GetAllUsers).Methods("GET")
}
