// Package api provides HTTP routing for the availability REST API.
package api

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/api/handlers"
	"github.com/room-vacancy/backend/internal/api/middleware"
	"github.com/room-vacancy/backend/internal/websocket"
)

// Dependencies are the services the handlers read from.
type Dependencies struct {
	DB        handlers.Pinger
	Results   handlers.ResultSource
	Runs      handlers.RunLister
	Scheduler handlers.RunTrigger
	Hub       *websocket.Hub
	Logger    *zap.Logger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.ErrorRecovery(logger))

	api := r.PathPrefix("/api").Subrouter()

	var hub handlers.ClientCounter
	if deps.Hub != nil {
		hub = deps.Hub
	}
	api.HandleFunc("/health", handlers.HealthCheck(deps.DB, deps.Results, hub)).Methods("GET")

	api.HandleFunc("/places", handlers.ListPlaces(deps.Results)).Methods("GET")
	api.HandleFunc("/places/{name}", handlers.GetPlace(deps.Results)).Methods("GET")
	api.HandleFunc("/places/{name}/rooms/{room}", handlers.GetRoom(deps.Results)).Methods("GET")
	api.HandleFunc("/places/{name}/rooms/{room}/free", handlers.GetRoomFreeAt(deps.Results)).Methods("GET")
	api.HandleFunc("/vacancies", handlers.ListVacancies(deps.Results)).Methods("GET")

	if deps.Runs != nil {
		api.HandleFunc("/runs", handlers.ListRuns(deps.Runs)).Methods("GET")
	}
	if deps.Scheduler != nil {
		api.HandleFunc("/runs", handlers.TriggerRun(deps.Scheduler)).Methods("POST")
	}

	if deps.Hub != nil {
		api.HandleFunc("/ws", handlers.WebSocketUpgrade(deps.Hub, logger)).Methods("GET")
	}

	return r
}
