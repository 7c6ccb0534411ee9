package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/room-vacancy/backend/internal/api/middleware"
	"github.com/room-vacancy/backend/internal/availability"
	"github.com/room-vacancy/backend/internal/engine"
	"github.com/room-vacancy/backend/internal/timeslot"
)

// ResultSource serves the latest computed availability.
type ResultSource interface {
	Latest() (*engine.Result, error)
}

// PlaceSummary is one entry of the place listing.
type PlaceSummary struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Address     string   `json:"address"`
	URL         string   `json:"url"`
	Latitude    float64  `json:"lat"`
	Longitude   float64  `json:"lng"`
	Rooms       []string `json:"rooms"`
}

// RoomResponse is one room's free intervals for the whole week.
type RoomResponse struct {
	Place string                `json:"place"`
	Room  string                `json:"room"`
	Free  availability.RoomWeek `json:"free"`
}

// FreeResponse lists the free intervals containing a queried time.
type FreeResponse struct {
	Place   string              `json:"place"`
	Room    string              `json:"room"`
	Weekday int                 `json:"weekday"`
	At      string              `json:"at"`
	Free    []timeslot.Interval `json:"free"`
}

// VacanciesResponse lists every room free at a queried time.
type VacanciesResponse struct {
	Weekday   int                    `json:"weekday"`
	At        string                 `json:"at"`
	Vacancies []availability.Vacancy `json:"vacancies"`
}

// currentReport writes an error response and returns false when no report
// has been computed.
func currentReport(w http.ResponseWriter, source ResultSource) (availability.Report, bool) {
	latest, err := source.Latest()
	if errors.Is(err, engine.ErrNoReport) {
		middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrNotReady, "Availability has not been computed yet")
		return nil, false
	}
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load availability")
		return nil, false
	}
	return latest.Report, true
}

// ListPlaces returns every place in name order.
func ListPlaces(source ResultSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := currentReport(w, source)
		if !ok {
			return
		}

		summaries := make([]PlaceSummary, 0, len(report))
		for _, name := range report.Names() {
			p := report[name]
			summaries = append(summaries, PlaceSummary{
				Name:        name,
				DisplayName: p.Name,
				Address:     p.FormattedAddress,
				URL:         p.URL,
				Latitude:    p.Latitude,
				Longitude:   p.Longitude,
				Rooms:       p.RoomNames(),
			})
		}
		middleware.WriteJSON(w, http.StatusOK, summaries)
	}
}

// GetPlace returns one place with every room's free intervals.
func GetPlace(source ResultSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := currentReport(w, source)
		if !ok {
			return
		}

		place, found := report[mux.Vars(r)["name"]]
		if !found {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Place not found")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, place)
	}
}

// GetRoom returns one room's free intervals for every weekday.
func GetRoom(source ResultSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := currentReport(w, source)
		if !ok {
			return
		}

		name, room := mux.Vars(r)["name"], mux.Vars(r)["room"]
		week, found := lookupRoom(w, report, name, room)
		if !found {
			return
		}
		middleware.WriteJSON(w, http.StatusOK, RoomResponse{Place: name, Room: room, Free: week})
	}
}

// GetRoomFreeAt returns the room's free intervals that contain ?at= on
// ?weekday=.
func GetRoomFreeAt(source ResultSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		weekday, at, ok := parseQuery(w, r)
		if !ok {
			return
		}
		report, ok := currentReport(w, source)
		if !ok {
			return
		}

		name, room := mux.Vars(r)["name"], mux.Vars(r)["room"]
		week, found := lookupRoom(w, report, name, room)
		if !found {
			return
		}

		free := week.FreeAt(weekday, at)
		if free == nil {
			free = []timeslot.Interval{}
		}
		middleware.WriteJSON(w, http.StatusOK, FreeResponse{
			Place:   name,
			Room:    room,
			Weekday: weekday,
			At:      at,
			Free:    free,
		})
	}
}

// ListVacancies returns every room free at ?at= on ?weekday=.
func ListVacancies(source ResultSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		weekday, at, ok := parseQuery(w, r)
		if !ok {
			return
		}
		report, ok := currentReport(w, source)
		if !ok {
			return
		}

		vacancies, err := report.FreeAt(weekday, at)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}
		middleware.WriteJSON(w, http.StatusOK, VacanciesResponse{Weekday: weekday, At: at, Vacancies: vacancies})
	}
}

func lookupRoom(w http.ResponseWriter, report availability.Report, name, room string) (availability.RoomWeek, bool) {
	place, ok := report[name]
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Place not found")
		return nil, false
	}
	week, ok := place.Rooms[room]
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Room not found")
		return nil, false
	}
	return week, true
}

// parseQuery reads and validates the weekday and at query parameters.
func parseQuery(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	q := r.URL.Query()
	weekday, err := strconv.Atoi(q.Get("weekday"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "weekday must be an integer between 0 and 6")
		return 0, "", false
	}
	at := q.Get("at")
	if err := availability.CheckQuery(weekday, at); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
		return 0, "", false
	}
	return weekday, at, true
}
