package availability

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/room-vacancy/backend/internal/schedule"
	"github.com/room-vacancy/backend/internal/storage/models"
	"github.com/room-vacancy/backend/internal/timeslot"
)

// ErrInvalidWeekday is returned for weekday indexes outside 0..6.
var ErrInvalidWeekday = errors.New("weekday must be between 0 and 6")

// RoomWeek holds a room's free intervals keyed by weekday "0" (Monday)
// through "6" (Sunday).
type RoomWeek map[string][]timeslot.Interval

// Day returns the free intervals for a weekday index.
func (w RoomWeek) Day(weekday int) []timeslot.Interval {
	return w[strconv.Itoa(weekday)]
}

// FreeAt returns the free intervals of weekday that contain the clock time at.
func (w RoomWeek) FreeAt(weekday int, at string) []timeslot.Interval {
	var out []timeslot.Interval
	for _, iv := range w.Day(weekday) {
		if iv.Contains(at) {
			out = append(out, iv)
		}
	}
	return out
}

// PlaceAvailability is a building's record with the free intervals of each of
// its rooms. The record fields are flattened into the same JSON object.
type PlaceAvailability struct {
	models.PlaceRecord
	Rooms map[string]RoomWeek `json:"rooms"`
}

// RoomNames returns room labels in lexicographic order.
func (p PlaceAvailability) RoomNames() []string {
	names := make([]string, 0, len(p.Rooms))
	for name := range p.Rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report maps place canonical names to their availability.
type Report map[string]PlaceAvailability

// Names returns place names in lexicographic order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RoomCount returns the number of rooms across all places.
func (r Report) RoomCount() int {
	n := 0
	for _, p := range r {
		n += len(p.Rooms)
	}
	return n
}

// Vacancy is one room that is free at a queried time.
type Vacancy struct {
	Place    string            `json:"place"`
	Room     string            `json:"room"`
	Interval timeslot.Interval `json:"interval"`
}

// FreeAt lists every room free at the given weekday and time, ordered by
// place then room.
func (r Report) FreeAt(weekday int, at string) ([]Vacancy, error) {
	if err := CheckQuery(weekday, at); err != nil {
		return nil, err
	}

	vacancies := []Vacancy{}
	for _, name := range r.Names() {
		place := r[name]
		for _, room := range place.RoomNames() {
			for _, iv := range place.Rooms[room].FreeAt(weekday, at) {
				vacancies = append(vacancies, Vacancy{Place: name, Room: room, Interval: iv})
			}
		}
	}
	return vacancies, nil
}

// CheckQuery validates a weekday index and an HH:MM time.
func CheckQuery(weekday int, at string) error {
	if weekday < 0 || weekday >= schedule.Days {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, weekday)
	}
	if _, err := timeslot.Minutes(at); err != nil {
		return err
	}
	return nil
}

// Build computes the free intervals of every room of every place on every
// weekday. Weekdays with no busy intervals are free for the whole window.
func Build(s *schedule.Schedule, window timeslot.Window, minDuration int) (Report, error) {
	report := make(Report, s.Len())

	for _, name := range s.Names() {
		plan, _ := s.Lookup(name)
		place := PlaceAvailability{
			PlaceRecord: plan.Location,
			Rooms:       make(map[string]RoomWeek, len(plan.Rooms)),
		}

		for _, room := range plan.RoomNames() {
			week := plan.Rooms[room]
			free := make(RoomWeek, schedule.Days)
			for day := 0; day < schedule.Days; day++ {
				intervals, err := FreeIntervals(week.Busy(day), window, minDuration)
				if err != nil {
					return nil, fmt.Errorf("%s room %s weekday %d: %w", name, room, day, err)
				}
				free[strconv.Itoa(day)] = intervals
			}
			place.Rooms[room] = free
		}

		report[name] = place
	}

	return report, nil
}
