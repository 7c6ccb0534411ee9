package schedule

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/room-vacancy/backend/internal/storage/models"
	"github.com/room-vacancy/backend/internal/timeslot"
)

// Week is the set of busy intervals of one room, per weekday.
type Week [Days]map[timeslot.Interval]struct{}

// Add inserts an interval; an identical interval already present is absorbed.
func (w *Week) Add(weekday int, iv timeslot.Interval) {
	if w[weekday] == nil {
		w[weekday] = make(map[timeslot.Interval]struct{})
	}
	w[weekday][iv] = struct{}{}
}

// Busy returns the weekday's intervals sorted by start then end. It returns
// nil when nothing was recorded for the weekday.
func (w *Week) Busy(weekday int) []timeslot.Interval {
	set := w[weekday]
	if len(set) == 0 {
		return nil
	}
	out := make([]timeslot.Interval, 0, len(set))
	for iv := range set {
		out = append(out, iv)
	}
	timeslot.Sort(out)
	return out
}

// Len returns the number of distinct intervals over the whole week.
func (w *Week) Len() int {
	n := 0
	for _, set := range w {
		n += len(set)
	}
	return n
}

// MarshalJSON encodes only the weekdays that have intervals, keyed "0".."6".
func (w *Week) MarshalJSON() ([]byte, error) {
	out := make(map[string][]timeslot.Interval)
	for day := 0; day < Days; day++ {
		if busy := w.Busy(day); busy != nil {
			out[strconv.Itoa(day)] = busy
		}
	}
	return json.Marshal(out)
}

// PlacePlan holds a resolved building and its rooms.
type PlacePlan struct {
	Location models.PlaceRecord `json:"location"`
	Rooms    map[string]*Week   `json:"rooms"`
}

// Room returns the room's week, creating it on first access.
func (p *PlacePlan) Room(label string) *Week {
	w, ok := p.Rooms[label]
	if !ok {
		w = &Week{}
		p.Rooms[label] = w
	}
	return w
}

// RoomNames returns room labels in lexicographic order.
func (p *PlacePlan) RoomNames() []string {
	names := make([]string, 0, len(p.Rooms))
	for name := range p.Rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schedule is the busy-interval structure of every room, keyed by place
// canonical name, then room label, then weekday.
type Schedule struct {
	places map[string]*PlacePlan
}

// New returns an empty schedule.
func New() *Schedule {
	return &Schedule{places: make(map[string]*PlacePlan)}
}

// Place returns the plan for rec, creating it on first access.
func (s *Schedule) Place(rec models.PlaceRecord) *PlacePlan {
	p, ok := s.places[rec.CanonicalName]
	if !ok {
		p = &PlacePlan{Location: rec, Rooms: make(map[string]*Week)}
		s.places[rec.CanonicalName] = p
	}
	return p
}

// Lookup returns the plan for a place name.
func (s *Schedule) Lookup(name string) (*PlacePlan, bool) {
	p, ok := s.places[name]
	return p, ok
}

// Names returns place names in lexicographic order.
func (s *Schedule) Names() []string {
	names := make([]string, 0, len(s.places))
	for name := range s.places {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of places.
func (s *Schedule) Len() int {
	return len(s.places)
}

// RoomCount returns the number of rooms across all places.
func (s *Schedule) RoomCount() int {
	n := 0
	for _, p := range s.places {
		n += len(p.Rooms)
	}
	return n
}

// MarshalJSON encodes the schedule as
// {place: {location: PlaceRecord, rooms: {room: {weekday: [[start, end]]}}}}.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.places)
}
