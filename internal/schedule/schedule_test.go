package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/room-vacancy/backend/internal/storage/models"
	"github.com/room-vacancy/backend/internal/timeslot"
)

func TestWeekAbsorbsDuplicates(t *testing.T) {
	var w Week
	w.Add(1, timeslot.Interval{Start: "11:00", End: "12:15"})
	w.Add(1, timeslot.Interval{Start: "09:00", End: "10:00"})
	w.Add(1, timeslot.Interval{Start: "11:00", End: "12:15"})
	w.Add(1, timeslot.Interval{Start: "09:00", End: "09:30"})

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []timeslot.Interval{
		{Start: "09:00", End: "09:30"},
		{Start: "09:00", End: "10:00"},
		{Start: "11:00", End: "12:15"},
	}, w.Busy(1))
	assert.Nil(t, w.Busy(2))
}

func TestScheduleAutoVivifies(t *testing.T) {
	s := New()
	rec := models.PlaceRecord{CanonicalName: "Bobst Library", PlaceID: "p1"}

	s.Place(rec).Room("702").Add(0, timeslot.Interval{Start: "09:00", End: "10:00"})
	s.Place(rec).Room("LL1").Add(3, timeslot.Interval{Start: "13:00", End: "14:00"})
	s.Place(models.PlaceRecord{CanonicalName: "Silver Center"})

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.RoomCount())
	assert.Equal(t, []string{"Bobst Library", "Silver Center"}, s.Names())

	plan, ok := s.Lookup("Bobst Library")
	require.True(t, ok)
	assert.Equal(t, "p1", plan.Location.PlaceID)
	assert.Equal(t, []string{"702", "LL1"}, plan.RoomNames())

	_, ok = s.Lookup("Tisch Hall")
	assert.False(t, ok)
}

func TestScheduleMarshalJSON(t *testing.T) {
	s := New()
	s.Place(models.PlaceRecord{CanonicalName: "Bobst Library", Name: "Bobst"}).
		Room("702").Add(2, timeslot.Interval{Start: "09:00", End: "10:00"})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]struct {
		Location models.PlaceRecord                       `json:"location"`
		Rooms    map[string]map[string][]timeslot.Interval `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Contains(t, decoded, "Bobst Library")
	assert.Equal(t, "Bobst", decoded["Bobst Library"].Location.Name)
	assert.Equal(t, map[string][]timeslot.Interval{
		"2": {{Start: "09:00", End: "10:00"}},
	}, decoded["Bobst Library"].Rooms["702"])
}
