package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		location string
		building string
		room     string
	}{
		{"Bldg: SILV Room: 405", "SILV", "405"},
		{"Silver Ctr. Room 207", "Silver Ctr", "207"},
		{"Bobst, Rm 702", "Bobst", "702"},
		{"60FA-Room 110", "60FA", "110"},
		{"Kimmel (Room 900)", "Kimmel", "900)"},
		{"ROOM: 101", "", "101"},
		{"CIWW 109", "CIWW 109", "CIWW 109"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			building, room := SplitLocation(tt.location)
			assert.Equal(t, tt.building, building)
			assert.Equal(t, tt.room, room)
		})
	}
}

func TestIsPhysical(t *testing.T) {
	tests := []struct {
		name     string
		location string
		campus   string
		want     bool
	}{
		{"regular room", "Bldg: SILV Room: 405", "Washington Square", true},
		{"online campus", "Bldg: SILV Room: 405", "Online", false},
		{"distance learning", "Bobst, Rm 702", "Distance Learning/Asynchronous", false},
		{"no room required", "No Room Required", "Washington Square", false},
		{"to be arranged", "To Be Arranged", "Brooklyn Campus", false},
		{"both invalid", "No Room Required", "Online", false},
		{"location match is exact", "TBA Room 1", "Washington Square", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPhysical(tt.location, tt.campus))
		})
	}
}
