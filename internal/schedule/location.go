package schedule

import (
	"regexp"
	"strings"
)

// InvalidLocations are location strings that do not name a physical room.
var InvalidLocations = map[string]bool{
	"No":               true,
	"TBA":              true,
	"Online":           true,
	"Off":              true,
	"To Be Arranged":   true,
	"No Room Required": true,
	"Off-Campus":       true,
	"No room needed":   true,
}

// InvalidCampuses are campus tags whose sections never meet in a room.
var InvalidCampuses = map[string]bool{
	"Off Campus":                     true,
	"Online":                         true,
	"Distance Learning/Synchronous":  true,
	"Distance Learning/Asynchronous": true,
}

// locationSeparators splits "Bldg: SILV Room: 405", "CIWW 109",
// "Bobst, Rm 702" and "Kimmel (Room 900)" style strings.
var locationSeparators = regexp.MustCompile(`(?i)room:?\s*|rm[:\s]|,\s*|\s\(`)

var buildingReplacer = strings.NewReplacer("Bldg:", "", ".", "")

// IsPhysical reports whether an entry with this location and campus can be
// placed in a room.
func IsPhysical(location, campus string) bool {
	return !InvalidCampuses[campus] && !InvalidLocations[location]
}

// SplitLocation splits a raw location into its building token and room label.
// The building is the first fragment up to any '-', with "Bldg:" and dots
// removed; the room is the last fragment. A string with no separator yields
// the same text for both.
func SplitLocation(location string) (building, room string) {
	parts := locationSeparators.Split(location, -1)

	building = strings.SplitN(parts[0], "-", 2)[0]
	building = strings.TrimSpace(buildingReplacer.Replace(building))
	room = strings.TrimSpace(parts[len(parts)-1])

	return building, room
}
