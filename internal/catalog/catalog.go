// Package catalog loads course catalogs from disk and scrapes them from the
// Schedge API.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrUnknownSemester is returned for semester codes Schedge does not serve.
	ErrUnknownSemester = errors.New("unknown semester")
	// ErrUnknownSchool is returned when a school filter names a school the
	// subjects listing does not contain.
	ErrUnknownSchool = errors.New("unknown school")
)

// Semesters are the term codes Schedge accepts.
var Semesters = []string{"fa", "su", "sp", "ja"}

// ValidateSemester checks a term code.
func ValidateSemester(sem string) error {
	for _, s := range Semesters {
		if s == sem {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownSemester, sem, strings.Join(Semesters, ", "))
}

// Load reads a catalog file: a JSON array of course objects. Courses are kept
// raw so that one malformed course does not reject the file.
func Load(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var courses []json.RawMessage
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}
	return courses, nil
}

// FileName is the catalog file name for a semester, with the school filter
// appended when one is given, e.g. "2021fa.json" or "2021fa-UA_GY.json".
func FileName(year int, sem string, schools []string) string {
	name := strconv.Itoa(year) + sem
	if len(schools) > 0 {
		name += "-" + strings.Join(schools, "_")
	}
	return name + ".json"
}

// Path joins dir and FileName.
func Path(dir string, year int, sem string, schools []string) string {
	return filepath.Join(dir, FileName(year, sem, schools))
}
