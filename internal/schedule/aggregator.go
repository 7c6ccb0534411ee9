package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/places"
	"github.com/room-vacancy/backend/internal/storage/models"
)

// Normalizer maps a raw building token to its canonical name.
type Normalizer interface {
	Normalize(raw string) string
}

// Resolver maps a canonical building name to a place record. Names that
// cannot be geocoded return an error wrapping places.ErrNotFound.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*models.PlaceRecord, error)
}

// CourseStatus is the outcome of aggregating one course.
type CourseStatus string

// Course status constants
const (
	CourseApplied CourseStatus = "applied"
	CourseSkipped CourseStatus = "skipped"
)

// CourseResult describes what happened to one course of the catalog.
type CourseResult struct {
	Index   int          `json:"index"`
	Course  string       `json:"course,omitempty"`
	Status  CourseStatus `json:"status"`
	Reason  string       `json:"reason,omitempty"`
	Entries int          `json:"entries"`
}

// Summary counts the outcome of an aggregation pass.
type Summary struct {
	Courses    int            `json:"courses"`
	Applied    int            `json:"applied"`
	Skipped    int            `json:"skipped"`
	Entries    int            `json:"entries"`
	Excluded   int            `json:"excluded"`
	Unresolved int            `json:"unresolved"`
	Intervals  int            `json:"intervals"`
	Skips      []CourseResult `json:"skips,omitempty"`
}

// Aggregator builds a Schedule from raw catalog courses.
type Aggregator struct {
	normalizer Normalizer
	resolver   Resolver
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewAggregator creates an aggregator. A nil logger disables logging.
func NewAggregator(normalizer Normalizer, resolver Resolver, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		normalizer: normalizer,
		resolver:   resolver,
		validate:   validator.New(),
		logger:     logger,
	}
}

// resolvedLocation is the memoized outcome for one raw location string.
type resolvedLocation struct {
	place *models.PlaceRecord
	room  string
}

// pending is one interval waiting for its course to finish parsing.
type pending struct {
	place *models.PlaceRecord
	room  string
	busy  BusyInterval
}

// coursePass accumulates one course's contribution so that a malformed
// course leaves the schedule untouched.
type coursePass struct {
	places     []*models.PlaceRecord
	intervals  []pending
	entries    int
	excluded   int
	unresolved int
}

// Aggregate runs one pass over courses in order. Malformed courses are
// skipped and reported in the summary; the returned error is non-nil only
// for failures that must abort the run, such as a cache that cannot be
// persisted or a cancelled context.
func (a *Aggregator) Aggregate(ctx context.Context, courses []json.RawMessage) (*Schedule, Summary, error) {
	s := New()
	summary := Summary{Courses: len(courses)}
	memo := make(map[string]*resolvedLocation)

	for i, raw := range courses {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		result, pass, err := a.aggregateCourse(ctx, i, raw, memo)
		if err != nil {
			return nil, summary, err
		}

		if result.Status == CourseSkipped {
			summary.Skipped++
			summary.Skips = append(summary.Skips, result)
			a.logger.Debug("Skipping malformed course",
				zap.Int("index", i),
				zap.String("course", result.Course),
				zap.String("reason", result.Reason),
			)
			continue
		}

		for _, rec := range pass.places {
			s.Place(*rec)
		}
		for _, p := range pass.intervals {
			s.Place(*p.place).Room(p.room).Add(p.busy.Weekday, p.busy.Interval)
		}
		summary.Applied++
		summary.Entries += pass.entries
		summary.Excluded += pass.excluded
		summary.Unresolved += pass.unresolved
		summary.Intervals += len(pass.intervals)
	}

	return s, summary, nil
}

func (a *Aggregator) aggregateCourse(ctx context.Context, index int, raw json.RawMessage, memo map[string]*resolvedLocation) (CourseResult, *coursePass, error) {
	result := CourseResult{Index: index, Status: CourseSkipped}

	var course models.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		result.Reason = fmt.Sprintf("decoding course: %v", err)
		return result, nil, nil
	}
	result.Course = course.Label()

	if err := a.validate.Struct(course); err != nil {
		result.Reason = formatValidationError(err).Error()
		return result, nil, nil
	}

	pass := &coursePass{}
	for _, section := range course.Sections {
		if err := a.addEntry(ctx, pass, section.Location, *section.Campus, section.Meetings, memo); err != nil {
			return a.fail(result, err)
		}
		for _, rec := range section.Recitations {
			campus := *section.Campus
			if rec.Campus != nil && *rec.Campus != "" {
				campus = *rec.Campus
			}
			if err := a.addEntry(ctx, pass, rec.Location, campus, rec.Meetings, memo); err != nil {
				return a.fail(result, err)
			}
		}
	}

	result.Status = CourseApplied
	result.Entries = pass.entries
	return result, pass, nil
}

// fail separates data errors, which skip the course, from fatal ones.
func (a *Aggregator) fail(result CourseResult, err error) (CourseResult, *coursePass, error) {
	var dataErr *entryError
	if errors.As(err, &dataErr) {
		result.Reason = dataErr.Error()
		return result, nil, nil
	}
	return result, nil, err
}

// entryError marks a malformed entry inside an otherwise decodable course.
type entryError struct {
	location string
	err      error
}

func (e *entryError) Error() string {
	if e.location == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("location %q: %v", e.location, e.err)
}

func (e *entryError) Unwrap() error { return e.err }

// errMissingLocation marks an entry on a physical campus without a location.
var errMissingLocation = errors.New("location is required")

func (a *Aggregator) addEntry(ctx context.Context, pass *coursePass, loc *string, campus string, meetings []models.Meeting, memo map[string]*resolvedLocation) error {
	// The campus decides exclusion before the location is looked at.
	if InvalidCampuses[campus] {
		pass.excluded++
		return nil
	}
	if loc == nil {
		return &entryError{err: errMissingLocation}
	}
	location := *loc
	if !IsPhysical(location, campus) {
		pass.excluded++
		return nil
	}

	resolved, err := a.resolveLocation(ctx, location, memo)
	if err != nil {
		return err
	}
	if resolved == nil {
		pass.unresolved++
		return nil
	}

	pass.entries++
	pass.places = append(pass.places, resolved.place)
	for _, m := range meetings {
		busy, err := ParseMeeting(m)
		if err != nil {
			return &entryError{location: location, err: err}
		}
		pass.intervals = append(pass.intervals, pending{place: resolved.place, room: resolved.room, busy: busy})
	}
	return nil
}

// resolveLocation returns the place and room for a raw location string, or
// nil when the building cannot be geocoded. Results are memoized per string.
func (a *Aggregator) resolveLocation(ctx context.Context, location string, memo map[string]*resolvedLocation) (*resolvedLocation, error) {
	if resolved, ok := memo[location]; ok {
		return resolved, nil
	}

	building, room := SplitLocation(location)
	name := a.normalizer.Normalize(building)

	rec, err := a.resolver.Resolve(ctx, name)
	if errors.Is(err, places.ErrNotFound) {
		a.logger.Info("Place not found", zap.String("location", location), zap.String("building", name), zap.Error(err))
		memo[location] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", name, err)
	}

	resolved := &resolvedLocation{place: rec, room: room}
	memo[location] = resolved
	return resolved, nil
}
