// Package timeslot provides wall-clock intervals on a single day, expressed as
// "HH:MM" strings the way the catalog and the report carry them.
package timeslot

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidTime is returned for strings that are not HH:MM.
	ErrInvalidTime = errors.New("invalid clock time")
	// ErrInvalidWindow is returned when a window does not start before it ends.
	ErrInvalidWindow = errors.New("invalid day window")
)

// Minutes converts an "HH:MM" string to minutes after midnight.
func Minutes(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	h, okH := twoDigits(clock[0], clock[1])
	m, okM := twoDigits(clock[3], clock[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	return h*60 + m, nil
}

// Clock formats minutes after midnight as "HH:MM".
func Clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// Interval is a [Start, End) range of clock times. It is comparable, so two
// intervals with the same endpoints are the same map key.
type Interval struct {
	Start string
	End   string
}

// Duration is the number of minutes from Start to End. It is negative when
// End is earlier than Start; there is no wraparound past midnight.
func (iv Interval) Duration() (int, error) {
	s, err := Minutes(iv.Start)
	if err != nil {
		return 0, err
	}
	e, err := Minutes(iv.End)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// Contains reports whether clock falls in [Start, End).
func (iv Interval) Contains(clock string) bool {
	return iv.Start <= clock && clock < iv.End
}

func (iv Interval) String() string {
	return iv.Start + "-" + iv.End
}

// MarshalJSON encodes the interval as a two-element array.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{iv.Start, iv.End})
}

// UnmarshalJSON decodes a two-element array.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decoding interval: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decoding interval: expected 2 elements, got %d", len(pair))
	}
	iv.Start, iv.End = pair[0], pair[1]
	return nil
}

// Sort orders intervals by start time, then end time.
func Sort(intervals []Interval) {
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}
		return intervals[i].End < intervals[j].End
	})
}

// Window is the part of the day availability is computed over.
type Window struct {
	Start string
	End   string

	startMin int
	endMin   int
}

// ParseWindow validates start and end and returns the window.
func ParseWindow(start, end string) (Window, error) {
	s, err := Minutes(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := Minutes(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	if s >= e {
		return Window{}, fmt.Errorf("%w: %s must be before %s", ErrInvalidWindow, start, end)
	}
	return Window{Start: start, End: end, startMin: s, endMin: e}, nil
}

// StartMinutes returns the window start in minutes after midnight.
func (w Window) StartMinutes() int { return w.startMin }

// EndMinutes returns the window end in minutes after midnight.
func (w Window) EndMinutes() int { return w.endMin }

// Interval returns the whole window as one interval.
func (w Window) Interval() Interval {
	return Interval{Start: w.Start, End: w.End}
}
