// Package availability turns per-room busy intervals into free intervals and
// assembles the availability report.
package availability

import (
	"fmt"

	"github.com/room-vacancy/backend/internal/timeslot"
)

const minutesPerDay = 24 * 60

// FreeIntervals returns the gaps between busy intervals inside window that
// last strictly longer than minDuration minutes.
//
// busy must be sorted by start time (see timeslot.Sort). Intervals may
// overlap or touch; they are not merged. A gap from one interval's end to an
// earlier start of the next one has negative duration and is dropped. Gap
// endpoints are clipped to the window. An interval whose end is earlier than
// its start ran past midnight and counts as busy until 24:00. An empty busy
// list yields the whole window.
func FreeIntervals(busy []timeslot.Interval, window timeslot.Window, minDuration int) ([]timeslot.Interval, error) {
	if len(busy) == 0 {
		return []timeslot.Interval{window.Interval()}, nil
	}

	starts := make([]int, len(busy))
	ends := make([]int, len(busy))
	for i, iv := range busy {
		s, err := timeslot.Minutes(iv.Start)
		if err != nil {
			return nil, fmt.Errorf("busy interval %s: %w", iv, err)
		}
		e, err := timeslot.Minutes(iv.End)
		if err != nil {
			return nil, fmt.Errorf("busy interval %s: %w", iv, err)
		}
		if e < s {
			// Wrapped past midnight: busy until the end of the day.
			e = minutesPerDay
		}
		starts[i], ends[i] = s, e
	}

	free := make([]timeslot.Interval, 0, len(busy)+1)
	add := func(from, to int) {
		from = max(from, window.StartMinutes())
		to = min(to, window.EndMinutes())
		if to-from <= minDuration {
			return
		}
		free = append(free, timeslot.Interval{Start: timeslot.Clock(from), End: timeslot.Clock(to)})
	}

	last := len(busy) - 1
	if window.StartMinutes() < starts[0] {
		add(window.StartMinutes(), starts[0])
	}
	for i := 0; i < last; i++ {
		add(ends[i], starts[i+1])
	}
	if window.EndMinutes() > ends[last] {
		add(ends[last], window.EndMinutes())
	}

	return free, nil
}
