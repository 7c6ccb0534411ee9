// Package schedule aggregates catalog sections into per-room weekly busy
// intervals.
package schedule

import (
	"fmt"
	"time"

	"github.com/room-vacancy/backend/internal/storage/models"
	"github.com/room-vacancy/backend/internal/timeslot"
)

// MeetingLayout is the layout of Meeting.BeginDate.
const MeetingLayout = "2006-01-02 15:04:05"

// Days in a week; weekday indexes run 0 (Monday) through 6 (Sunday).
const Days = 7

// BusyInterval is one occupied slot on a weekday.
type BusyInterval struct {
	Weekday int
	timeslot.Interval
}

// ParseMeeting converts a raw meeting into its weekday and clock times. The
// end is begin plus the duration; a meeting that runs past midnight gets an
// end earlier than its start and is not adjusted.
func ParseMeeting(m models.Meeting) (BusyInterval, error) {
	begin, err := time.Parse(MeetingLayout, m.BeginDate)
	if err != nil {
		return BusyInterval{}, fmt.Errorf("parsing beginDate %q: %w", m.BeginDate, err)
	}
	if m.MinutesDuration == nil {
		return BusyInterval{}, fmt.Errorf("meeting at %s has no duration", m.BeginDate)
	}
	if *m.MinutesDuration < 0 {
		return BusyInterval{}, fmt.Errorf("meeting at %s has negative duration %d", m.BeginDate, *m.MinutesDuration)
	}

	end := begin.Add(time.Duration(*m.MinutesDuration) * time.Minute)
	return BusyInterval{
		Weekday: Weekday(begin),
		Interval: timeslot.Interval{
			Start: begin.Format("15:04"),
			End:   end.Format("15:04"),
		},
	}, nil
}

// Weekday returns the day of week of t with Monday as 0.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % Days
}
