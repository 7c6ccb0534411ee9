package availability

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/room-vacancy/backend/internal/timeslot"
)

func iv(start, end string) timeslot.Interval {
	return timeslot.Interval{Start: start, End: end}
}

func mustWindow(t *testing.T, start, end string) timeslot.Window {
	t.Helper()
	w, err := timeslot.ParseWindow(start, end)
	require.NoError(t, err)
	return w
}

func TestFreeIntervals(t *testing.T) {
	tests := []struct {
		name        string
		busy        []timeslot.Interval
		minDuration int
		want        []timeslot.Interval
	}{
		{
			name:        "single meeting",
			busy:        []timeslot.Interval{iv("09:00", "10:00")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("08:00", "09:00"), iv("10:00", "22:00")},
		},
		{
			name:        "adjacent meetings leave no gap",
			busy:        []timeslot.Interval{iv("09:00", "09:10"), iv("09:10", "10:00")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("08:00", "09:00"), iv("10:00", "22:00")},
		},
		{
			name:        "empty day is the whole window",
			busy:        nil,
			minDuration: 15,
			want:        []timeslot.Interval{iv("08:00", "22:00")},
		},
		{
			name:        "gap equal to minimum is dropped",
			busy:        []timeslot.Interval{iv("08:00", "09:00"), iv("09:15", "22:00")},
			minDuration: 15,
			want:        []timeslot.Interval{},
		},
		{
			name:        "gap one minute over minimum is kept",
			busy:        []timeslot.Interval{iv("08:00", "09:00"), iv("09:16", "22:00")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("09:00", "09:16")},
		},
		{
			name: "overlaps are not merged",
			busy: []timeslot.Interval{
				iv("09:00", "11:00"),
				iv("10:00", "10:30"),
				iv("12:00", "13:00"),
			},
			minDuration: 15,
			want: []timeslot.Interval{
				iv("08:00", "09:00"),
				iv("10:30", "12:00"),
				iv("13:00", "22:00"),
			},
		},
		{
			name:        "meeting before window start",
			busy:        []timeslot.Interval{iv("07:00", "09:00")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("09:00", "22:00")},
		},
		{
			name:        "meeting past window end",
			busy:        []timeslot.Interval{iv("21:00", "23:00")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("08:00", "21:00")},
		},
		{
			name:        "meeting wrapping past midnight after window",
			busy:        []timeslot.Interval{iv("23:00", "00:30")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("08:00", "22:00")},
		},
		{
			name:        "meeting wrapping past midnight inside window",
			busy:        []timeslot.Interval{iv("21:00", "00:30")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("08:00", "21:00")},
		},
		{
			name:        "wrapped meeting after earlier ones",
			busy:        []timeslot.Interval{iv("09:00", "10:00"), iv("20:00", "01:15")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("08:00", "09:00"), iv("10:00", "20:00")},
		},
		{
			name:        "gap clipped to window start",
			busy:        []timeslot.Interval{iv("06:00", "07:00"), iv("12:00", "13:00")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("08:00", "12:00"), iv("13:00", "22:00")},
		},
		{
			name:        "gap entirely before window is dropped",
			busy:        []timeslot.Interval{iv("06:00", "07:00"), iv("07:30", "09:00")},
			minDuration: 15,
			want:        []timeslot.Interval{iv("09:00", "22:00")},
		},
		{
			name:        "zero minimum keeps short gaps",
			busy:        []timeslot.Interval{iv("09:00", "10:00"), iv("10:01", "21:59")},
			minDuration: 0,
			want:        []timeslot.Interval{iv("08:00", "09:00"), iv("10:00", "10:01"), iv("21:59", "22:00")},
		},
	}

	window := mustWindow(t, "08:00", "22:00")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FreeIntervals(tt.busy, window, tt.minDuration)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFreeIntervalsRejectsBadTimes(t *testing.T) {
	window := mustWindow(t, "08:00", "22:00")
	_, err := FreeIntervals([]timeslot.Interval{iv("9:00", "10:00")}, window, 15)
	assert.ErrorIs(t, err, timeslot.ErrInvalidTime)
}

func TestFreeIntervalsRespectMinimum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	window := mustWindow(t, "08:00", "22:00")

	for round := 0; round < 200; round++ {
		busy := randomBusy(rng, window)
		minDuration := rng.Intn(60)

		free, err := FreeIntervals(busy, window, minDuration)
		require.NoError(t, err)
		for _, f := range free {
			d, err := f.Duration()
			require.NoError(t, err)
			assert.Greater(t, d, minDuration, "round %d: %s", round, f)
			assert.GreaterOrEqual(t, f.Start, window.Start)
			assert.LessOrEqual(t, f.End, window.End)
		}
	}
}

// With disjoint sorted meetings inside the window and no minimum, free and
// busy intervals together cover the window exactly once.
func TestFreeIntervalsTileWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	window := mustWindow(t, "08:00", "22:00")

	for round := 0; round < 200; round++ {
		busy := randomBusy(rng, window)

		free, err := FreeIntervals(busy, window, 0)
		require.NoError(t, err)

		all := append(append([]timeslot.Interval{}, busy...), free...)
		timeslot.Sort(all)

		cursor := window.Start
		for _, part := range all {
			if part.Start == part.End {
				continue
			}
			require.Equal(t, cursor, part.Start, "round %d: gap or overlap before %s", round, part)
			cursor = part.End
		}
		assert.Equal(t, window.End, cursor, "round %d", round)
	}
}

// randomBusy returns sorted, non-overlapping, positive-length meetings inside
// the window.
func randomBusy(rng *rand.Rand, window timeslot.Window) []timeslot.Interval {
	var busy []timeslot.Interval
	cursor := window.StartMinutes()
	for cursor < window.EndMinutes() && rng.Intn(5) != 0 {
		start := cursor + rng.Intn(90)
		end := start + 1 + rng.Intn(120)
		if end > window.EndMinutes() {
			break
		}
		busy = append(busy, iv(timeslot.Clock(start), timeslot.Clock(end)))
		cursor = end
	}
	return busy
}
