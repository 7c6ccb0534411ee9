package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/room-vacancy/backend/internal/places"
	"github.com/room-vacancy/backend/internal/schedule"
	"github.com/room-vacancy/backend/internal/storage/models"
	"github.com/room-vacancy/backend/internal/timeslot"
)

const sampleCatalog = `[
	{
		"name": "Intro to CS",
		"deptCourseId": "CSCI-UA 101",
		"sections": [
			{
				"location": "Bldg: SILV Room: 405",
				"campus": "Washington Square",
				"meetings": [
					{"beginDate": "2021-09-06 09:30:00", "minutesDuration": 75},
					{"beginDate": "2021-09-08 09:30:00", "minutesDuration": 75}
				]
			},
			{
				"location": "No Room Required",
				"campus": "Online",
				"meetings": [{"beginDate": "2021-09-07 18:00:00", "minutesDuration": 60}]
			},
			{
				"location": "Nowhere Hall Room 1",
				"campus": "Washington Square",
				"meetings": [{"beginDate": "2021-09-07 18:00:00", "minutesDuration": 60}]
			}
		]
	},
	{"name": "Broken", "sections": "nope"}
]`

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, name string) (*models.PlaceRecord, error) {
	if name == "SILV" {
		return &models.PlaceRecord{CanonicalName: "SILV", Name: "Silver Center", PlaceID: "ChIJsilver"}, nil
	}
	return nil, fmt.Errorf("%w: %s", places.ErrNotFound, name)
}

type passthrough struct{}

func (passthrough) Normalize(raw string) string { return raw }

type memoryRuns struct {
	mu   sync.Mutex
	runs map[string]models.AvailabilityRun
	next int
}

func (m *memoryRuns) Create(_ context.Context, run *models.AvailabilityRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	run.ID = fmt.Sprintf("run-%d", m.next)
	run.Status = models.RunStatusRunning
	if m.runs == nil {
		m.runs = make(map[string]models.AvailabilityRun)
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *memoryRuns) Finish(_ context.Context, run *models.AvailabilityRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []string
}

func (e *recordedEvents) record(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, s)
}

func (e *recordedEvents) RunStarted(run models.AvailabilityRun)   { e.record("started " + run.ID) }
func (e *recordedEvents) RunCompleted(run models.AvailabilityRun) { e.record("completed " + run.ID) }
func (e *recordedEvents) RunFailed(run models.AvailabilityRun, _ error) {
	e.record("failed " + run.ID)
}

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "2021fa.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRunner(t *testing.T, input string, opts ...Option) *Runner {
	t.Helper()
	window, err := timeslot.ParseWindow("08:00", "22:00")
	require.NoError(t, err)
	agg := schedule.NewAggregator(passthrough{}, stubResolver{}, nil)
	return NewRunner(FileSource{Path: input}, agg, window, 15, opts...)
}

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, sampleCatalog)
	out := DefaultOutput(filepath.Join(dir, "out"), input, true)
	runs := &memoryRuns{}
	events := &recordedEvents{}

	runner := newTestRunner(t, input, WithOutput(out), WithRunStore(runs), WithEvents(events))

	_, err := runner.Report()
	assert.ErrorIs(t, err, ErrNoReport)

	result, err := runner.Run(context.Background(), models.RunTriggerManual)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, result.Run.Status)
	assert.Equal(t, 2, result.Run.Courses)
	assert.Equal(t, 1, result.Run.Skipped)
	assert.Equal(t, 1, result.Run.Unresolved)
	assert.Equal(t, 1, result.Run.Places)
	assert.Equal(t, 1, result.Run.Rooms)
	assert.Equal(t, 1, result.Summary.Excluded)

	assert.Equal(t, []timeslot.Interval{
		{Start: "08:00", End: "09:30"},
		{Start: "10:45", End: "22:00"},
	}, result.Report["SILV"].Rooms["405"].Day(0))

	stored := runs.runs[result.Run.ID]
	assert.Equal(t, models.RunStatusSuccess, stored.Status)
	assert.NotNil(t, stored.FinishedAt)
	assert.Equal(t, []string{"started run-1", "completed run-1"}, events.events)

	assert.Equal(t, filepath.Join(dir, "out", "Vacancy-2021fa.json"), out.VacancyPath)
	data, err := os.ReadFile(out.VacancyPath)
	require.NoError(t, err)
	var written map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, "Silver Center", written["SILV"]["name"])

	_, err = os.Stat(filepath.Join(dir, "out", "Schedule-2021fa.json"))
	assert.NoError(t, err)

	report, err := runner.Report()
	require.NoError(t, err)
	assert.Equal(t, result.Report, report)
}

func TestRunnerWithoutScheduleDump(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, sampleCatalog)
	out := DefaultOutput(filepath.Join(dir, "out"), input, false)
	assert.Empty(t, out.SchedulePath)

	_, err := newTestRunner(t, input, WithOutput(out)).Run(context.Background(), models.RunTriggerManual)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "out", "Schedule-2021fa.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunnerFailureKeepsPreviousReport(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, sampleCatalog)
	runs := &memoryRuns{}
	events := &recordedEvents{}
	runner := newTestRunner(t, input, WithRunStore(runs), WithEvents(events))

	first, err := runner.Run(context.Background(), models.RunTriggerStartup)
	require.NoError(t, err)

	require.NoError(t, os.Remove(input))
	_, err = runner.Run(context.Background(), models.RunTriggerScheduled)
	require.Error(t, err)

	failed := runs.runs["run-2"]
	assert.Equal(t, models.RunStatusError, failed.Status)
	require.NotNil(t, failed.Error)
	assert.Contains(t, *failed.Error, "reading catalog")
	assert.Equal(t, []string{"started run-1", "completed run-1", "started run-2", "failed run-2"}, events.events)

	latest, err := runner.Latest()
	require.NoError(t, err)
	assert.Equal(t, first.Run.ID, latest.Run.ID)
}

func TestRunnerCancelledRun(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, sampleCatalog)
	runs := &memoryRuns{}
	runner := newTestRunner(t, input, WithRunStore(runs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, models.RunTriggerManual)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.RunStatusError, runs.runs["run-1"].Status)
}
