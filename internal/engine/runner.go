// Package engine runs the availability pipeline end to end: load the catalog,
// aggregate busy intervals, compute free intervals, write the outputs and
// record the run.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/availability"
	"github.com/room-vacancy/backend/internal/catalog"
	"github.com/room-vacancy/backend/internal/jsonfile"
	"github.com/room-vacancy/backend/internal/schedule"
	"github.com/room-vacancy/backend/internal/storage/models"
	"github.com/room-vacancy/backend/internal/timeslot"
)

// ErrNoReport is returned by readers before the first successful run.
var ErrNoReport = errors.New("no availability report computed yet")

// Source provides the raw catalog for a run.
type Source interface {
	Catalog(ctx context.Context) ([]json.RawMessage, error)
}

// FileSource reads the catalog from a JSON file on every run.
type FileSource struct {
	Path string
}

// Catalog implements Source.
func (s FileSource) Catalog(_ context.Context) ([]json.RawMessage, error) {
	return catalog.Load(s.Path)
}

// Aggregator builds a busy schedule from raw courses.
type Aggregator interface {
	Aggregate(ctx context.Context, courses []json.RawMessage) (*schedule.Schedule, schedule.Summary, error)
}

// RunStore persists run history.
type RunStore interface {
	Create(ctx context.Context, run *models.AvailabilityRun) error
	Finish(ctx context.Context, run *models.AvailabilityRun) error
}

// Events receives run lifecycle notifications.
type Events interface {
	RunStarted(run models.AvailabilityRun)
	RunCompleted(run models.AvailabilityRun)
	RunFailed(run models.AvailabilityRun, err error)
}

// CacheStats reports the size of the place resolution cache.
type CacheStats interface {
	Len() (resolved, failed int)
}

// Output names the files a run writes. Empty paths are skipped.
type Output struct {
	VacancyPath  string
	SchedulePath string
}

// DefaultOutput returns the conventional output paths for an input catalog:
// Vacancy-<name> and, when saveSchedule is set, Schedule-<name> in outDir.
func DefaultOutput(outDir, inputPath string, saveSchedule bool) Output {
	name := filepath.Base(inputPath)
	out := Output{VacancyPath: filepath.Join(outDir, "Vacancy-"+name)}
	if saveSchedule {
		out.SchedulePath = filepath.Join(outDir, "Schedule-"+name)
	}
	return out
}

// Result is the outcome of one successful run.
type Result struct {
	Run      models.AvailabilityRun
	Summary  schedule.Summary
	Schedule *schedule.Schedule
	Report   availability.Report
}

// Runner executes the pipeline. Runs are serialized; readers get the last
// successful result.
type Runner struct {
	source      Source
	aggregator  Aggregator
	window      timeslot.Window
	minDuration int

	output Output
	runs   RunStore
	events Events
	stats  CacheStats
	logger *zap.Logger

	runMu sync.Mutex

	latestMu sync.RWMutex
	latest   *Result
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets the files each run writes.
func WithOutput(out Output) Option {
	return func(r *Runner) { r.output = out }
}

// WithRunStore records every run.
func WithRunStore(store RunStore) Option {
	return func(r *Runner) { r.runs = store }
}

// WithEvents publishes run lifecycle events.
func WithEvents(events Events) Option {
	return func(r *Runner) { r.events = events }
}

// WithCacheStats logs cache sizes after each run.
func WithCacheStats(stats CacheStats) Option {
	return func(r *Runner) { r.stats = stats }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner.
func NewRunner(source Source, aggregator Aggregator, window timeslot.Window, minDuration int, opts ...Option) *Runner {
	r := &Runner{
		source:      source,
		aggregator:  aggregator,
		window:      window,
		minDuration: minDuration,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pipeline once. A failed run leaves the previous result in
// place.
func (r *Runner) Run(ctx context.Context, trigger string) (*Result, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	run := models.AvailabilityRun{TriggeredBy: trigger, StartedAt: time.Now().UTC()}
	if r.runs != nil {
		if err := r.runs.Create(ctx, &run); err != nil {
			return nil, fmt.Errorf("recording run: %w", err)
		}
	}
	if r.events != nil {
		r.events.RunStarted(run)
	}
	r.logger.Info("Availability run started", zap.String("run_id", run.ID), zap.String("trigger", trigger))

	result, err := r.execute(ctx, &run)
	if err != nil {
		r.fail(ctx, run, err)
		return nil, err
	}

	run.Status = models.RunStatusSuccess
	r.finish(ctx, &run)
	result.Run = run

	r.latestMu.Lock()
	r.latest = result
	r.latestMu.Unlock()

	if r.events != nil {
		r.events.RunCompleted(run)
	}
	r.logger.Info("Availability run completed",
		zap.String("run_id", run.ID),
		zap.Int("courses", run.Courses),
		zap.Int("skipped", run.Skipped),
		zap.Int("places", run.Places),
		zap.Int("rooms", run.Rooms),
		zap.Int("unresolved", run.Unresolved),
	)
	if r.stats != nil {
		resolved, failed := r.stats.Len()
		r.logger.Info("Resolver summary", zap.Int("resolved", resolved), zap.Int("not_found", failed))
	}
	return result, nil
}

func (r *Runner) execute(ctx context.Context, run *models.AvailabilityRun) (*Result, error) {
	courses, err := r.source.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	sched, summary, err := r.aggregator.Aggregate(ctx, courses)
	run.Courses = summary.Courses
	run.Skipped = summary.Skipped
	run.Unresolved = summary.Unresolved
	if err != nil {
		return nil, fmt.Errorf("aggregating schedule: %w", err)
	}

	report, err := availability.Build(sched, r.window, r.minDuration)
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}
	run.Places = len(report)
	run.Rooms = report.RoomCount()

	if r.output.SchedulePath != "" {
		if err := jsonfile.Write(r.output.SchedulePath, sched); err != nil {
			return nil, fmt.Errorf("writing schedule: %w", err)
		}
		r.logger.Info("Saved", zap.String("file", r.output.SchedulePath))
	}
	if r.output.VacancyPath != "" {
		if err := jsonfile.Write(r.output.VacancyPath, report); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
		r.logger.Info("Saved", zap.String("file", r.output.VacancyPath))
	}

	return &Result{Summary: summary, Schedule: sched, Report: report}, nil
}

func (r *Runner) fail(ctx context.Context, run models.AvailabilityRun, err error) {
	msg := err.Error()
	run.Status = models.RunStatusError
	run.Error = &msg
	r.finish(ctx, &run)

	if r.events != nil {
		r.events.RunFailed(run, err)
	}
	r.logger.Error("Availability run failed", zap.String("run_id", run.ID), zap.Error(err))
}

// finish records the outcome even when ctx was cancelled mid-run.
func (r *Runner) finish(ctx context.Context, run *models.AvailabilityRun) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	if r.runs == nil {
		return
	}
	if err := r.runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		r.logger.Warn("Recording run outcome", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// Latest returns the last successful result.
func (r *Runner) Latest() (*Result, error) {
	r.latestMu.RLock()
	defer r.latestMu.RUnlock()
	if r.latest == nil {
		return nil, ErrNoReport
	}
	return r.latest, nil
}

// Report returns the last successful availability report.
func (r *Runner) Report() (availability.Report, error) {
	latest, err := r.Latest()
	if err != nil {
		return nil, err
	}
	return latest.Report, nil
}
