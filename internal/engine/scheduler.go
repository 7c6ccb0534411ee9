package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/storage/models"
)

// Trigger runs the pipeline once.
type Trigger interface {
	Run(ctx context.Context, trigger string) (*Result, error)
}

// Scheduler recomputes availability on a fixed interval and on demand.
type Scheduler struct {
	cron     *cron.Cron
	runner   Trigger
	interval time.Duration
	logger   *zap.Logger

	entry cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Guards stopped and wg.Add against Stop.
	mu      sync.Mutex
	stopped bool
}

// NewScheduler creates a scheduler. A non-positive interval disables the
// periodic job; manual triggers still work.
func NewScheduler(runner Trigger, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules the periodic refresh and starts the cron loop. Runs are
// cancelled through ctx or Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if s.interval > 0 {
		id, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
			s.run(models.RunTriggerScheduled)
		})
		if err != nil {
			return fmt.Errorf("scheduling refresh: %w", err)
		}
		s.entry = id
	}

	s.cron.Start()
	s.logger.Info("Availability scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping availability scheduler")
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Availability scheduler stopped")
}

// TriggerNow starts a run in the background. It queues behind a run already
// in progress. Triggers after Stop are ignored.
func (s *Scheduler) TriggerNow(trigger string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Debug("Ignoring trigger after stop", zap.String("trigger", trigger))
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(trigger)
	}()
}

// NextRun returns the next scheduled refresh, or nil when none is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	if s.entry == 0 {
		return nil
	}
	entry := s.cron.Entry(s.entry)
	if entry.Next.IsZero() {
		return nil
	}
	return &entry.Next
}

func (s *Scheduler) run(trigger string) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	// Failures are recorded and broadcast by the runner.
	_, _ = s.runner.Run(ctx, trigger)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
