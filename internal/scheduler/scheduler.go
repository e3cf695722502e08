package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/internal/motivation"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Dispatcher sends the motivation messages that are due
type Dispatcher interface {
	Dispatch(ctx context.Context, now time.Time) motivation.DispatchStats
}

// Sweeper evicts idle per-user state
type Sweeper interface {
	Sweep() int
}

// Options controls how often each job runs
type Options struct {
	TickInterval  time.Duration
	SweepInterval time.Duration
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler  *gocron.Scheduler
	log        *zap.Logger
	dispatcher Dispatcher
	sweepers   map[string]Sweeper
	opts       Options
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler instance. sweepers are keyed by feature name
// for logging.
func New(log *zap.Logger, dispatcher Dispatcher, sweepers map[string]Sweeper, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		log:        log,
		dispatcher: dispatcher,
		sweepers:   sweepers,
		opts:       opts,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if s.dispatcher != nil {
		if _, err := s.scheduler.Every(s.opts.TickInterval).SingletonMode().Do(s.RunDispatch); err != nil {
			return fmt.Errorf("failed to schedule motivation dispatch: %w", err)
		}
	}
	if len(s.sweepers) > 0 {
		if _, err := s.scheduler.Every(s.opts.SweepInterval).WaitForSchedule().Do(s.RunSweep); err != nil {
			return fmt.Errorf("failed to schedule session sweep: %w", err)
		}
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("scheduler started",
		zap.Duration("tick_interval", s.opts.TickInterval),
		zap.Duration("sweep_interval", s.opts.SweepInterval),
		zap.Int("jobs", len(s.scheduler.Jobs())))
	return nil
}

// Stop cancels a running dispatch and terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// RunDispatch sends every motivation message that is due now. The
// dispatcher logs the outcome.
func (s *Scheduler) RunDispatch() motivation.DispatchStats {
	return s.dispatcher.Dispatch(s.ctx, s.now())
}

// RunSweep evicts idle sessions of every feature and returns the total
func (s *Scheduler) RunSweep() int {
	total := 0
	for name, sw := range s.sweepers {
		n := sw.Sweep()
		if n > 0 {
			s.log.Debug("expired sessions evicted", zap.String("feature", name), zap.Int("count", n))
		}
		total += n
	}
	return total
}
