package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is the work of a periodic job. The context carries the job timeout.
type JobFunc func(ctx context.Context) error

// JobState is a snapshot of a registered job
type JobState struct {
	Name        string
	Cron        string
	Status      JobStatus
	LastRunAt   *time.Time
	LastError   string
	RunCount    int
	FailedCount int
}

type job struct {
	name string
	cron string
	fn   JobFunc

	mu    sync.Mutex
	state JobState
}

func (j *job) snapshot() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Scheduler runs named jobs on cron expressions. A job never overlaps with
// its own previous run, and each run gets its own timeout.
type Scheduler struct {
	cron       *gocron.Scheduler
	jobTimeout time.Duration
	logger     *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*job
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	wg        sync.WaitGroup
}

// NewScheduler creates a scheduler in the local time zone
func NewScheduler(jobTimeout time.Duration, logger *zap.Logger) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:       gocron.NewScheduler(time.Local),
		jobTimeout: jobTimeout,
		logger:     logger,
		jobs:       make(map[string]*job),
	}
}

// Register adds a job under a unique name
func (s *Scheduler) Register(name, cronExpr string, fn JobFunc) error {
	if name == "" || fn == nil {
		return ErrInvalidConfig
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	j := &job{
		name:  name,
		cron:  cronExpr,
		fn:    fn,
		state: JobState{Name: name, Cron: cronExpr, Status: JobStatusPending},
	}
	if _, err := s.cron.Cron(cronExpr).Tag(name).SingletonMode().Do(s.execute, j); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCron, cronExpr, err)
	}
	s.jobs[name] = j

	s.logger.Info("Job registered",
		zap.String("job", name),
		zap.String("cron", cronExpr),
	)
	return nil
}

// Start starts firing the registered jobs
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true
	s.cron.StartAsync()

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.jobTimeout),
	)
	return nil
}

// Stop stops firing jobs and waits for running ones until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs a registered job synchronously, outside of its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, j)
}

// State returns the state of a registered job
func (s *Scheduler) State(name string) (JobState, bool) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobState{}, false
	}
	return j.snapshot(), true
}

// IsRunning reports whether the scheduler has been started
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// execute is the gocron entry point
func (s *Scheduler) execute(j *job) {
	s.mu.Lock()
	ctx := s.ctx
	running := s.isRunning
	s.mu.Unlock()
	if !running || ctx == nil {
		return
	}
	_ = s.run(ctx, j)
}

func (s *Scheduler) run(ctx context.Context, j *job) error {
	s.wg.Add(1)
	defer s.wg.Done()

	started := time.Now()
	j.mu.Lock()
	j.state.Status = JobStatusRunning
	j.state.LastRunAt = &started
	j.state.RunCount++
	j.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	err := j.fn(jobCtx)

	j.mu.Lock()
	if err != nil {
		j.state.Status = JobStatusFailed
		j.state.LastError = err.Error()
		j.state.FailedCount++
	} else {
		j.state.Status = JobStatusSuccess
		j.state.LastError = ""
	}
	j.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", j.name),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("Job completed",
		zap.String("job", j.name),
		zap.Duration("duration", time.Since(started)),
	)
	return nil
}
