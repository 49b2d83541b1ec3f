package services

import (
	"context"
	"newsdigest/config"
	"newsdigest/internal/types"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-co-op/gocron"
)

// Schedule runs a job every Interval. RunImmediately also runs it on start.
type Schedule struct {
	Interval       time.Duration
	RunImmediately bool
}

// Job represents a scheduled task that can be executed by the scheduler
type Job interface {
	// ID is the stable identifier used as the scheduler tag
	ID() string

	// Name returns a human-readable name for the job
	Name() string

	// Execute runs the job with the given context
	// Context can be used for cancellation and timeout handling
	Execute(ctx context.Context) error
	Schedule() Schedule
}

type scheduledJob struct {
	job     Job
	gocron  *gocron.Job
	running sync.Mutex
}

type SchedulerService struct {
	scheduler *gocron.Scheduler
	jobs      []*scheduledJob
	log       logger.Logger
	enabled   bool
	grace     time.Duration
	started   bool
	mu        sync.Mutex
	inflight  sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSchedulerService(config config.Config) *SchedulerService {
	// Create scheduler in UTC timezone
	scheduler := gocron.NewScheduler(time.UTC)

	// Create cancellable context for job execution
	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerService{
		scheduler: scheduler,
		jobs:      make([]*scheduledJob, 0),
		log:       logger.New("scheduler"),
		enabled:   config.SchedulerEnabled,
		grace:     config.SchedulerShutdownGrace(),
		started:   false,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// jobContext returns the context executions run under for the current start.
func (s *SchedulerService) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// executeJob runs one execution. Overlapping runs of the same job are skipped.
func (s *SchedulerService) executeJob(ctx context.Context, entry *scheduledJob, log logger.Logger) {
	if !entry.running.TryLock() {
		log.Warn("Previous execution still running, skipping", "job", entry.job.ID())
		return
	}
	defer entry.running.Unlock()

	s.inflight.Add(1)
	defer s.inflight.Done()

	if ctx.Err() != nil {
		return
	}

	ctx = logger.ContextWithTraceID(ctx, entry.job.ID()+"-"+time.Now().UTC().Format("20060102T150405"))
	log.Info("Executing scheduled job", "job", entry.job.Name())
	if err := entry.job.Execute(ctx); err != nil {
		_ = log.Err("Job execution failed", err, "job", entry.job.Name())
	} else {
		log.Info("Job execution completed successfully", "job", entry.job.Name())
	}
}

// AddJob registers a job with the scheduler
func (s *SchedulerService) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("AddJob")

	schedule := job.Schedule()
	if schedule.Interval <= 0 {
		return log.Error("job interval must be positive", "job", job.ID(), "interval", schedule.Interval)
	}

	entry := &scheduledJob{job: job}

	builder := s.scheduler.Every(schedule.Interval).Tag(job.ID()).SingletonMode()
	if !schedule.RunImmediately {
		builder = builder.WaitForSchedule()
	}

	gocronJob, err := builder.Do(func() {
		s.executeJob(s.jobContext(), entry, log)
	})
	if err != nil {
		return log.Err("failed to register job with scheduler", err, "job", job.ID())
	}
	entry.gocron = gocronJob

	// Store job reference for management
	s.jobs = append(s.jobs, entry)
	log.Info(
		"Job registered successfully",
		"job", job.ID(),
		"interval", schedule.Interval.String(),
		"runImmediately", schedule.RunImmediately,
	)

	return nil
}

// Start begins the scheduler
func (s *SchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("Start")

	if !s.enabled {
		log.Info("Scheduler disabled, not starting")
		return nil
	}

	if s.started {
		log.Info("Scheduler already started")
		return nil
	}

	if len(s.jobs) == 0 {
		log.Info("No jobs registered, scheduler will not start")
		return nil
	}

	// A previous Stop cancelled the execution context
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	log.Info("Starting scheduler", "jobCount", len(s.jobs))
	s.scheduler.StartAsync()
	s.started = true

	// Log next run times for all jobs
	for _, entry := range s.jobs {
		log.Info("Job scheduled", "job", entry.job.ID(), "nextRun", entry.gocron.NextRun())
	}

	log.Info("Scheduler started successfully")
	return nil
}

// Stop cancels running jobs, stops scheduling and waits for in-flight
// executions up to the shutdown grace period.
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	log := s.log.Function("Stop")

	if !s.started {
		s.mu.Unlock()
		log.Info("Scheduler not started, nothing to stop")
		return nil
	}

	log.Info("Stopping scheduler", "grace", s.grace.String())

	// Cancel the context to signal running jobs to stop
	if s.cancel != nil {
		s.cancel()
	}
	s.started = false
	s.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		s.scheduler.Stop()
		s.inflight.Wait()
		close(stopped)
	}()

	grace := time.NewTimer(s.grace)
	defer grace.Stop()

	select {
	case <-stopped:
		log.Info("Scheduler stopped successfully")
		return nil
	case <-grace.C:
		return log.Error("scheduler shutdown grace period elapsed with jobs still running", "grace", s.grace.String())
	case <-ctx.Done():
		return log.Err("scheduler shutdown interrupted", ctx.Err())
	}
}

func (s *SchedulerService) Enabled() bool {
	return s.enabled
}

// IsRunning returns whether the scheduler is currently running
func (s *SchedulerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *SchedulerService) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for _, entry := range s.jobs {
		names = append(names, entry.job.Name())
	}
	return names
}

// Jobs describes registered jobs. Next run times are only reported while running.
func (s *SchedulerService) Jobs() []types.SchedulerJobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]types.SchedulerJobInfo, 0, len(s.jobs))
	for _, entry := range s.jobs {
		info := types.SchedulerJobInfo{ID: entry.job.ID(), Name: entry.job.Name()}
		if s.started && entry.gocron != nil {
			nextRun := entry.gocron.NextRun().UTC()
			info.NextRunTime = &nextRun
		}
		jobs = append(jobs, info)
	}
	return jobs
}

// GetNextRunTime returns the earliest scheduled run time if scheduler is running
func (s *SchedulerService) GetNextRunTime() *time.Time {
	var next *time.Time
	for _, job := range s.Jobs() {
		if job.NextRunTime == nil {
			continue
		}
		if next == nil || job.NextRunTime.Before(*next) {
			next = job.NextRunTime
		}
	}
	return next
}

func (s *SchedulerService) Status() types.SchedulerStatus {
	jobs := s.Jobs()
	names := make([]string, 0, len(jobs))
	for _, job := range jobs {
		names = append(names, job.Name)
	}

	return types.SchedulerStatus{
		Enabled:     s.Enabled(),
		Running:     s.IsRunning(),
		Jobs:        names,
		JobDetails:  jobs,
		JobCount:    len(jobs),
		NextRunTime: s.GetNextRunTime(),
	}
}

// TriggerJobByName runs a registered job in the background, matched by ID or name.
func (s *SchedulerService) TriggerJobByName(ctx context.Context, jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("TriggerJobByName").TraceFromContext(ctx)

	var target *scheduledJob
	for _, entry := range s.jobs {
		if entry.job.ID() == jobName || entry.job.Name() == jobName {
			target = entry
			break
		}
	}

	if target == nil {
		return log.Error("job not found", "job", jobName)
	}

	jobCtx := s.ctx
	go func() {
		log.Info("Manually triggering job", "job", jobName)
		s.executeJob(jobCtx, target, log)
	}()

	return nil
}
