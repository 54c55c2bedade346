package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/forgo/maestro/internal/model"
)

var (
	// ErrJobExists indicates a Schedule call for a job id already in the
	// store without ReplaceExisting set.
	ErrJobExists = errors.New("job already exists")

	// ErrJobNotFound indicates the job id is not in the store.
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownFunc indicates a func name with no registered work function.
	ErrUnknownFunc = errors.New("unknown work function")
)

const (
	// invocationTimeout bounds a single work function run
	invocationTimeout = 5 * time.Minute

	// bookkeepTimeout bounds the post-run log append and store update,
	// which run on their own context so a work function that spends its
	// whole budget cannot starve them.
	bookkeepTimeout = 30 * time.Second
)

// Invocation carries the identity and persisted arguments of one job run
type Invocation struct {
	JobID    string
	TenantID int
	CrewID   int
	Args     map[string]string
}

// WorkFunc is the contract for registered work functions. The returned
// string is a human-readable result recorded in the execution log.
type WorkFunc func(ctx context.Context, inv Invocation) (string, error)

// JobStore defines the persistence the scheduler runs against
type JobStore interface {
	Put(ctx context.Context, job *model.JobDefinition) error
	Get(ctx context.Context, jobID string) (*model.JobDefinition, error)
	ListDue(ctx context.Context, now time.Time) ([]*model.JobDefinition, error)
	UpdateRun(ctx context.Context, jobID string, status model.JobStatus, nextRun, lastRun *time.Time) error
	Delete(ctx context.Context, jobID string) error
}

// ExecutionLog records invocation outcomes
type ExecutionLog interface {
	Append(ctx context.Context, entry *model.ExecutionLogEntry) error
}

// Scheduler scans the job store on a fixed interval and dispatches due
// jobs to registered work functions. All job state lives in the store, so
// a restarted process picks its work back up on the first scan.
// Delivery is at-least-once; work functions must tolerate re-invocation.
type Scheduler struct {
	store             JobStore
	log               ExecutionLog
	tickInterval      time.Duration
	maxInstances      int64
	invocationTimeout time.Duration

	mu       sync.Mutex
	registry map[string]WorkFunc
	sems     map[string]*semaphore.Weighted
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Config holds configuration for the scheduler
type Config struct {
	Store             JobStore
	Log               ExecutionLog
	TickInterval      time.Duration // default 1s
	MaxInstances      int           // concurrent runs per job id, default 3
	InvocationTimeout time.Duration // per-run work function budget, default 5m
}

// New creates a scheduler
func New(cfg Config) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = 3
	}
	if cfg.InvocationTimeout <= 0 {
		cfg.InvocationTimeout = invocationTimeout
	}
	return &Scheduler{
		store:             cfg.Store,
		log:               cfg.Log,
		tickInterval:      cfg.TickInterval,
		maxInstances:      int64(cfg.MaxInstances),
		invocationTimeout: cfg.InvocationTimeout,
		registry:          make(map[string]WorkFunc),
		sems:              make(map[string]*semaphore.Weighted),
	}
}

// Register maps a func name to a work function. Persisted jobs reference
// work functions by name, never by code.
func (s *Scheduler) Register(name string, fn WorkFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[name] = fn
}

// ScheduleRequest describes a job to persist
type ScheduleRequest struct {
	JobID           string // generated from JobPrefix when empty
	JobPrefix       string
	FuncName        string
	TenantID        int
	CrewID          int
	Trigger         model.TriggerSpec
	Args            map[string]string
	ReplaceExisting bool
}

// Schedule computes the first fire time and upserts the job definition.
// With ReplaceExisting set, re-registering an id keeps exactly one job.
func (s *Scheduler) Schedule(ctx context.Context, req ScheduleRequest) (*model.JobDefinition, error) {
	s.mu.Lock()
	_, registered := s.registry[req.FuncName]
	s.mu.Unlock()
	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunc, req.FuncName)
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = req.JobPrefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}

	if !req.ReplaceExisting {
		existing, err := s.store.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrJobExists, jobID)
		}
	}

	nextRun, err := NextRun(req.Trigger, time.Now())
	if err != nil {
		return nil, err
	}

	job := &model.JobDefinition{
		JobID:    jobID,
		FuncName: req.FuncName,
		Metadata: model.JobMetadata{
			JobPrefix: req.JobPrefix,
			TenantID:  req.TenantID,
			CrewID:    req.CrewID,
		},
		Trigger: req.Trigger,
		Args:    req.Args,
		Status:  model.JobStatusActive,
		NextRun: &nextRun,
	}

	if err := s.store.Put(ctx, job); err != nil {
		return nil, err
	}

	slog.Info("job scheduled",
		slog.String("job_id", jobID),
		slog.String("func", req.FuncName),
		slog.Int("tenant_id", req.TenantID),
		slog.Time("next_run", nextRun),
	)
	return job, nil
}

// Cancel marks a job cancelled so the scan loop never dispatches it again
func (s *Scheduler) Cancel(ctx context.Context, jobID string) error {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return s.store.UpdateRun(ctx, jobID, model.JobStatusCancelled, nil, job.LastRun)
}

// Start launches the scan loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go s.run()

	slog.Info("scheduler started", slog.Duration("tick_interval", s.tickInterval))
}

// Stop halts the scan loop and waits for in-flight invocations
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.RunOnce(context.Background()); err != nil {
				slog.Error("job scan failed", slog.Any("error", err))
			}
		}
	}
}

// RunOnce performs a single scan-and-dispatch pass. Exposed for manual
// triggering and tests; the loop calls it every tick.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	due, err := s.store.ListDue(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("listing due jobs: %w", err)
	}

	for _, job := range due {
		s.dispatch(job)
	}
	return nil
}

// dispatch runs a job in its own goroutine, bounded per job id. When the
// cap is reached the fire is skipped; the job stays due and the next scan
// retries it once a slot frees up.
func (s *Scheduler) dispatch(job *model.JobDefinition) {
	sem := s.semFor(job.JobID)
	if !sem.TryAcquire(1) {
		slog.Warn("job skipped, max instances reached",
			slog.String("job_id", job.JobID),
			slog.Int64("max_instances", s.maxInstances),
		)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		terminal := func() bool {
			defer sem.Release(1)
			return s.execute(job)
		}()
		if terminal {
			s.evictSem(job.JobID, sem)
		}
	}()
}

// execute invokes the work function and records the outcome, reporting
// whether the job reached a terminal status. Errors and panics are
// contained here: a failed run never crashes the loop, and a failed cron
// job stays active with a fresh next_run.
func (s *Scheduler) execute(job *model.JobDefinition) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.invocationTimeout)
	startedAt := time.Now().UTC()
	result, err := s.invoke(ctx, job)
	cancel()

	// Bookkeeping runs on a fresh deadline: the invocation context may be
	// spent by now, and next_run must advance even for a timed-out run.
	bctx, bcancel := context.WithTimeout(context.Background(), bookkeepTimeout)
	defer bcancel()

	entry := &model.ExecutionLogEntry{
		Timestamp: time.Now().UTC(),
		TenantID:  job.Metadata.TenantID,
		JobID:     job.JobID,
	}
	if err != nil {
		entry.Error = err.Error()
		slog.Error("job failed",
			slog.String("job_id", job.JobID),
			slog.Int("tenant_id", job.Metadata.TenantID),
			slog.Any("error", err),
		)
	} else {
		entry.Result = result
		slog.Info("job completed",
			slog.String("job_id", job.JobID),
			slog.Int("tenant_id", job.Metadata.TenantID),
			slog.String("result", result),
		)
	}
	if logErr := s.log.Append(bctx, entry); logErr != nil {
		slog.Error("appending execution log", slog.String("job_id", job.JobID), slog.Any("error", logErr))
	}

	status, nextRun := s.afterRun(job, err)
	if updateErr := s.store.UpdateRun(bctx, job.JobID, status, nextRun, &startedAt); updateErr != nil {
		slog.Error("recording job run", slog.String("job_id", job.JobID), slog.Any("error", updateErr))
	}
	return status == model.JobStatusCompleted || status == model.JobStatusError
}

// afterRun decides the post-invocation state. Cron jobs always advance
// next_run and stay active, even after a failure; at jobs are terminal.
func (s *Scheduler) afterRun(job *model.JobDefinition, runErr error) (model.JobStatus, *time.Time) {
	if job.Trigger.Type == model.TriggerCron {
		next, err := NextRun(job.Trigger, time.Now())
		if err != nil {
			slog.Error("computing next run", slog.String("job_id", job.JobID), slog.Any("error", err))
			return model.JobStatusError, nil
		}
		return model.JobStatusActive, &next
	}

	if runErr != nil {
		return model.JobStatusError, nil
	}
	return model.JobStatusCompleted, nil
}

// invoke resolves and calls the work function, converting panics to errors
func (s *Scheduler) invoke(ctx context.Context, job *model.JobDefinition) (result string, err error) {
	s.mu.Lock()
	fn, ok := s.registry[job.FuncName]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunc, job.FuncName)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", job.FuncName, r)
		}
	}()

	return fn(ctx, Invocation{
		JobID:    job.JobID,
		TenantID: job.Metadata.TenantID,
		CrewID:   job.Metadata.CrewID,
		Args:     job.Args,
	})
}

func (s *Scheduler) semFor(jobID string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.sems[jobID]
	if !ok {
		sem = semaphore.NewWeighted(s.maxInstances)
		s.sems[jobID] = sem
	}
	return sem
}

// evictSem drops a terminal job's semaphore entry once no invocation holds
// a slot, so one-off job ids never accumulate in the map. When another
// instance is still in flight it evicts on its own completion instead.
func (s *Scheduler) evictSem(jobID string, sem *semaphore.Weighted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sems[jobID] != sem {
		return
	}
	if sem.TryAcquire(s.maxInstances) {
		delete(s.sems, jobID)
	}
}
