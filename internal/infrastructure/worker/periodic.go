package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one run of a periodic worker
type Task func(ctx context.Context) error

// Stats summarises a periodic worker's runs
type Stats struct {
	Runs      int
	Failures  int
	LastRun   time.Time
	LastError string
}

// PeriodicWorker runs a task on a fixed interval until stopped
type PeriodicWorker struct {
	name       string
	interval   time.Duration
	runOnStart bool
	timeout    time.Duration
	task       Task
	logger     *zap.Logger

	// Runtime state
	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	stats     Stats
}

// NewPeriodicWorker creates a worker running task every interval.
// With runOnStart the task also runs once immediately after Start.
// A positive timeout bounds each run.
func NewPeriodicWorker(name string, interval time.Duration, runOnStart bool, timeout time.Duration, task Task, logger *zap.Logger) *PeriodicWorker {
	return &PeriodicWorker{
		name:       name,
		interval:   interval,
		runOnStart: runOnStart,
		timeout:    timeout,
		task:       task,
		logger:     logger,
	}
}

// Start begins the worker loop in a background goroutine
func (w *PeriodicWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("%s: interval must be positive, got %s", w.name, w.interval)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("%s already running", w.name)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("Worker loop started",
		zap.String("worker_name", w.name),
		zap.Duration("interval", w.interval),
		zap.Bool("run_on_start", w.runOnStart))

	go w.loop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to finish
func (w *PeriodicWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	stats := w.Stats()
	w.logger.Info("Worker loop stopped",
		zap.String("worker_name", w.name),
		zap.Int("runs", stats.Runs),
		zap.Int("failures", stats.Failures))
	return nil
}

// Name returns the worker name for identification
func (w *PeriodicWorker) Name() string {
	return w.name
}

// IsRunning reports whether the loop is active
func (w *PeriodicWorker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isRunning
}

// Stats returns a copy of the run statistics
func (w *PeriodicWorker) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// RunOnce executes the task immediately, outside the schedule
func (w *PeriodicWorker) RunOnce(ctx context.Context) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	err := w.task(ctx)

	w.mu.Lock()
	w.stats.Runs++
	w.stats.LastRun = time.Now()
	if err != nil {
		w.stats.Failures++
		w.stats.LastError = err.Error()
	} else {
		w.stats.LastError = ""
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Worker run failed",
			zap.String("worker_name", w.name),
			zap.Error(err))
	}
	return err
}

func (w *PeriodicWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if w.runOnStart {
		_ = w.RunOnce(ctx)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.RunOnce(ctx)
		}
	}
}
