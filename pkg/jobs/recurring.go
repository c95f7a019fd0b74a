package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is one execution of recurring work. It must honour ctx cancellation.
type Task func(ctx context.Context)

// RecurringConfig configures a recurring task.
type RecurringConfig struct {
	// Schedule is a cron spec; descriptors such as "@every 60s" are accepted.
	Schedule   string
	RunOnStart bool
	Logger     *zap.Logger
}

// Recurring runs a task on a cron schedule until stopped. Overlapping runs are
// skipped, and no run starts after Stop returns.
type Recurring struct {
	name       string
	task       Task
	schedule   cron.Schedule
	runOnStart bool
	logger     *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewRecurring parses cfg.Schedule and builds the task runner.
func NewRecurring(name string, task Task, cfg RecurringConfig) (*Recurring, error) {
	spec := cfg.Schedule
	if spec == "" {
		spec = "@every 60s"
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule for %s: %w", name, err)
	}
	return NewRecurringWithSchedule(name, task, schedule, cfg), nil
}

// NewRecurringWithSchedule builds a runner from an already parsed schedule.
func NewRecurringWithSchedule(name string, task Task, schedule cron.Schedule, cfg RecurringConfig) *Recurring {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Recurring{
		name:       name,
		task:       task,
		schedule:   schedule,
		runOnStart: cfg.RunOnStart,
		logger:     cfg.Logger,
	}
}

// Start begins scheduling. Safe to call once; later calls are no-ops.
func (r *Recurring) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)

	cl := cronLogger{sugar: r.logger.Sugar().With("task", r.name)}
	wrapped := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(r.run))
	r.cron = cron.New()
	r.cron.Schedule(r.schedule, wrapped)
	r.cron.Start()
	r.started = true

	if r.runOnStart {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			wrapped.Run()
		}()
	}
	r.logger.Sugar().Infow("recurring task started", "task", r.name)
}

// Stop cancels the task context and waits for any in-flight run to return.
func (r *Recurring) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.cancel()
	stopped := r.cron.Stop()
	r.mu.Unlock()

	<-stopped.Done()
	r.wg.Wait()
	r.logger.Sugar().Infow("recurring task stopped", "task", r.name)
}

// Running reports whether Start was called without a matching Stop.
func (r *Recurring) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *Recurring) run() {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	r.task(ctx)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
