package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
	"github.com/custodia-labs/couchlab/internal/logger"
)

var schedulerLog = logger.With("scheduler")

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler runs backups and view refreshes on fixed intervals.
type Scheduler struct {
	config    domain.SchedulerConfig
	admin     driving.AdminService
	analytics driving.AnalyticsService

	tick time.Duration
	now  func() time.Time

	mu      sync.Mutex
	tasks   map[string]*domain.ScheduledTask
	busy    map[string]bool
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. A task whose service is nil is skipped.
func NewScheduler(
	config domain.SchedulerConfig,
	admin driving.AdminService,
	analytics driving.AnalyticsService,
) *Scheduler {
	return &Scheduler{
		config:    config,
		admin:     admin,
		analytics: analytics,
		tick:      time.Minute,
		now:       time.Now,
		tasks:     make(map[string]*domain.ScheduledTask),
		busy:      make(map[string]bool),
	}
}

// Start runs due tasks until ctx is cancelled or Stop is called. onResult,
// when non-nil, receives every task outcome. Start blocks until running
// tasks have finished.
func (s *Scheduler) Start(ctx context.Context, onResult func(domain.TaskResult)) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.initialiseTasks()
	empty := len(s.tasks) == 0
	s.mu.Unlock()

	if empty {
		s.markStopped()
		return errors.New("no scheduled tasks enabled")
	}

	err := s.run(ctx, onResult)
	s.wg.Wait()
	s.markStopped()
	return err
}

// Stop ends the loop. Start returns once running tasks complete.
func (s *Scheduler) Stop() {
	s.markStopped()
}

// Tasks returns a copy of the task states ordered by ID.
func (s *Scheduler) Tasks() []domain.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
}

// initialiseTasks registers every enabled task. Caller holds mu.
func (s *Scheduler) initialiseTasks() {
	s.ensureTask(domain.TaskIDBackup, "Backup", s.admin != nil)
	s.ensureTask(domain.TaskIDRefreshViews, "Refresh views", s.analytics != nil)
}

func (s *Scheduler) ensureTask(id, name string, available bool) {
	cfg := s.config.GetTaskConfig(id)
	if !cfg.Enabled || cfg.Interval <= 0 || !available {
		delete(s.tasks, id)
		return
	}
	task, ok := s.tasks[id]
	if !ok {
		// First run happens immediately.
		s.tasks[id] = &domain.ScheduledTask{ID: id, Name: name, Interval: cfg.Interval, NextRun: s.now()}
		return
	}
	if task.Interval != cfg.Interval {
		task.Interval = cfg.Interval
		task.NextRun = s.now().Add(cfg.Interval)
	}
}

func (s *Scheduler) run(ctx context.Context, onResult func(domain.TaskResult)) error {
	s.checkAndRunDueTasks(ctx, onResult)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx, onResult)
		}
	}
}

func (s *Scheduler) checkAndRunDueTasks(ctx context.Context, onResult func(domain.TaskResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, task := range s.tasks {
		if s.busy[id] || task.NextRun.After(now) {
			continue
		}
		s.busy[id] = true
		s.wg.Add(1)
		go s.runTask(ctx, id, onResult)
	}
}

// runTask executes one task and records its outcome.
func (s *Scheduler) runTask(ctx context.Context, id string, onResult func(domain.TaskResult)) {
	defer s.wg.Done()

	result := domain.TaskResult{TaskID: id, StartedAt: s.now()}
	var err error
	switch id {
	case domain.TaskIDBackup:
		result.ItemsProcessed, err = s.runBackup(ctx)
	case domain.TaskIDRefreshViews:
		err = s.runRefreshViews(ctx)
	}
	result.EndedAt = s.now()
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		schedulerLog.Warn("task failed", "task", id, "error", err)
	} else {
		schedulerLog.Debug("task done", "task", id, "items", result.ItemsProcessed)
	}

	s.mu.Lock()
	if task, ok := s.tasks[id]; ok {
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)
		task.LastError = result.Error
		if result.Success {
			task.LastSuccess = result.EndedAt
		}
	}
	delete(s.busy, id)
	s.mu.Unlock()

	if onResult != nil {
		onResult(result)
	}
}

func (s *Scheduler) runBackup(ctx context.Context) (int, error) {
	r := s.admin.Backup(ctx)
	if !r.Success {
		return 0, r.Err()
	}
	return r.Data.DocumentCount, nil
}

func (s *Scheduler) runRefreshViews(ctx context.Context) error {
	return s.analytics.EnsureViews(ctx).Err()
}
