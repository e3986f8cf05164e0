package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

func schedulerConfig(backup, views time.Duration) domain.SchedulerConfig {
	return domain.SchedulerConfig{TaskConfigs: map[string]domain.TaskConfig{
		domain.TaskIDBackup:       {Enabled: backup > 0, Interval: backup},
		domain.TaskIDRefreshViews: {Enabled: views > 0, Interval: views},
	}}
}

// collector gathers task results from the scheduler goroutines.
type collector struct {
	mu      sync.Mutex
	results []domain.TaskResult
}

func (c *collector) add(r domain.TaskResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) count(taskID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.results {
		if r.TaskID == taskID {
			n++
		}
	}
	return n
}

func (c *collector) last(taskID string) domain.TaskResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.results) - 1; i >= 0; i-- {
		if c.results[i].TaskID == taskID {
			return c.results[i]
		}
	}
	return domain.TaskResult{}
}

func TestScheduler_RunsTasksOnStartAndRepeats(t *testing.T) {
	f := newTestAdmin(t)
	ctx := context.Background()
	seed(t, f.crud,
		mustProduct(t, "product_1", "Laptop", "Electronics", 999.99),
		mustProduct(t, "product_2", "Desk", "Furniture", 250),
	)

	s := NewScheduler(schedulerConfig(20*time.Millisecond, time.Hour), f.admin, f.admin.analytics)
	s.tick = 5 * time.Millisecond

	var c collector
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, c.add) }()

	require.Eventually(t, func() bool { return c.count(domain.TaskIDBackup) >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
	require.NoError(t, <-done)

	backup := c.last(domain.TaskIDBackup)
	assert.True(t, backup.Success, backup.Error)
	assert.Equal(t, f.store.Len(), backup.ItemsProcessed)

	// The hourly view refresh ran once, on start.
	assert.Equal(t, 1, c.count(domain.TaskIDRefreshViews))

	snaps, err := f.snapshots.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(snaps), 2)

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDBackup, tasks[0].ID)
	assert.False(t, tasks[0].LastSuccess.IsZero())
	assert.Empty(t, tasks[0].LastError)
}

func TestScheduler_RecordsFailures(t *testing.T) {
	f := newTestAdmin(t)
	f.store.FailWith(fmt.Errorf("dial tcp: %w", domain.ErrUnavailable))

	s := NewScheduler(schedulerConfig(time.Hour, 0), f.admin, nil)
	s.tick = 5 * time.Millisecond

	var c collector
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, c.add) }()

	require.Eventually(t, func() bool { return c.count(domain.TaskIDBackup) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	r := c.last(domain.TaskIDBackup)
	assert.False(t, r.Success)
	assert.Contains(t, r.Error, "unavailable")

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.NotEmpty(t, tasks[0].LastError)
	assert.True(t, tasks[0].LastSuccess.IsZero())
	assert.True(t, tasks[0].NextRun.After(tasks[0].LastRun))
}

func TestScheduler_NoTasks(t *testing.T) {
	s := NewScheduler(schedulerConfig(0, 0), nil, nil)
	err := s.Start(context.Background(), nil)
	assert.EqualError(t, err, "no scheduled tasks enabled")

	// A task without its service is skipped.
	s = NewScheduler(schedulerConfig(time.Hour, time.Hour), nil, nil)
	assert.Error(t, s.Start(context.Background(), nil))
}

func TestScheduler_StartTwice(t *testing.T) {
	f := newTestAdmin(t)
	s := NewScheduler(schedulerConfig(time.Hour, 0), f.admin, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, nil) }()

	require.Eventually(t, func() bool { return len(s.Tasks()) == 1 }, time.Second, 5*time.Millisecond)
	assert.EqualError(t, s.Start(ctx, nil), "scheduler already running")

	s.Stop()
	assert.NoError(t, <-done)
	// Stop on a stopped scheduler is a no-op.
	s.Stop()
}

func TestDefaultSchedulerConfig(t *testing.T) {
	cfg := domain.DefaultSchedulerConfig()
	assert.Equal(t, 24*time.Hour, cfg.GetTaskConfig(domain.TaskIDBackup).Interval)
	assert.Equal(t, time.Hour, cfg.GetTaskConfig(domain.TaskIDRefreshViews).Interval)
	assert.False(t, cfg.GetTaskConfig("unknown").Enabled)

	var empty domain.SchedulerConfig
	assert.Equal(t, domain.TaskConfig{}, empty.GetTaskConfig(domain.TaskIDBackup))
}
