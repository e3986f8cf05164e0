package domain

import "time"

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string `json:"id"`

	// Name is a human-readable name for the task.
	Name string `json:"name"`

	// Interval defines how often the task should run.
	Interval time.Duration `json:"interval"`

	// LastRun is when the task last ran.
	LastRun time.Time `json:"last_run,omitzero"`

	// NextRun is when the task should run next.
	NextRun time.Time `json:"next_run"`

	// LastError contains the last error message, if any.
	LastError string `json:"last_error,omitempty"`

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time `json:"last_success,omitzero"`
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	TaskID    string    `json:"task_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`

	// ItemsProcessed counts the documents handled, e.g. documents backed up.
	ItemsProcessed int `json:"items_processed"`
}

// SchedulerConfig holds per-task configuration.
type SchedulerConfig struct {
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run.
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig backs up daily and refreshes the views hourly.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TaskConfigs: map[string]TaskConfig{
			TaskIDBackup: {
				Enabled:  true,
				Interval: 24 * time.Hour,
			},
			TaskIDRefreshViews: {
				Enabled:  true,
				Interval: time.Hour,
			},
		},
	}
}

// Task IDs for built-in tasks.
const (
	TaskIDBackup       = "backup"
	TaskIDRefreshViews = "refresh-views"
)
