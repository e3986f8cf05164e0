package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()
	assert.Len(t, config.TaskConfigs, 2)

	backup := config.GetTaskConfig(TaskIDBackup)
	assert.True(t, backup.Enabled)
	assert.Equal(t, 24*time.Hour, backup.Interval)

	views := config.GetTaskConfig(TaskIDRefreshViews)
	assert.True(t, views.Enabled)
	assert.Equal(t, time.Hour, views.Interval)
}

func TestSchedulerConfig_GetTaskConfig(t *testing.T) {
	config := DefaultSchedulerConfig()
	assert.Equal(t, TaskConfig{}, config.GetTaskConfig("unknown"))

	var empty SchedulerConfig
	assert.Equal(t, TaskConfig{}, empty.GetTaskConfig(TaskIDBackup))
}
