package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingAnalyticsService.Error(), ErrInvalidPorts.Error())
}

func TestErrMissingAnalyticsService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingAnalyticsService.Error(), "analytics service")
}

func TestErrInvalidPorts_Message(t *testing.T) {
	assert.Contains(t, ErrInvalidPorts.Error(), "invalid ports")
}
