// Package mcp provides an MCP (Model Context Protocol) server adapter for couchlab.
// It lets AI assistants query the commerce analytics and read documents.
package mcp

import "errors"

// ErrMissingAnalyticsService is returned when the analytics service is not provided.
var ErrMissingAnalyticsService = errors.New("mcp: analytics service is required")
