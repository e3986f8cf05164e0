// Package logger provides structured logging for couchlab.
// Warnings and errors are always written; debug and info messages only
// appear when verbose mode is enabled via the --verbose flag.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	jsonOut bool
	output  io.Writer = os.Stderr
	current slog.Handler
)

func init() {
	rebuild()
}

// rebuild recreates the underlying handler (caller must hold the lock or be init).
func rebuild() {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if jsonOut {
		current = slog.NewJSONHandler(output, opts)
	} else {
		current = slog.NewTextHandler(output, opts)
	}
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetJSON switches between logfmt-style text and JSON lines.
func SetJSON(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOut = enabled
	rebuild()
}

// minLevel returns the lowest level currently written.
func minLevel() slog.Level {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// handler forwards records to the current output so loggers handed out
// before SetOutput or SetVerbose keep following the global settings.
type handler struct {
	attrs  []slog.Attr
	groups []string
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= minLevel()
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	mu.RLock()
	var inner slog.Handler = current
	mu.RUnlock()

	for _, g := range h.groups {
		inner = inner.WithGroup(g)
	}
	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(h.attrs)
	}
	return inner.Handle(ctx, r)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	return &handler{attrs: append(merged, attrs...), groups: h.groups}
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string{}, h.groups...), name)
	return &handler{attrs: h.attrs, groups: groups}
}

var root = slog.New(&handler{})

// Logger returns the process-wide structured logger.
func Logger() *slog.Logger {
	return root
}

// With returns a logger tagged with a component name.
func With(component string) *slog.Logger {
	return root.With("component", component)
}

// Debug logs a formatted message if verbose mode is enabled.
func Debug(format string, args ...any) {
	root.Debug(fmt.Sprintf(format, args...))
}

// Section logs a section header if verbose mode is enabled.
func Section(name string) {
	root.Debug("=== " + name + " ===")
}

// Info logs a formatted message if verbose mode is enabled.
func Info(format string, args ...any) {
	root.Info(fmt.Sprintf(format, args...))
}

// Warn logs a formatted warning.
func Warn(format string, args ...any) {
	root.Warn(fmt.Sprintf(format, args...))
}

// Error logs a formatted error.
func Error(format string, args ...any) {
	root.Error(fmt.Sprintf(format, args...))
}
