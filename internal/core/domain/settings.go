package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// ConnectionSettings describes how to reach the database server.
type ConnectionSettings struct {
	// URL is the server base URL, e.g. http://localhost:5984.
	URL string

	// User and Password are the basic-auth credentials.
	User     string
	Password string

	// Database is the target database name.
	Database string

	// RateLimit caps requests per second. Zero disables throttling.
	RateLimit float64

	// Timeout bounds each HTTP request. Zero keeps the transport default.
	Timeout time.Duration
}

// Validate checks the connection settings are usable.
func (c ConnectionSettings) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: database URL %q is not an absolute URL", ErrInvalidInput, c.URL)
	}
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("%w: database name is required", ErrInvalidInput)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidInput)
	}
	return nil
}

// Endpoint returns the database URL without credentials, for display.
func (c ConnectionSettings) Endpoint() string {
	return strings.TrimRight(c.URL, "/") + "/" + c.Database
}

// AnalyticsSettings tunes the analytics layer.
type AnalyticsSettings struct {
	// TopN is the default number of top products.
	TopN int
}

// AdminSettings tunes administration tasks.
type AdminSettings struct {
	// BackupDir holds backup snapshot databases.
	BackupDir string

	// BatchSize is the page size for export and import.
	BatchSize int

	// AnalystUser is granted member access by the security update.
	AnalystUser string
}

// AppSettings represents the complete application configuration.
type AppSettings struct {
	Connection ConnectionSettings
	Analytics  AnalyticsSettings
	Admin      AdminSettings
}

// DefaultAppSettings returns settings matching a local development server.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Connection: ConnectionSettings{
			URL:      "http://localhost:5984",
			User:     "admin",
			Password: "admin123",
			Database: "tp_database",
			Timeout:  30 * time.Second,
		},
		Analytics: AnalyticsSettings{
			TopN: DefaultTopN,
		},
		Admin: AdminSettings{
			BatchSize:   1000,
			AnalystUser: "analyst",
		},
	}
}
