package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyURL         = "couchdb.url"
	keyUser        = "couchdb.user"
	keyPassword    = "couchdb.password"
	keyDatabase    = "couchdb.database"
	keyRateLimit   = "couchdb.rate_limit"
	keyTimeout     = "couchdb.timeout_seconds"
	keyTopN        = "analytics.top_n"
	keyBackupDir   = "admin.backup_dir"
	keyBatchSize   = "admin.batch_size"
	keyAnalystUser = "admin.analyst_user"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	envURL         = "COUCHDB_URL"
	envUser        = "COUCHDB_USER"
	envPassword    = "COUCHDB_PASSWORD"
	envDatabase    = "DATABASE_NAME"
	envAnalystUser = "ANALYST_USER"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Defaults are overlaid by the
// config file, which is overlaid by the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Connection: domain.ConnectionSettings{
			URL:       s.getString(keyURL, envURL, defaults.Connection.URL),
			User:      s.getString(keyUser, envUser, defaults.Connection.User),
			Password:  s.getString(keyPassword, envPassword, defaults.Connection.Password),
			Database:  s.getString(keyDatabase, envDatabase, defaults.Connection.Database),
			RateLimit: s.getFloat(keyRateLimit, defaults.Connection.RateLimit),
			Timeout:   time.Duration(s.getInt(keyTimeout, int(defaults.Connection.Timeout/time.Second))) * time.Second,
		},
		Analytics: domain.AnalyticsSettings{
			TopN: s.getInt(keyTopN, defaults.Analytics.TopN),
		},
		Admin: domain.AdminSettings{
			BackupDir:   s.getString(keyBackupDir, "", defaults.Admin.BackupDir),
			BatchSize:   s.getInt(keyBatchSize, defaults.Admin.BatchSize),
			AnalystUser: s.getString(keyAnalystUser, envAnalystUser, defaults.Admin.AnalystUser),
		},
	}

	if err := settings.Connection.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Connection.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyURL, settings.Connection.URL},
		{keyUser, settings.Connection.User},
		{keyDatabase, settings.Connection.Database},
		{keyRateLimit, settings.Connection.RateLimit},
		{keyTimeout, int(settings.Connection.Timeout / time.Second)},
		{keyTopN, settings.Analytics.TopN},
		{keyBackupDir, settings.Admin.BackupDir},
		{keyBatchSize, settings.Admin.BatchSize},
		{keyAnalystUser, settings.Admin.AnalystUser},
	}
	if settings.Connection.Password != "" {
		values = append(values, struct {
			key   string
			value any
		}{keyPassword, settings.Connection.Password})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// Set updates one dotted key, parsing value for numeric keys.
func (s *SettingsService) Set(key, value string) error {
	var parsed any
	switch key {
	case keyURL, keyUser, keyPassword, keyDatabase, keyBackupDir, keyAnalystUser:
		parsed = value
	case keyTimeout, keyTopN, keyBatchSize:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case keyRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return s.configStore.Save()
}

// Keys lists the settable config keys.
func Keys() []string {
	return []string{
		keyURL, keyUser, keyPassword, keyDatabase, keyRateLimit, keyTimeout,
		keyTopN, keyBackupDir, keyBatchSize, keyAnalystUser,
	}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Path returns the config file location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, env, defaultVal string) string {
	if env != "" {
		if v := s.getenv(env); v != "" {
			return v
		}
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}
