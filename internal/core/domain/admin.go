package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role names granted by the administration tasks.
const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
	RoleReader  = "reader"
)

// User is an account in the server's user database.
type User struct {
	Name     string   `json:"name"`
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles"`
}

// Validate checks the user can be created.
func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: user name is required", ErrInvalidInput)
	}
	if u.Password == "" {
		return fmt.Errorf("%w: password is required for user %q", ErrInvalidInput, u.Name)
	}
	return nil
}

// SecurityGroup lists the names and roles of one access level.
type SecurityGroup struct {
	Names []string `json:"names"`
	Roles []string `json:"roles"`
}

// SecurityDoc is a database security object.
type SecurityDoc struct {
	Admins  SecurityGroup `json:"admins"`
	Members SecurityGroup `json:"members"`
}

// ExportFormat is the file format used by export and import.
type ExportFormat string

// Supported formats.
const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
	FormatYAML ExportFormat = "yaml"
)

// ParseExportFormat validates a format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q, must be json, csv or yaml", ErrInvalidInput, s)
	}
}

// ExportReport summarises an export.
type ExportReport struct {
	Path          string       `json:"path"`
	Format        ExportFormat `json:"format"`
	DocumentCount int          `json:"document_count"`
}

// ImportReport summarises an import.
type ImportReport struct {
	Path           string `json:"path"`
	TotalDocuments int    `json:"total_documents"`
	SuccessCount   int    `json:"success_count"`
	ErrorCount     int    `json:"error_count"`
}

// Snapshot is a stored backup of a database.
type Snapshot struct {
	ID            string    `json:"id"`
	Database      string    `json:"database_name"`
	ServerURL     string    `json:"couchdb_url"`
	DocumentCount int       `json:"document_count"`
	CreatedAt     time.Time `json:"backup_date"`
}

// SetupReport summarises database setup.
type SetupReport struct {
	DatabaseCreated bool             `json:"database_created"`
	Indexes         []string         `json:"indexes"`
	Views           ViewRegistration `json:"views"`
}

// IndexDefinition is a Mango index over one or more fields.
type IndexDefinition struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}
