// Package settings provides the settings view for the TUI.
package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

const maskedValue = "********"

// Field is one editable setting.
type Field struct {
	Key    string
	Label  string
	Secret bool
	value  func(*domain.AppSettings) string
}

// Fields lists the settings shown by the view, in display order.
func Fields() []Field {
	return []Field{
		{Key: "couchdb.url", Label: "Server URL", value: func(s *domain.AppSettings) string { return s.Connection.URL }},
		{Key: "couchdb.user", Label: "User", value: func(s *domain.AppSettings) string { return s.Connection.User }},
		{Key: "couchdb.password", Label: "Password", Secret: true,
			value: func(s *domain.AppSettings) string { return s.Connection.Password }},
		{Key: "couchdb.database", Label: "Database", value: func(s *domain.AppSettings) string { return s.Connection.Database }},
		{Key: "couchdb.rate_limit", Label: "Rate limit (req/s)",
			value: func(s *domain.AppSettings) string { return strconv.FormatFloat(s.Connection.RateLimit, 'f', -1, 64) }},
		{Key: "couchdb.timeout_seconds", Label: "Timeout (s)",
			value: func(s *domain.AppSettings) string { return strconv.Itoa(int(s.Connection.Timeout / time.Second)) }},
		{Key: "analytics.top_n", Label: "Top products", value: func(s *domain.AppSettings) string { return strconv.Itoa(s.Analytics.TopN) }},
		{Key: "admin.backup_dir", Label: "Backup directory", value: func(s *domain.AppSettings) string { return s.Admin.BackupDir }},
		{Key: "admin.batch_size", Label: "Batch size", value: func(s *domain.AppSettings) string { return strconv.Itoa(s.Admin.BatchSize) }},
		{Key: "admin.analyst_user", Label: "Analyst user", value: func(s *domain.AppSettings) string { return s.Admin.AnalystUser }},
	}
}

// Display returns the field value as shown in the list.
func (f Field) Display(s *domain.AppSettings) string {
	if s == nil {
		return ""
	}
	v := f.value(s)
	if f.Secret && v != "" {
		return maskedValue
	}
	return v
}

// View displays and edits application settings.
type View struct {
	styles   *styles.Styles
	service  driving.SettingsService
	fields   []Field
	settings *domain.AppSettings

	selected int
	editing  bool
	input    textinput.Model

	notice string
	err    error

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, service driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return &View{
		styles:  s,
		service: service,
		fields:  Fields(),
		input:   ti,
		width:   80,
		height:  24,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.service == nil {
			return messages.SettingsLoaded{Err: fmt.Errorf("%w: settings service not available", domain.ErrUnavailable)}
		}
		settings, err := v.service.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

func (v *View) save(key, value string) tea.Cmd {
	return func() tea.Msg {
		if v.service == nil {
			return messages.SettingsSaved{Key: key, Err: fmt.Errorf("%w: settings service not available", domain.ErrUnavailable)}
		}
		return messages.SettingsSaved{Key: key, Err: v.service.Set(key, value)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.settings = msg.Settings
		v.err = nil
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			v.notice = ""
			return v, nil
		}
		v.err = nil
		v.notice = fmt.Sprintf("Saved %s", msg.Key)
		return v, v.loadSettings()

	case messages.RefreshRequested:
		return v, v.loadSettings()

	case tea.KeyMsg:
		if v.editing {
			return v.handleEditKeys(msg)
		}
		return v.handleListKeys(msg)
	}

	return v, nil
}

func (v *View) handleListKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.fields)-1 {
			v.selected++
		}
	case "enter":
		return v, v.startEdit()
	case "r":
		v.notice = ""
		return v, v.loadSettings()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) startEdit() tea.Cmd {
	f := v.fields[v.selected]
	v.editing = true
	v.notice = ""
	v.input.Reset()
	v.input.Placeholder = f.Label
	if f.Secret {
		v.input.EchoMode = textinput.EchoPassword
	} else {
		v.input.EchoMode = textinput.EchoNormal
		if v.settings != nil {
			v.input.SetValue(f.value(v.settings))
		}
	}
	return v.input.Focus()
}

func (v *View) handleEditKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v.editing = false
		v.input.Blur()
		return v, v.save(v.fields[v.selected].Key, strings.TrimSpace(v.input.Value()))
	case tea.KeyEsc:
		v.editing = false
		v.input.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n")
	if v.service != nil && v.service.Path() != "" {
		b.WriteString(v.styles.Muted.Render(v.service.Path()))
	}
	b.WriteString("\n\n")

	if v.settings == nil && v.err == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		b.WriteString("\n")
	}

	if v.settings != nil {
		for i, f := range v.fields {
			line := fmt.Sprintf("%-20s %s", f.Label, f.Display(v.settings))
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + line))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	if v.editing {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render(v.fields[v.selected].Key))
		b.WriteString("\n")
		b.WriteString(v.input.View())
		b.WriteString("\n")
	}

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err)))
		b.WriteString("\n")
	} else if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.editing {
		b.WriteString(v.styles.Help.Render("[enter] save  [esc] cancel"))
	} else {
		b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] edit  [r] reload  [esc] back"))
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	w := width - 10
	if w < 20 {
		w = 20
	}
	v.input.Width = w
}

// Settings returns the loaded settings, or nil.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Editing reports whether a value is being edited.
func (v *View) Editing() bool {
	return v.editing
}

// Selected returns the index of the highlighted field.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
