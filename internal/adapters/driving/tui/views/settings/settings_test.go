package settings

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// MockSettingsService is a mock implementation of driving.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppSettings), args.Error(1)
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	args := m.Called(settings)
	return args.Error(0)
}

func (m *MockSettingsService) Set(key, value string) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *MockSettingsService) Path() string {
	return "/home/test/.couchlab/config.toml"
}

func testSettings() *domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Connection.Password = "s3cret"
	s.Connection.Timeout = 15 * time.Second
	return &s
}

func loaded(t *testing.T, v *View) {
	t.Helper()
	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
	require.NotNil(t, v.Settings())
}

func TestNewView(t *testing.T) {
	v := NewView(styles.DefaultStyles(), nil)

	require.NotNil(t, v)
	assert.Len(t, v.fields, 10)
	assert.False(t, v.Editing())
	assert.Nil(t, v.Settings())
}

func TestFields_KeysAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range Fields() {
		assert.False(t, seen[f.Key], "duplicate key %s", f.Key)
		seen[f.Key] = true
	}
	assert.True(t, seen["couchdb.password"])
	assert.True(t, seen["analytics.top_n"])
}

func TestField_Display(t *testing.T) {
	s := testSettings()
	fields := Fields()

	assert.Equal(t, "http://localhost:5984", fields[0].Display(s))
	assert.Equal(t, maskedValue, fields[2].Display(s), "passwords are masked")
	assert.Equal(t, "15", fields[5].Display(s))
	assert.Equal(t, "", fields[0].Display(nil))

	s.Connection.Password = ""
	assert.Equal(t, "", fields[2].Display(s), "an empty password shows nothing")
}

func TestView_Init_LoadsSettings(t *testing.T) {
	svc := &MockSettingsService{}
	svc.On("Get").Return(testSettings(), nil)
	v := NewView(nil, svc)

	loaded(t, v)

	out := v.View()
	assert.Contains(t, out, "tp_database")
	assert.Contains(t, out, maskedValue)
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "config.toml")
	svc.AssertExpectations(t)
}

func TestView_Init_Error(t *testing.T) {
	svc := &MockSettingsService{}
	svc.On("Get").Return(nil, errors.New("config unreadable"))
	v := NewView(nil, svc)

	v.Update(v.Init()())

	require.Error(t, v.Err())
	assert.Contains(t, v.View(), "config unreadable")
}

func TestView_NilService(t *testing.T) {
	v := NewView(nil, nil)

	v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), domain.ErrUnavailable)
}

func TestView_EditAndSave(t *testing.T) {
	svc := &MockSettingsService{}
	svc.On("Get").Return(testSettings(), nil)
	svc.On("Set", "couchdb.database", "shop").Return(nil)
	v := NewView(nil, svc)
	loaded(t, v)

	for i := 0; i < 3; i++ {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	require.Equal(t, 3, v.Selected())

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.Editing())
	assert.Equal(t, "tp_database", v.input.Value(), "editing starts from the current value")

	v.input.SetValue("shop")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, v.Editing())

	saved, ok := cmd().(messages.SettingsSaved)
	require.True(t, ok)
	assert.Equal(t, "couchdb.database", saved.Key)
	require.NoError(t, saved.Err)

	_, cmd = v.Update(saved)
	assert.NotNil(t, cmd, "a successful save reloads")
	assert.Contains(t, v.View(), "Saved couchdb.database")
	svc.AssertExpectations(t)
}

func TestView_EditPassword_StartsEmpty(t *testing.T) {
	svc := &MockSettingsService{}
	svc.On("Get").Return(testSettings(), nil)
	v := NewView(nil, svc)
	loaded(t, v)
	v.selected = 2

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, v.Editing())
	assert.Empty(t, v.input.Value())
}

func TestView_SaveError(t *testing.T) {
	svc := &MockSettingsService{}
	svc.On("Get").Return(testSettings(), nil)
	svc.On("Set", "analytics.top_n", "many").
		Return(errors.New("invalid input: analytics.top_n must be a non-negative integer"))
	v := NewView(nil, svc)
	loaded(t, v)
	v.selected = 6

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.input.SetValue("many")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, next := v.Update(cmd())

	assert.Nil(t, next)
	require.Error(t, v.Err())
	assert.Contains(t, v.View(), "non-negative integer")
}

func TestView_EscCancelsEdit(t *testing.T) {
	svc := &MockSettingsService{}
	svc.On("Get").Return(testSettings(), nil)
	v := NewView(nil, svc)
	loaded(t, v)

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.False(t, v.Editing())
	svc.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestView_Esc_BackToMenu(t *testing.T) {
	v := NewView(nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Navigation_Bounds(t *testing.T) {
	v := NewView(nil, nil)

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.Selected())

	for i := 0; i < 20; i++ {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, len(v.fields)-1, v.Selected())
}

func TestView_SetDimensions(t *testing.T) {
	v := NewView(nil, nil)

	v.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, v.width)
	assert.True(t, v.ready)
	assert.Equal(t, 90, v.input.Width)
}
