package statusui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabrotate/pkg/config"
	"github.com/entrhq/tabrotate/pkg/types"
)

type fakeEditor struct {
	settings types.Settings
	readErr  error
	applyErr error
	applied  []map[string]interface{}
}

func (e *fakeEditor) Settings(context.Context) (types.Settings, error) {
	return e.settings, e.readErr
}

func (e *fakeEditor) Apply(changes map[string]interface{}) error {
	e.applied = append(e.applied, changes)
	return e.applyErr
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and runs the returned command once, feeding its
// message back in.
func step(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()

	next, cmd := m.Update(msg)
	m = next.(model)
	if cmd == nil {
		return m
	}

	follow := cmd()
	if follow == nil {
		return m
	}
	next, _ = m.Update(follow)
	return next.(model)
}

func loadedModel(t *testing.T, editor *fakeEditor) model {
	t.Helper()

	m := newModel(editor)
	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(model)
}

func TestInitLoadsSettings(t *testing.T) {
	editor := &fakeEditor{settings: types.Settings{StayTime: 9 * time.Second, EnableSwitching: true}}

	m := loadedModel(t, editor)

	assert.True(t, m.loaded)
	assert.Equal(t, 9*time.Second, m.settings.StayTime)
	assert.True(t, m.settings.EnableSwitching)
}

func TestInitReadError(t *testing.T) {
	editor := &fakeEditor{readErr: errors.New("corrupt")}

	m := loadedModel(t, editor)

	assert.False(t, m.loaded)
	require.Error(t, m.lastErr)
	assert.Contains(t, m.lastErr.Error(), "corrupt")
}

func TestToggleSwitchingWritesStore(t *testing.T) {
	editor := &fakeEditor{settings: types.DefaultSettings()}
	m := loadedModel(t, editor)

	m = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	require.Len(t, editor.applied, 1)
	assert.Equal(t, map[string]interface{}{config.KeyEnableSwitching: true}, editor.applied[0])
	assert.Equal(t, "settings saved", m.status)
}

func TestToggleRefreshWritesStore(t *testing.T) {
	editor := &fakeEditor{settings: types.DefaultSettings()}
	m := loadedModel(t, editor)

	step(t, m, keyRunes("r"))

	require.Len(t, editor.applied, 1)
	assert.Equal(t, map[string]interface{}{config.KeyShouldRefresh: false}, editor.applied[0])
}

func TestStayTimeKeys(t *testing.T) {
	t.Run("plus adds a second", func(t *testing.T) {
		editor := &fakeEditor{settings: types.DefaultSettings()}
		m := loadedModel(t, editor)

		step(t, m, keyRunes("+"))

		require.Len(t, editor.applied, 1)
		assert.Equal(t, 6.0, editor.applied[0][config.KeyStayTime])
	})

	t.Run("minus removes a second", func(t *testing.T) {
		editor := &fakeEditor{settings: types.DefaultSettings()}
		m := loadedModel(t, editor)

		step(t, m, keyRunes("-"))

		require.Len(t, editor.applied, 1)
		assert.Equal(t, 4.0, editor.applied[0][config.KeyStayTime])
	})

	t.Run("minus stops at the minimum", func(t *testing.T) {
		settings := types.DefaultSettings()
		settings.StayTime = time.Second
		editor := &fakeEditor{settings: settings}
		m := loadedModel(t, editor)

		step(t, m, keyRunes("-"))

		assert.Empty(t, editor.applied)
	})

	t.Run("sub-second stay time rounds up to the minimum", func(t *testing.T) {
		settings := types.DefaultSettings()
		settings.StayTime = 1500 * time.Millisecond
		editor := &fakeEditor{settings: settings}
		m := loadedModel(t, editor)

		step(t, m, keyRunes("-"))

		require.Len(t, editor.applied, 1)
		assert.Equal(t, 1.0, editor.applied[0][config.KeyStayTime])
	})
}

func TestApplyFailureIsShown(t *testing.T) {
	editor := &fakeEditor{settings: types.DefaultSettings(), applyErr: errors.New("read-only file system")}
	m := loadedModel(t, editor)

	m = step(t, m, keyRunes("r"))

	require.Error(t, m.lastErr)
	assert.Equal(t, "settings not saved", m.status)
	assert.True(t, m.settings.ShouldRefresh)
}

func TestCopyURL(t *testing.T) {
	t.Run("copies the current tab", func(t *testing.T) {
		m := loadedModel(t, &fakeEditor{settings: types.DefaultSettings()})
		var copied string
		m.copyText = func(s string) error {
			copied = s
			return nil
		}

		m = step(t, m, eventMsg{event: types.NewSwitchedEvent(types.Tab{ID: "1", URL: "https://a.com"})})
		m = step(t, m, keyRunes("y"))

		assert.Equal(t, "https://a.com", copied)
		assert.Equal(t, "copied https://a.com", m.status)
	})

	t.Run("nothing to copy", func(t *testing.T) {
		m := loadedModel(t, &fakeEditor{settings: types.DefaultSettings()})
		m.copyText = func(string) error {
			t.Fatal("copy should not be called")
			return nil
		}

		m = step(t, m, keyRunes("y"))

		assert.Equal(t, "no tab to copy", m.status)
	})

	t.Run("clipboard failure", func(t *testing.T) {
		m := loadedModel(t, &fakeEditor{settings: types.DefaultSettings()})
		m.copyText = func(string) error { return errors.New("no clipboard utility") }

		m = step(t, m, eventMsg{event: types.NewSwitchedEvent(types.Tab{ID: "1", URL: "https://a.com"})})
		m = step(t, m, keyRunes("y"))

		require.Error(t, m.lastErr)
	})
}

func TestQuit(t *testing.T) {
	m := loadedModel(t, &fakeEditor{settings: types.DefaultSettings()})

	next, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(model).quitting)
	assert.Empty(t, next.(model).View())
}

func TestSchedulerEvents(t *testing.T) {
	m := loadedModel(t, &fakeEditor{settings: types.DefaultSettings()})

	enabled := types.DefaultSettings()
	enabled.EnableSwitching = true
	enabled.StayTime = 3 * time.Second

	m = step(t, m, eventMsg{event: types.NewStartedEvent(enabled)})
	assert.True(t, m.running)
	assert.Equal(t, 3*time.Second, m.settings.StayTime)

	m = step(t, m, eventMsg{event: types.NewSwitchedEvent(types.Tab{ID: "2", URL: "https://b.com"})})
	require.NotNil(t, m.current)
	assert.Equal(t, types.TabID("2"), m.current.ID)

	m = step(t, m, eventMsg{event: types.NewTimerArmedEvent(3 * time.Second)})
	assert.Equal(t, 3*time.Second, m.nextSwitch)
	assert.Contains(t, m.View(), "next switch")

	m = step(t, m, eventMsg{event: types.NewCycleErrorEvent(errors.New("activate failed"))})
	assert.Contains(t, m.View(), "activate failed")

	m = step(t, m, eventMsg{event: types.NewIdleEvent()})
	assert.Nil(t, m.current)
	assert.Equal(t, "no eligible tabs", m.status)

	m = step(t, m, eventMsg{event: types.NewStoppedEvent()})
	assert.False(t, m.running)
	assert.Zero(t, m.nextSwitch)
	assert.Contains(t, m.View(), "stopped")
}

func TestViewShowsSettings(t *testing.T) {
	settings := types.DefaultSettings()
	settings.NoSwitchURLs = []string{"mail.google.com", "calendar.google.com"}
	m := loadedModel(t, &fakeEditor{settings: settings})

	view := m.View()

	assert.Contains(t, view, "tabrotate")
	assert.Contains(t, view, "5s")
	assert.Contains(t, view, "mail.google.com (+1 more)")
	assert.Contains(t, view, "none")
}

func TestCurrentTabTruncatedToWidth(t *testing.T) {
	m := loadedModel(t, &fakeEditor{settings: types.DefaultSettings()})
	m = step(t, m, tea.WindowSizeMsg{Width: 40, Height: 20})
	m = step(t, m, eventMsg{event: types.NewSwitchedEvent(types.Tab{ID: "1", URL: "https://example.com/a/very/long/path/that/does/not/fit"})})

	assert.Equal(t, "https://example.c...", m.currentTab())
}

func TestShortcutKey(t *testing.T) {
	tests := []struct {
		shortcut string
		want     string
	}{
		{"Ctrl+Shift+Y", "ctrl+y"},
		{"ctrl+y", "ctrl+y"},
		{"Alt+T", "alt+t"},
		{"Shift+T", "T"},
		{"F8", "f8"},
		{"Command+Shift+Y", ""},
		{"Ctrl+A+B", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.shortcut, func(t *testing.T) {
			assert.Equal(t, tt.want, shortcutKey(tt.shortcut))
		})
	}
}

func TestCustomShortcutTogglesSwitching(t *testing.T) {
	editor := &fakeEditor{settings: types.DefaultSettings()}
	m := loadedModel(t, editor)

	step(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})

	require.Len(t, editor.applied, 1)
	assert.Equal(t, map[string]interface{}{config.KeyEnableSwitching: true}, editor.applied[0])
	assert.Contains(t, m.View(), "Ctrl+Shift+Y")
}

func TestCustomShortcutFollowsSettings(t *testing.T) {
	settings := types.DefaultSettings()
	settings.CustomShortcut = "Alt+T"
	editor := &fakeEditor{settings: settings}
	m := loadedModel(t, editor)

	step(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Empty(t, editor.applied)

	step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}, Alt: true})
	require.Len(t, editor.applied, 1)

	settings.CustomShortcut = "Cmd+Y"
	m = step(t, m, eventMsg{event: types.NewSettingsLoadedEvent(settings)})
	assert.Contains(t, m.View(), "Cmd+Y (not available in terminal)")
}
