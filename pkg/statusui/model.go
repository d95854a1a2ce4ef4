// Package statusui provides a terminal view of the rotation scheduler and a
// compact editor for its settings.
//
// Edits are written to the settings store, never to the scheduler. The
// settings watcher picks up the write and restarts the scheduler, the same
// path an edit from another process takes.
package statusui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/tabrotate/pkg/config"
	"github.com/entrhq/tabrotate/pkg/logging"
	"github.com/entrhq/tabrotate/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("statusui")
	if err != nil {
		debugLog.Warnf("Failed to initialize statusui logger, using stderr fallback: %v", err)
	}
}

const (
	stayStep    = time.Second
	minStayTime = time.Second
)

// SettingsEditor reads and writes rotation settings.
// config.SettingsProvider implements it.
type SettingsEditor interface {
	Settings(ctx context.Context) (types.Settings, error)
	Apply(changes map[string]interface{}) error
}

// eventMsg wraps a scheduler event for the bubbletea loop.
type eventMsg struct {
	event *types.RotationEvent
}

// settingsMsg carries the result of reading settings.
type settingsMsg struct {
	settings types.Settings
	err      error
}

// appliedMsg carries the result of writing settings.
type appliedMsg struct {
	changes map[string]interface{}
	err     error
}

// copiedMsg carries the result of copying a URL.
type copiedMsg struct {
	url string
	err error
}

type model struct {
	editor   SettingsEditor
	copyText func(string) error
	keys     keyMap
	help     help.Model

	settings   types.Settings
	loaded     bool
	running    bool
	current    *types.Tab
	nextSwitch time.Duration
	armedAt    time.Time
	lastErr    error
	status     string
	width      int
	quitting   bool
}

func newModel(editor SettingsEditor) model {
	return model{
		editor:   editor,
		copyText: clipboard.WriteAll,
		keys:     defaultKeyMap().withShortcut(types.DefaultCustomShortcut),
		help:     help.New(),
		settings: types.DefaultSettings(),
	}
}

func (m model) Init() tea.Cmd {
	return m.loadSettings()
}

func (m model) loadSettings() tea.Cmd {
	editor := m.editor
	return func() tea.Msg {
		settings, err := editor.Settings(context.Background())
		return settingsMsg{settings: settings, err: err}
	}
}

func (m model) apply(changes map[string]interface{}) tea.Cmd {
	editor := m.editor
	return func() tea.Msg {
		return appliedMsg{changes: changes, err: editor.Apply(changes)}
	}
}

func (m model) copyURL(url string) tea.Cmd {
	copyText := m.copyText
	return func() tea.Msg {
		return copiedMsg{url: url, err: copyText(url)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.handleEvent(msg.event)
		return m, nil

	case settingsMsg:
		if msg.err != nil {
			m.lastErr = fmt.Errorf("failed to read settings: %w", msg.err)
			return m, nil
		}
		m.setSettings(msg.settings)
		return m, nil

	case appliedMsg:
		if msg.err != nil {
			debugLog.Warnf("Failed to save settings %v: %v", msg.changes, msg.err)
			m.lastErr = msg.err
			m.status = "settings not saved"
			return m, nil
		}
		m.lastErr = nil
		m.status = "settings saved"
		return m, m.loadSettings()

	case copiedMsg:
		if msg.err != nil {
			m.lastErr = fmt.Errorf("failed to copy url: %w", msg.err)
			return m, nil
		}
		m.status = "copied " + msg.url
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		return m, m.apply(map[string]interface{}{
			config.KeyEnableSwitching: !m.settings.EnableSwitching,
		})

	case key.Matches(msg, m.keys.Refresh):
		return m, m.apply(map[string]interface{}{
			config.KeyShouldRefresh: !m.settings.ShouldRefresh,
		})

	case key.Matches(msg, m.keys.Longer):
		return m, m.setStayTime(m.settings.StayTime + stayStep)

	case key.Matches(msg, m.keys.Shorter):
		return m, m.setStayTime(m.settings.StayTime - stayStep)

	case key.Matches(msg, m.keys.Copy):
		if m.current == nil || m.current.URL == "" {
			m.status = "no tab to copy"
			return m, nil
		}
		return m, m.copyURL(m.current.URL)
	}

	return m, nil
}

func (m model) setStayTime(stay time.Duration) tea.Cmd {
	if stay < minStayTime {
		stay = minStayTime
	}
	if stay == m.settings.StayTime {
		return nil
	}
	return m.apply(map[string]interface{}{
		config.KeyStayTime: stay.Seconds(),
	})
}

func (m *model) setSettings(settings types.Settings) {
	m.settings = settings
	m.loaded = true
	m.keys = m.keys.withShortcut(settings.CustomShortcut)
}

func (m *model) handleEvent(ev *types.RotationEvent) {
	if ev == nil {
		return
	}

	switch ev.Type {
	case types.EventTypeStarted:
		m.running = true
		m.lastErr = nil
		if ev.Settings != nil {
			m.setSettings(*ev.Settings)
		}

	case types.EventTypeStopped:
		m.running = false
		m.current = nil
		m.nextSwitch = 0

	case types.EventTypeSettingsLoaded:
		if ev.Settings != nil {
			m.setSettings(*ev.Settings)
		}

	case types.EventTypeSwitched:
		m.current = ev.Tab
		m.status = ""

	case types.EventTypeReloaded:
		m.status = "reloaded"

	case types.EventTypeIdle:
		m.current = nil
		m.status = "no eligible tabs"

	case types.EventTypeTimerArmed:
		m.running = true
		m.nextSwitch = ev.NextSwitch
		m.armedAt = ev.At

	case types.EventTypeCycleError:
		m.lastErr = ev.Error
	}
}
