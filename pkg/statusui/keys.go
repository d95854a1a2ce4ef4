package statusui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Toggle  key.Binding
	Longer  key.Binding
	Shorter key.Binding
	Refresh key.Binding
	Copy    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle switching"),
		),
		Longer: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "stay longer"),
		),
		Shorter: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "stay shorter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle refresh"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy url"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// withShortcut returns k with the stored custom shortcut bound as an extra
// toggle key. Shortcuts the terminal cannot report leave space as the only
// toggle key.
func (k keyMap) withShortcut(shortcut string) keyMap {
	keys := []string{" "}
	helpKey := "space"
	if sk := shortcutKey(shortcut); sk != "" {
		keys = append(keys, sk)
		helpKey += "/" + sk
	}
	k.Toggle = key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(helpKey, "toggle switching"),
	)
	return k
}

// shortcutKey converts a shortcut such as "Ctrl+Shift+Y" to bubbletea key
// notation ("ctrl+y"). Terminals send the same sequence for ctrl+shift and
// ctrl, so shift is dropped there and folded into the letter otherwise.
// It returns "" for shortcuts with modifiers a terminal never reports.
func shortcutKey(shortcut string) string {
	var ctrl, alt, shift bool
	var name string

	for _, part := range strings.Split(shortcut, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "":
			continue
		case "ctrl", "control":
			ctrl = true
		case "alt", "option":
			alt = true
		case "shift":
			shift = true
		case "cmd", "command", "meta", "super", "mactrl":
			return ""
		default:
			if name != "" {
				return ""
			}
			name = part
		}
	}

	if name == "" {
		return ""
	}
	if shift && !ctrl && len(name) == 1 {
		name = strings.ToUpper(name)
	}

	var b strings.Builder
	if alt {
		b.WriteString("alt+")
	}
	if ctrl {
		b.WriteString("ctrl+")
	}
	b.WriteString(name)
	return b.String()
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Longer, k.Shorter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Refresh},
		{k.Longer, k.Shorter},
		{k.Copy, k.Help, k.Quit},
	}
}
