package types

import (
	"strings"
	"time"
)

// Default values for rotation settings. They match the values applied to
// missing keys in the persisted settings.
const (
	DefaultStayTime        = 5 * time.Second
	DefaultEnableSwitching = false
	DefaultShouldRefresh   = true
	DefaultCustomShortcut  = "Ctrl+Shift+Y"
)

// Settings is a read-only snapshot of the rotation configuration.
type Settings struct {
	// StayTime is how long a tab stays active before the next switch.
	StayTime time.Duration

	// EnableSwitching is the master on/off toggle.
	EnableSwitching bool

	// ShouldRefresh reloads the tab that was switched to.
	ShouldRefresh bool

	// NoSwitchURLs excludes tabs whose URL matches any pattern.
	NoSwitchURLs []string

	// NoRefreshURLs suppresses the reload for tabs whose URL matches any pattern.
	NoRefreshURLs []string

	// CustomShortcut is the keybinding shown by option surfaces. The
	// scheduler never reads it.
	CustomShortcut string
}

// DefaultSettings returns the settings used when nothing has been stored.
func DefaultSettings() Settings {
	return Settings{
		StayTime:        DefaultStayTime,
		EnableSwitching: DefaultEnableSwitching,
		ShouldRefresh:   DefaultShouldRefresh,
		CustomShortcut:  DefaultCustomShortcut,
	}
}

// ParsePatternList splits a newline separated pattern list, trimming each
// line and dropping blank ones.
func ParsePatternList(raw string) []string {
	var patterns []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

// JoinPatternList is the inverse of ParsePatternList.
func JoinPatternList(patterns []string) string {
	return strings.Join(patterns, "\n")
}
