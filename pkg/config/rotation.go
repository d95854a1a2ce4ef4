package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/tabrotate/pkg/types"
)

const (
	// SectionIDRotation is the identifier for the rotation settings section
	SectionIDRotation = "rotation"

	// Persisted keys. They are stored verbatim and must not be renamed.
	KeyStayTime        = "stayTime"
	KeyEnableSwitching = "enableSwitching"
	KeyShouldRefresh   = "shouldRefresh"
	KeyNoSwitchURLs    = "noSwitchUrls"
	KeyNoRefreshURLs   = "noRefreshUrls"
	KeyCustomShortcut  = "customShortcut"
)

type rotationValues struct {
	StayTimeSeconds float64 `json:"stayTime"`
	EnableSwitching bool    `json:"enableSwitching"`
	ShouldRefresh   bool    `json:"shouldRefresh"`
	NoSwitchURLs    string  `json:"noSwitchUrls"`
	NoRefreshURLs   string  `json:"noRefreshUrls"`
	CustomShortcut  string  `json:"customShortcut"`
}

func defaultRotationValues() rotationValues {
	return rotationValues{
		StayTimeSeconds: types.DefaultStayTime.Seconds(),
		EnableSwitching: types.DefaultEnableSwitching,
		ShouldRefresh:   types.DefaultShouldRefresh,
		CustomShortcut:  types.DefaultCustomShortcut,
	}
}

// RotationSection holds the tab rotation settings.
type RotationSection struct {
	rotationValues
	mu sync.RWMutex
}

// NewRotationSection creates a rotation section with default settings.
func NewRotationSection() *RotationSection {
	s := &RotationSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *RotationSection) ID() string {
	return SectionIDRotation
}

// Title returns the section title.
func (s *RotationSection) Title() string {
	return "Tab Rotation"
}

// Description returns the section description.
func (s *RotationSection) Description() string {
	return "Configure how long each tab stays active, whether switching is enabled, and which tabs are skipped or never reloaded."
}

// Data returns the current configuration data.
func (s *RotationSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		KeyStayTime:        s.StayTimeSeconds,
		KeyEnableSwitching: s.EnableSwitching,
		KeyShouldRefresh:   s.ShouldRefresh,
		KeyNoSwitchURLs:    s.NoSwitchURLs,
		KeyNoRefreshURLs:   s.NoRefreshURLs,
		KeyCustomShortcut:  s.CustomShortcut,
	}
}

// SetData updates the configuration from the provided data. Values may be
// native JSON types or strings, so command line edits can be applied
// directly. On error the section is unchanged.
func (s *RotationSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.rotationValues
	if err := values.apply(data); err != nil {
		return err
	}
	s.rotationValues = values
	return nil
}

// Replace restores the defaults and applies data as one step. On error the
// section is unchanged.
func (s *RotationSection) Replace(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := defaultRotationValues()
	if err := values.apply(data); err != nil {
		return err
	}
	s.rotationValues = values
	return nil
}

func (v *rotationValues) apply(data map[string]interface{}) error {
	for key, value := range data {
		switch key {
		case KeyStayTime:
			seconds, err := toSeconds(value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			v.StayTimeSeconds = seconds

		case KeyEnableSwitching:
			enabled, err := toBool(value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			v.EnableSwitching = enabled

		case KeyShouldRefresh:
			enabled, err := toBool(value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			v.ShouldRefresh = enabled

		case KeyNoSwitchURLs:
			list, err := toPatternString(value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			v.NoSwitchURLs = list

		case KeyNoRefreshURLs:
			list, err := toPatternString(value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			v.NoRefreshURLs = list

		case KeyCustomShortcut:
			shortcut, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
			}
			v.CustomShortcut = shortcut

		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *RotationSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StayTimeSeconds <= 0 || math.IsNaN(s.StayTimeSeconds) || math.IsInf(s.StayTimeSeconds, 0) {
		return fmt.Errorf("%s must be a positive number of seconds, got %v", KeyStayTime, s.StayTimeSeconds)
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *RotationSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotationValues = defaultRotationValues()
}

// Settings returns a snapshot of the section as rotation settings.
func (s *RotationSection) Settings() types.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return types.Settings{
		StayTime:        time.Duration(s.StayTimeSeconds * float64(time.Second)),
		EnableSwitching: s.EnableSwitching,
		ShouldRefresh:   s.ShouldRefresh,
		NoSwitchURLs:    types.ParsePatternList(s.NoSwitchURLs),
		NoRefreshURLs:   types.ParsePatternList(s.NoRefreshURLs),
		CustomShortcut:  s.CustomShortcut,
	}
}

func toSeconds(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		seconds, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			// Also accept Go durations such as "1m30s"
			d, durErr := time.ParseDuration(strings.TrimSpace(v))
			if durErr != nil {
				return 0, fmt.Errorf("expected seconds or a duration, got %q", v)
			}
			return d.Seconds(), nil
		}
		return seconds, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}

func toBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("expected true or false, got %q", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected bool, got %T", value)
	}
}

// toPatternString accepts the persisted newline separated string or a JSON
// array of strings, and returns the persisted form.
func toPatternString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []string:
		return types.JoinPatternList(v), nil
	case []interface{}:
		patterns := make([]string, 0, len(v))
		for _, item := range v {
			pattern, ok := item.(string)
			if !ok {
				return "", fmt.Errorf("expected list of strings, found %T", item)
			}
			patterns = append(patterns, pattern)
		}
		return types.JoinPatternList(patterns), nil
	default:
		return "", fmt.Errorf("expected string, got %T", value)
	}
}
