package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"

	defaultBrowserHeadless = false
	defaultViewportWidth   = 1280
	defaultViewportHeight  = 720
)

// BrowserSection configures the Chromium instance whose tabs are rotated.
type BrowserSection struct {
	BrowserSettings
	mu sync.RWMutex
}

func defaultBrowserSettings() BrowserSettings {
	return BrowserSettings{
		Headless:       defaultBrowserHeadless,
		ViewportWidth:  defaultViewportWidth,
		ViewportHeight: defaultViewportHeight,
	}
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure the Chromium window that tabrotate drives: visibility, viewport, profile directory and the tabs opened at launch."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]interface{}, 0, len(s.StartURLs))
	for _, u := range s.StartURLs {
		urls = append(urls, u)
	}

	return map[string]interface{}{
		"headless":        s.Headless,
		"start_urls":      urls,
		"viewport_width":  s.ViewportWidth,
		"viewport_height": s.ViewportHeight,
		"user_data_dir":   s.UserDataDir,
	}
}

// SetData updates the configuration from the provided data. On error the
// section is unchanged.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.BrowserSettings
	values.StartURLs = append([]string(nil), s.StartURLs...)
	if err := values.apply(data); err != nil {
		return err
	}
	s.BrowserSettings = values
	return nil
}

// Replace restores the defaults and applies data as one step. On error the
// section is unchanged.
func (s *BrowserSection) Replace(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := defaultBrowserSettings()
	if err := values.apply(data); err != nil {
		return err
	}
	s.BrowserSettings = values
	return nil
}

func (b *BrowserSettings) apply(data map[string]interface{}) error {
	for key, value := range data {
		switch key {
		case "headless":
			enabled, err := toBool(value)
			if err != nil {
				return fmt.Errorf("invalid value for headless: %w", err)
			}
			b.Headless = enabled

		case "start_urls":
			switch v := value.(type) {
			case []string:
				b.StartURLs = append([]string(nil), v...)
			case []interface{}:
				urls := make([]string, 0, len(v))
				for _, item := range v {
					u, ok := item.(string)
					if !ok {
						return fmt.Errorf("invalid value in start_urls: expected string, got %T", item)
					}
					urls = append(urls, u)
				}
				b.StartURLs = urls
			default:
				return fmt.Errorf("invalid value type for start_urls: expected list, got %T", value)
			}

		case "viewport_width":
			width, err := toInt(value)
			if err != nil {
				return fmt.Errorf("invalid value for viewport_width: %w", err)
			}
			b.ViewportWidth = width

		case "viewport_height":
			height, err := toInt(value)
			if err != nil {
				return fmt.Errorf("invalid value for viewport_height: %w", err)
			}
			b.ViewportHeight = height

		case "user_data_dir":
			dir, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for user_data_dir: expected string, got %T", value)
			}
			b.UserDataDir = dir

		default:
			continue
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", s.ViewportWidth, s.ViewportHeight)
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BrowserSettings = defaultBrowserSettings()
}

// Snapshot returns a copy of the browser settings that is safe to read
// without holding the section lock.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return BrowserSettings{
		Headless:       s.Headless,
		StartURLs:      append([]string(nil), s.StartURLs...),
		ViewportWidth:  s.ViewportWidth,
		ViewportHeight: s.ViewportHeight,
		UserDataDir:    s.UserDataDir,
	}
}

// BrowserSettings holds the values of BrowserSection. It is also the schema
// of the YAML browser profile file.
type BrowserSettings struct {
	Headless       bool     `yaml:"headless"`
	StartURLs      []string `yaml:"start_urls"`
	ViewportWidth  int      `yaml:"viewport_width"`
	ViewportHeight int      `yaml:"viewport_height"`
	UserDataDir    string   `yaml:"user_data_dir"`
}

func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected whole number, got %v", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}
