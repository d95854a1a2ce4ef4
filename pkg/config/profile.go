package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadBrowserProfile reads a YAML browser profile. Fields missing from the
// file keep the values in base.
//
// Example:
//
//	headless: false
//	viewport_width: 1920
//	viewport_height: 1080
//	start_urls:
//	  - https://grafana.example.com/d/overview
//	  - https://status.example.com
func LoadBrowserProfile(path string, base BrowserSettings) (BrowserSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BrowserSettings{}, fmt.Errorf("failed to read browser profile: %w", err)
	}

	profile := base
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return BrowserSettings{}, fmt.Errorf("failed to parse browser profile: %w", err)
	}

	if profile.ViewportWidth <= 0 || profile.ViewportHeight <= 0 {
		return BrowserSettings{}, fmt.Errorf("browser profile viewport must be positive, got %dx%d", profile.ViewportWidth, profile.ViewportHeight)
	}

	return profile, nil
}
