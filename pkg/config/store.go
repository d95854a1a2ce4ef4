package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists section data.
type Store interface {
	// Load replaces the in-memory data with what is on disk.
	Load() error

	// Save writes the in-memory data to disk.
	Save() error

	// GetSection returns a copy of a section's stored values. A section
	// that was never saved yields an empty map.
	GetSection(sectionID string) (map[string]interface{}, error)

	// SetSection replaces a section's stored values in memory.
	SetSection(sectionID string, data map[string]interface{}) error
}

// fileFormatVersion is written to every saved settings file. Stored keys are
// persisted verbatim; there is no migration between versions.
const fileFormatVersion = "1.0"

// settingsFile is the on-disk layout of the settings file.
type settingsFile struct {
	Version  string                            `json:"version"`
	Sections map[string]map[string]interface{} `json:"sections"`
}

// FileStore keeps settings in a JSON file. Saves write a temp file in the
// same directory and rename it over the target, so the settings watcher and
// other processes never read a half-written file.
type FileStore struct {
	path    string
	version string
	data    map[string]map[string]interface{}
	mu      sync.RWMutex
}

// DefaultPath returns the default settings file location,
// ~/.tabrotate/settings.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tabrotate", "settings.json"), nil
}

// NewFileStore opens the settings file at path, or DefaultPath when path is
// empty. A missing file is not an error.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	store := &FileStore{
		path:    path,
		version: fileFormatVersion,
		data:    make(map[string]map[string]interface{}),
	}
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load settings from %s: %w", path, err)
	}

	return store, nil
}

// Load re-reads the settings file. A missing or empty file loads as no
// stored sections.
func (s *FileStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		raw, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	file := settingsFile{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &file); err != nil {
			return fmt.Errorf("failed to decode settings file: %w", err)
		}
	}
	if file.Version == "" {
		file.Version = fileFormatVersion
	}
	if file.Sections == nil {
		file.Sections = make(map[string]map[string]interface{})
	}

	s.mu.Lock()
	s.version = file.Version
	s.data = file.Sections
	s.mu.Unlock()
	return nil
}

// Save writes every section to the settings file.
func (s *FileStore) Save() error {
	s.mu.RLock()
	encoded, err := json.MarshalIndent(settingsFile{Version: s.version, Sections: s.data}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(encoded, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp settings file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// GetSection returns a copy of the stored values of one section.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneValues(s.data[sectionID]), nil
}

// SetSection replaces the stored values of one section. The change reaches
// disk on the next Save.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sectionID] = cloneValues(data)
	return nil
}

// Path returns the settings file location.
func (s *FileStore) Path() string {
	return s.path
}

func cloneValues(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
