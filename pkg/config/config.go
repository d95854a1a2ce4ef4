package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// NewDefaultManager creates a manager over a file store at path with the
// rotation and browser sections registered and loaded.
func NewDefaultManager(path string) (*Manager, error) {
	store, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)

	if err := manager.RegisterSection(NewRotationSection()); err != nil {
		return nil, err
	}

	if err := manager.RegisterSection(NewBrowserSection()); err != nil {
		return nil, err
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}

	return manager, nil
}

// Initialize creates and initializes the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	manager, err := NewDefaultManager(configPath)
	if err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetRotation returns the rotation section from global config.
// Returns nil if config is not initialized.
func GetRotation() *RotationSection {
	if !IsInitialized() {
		return nil
	}
	return RotationOf(Global())
}

// GetBrowser returns the browser section from global config.
// Returns nil if config is not initialized.
func GetBrowser() *BrowserSection {
	if !IsInitialized() {
		return nil
	}
	return BrowserOf(Global())
}

// RotationOf returns the rotation section registered with m, or nil.
func RotationOf(m *Manager) *RotationSection {
	section, ok := m.GetSection(SectionIDRotation)
	if !ok {
		return nil
	}

	rotation, ok := section.(*RotationSection)
	if !ok {
		return nil
	}

	return rotation
}

// BrowserOf returns the browser section registered with m, or nil.
func BrowserOf(m *Manager) *BrowserSection {
	section, ok := m.GetSection(SectionIDBrowser)
	if !ok {
		return nil
	}

	browser, ok := section.(*BrowserSection)
	if !ok {
		return nil
	}

	return browser
}
