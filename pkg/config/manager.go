package config

import (
	"fmt"
	"sync"
)

// Manager binds registered sections to a Store.
type Manager struct {
	store    Store
	sections map[string]Section
	order    []string
	mu       sync.RWMutex
}

// NewManager creates a manager with no sections.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// RegisterSection adds a section. IDs must be unique.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("section %q already registered", id)
	}

	m.sections[id] = section
	m.order = append(m.order, id)
	return nil
}

// GetSection returns the section registered under id.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	section, ok := m.sections[id]
	return section, ok
}

// GetSections returns all sections in registration order.
func (m *Manager) GetSections() []Section {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := make([]Section, 0, len(m.order))
	for _, id := range m.order {
		sections = append(sections, m.sections[id])
	}
	return sections
}

// LoadAll re-reads the store and replaces every section's values. Keys
// missing from the store take their defaults.
func (m *Manager) LoadAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadAllLocked()
}

func (m *Manager) loadAllLocked() error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	stored := make(map[string]map[string]interface{}, len(m.order))
	for _, id := range m.order {
		data, err := m.store.GetSection(id)
		if err != nil {
			return fmt.Errorf("failed to read section %s: %w", id, err)
		}
		stored[id] = data
	}

	previous := make(map[string]map[string]interface{}, len(m.order))
	for _, id := range m.order {
		previous[id] = m.sections[id].Data()
	}

	for i, id := range m.order {
		if err := m.sections[id].Replace(stored[id]); err != nil {
			m.restoreLocked(m.order[:i], previous)
			return fmt.Errorf("invalid data in section %s: %w", id, err)
		}
	}

	return nil
}

// restoreLocked puts back values captured with Data. Those values were
// accepted before, so a failure here is only logged.
func (m *Manager) restoreLocked(ids []string, previous map[string]map[string]interface{}) {
	for _, id := range ids {
		if err := m.sections[id].Replace(previous[id]); err != nil {
			debugLog.Errorf("Failed to restore section %s: %v", id, err)
		}
	}
}

// SaveAll validates every section and writes them to the store.
func (m *Manager) SaveAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAllLocked()
}

func (m *Manager) saveAllLocked() error {
	for _, id := range m.order {
		section := m.sections[id]
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid configuration in section %s: %w", id, err)
		}
		if err := m.store.SetSection(id, section.Data()); err != nil {
			return fmt.Errorf("failed to store section %s: %w", id, err)
		}
	}

	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	return nil
}

// ResetAll restores defaults in every section without saving.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		m.sections[id].Reset()
	}
}

// Update re-reads the store, applies data to one section and saves
// everything, as one step with respect to other manager calls. When the
// data is rejected nothing is written and the stored values are restored.
func (m *Manager) Update(sectionID string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	section, ok := m.sections[sectionID]
	if !ok {
		return fmt.Errorf("unknown section %q", sectionID)
	}

	if err := m.loadAllLocked(); err != nil {
		return err
	}

	previous := section.Data()
	if err := section.SetData(data); err != nil {
		return err
	}
	if err := section.Validate(); err != nil {
		m.restoreLocked([]string{sectionID}, map[string]map[string]interface{}{sectionID: previous})
		return err
	}

	return m.saveAllLocked()
}
