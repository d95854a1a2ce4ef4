package config

import (
	"context"
	"fmt"

	"github.com/entrhq/tabrotate/pkg/types"
)

// SettingsProvider serves rotation settings straight from the persisted
// store. Every call re-reads the file, so the in-memory section is only a
// cache and edits made by another process are seen on the next call.
type SettingsProvider struct {
	manager *Manager
}

// NewSettingsProvider creates a provider over a manager that has a rotation
// section registered.
func NewSettingsProvider(manager *Manager) *SettingsProvider {
	return &SettingsProvider{manager: manager}
}

// Settings re-reads the store and returns the rotation settings.
func (p *SettingsProvider) Settings(ctx context.Context) (types.Settings, error) {
	if err := ctx.Err(); err != nil {
		return types.Settings{}, err
	}

	if err := p.manager.LoadAll(); err != nil {
		return types.Settings{}, err
	}

	rotation := RotationOf(p.manager)
	if rotation == nil {
		return types.Settings{}, fmt.Errorf("rotation settings section is not registered")
	}

	return rotation.Settings(), nil
}

// Apply writes rotation setting changes to the store, the same way the
// options form saves them. Keys use their persisted names.
func (p *SettingsProvider) Apply(changes map[string]interface{}) error {
	return p.manager.Update(SectionIDRotation, changes)
}
