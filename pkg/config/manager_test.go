package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// memStore keeps sections in memory. Tests edit sections directly to play
// the part of the file on disk.
type memStore struct {
	mu       sync.Mutex
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saves    int
}

func newMemStore() *memStore {
	return &memStore{sections: make(map[string]map[string]interface{})}
}

func (m *memStore) Load() error { return m.loadErr }

func (m *memStore) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	return nil
}

func (m *memStore) GetSection(sectionID string) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneValues(m.sections[sectionID]), nil
}

func (m *memStore) SetSection(sectionID string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[sectionID] = cloneValues(data)
	return nil
}

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()

	manager := NewManager(store)
	if err := manager.RegisterSection(NewRotationSection()); err != nil {
		t.Fatalf("RegisterSection failed: %v", err)
	}
	if err := manager.RegisterSection(NewBrowserSection()); err != nil {
		t.Fatalf("RegisterSection failed: %v", err)
	}
	return manager
}

func TestManager_RegisterSection(t *testing.T) {
	manager := newTestManager(t, newMemStore())

	if err := manager.RegisterSection(NewRotationSection()); err == nil {
		t.Error("Expected error registering a second rotation section")
	}

	sections := manager.GetSections()
	if len(sections) != 2 || sections[0].ID() != SectionIDRotation || sections[1].ID() != SectionIDBrowser {
		t.Errorf("Sections not in registration order: %v", sections)
	}

	if _, ok := manager.GetSection(SectionIDBrowser); !ok {
		t.Error("Browser section should be registered")
	}
	if _, ok := manager.GetSection("llm"); ok {
		t.Error("Unknown section should not be found")
	}
}

func TestManager_LoadAllFillsDefaults(t *testing.T) {
	store := newMemStore()
	store.sections[SectionIDRotation] = map[string]interface{}{KeyStayTime: 9.0}
	manager := newTestManager(t, store)

	rotation := RotationOf(manager)
	if err := rotation.SetData(map[string]interface{}{KeyEnableSwitching: true, KeyNoSwitchURLs: "a.com"}); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}

	if err := manager.LoadAll(); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	settings := rotation.Settings()
	if settings.StayTime.Seconds() != 9 {
		t.Errorf("Expected stored stay time 9s, got %v", settings.StayTime)
	}
	if settings.EnableSwitching {
		t.Error("enableSwitching is not stored and should fall back to its default")
	}
	if len(settings.NoSwitchURLs) != 0 {
		t.Errorf("noSwitchUrls is not stored and should be empty, got %v", settings.NoSwitchURLs)
	}

	browser := BrowserOf(manager).Snapshot()
	if browser.ViewportWidth != defaultViewportWidth || browser.ViewportHeight != defaultViewportHeight {
		t.Errorf("Expected default viewport, got %dx%d", browser.ViewportWidth, browser.ViewportHeight)
	}
}

func TestManager_LoadAllKeepsValuesOnBadData(t *testing.T) {
	store := newMemStore()
	store.sections[SectionIDRotation] = map[string]interface{}{KeyStayTime: 7.0, KeyEnableSwitching: true}
	store.sections[SectionIDBrowser] = map[string]interface{}{"viewport_width": 1920.0, "viewport_height": 1080.0}
	manager := newTestManager(t, store)

	if err := manager.LoadAll(); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	store.sections[SectionIDRotation] = map[string]interface{}{KeyStayTime: 60.0}
	store.sections[SectionIDBrowser] = map[string]interface{}{"viewport_width": 800.0, "viewport_height": "tall"}

	if err := manager.LoadAll(); err == nil {
		t.Fatal("Expected error for a non numeric viewport height")
	}

	settings := RotationOf(manager).Settings()
	if settings.StayTime.Seconds() != 7 || !settings.EnableSwitching {
		t.Errorf("Rotation section should keep its previous values, got %+v", settings)
	}

	browser := BrowserOf(manager).Snapshot()
	if browser.ViewportWidth != 1920 || browser.ViewportHeight != 1080 {
		t.Errorf("Browser section should keep its previous values, got %dx%d", browser.ViewportWidth, browser.ViewportHeight)
	}
}

func TestManager_LoadAllStoreError(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("permission denied")
	manager := newTestManager(t, store)

	if err := manager.LoadAll(); err == nil {
		t.Error("Expected store load error to be returned")
	}
}

func TestManager_SaveAllPersistsKeysVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	manager, err := NewDefaultManager(path)
	if err != nil {
		t.Fatalf("NewDefaultManager failed: %v", err)
	}

	if err := manager.SaveAll(); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	rotation := readSettingsFile(t, path).Sections[SectionIDRotation]
	want := []string{KeyStayTime, KeyEnableSwitching, KeyShouldRefresh, KeyNoSwitchURLs, KeyNoRefreshURLs, KeyCustomShortcut}
	if len(rotation) != len(want) {
		t.Errorf("Expected %d rotation keys, got %v", len(want), rotation)
	}
	for _, key := range want {
		if _, ok := rotation[key]; !ok {
			t.Errorf("Key %q missing from saved rotation section %v", key, rotation)
		}
	}
}

func TestManager_SaveAllValidates(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(t, store)

	if err := BrowserOf(manager).SetData(map[string]interface{}{"viewport_width": 0}); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}

	if err := manager.SaveAll(); err == nil {
		t.Fatal("Expected validation error for zero viewport width")
	}
	if store.saves != 0 {
		t.Error("Invalid configuration should not be saved")
	}
}

func TestManager_Update(t *testing.T) {
	t.Run("applies and persists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		manager, err := NewDefaultManager(path)
		if err != nil {
			t.Fatalf("NewDefaultManager failed: %v", err)
		}

		if err := manager.Update(SectionIDRotation, map[string]interface{}{KeyStayTime: "15", KeyShouldRefresh: false}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		rotation := readSettingsFile(t, path).Sections[SectionIDRotation]
		if rotation[KeyStayTime] != 15.0 || rotation[KeyShouldRefresh] != false {
			t.Errorf("Update not persisted: %v", rotation)
		}
	})

	for _, stay := range []interface{}{0.0, -3.0, "0"} {
		t.Run("rejects non positive stay time", func(t *testing.T) {
			store := newMemStore()
			store.sections[SectionIDRotation] = map[string]interface{}{KeyStayTime: 20.0}
			manager := newTestManager(t, store)

			err := manager.Update(SectionIDRotation, map[string]interface{}{KeyStayTime: stay, KeyEnableSwitching: true})
			if err == nil {
				t.Fatalf("Expected error for stay time %v", stay)
			}

			settings := RotationOf(manager).Settings()
			if settings.StayTime.Seconds() != 20 || settings.EnableSwitching {
				t.Errorf("Rejected update should restore stored values, got %+v", settings)
			}
			if store.saves != 0 {
				t.Error("Rejected update should not be saved")
			}
			if store.sections[SectionIDRotation][KeyStayTime] != 20.0 {
				t.Errorf("Stored stay time changed to %v", store.sections[SectionIDRotation][KeyStayTime])
			}
		})
	}

	t.Run("rejects wrong types", func(t *testing.T) {
		store := newMemStore()
		manager := newTestManager(t, store)

		if err := manager.Update(SectionIDRotation, map[string]interface{}{KeyEnableSwitching: "sometimes"}); err == nil {
			t.Fatal("Expected error for non boolean enableSwitching")
		}
		if store.saves != 0 {
			t.Error("Rejected update should not be saved")
		}
	})

	t.Run("unknown section", func(t *testing.T) {
		manager := newTestManager(t, newMemStore())

		if err := manager.Update("ui", map[string]interface{}{"theme": "dark"}); err == nil {
			t.Error("Expected error for unknown section")
		}
	})

	t.Run("save failure", func(t *testing.T) {
		store := newMemStore()
		store.saveErr = errors.New("disk full")
		manager := newTestManager(t, store)

		if err := manager.Update(SectionIDRotation, map[string]interface{}{KeyStayTime: 3.0}); err == nil {
			t.Error("Expected save error to be returned")
		}
	})
}

func TestManager_BrowserSectionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	manager, err := NewDefaultManager(path)
	if err != nil {
		t.Fatalf("NewDefaultManager failed: %v", err)
	}

	want := BrowserSettings{
		Headless:       true,
		StartURLs:      []string{"https://grafana.example.com", "https://status.example.com"},
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		UserDataDir:    "/var/lib/tabrotate/profile",
	}
	err = manager.Update(SectionIDBrowser, map[string]interface{}{
		"headless":        want.Headless,
		"start_urls":      want.StartURLs,
		"viewport_width":  want.ViewportWidth,
		"viewport_height": want.ViewportHeight,
		"user_data_dir":   want.UserDataDir,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reread, err := NewDefaultManager(path)
	if err != nil {
		t.Fatalf("NewDefaultManager failed: %v", err)
	}
	got := BrowserOf(reread).Snapshot()

	if got.Headless != want.Headless || got.ViewportWidth != want.ViewportWidth ||
		got.ViewportHeight != want.ViewportHeight || got.UserDataDir != want.UserDataDir {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if len(got.StartURLs) != 2 || got.StartURLs[0] != want.StartURLs[0] || got.StartURLs[1] != want.StartURLs[1] {
		t.Errorf("Expected start URLs %v, got %v", want.StartURLs, got.StartURLs)
	}
}

func TestManager_ResetAll(t *testing.T) {
	manager := newTestManager(t, newMemStore())

	_ = RotationOf(manager).SetData(map[string]interface{}{KeyStayTime: 40.0})
	_ = BrowserOf(manager).SetData(map[string]interface{}{"headless": true})

	manager.ResetAll()

	if RotationOf(manager).Settings().StayTime.Seconds() != 5 {
		t.Error("Rotation section not reset")
	}
	if BrowserOf(manager).Snapshot().Headless {
		t.Error("Browser section not reset")
	}
}

func TestManager_ConcurrentUpdatesAndReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	manager, err := NewDefaultManager(path)
	if err != nil {
		t.Fatalf("NewDefaultManager failed: %v", err)
	}
	provider := NewSettingsProvider(manager)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(2)
		go func(seconds int) {
			defer wg.Done()
			if err := manager.Update(SectionIDRotation, map[string]interface{}{KeyStayTime: seconds}); err != nil {
				t.Errorf("Update failed: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			if err := manager.LoadAll(); err != nil {
				t.Errorf("LoadAll failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Settings file missing: %v", err)
	}
	if _, err := provider.Settings(context.Background()); err != nil {
		t.Errorf("Settings failed after concurrent updates: %v", err)
	}
}
