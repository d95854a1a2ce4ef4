package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/tabrotate/pkg/types"
)

type tabEntry struct {
	id   types.TabID
	page playwright.Page
	// url is the last main-frame URL seen, guarded by Tabs.mu
	url string
}

// Tabs tracks the pages of one browser context and implements the tab
// services the scheduler needs.
type Tabs struct {
	mu       sync.RWMutex
	entries  []*tabEntry
	byID     map[types.TabID]*tabEntry
	listener TabEventListener
}

// NewTabs creates an empty registry.
func NewTabs() *Tabs {
	return &Tabs{
		byID: make(map[types.TabID]*tabEntry),
	}
}

// SetListener sets the receiver of tab close and navigation events.
func (t *Tabs) SetListener(listener TabEventListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = listener
}

// Attach tracks every page already open in bc and every page opened later.
func (t *Tabs) Attach(bc playwright.BrowserContext) {
	for _, page := range bc.Pages() {
		t.Track(page)
	}
	bc.OnPage(func(page playwright.Page) {
		t.Track(page)
	})
}

// Track registers page and returns its id. Tracking the same page twice
// returns the existing id.
func (t *Tabs) Track(page playwright.Page) types.TabID {
	t.mu.Lock()
	for _, entry := range t.entries {
		if entry.page == page {
			t.mu.Unlock()
			return entry.id
		}
	}

	entry := &tabEntry{
		id:   types.TabID(uuid.New().String()),
		page: page,
		url:  page.URL(),
	}
	t.entries = append(t.entries, entry)
	t.byID[entry.id] = entry
	t.mu.Unlock()

	id := entry.id
	page.OnClose(func(playwright.Page) {
		t.remove(id)
		if l := t.currentListener(); l != nil {
			l.NotifyTabClosed(id)
		}
	})
	page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame.ParentFrame() != nil {
			return
		}
		// Reloads navigate the main frame without changing its URL
		if !t.urlChanged(entry, frame.URL()) {
			return
		}
		if l := t.currentListener(); l != nil {
			l.NotifyTabNavigated(id)
		}
	})

	return id
}

// urlChanged records url as the entry's current URL and reports whether it
// differs from the previous one.
func (t *Tabs) urlChanged(entry *tabEntry, url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry.url == url {
		return false
	}
	entry.url = url
	return true
}

func (t *Tabs) currentListener() TabEventListener {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.listener
}

func (t *Tabs) remove(id types.TabID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byID[id]; !ok {
		return
	}
	delete(t.byID, id)

	for i, entry := range t.entries {
		if entry.id == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
}

func (t *Tabs) lookup(id types.TabID) (playwright.Page, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("tab %s not found", id)
	}
	return entry.page, nil
}

// ListAll returns the open tabs in open order.
func (t *Tabs) ListAll(ctx context.Context) ([]types.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	entries := make([]*tabEntry, len(t.entries))
	copy(entries, t.entries)
	t.mu.RUnlock()

	tabs := make([]types.Tab, 0, len(entries))
	for _, entry := range entries {
		if entry.page.IsClosed() {
			continue
		}
		tabs = append(tabs, types.Tab{ID: entry.id, URL: entry.page.URL()})
	}

	return tabs, nil
}

// Activate brings the tab to the front.
func (t *Tabs) Activate(ctx context.Context, id types.TabID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := t.lookup(id)
	if err != nil {
		return err
	}

	if err := page.BringToFront(); err != nil {
		return fmt.Errorf("failed to activate tab %s: %w", id, err)
	}
	return nil
}

// Reload reloads the tab, returning once the new document is committed.
func (t *Tabs) Reload(ctx context.Context, id types.TabID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := t.lookup(id)
	if err != nil {
		return err
	}

	waitUntil := playwright.WaitUntilState("commit")
	if _, err := page.Reload(playwright.PageReloadOptions{WaitUntil: &waitUntil}); err != nil {
		return fmt.Errorf("failed to reload tab %s: %w", id, err)
	}
	return nil
}

// Exists reports whether the tab is still open.
func (t *Tabs) Exists(ctx context.Context, id types.TabID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	page, err := t.lookup(id)
	if err != nil {
		return false, nil
	}
	return !page.IsClosed(), nil
}

// Len returns the number of tracked tabs.
func (t *Tabs) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
