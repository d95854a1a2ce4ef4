package rotation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabrotate/pkg/types"
)

var errBoom = errors.New("boom")

type fakeSettings struct {
	mu       sync.Mutex
	settings types.Settings
	err      error
	reads    int
}

func newFakeSettings(enabled bool) *fakeSettings {
	s := types.DefaultSettings()
	s.EnableSwitching = enabled
	return &fakeSettings{settings: s}
}

func (f *fakeSettings) Settings(ctx context.Context) (types.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return types.Settings{}, f.err
	}
	return f.settings, nil
}

func (f *fakeSettings) update(fn func(*types.Settings)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.settings)
}

func (f *fakeSettings) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeTabs struct {
	mu          sync.Mutex
	tabs        []types.Tab
	listErr     error
	activateErr error
	reloadErr   error
	existsErr   error
	activated   []types.TabID
	reloaded    []types.TabID
}

func newFakeTabs(tabs ...types.Tab) *fakeTabs {
	return &fakeTabs{tabs: tabs}
}

func (f *fakeTabs) ListAll(ctx context.Context) ([]types.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]types.Tab, len(f.tabs))
	copy(out, f.tabs)
	return out, nil
}

func (f *fakeTabs) Activate(ctx context.Context, id types.TabID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activated = append(f.activated, id)
	return nil
}

func (f *fakeTabs) Reload(ctx context.Context, id types.TabID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reloadErr != nil {
		return f.reloadErr
	}
	f.reloaded = append(f.reloaded, id)
	return nil
}

func (f *fakeTabs) Exists(ctx context.Context, id types.TabID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, tab := range f.tabs {
		if tab.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTabs) setTabs(tabs ...types.Tab) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tabs = tabs
}

func (f *fakeTabs) activations() []types.TabID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.TabID(nil), f.activated...)
}

func (f *fakeTabs) reloads() []types.TabID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.TabID(nil), f.reloaded...)
}

type fakeTimer struct {
	clock   *fakeClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// pending returns the timers that have neither fired nor been stopped.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

// fire runs the single pending timer's callback, as if its delay elapsed.
func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	pending := c.pending()
	require.Len(t, pending, 1, "expected exactly one pending timer")

	timer := pending[0]
	c.mu.Lock()
	timer.fired = true
	c.mu.Unlock()
	timer.fn()
}

var threeTabs = []types.Tab{
	{ID: "1", URL: "https://a.com"},
	{ID: "2", URL: "https://b.com"},
	{ID: "3", URL: "https://c.com"},
}

type harness struct {
	scheduler *Scheduler
	settings  *fakeSettings
	tabs      *fakeTabs
	clock     *fakeClock
}

func newHarness(t *testing.T, settings *fakeSettings, tabs *fakeTabs) *harness {
	t.Helper()

	clock := &fakeClock{}
	s := NewScheduler(settings, tabs, tabs, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &harness{scheduler: s, settings: settings, tabs: tabs, clock: clock}
}

// sync waits until every queued event has been handled and returns the state.
func (h *harness) sync(t *testing.T) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := h.scheduler.Snapshot(ctx)
	require.NoError(t, err)
	return st
}
