package rotation

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/tabrotate/pkg/logging"
	"github.com/entrhq/tabrotate/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("rotation")
	if err != nil {
		debugLog.Warnf("Failed to initialize rotation logger, using stderr fallback: %v", err)
	}
}

const (
	defaultInboxSize  = 64
	defaultEventsSize = 64
)

type eventKind int

const (
	eventStart eventKind = iota
	eventStop
	eventStartup
	eventTick
	eventTabClosed
	eventTabNavigated
	eventSettingsChanged
	eventSnapshot
)

func (k eventKind) String() string {
	switch k {
	case eventStart:
		return "start"
	case eventStop:
		return "stop"
	case eventStartup:
		return "startup"
	case eventTick:
		return "tick"
	case eventTabClosed:
		return "tab_closed"
	case eventTabNavigated:
		return "tab_navigated"
	case eventSettingsChanged:
		return "settings_changed"
	case eventSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// inbound is a single entry on the scheduler's queue.
type inbound struct {
	kind       eventKind
	tabID      types.TabID
	generation uint64
	reply      chan State
}

// State is the scheduler's in-memory state. It is owned by the goroutine
// running Run; callers only ever see copies returned by Snapshot.
//
// Invariant: a timer is pending if and only if Running is true.
type State struct {
	Running       bool
	LastActivated types.TabID
	pending       Timer
}

// TimerPending reports whether a tick is scheduled.
func (s State) TimerPending() bool {
	return s.pending != nil
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithInboxSize sets the capacity of the inbound event queue.
func WithInboxSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.inbox = make(chan inbound, n)
		}
	}
}

// Scheduler rotates the active tab. All state transitions happen on the
// goroutine executing Run.
type Scheduler struct {
	settings SettingsSource
	tabs     TabLister
	control  TabController
	clock    Clock

	inbox  chan inbound
	events chan *types.RotationEvent
	done   chan struct{}

	state      State
	generation uint64
	lastStay   time.Duration
}

// NewScheduler creates a stopped scheduler. Call Run to begin processing
// events.
func NewScheduler(settings SettingsSource, tabs TabLister, control TabController, opts ...Option) *Scheduler {
	s := &Scheduler{
		settings: settings,
		tabs:     tabs,
		control:  control,
		clock:    SystemClock(),
		inbox:    make(chan inbound, defaultInboxSize),
		events:   make(chan *types.RotationEvent, defaultEventsSize),
		done:     make(chan struct{}),
		lastStay: types.DefaultStayTime,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the channel of informational rotation events. Events are
// dropped when nobody reads them.
func (s *Scheduler) Events() <-chan *types.RotationEvent {
	return s.events
}

// Run processes inbound events until ctx is cancelled. On return the pending
// timer is cancelled; a cycle already in progress finishes first.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)
	debugLog.Infof("Scheduler loop started")

	for {
		select {
		case <-ctx.Done():
			s.stop()
			debugLog.Infof("Scheduler loop exiting: %v", ctx.Err())
			return ctx.Err()
		case ev := <-s.inbox:
			s.handle(ctx, ev)
		}
	}
}

// Start (re)starts rotation from the head of the tab list using freshly read
// settings. It is asynchronous and idempotent.
func (s *Scheduler) Start() {
	s.post(inbound{kind: eventStart})
}

// Stop cancels the pending timer and forgets the last activated tab. A cycle
// in progress is not interrupted. It is asynchronous and idempotent.
func (s *Scheduler) Stop() {
	s.post(inbound{kind: eventStop})
}

// Startup reads the settings once and starts rotation if it is enabled.
func (s *Scheduler) Startup() {
	s.post(inbound{kind: eventStartup})
}

// NotifyTabClosed tells the scheduler a tab went away.
func (s *Scheduler) NotifyTabClosed(id types.TabID) {
	s.post(inbound{kind: eventTabClosed, tabID: id})
}

// NotifyTabNavigated tells the scheduler a tab's URL changed.
func (s *Scheduler) NotifyTabNavigated(id types.TabID) {
	s.post(inbound{kind: eventTabNavigated, tabID: id})
}

// NotifySettingsChanged tells the scheduler the stored settings were
// modified. No payload is needed; the scheduler re-reads the store.
func (s *Scheduler) NotifySettingsChanged() {
	s.post(inbound{kind: eventSettingsChanged})
}

// Snapshot returns a copy of the current state once every event queued
// before the call has been handled.
func (s *Scheduler) Snapshot(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	if !s.post(inbound{kind: eventSnapshot, reply: reply}) {
		return State{}, fmt.Errorf("scheduler is not running")
	}

	select {
	case st := <-reply:
		return st, nil
	case <-s.done:
		return State{}, fmt.Errorf("scheduler is not running")
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// post enqueues an event. It returns false once Run has returned.
func (s *Scheduler) post(ev inbound) bool {
	select {
	case s.inbox <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Scheduler) emit(ev *types.RotationEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Scheduler) handle(ctx context.Context, ev inbound) {
	switch ev.kind {
	case eventStart:
		s.start(ctx)

	case eventStop:
		s.stop()

	case eventStartup, eventSettingsChanged:
		settings, err := s.loadSettings(ctx)
		if err != nil {
			debugLog.Errorf("Failed to read settings on %s: %v", ev.kind, err)
			return
		}
		switch {
		case settings.EnableSwitching:
			s.start(ctx)
		case ev.kind == eventSettingsChanged:
			s.stop()
		}

	case eventTick:
		if ev.generation != s.generation || !s.state.Running {
			debugLog.Debugf("Dropping stale tick (generation %d, current %d)", ev.generation, s.generation)
			return
		}
		s.tick(ctx)

	case eventTabClosed, eventTabNavigated:
		if ev.tabID != "" && ev.tabID == s.state.LastActivated {
			debugLog.Debugf("Last activated tab %s %s, restarting from the first tab", ev.tabID, ev.kind)
			s.state.LastActivated = ""
		}

	case eventSnapshot:
		ev.reply <- s.state
	}
}

// start performs the Stopped -> Running transition, tearing down any
// running state first so new settings apply immediately.
func (s *Scheduler) start(ctx context.Context) {
	if s.state.Running {
		s.stop()
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		debugLog.Errorf("Cannot start rotation, settings unavailable: %v", err)
		s.emit(types.NewCycleErrorEvent(err))
		return
	}
	if !settings.EnableSwitching {
		debugLog.Infof("Rotation is disabled, not starting")
		return
	}

	debugLog.Infof("Starting rotation (stay time %s, refresh %t)", settings.StayTime, settings.ShouldRefresh)
	s.emit(types.NewStartedEvent(settings))

	s.cycle(ctx, settings)
	s.rearm(ctx, settings)
}

// stop performs the Running -> Stopped transition. Stopping a stopped
// scheduler changes nothing.
func (s *Scheduler) stop() {
	wasRunning := s.state.Running

	if s.state.pending != nil {
		s.state.pending.Stop()
		s.state.pending = nil
	}
	s.generation++
	s.state.Running = false
	s.state.LastActivated = ""

	if wasRunning {
		debugLog.Infof("Rotation stopped")
		s.emit(types.NewStoppedEvent())
	}
}

// tick handles an elapsed timer.
func (s *Scheduler) tick(ctx context.Context) {
	s.state.pending = nil

	settings, err := s.loadSettings(ctx)
	if err != nil {
		debugLog.Errorf("Failed to read settings on tick, retrying next tick: %v", err)
		s.emit(types.NewCycleErrorEvent(err))
		s.arm(s.lastStay)
		return
	}
	if !settings.EnableSwitching {
		debugLog.Infof("Rotation disabled while waiting")
		s.stop()
		return
	}

	s.cycle(ctx, settings)
	s.rearm(ctx, settings)
}

// rearm re-reads the settings after a cycle and arms the next tick with the
// stay time found there. fallback is used when the store cannot be read.
func (s *Scheduler) rearm(ctx context.Context, fallback types.Settings) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		debugLog.Warnf("Failed to re-read settings, keeping stay time %s: %v", fallback.StayTime, err)
		settings = fallback
	}
	if !settings.EnableSwitching {
		debugLog.Infof("Rotation disabled during cycle")
		s.stop()
		return
	}
	s.arm(settings.StayTime)
}

// arm schedules the next tick and marks the scheduler running. A stay time
// that cannot be armed falls back to a one-shot timer of the default stay
// time.
func (s *Scheduler) arm(stay time.Duration) {
	if s.state.pending != nil {
		s.state.pending.Stop()
	}
	if stay <= 0 {
		debugLog.Warnf("Invalid stay time %s, falling back to %s", stay, types.DefaultStayTime)
		stay = types.DefaultStayTime
	}

	s.generation++
	gen := s.generation
	s.state.pending = s.clock.AfterFunc(stay, func() {
		s.post(inbound{kind: eventTick, generation: gen})
	})
	s.state.Running = true
	s.lastStay = stay

	debugLog.Debugf("Next switch in %s", stay)
	s.emit(types.NewTimerArmedEvent(stay))
}

// cycle performs one selection and activation. Failures are logged and end
// the cycle; they never change the running state.
func (s *Scheduler) cycle(ctx context.Context, settings types.Settings) {
	if last := s.state.LastActivated; last != "" {
		exists, err := s.control.Exists(ctx, last)
		switch {
		case err != nil:
			debugLog.Warnf("Failed to check tab %s: %v", last, err)
		case !exists:
			debugLog.Debugf("Last activated tab %s no longer exists", last)
			s.state.LastActivated = ""
		}
	}

	tabs, err := s.tabs.ListAll(ctx)
	if err != nil {
		debugLog.Errorf("Failed to list tabs: %v", err)
		s.emit(types.NewCycleErrorEvent(fmt.Errorf("list tabs: %w", err)))
		return
	}

	sel, ok := SelectNext(tabs, s.state.LastActivated, settings)
	if !ok {
		debugLog.Debugf("No eligible tabs among %d open", len(tabs))
		s.emit(types.NewIdleEvent())
		return
	}

	debugLog.Infof("Switching to tab %s (%s)", sel.Tab.ID, sel.Tab.URL)
	if err := s.control.Activate(ctx, sel.Tab.ID); err != nil {
		debugLog.Errorf("Failed to activate tab %s: %v", sel.Tab.ID, err)
		s.emit(types.NewCycleErrorEvent(fmt.Errorf("activate tab %s: %w", sel.Tab.ID, err)))
		return
	}
	s.state.LastActivated = sel.Tab.ID
	s.emit(types.NewSwitchedEvent(sel.Tab))

	if !sel.Reload {
		return
	}
	if err := s.control.Reload(ctx, sel.Tab.ID); err != nil {
		debugLog.Errorf("Failed to reload tab %s: %v", sel.Tab.ID, err)
		s.emit(types.NewCycleErrorEvent(fmt.Errorf("reload tab %s: %w", sel.Tab.ID, err)))
		return
	}
	s.emit(types.NewReloadedEvent(sel.Tab))
}

func (s *Scheduler) loadSettings(ctx context.Context) (types.Settings, error) {
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return types.Settings{}, err
	}
	s.emit(types.NewSettingsLoadedEvent(settings))
	return settings, nil
}
