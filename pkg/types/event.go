package types

import "time"

// RotationEventType defines the type of event emitted by the scheduler.
type RotationEventType string

const (
	EventTypeStarted        RotationEventType = "started"         // EventTypeStarted indicates the scheduler entered the running state.
	EventTypeStopped        RotationEventType = "stopped"         // EventTypeStopped indicates the scheduler entered the stopped state.
	EventTypeSwitched       RotationEventType = "switched"        // EventTypeSwitched indicates a tab was activated.
	EventTypeReloaded       RotationEventType = "reloaded"        // EventTypeReloaded indicates the activated tab was reloaded.
	EventTypeIdle           RotationEventType = "idle"            // EventTypeIdle indicates a cycle found no eligible tab.
	EventTypeTimerArmed     RotationEventType = "timer_armed"     // EventTypeTimerArmed indicates the next tick was scheduled.
	EventTypeCycleError     RotationEventType = "cycle_error"     // EventTypeCycleError indicates a collaborator failed during a cycle.
	EventTypeSettingsLoaded RotationEventType = "settings_loaded" // EventTypeSettingsLoaded indicates settings were re-read from the store.
)

// RotationEvent is a notification about something the scheduler did. Events
// are informational; nothing in the scheduler depends on them being consumed.
type RotationEvent struct {
	// Error contains error information for error events.
	Error error

	// Settings holds the snapshot used for the transition, when relevant.
	Settings *Settings

	// Tab is the tab involved in switch and reload events.
	Tab *Tab

	// Type indicates the kind of event.
	Type RotationEventType

	// NextSwitch is the delay until the next tick (timer events only).
	NextSwitch time.Duration

	// At is when the event was produced.
	At time.Time
}

// NewStartedEvent creates a started event.
func NewStartedEvent(settings Settings) *RotationEvent {
	return &RotationEvent{
		Type:     EventTypeStarted,
		Settings: &settings,
		At:       time.Now(),
	}
}

// NewStoppedEvent creates a stopped event.
func NewStoppedEvent() *RotationEvent {
	return &RotationEvent{
		Type: EventTypeStopped,
		At:   time.Now(),
	}
}

// NewSwitchedEvent creates a switched event for the activated tab.
func NewSwitchedEvent(tab Tab) *RotationEvent {
	return &RotationEvent{
		Type: EventTypeSwitched,
		Tab:  &tab,
		At:   time.Now(),
	}
}

// NewReloadedEvent creates a reloaded event.
func NewReloadedEvent(tab Tab) *RotationEvent {
	return &RotationEvent{
		Type: EventTypeReloaded,
		Tab:  &tab,
		At:   time.Now(),
	}
}

// NewIdleEvent creates an idle event.
func NewIdleEvent() *RotationEvent {
	return &RotationEvent{
		Type: EventTypeIdle,
		At:   time.Now(),
	}
}

// NewTimerArmedEvent creates a timer armed event.
func NewTimerArmedEvent(delay time.Duration) *RotationEvent {
	return &RotationEvent{
		Type:       EventTypeTimerArmed,
		NextSwitch: delay,
		At:         time.Now(),
	}
}

// NewCycleErrorEvent creates a cycle error event.
func NewCycleErrorEvent(err error) *RotationEvent {
	return &RotationEvent{
		Type:  EventTypeCycleError,
		Error: err,
		At:    time.Now(),
	}
}

// NewSettingsLoadedEvent creates a settings loaded event.
func NewSettingsLoadedEvent(settings Settings) *RotationEvent {
	return &RotationEvent{
		Type:     EventTypeSettingsLoaded,
		Settings: &settings,
		At:       time.Now(),
	}
}

// IsError returns true if this is an error event.
func (e *RotationEvent) IsError() bool {
	return e.Type == EventTypeCycleError
}
