// Package rotation cycles the active browser tab on a timer.
//
// The package is split in two pieces:
//
//  1. SelectNext: a pure function that, given the open tabs, the tab that
//     was activated last and the current settings, picks the next tab in
//     strict round-robin order and decides whether it should be reloaded.
//  2. Scheduler: a single-goroutine state machine (Stopped, Running) that
//     owns the pending timer and the last activated tab, and drives
//     SelectNext through the tab services on every tick.
//
// # Events
//
// Everything that can change the scheduler's state arrives through one
// inbound queue and is handled one event at a time: Start, Stop, timer
// ticks, tab closed, tab navigated, settings changed and startup. A handler
// runs to completion, including the calls it makes into the tab services,
// before the next event is looked at, so the state needs no locking.
//
// # Volatile state
//
// The in-memory state is a cache. Every entry point (startup, settings
// change, tick) re-reads the settings store and derives from it whether
// rotation should be running, so a restarted process picks up where the
// stored settings say it should be.
//
// # Timers
//
// Rotation uses a one-shot timer that is re-armed after each cycle with
// the stay time read at that moment, so an edited stay time takes effect
// on the very next tick. Each armed timer carries a generation number;
// ticks from a cancelled timer that were already queued are dropped.
package rotation
