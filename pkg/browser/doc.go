// Package browser drives a Chromium window through Playwright and exposes
// its tabs to the rotation scheduler.
//
// # Architecture
//
// The package is built around two pieces:
//
//  1. SessionManager: installs and runs Playwright, launches Chromium and
//     opens the configured start URLs.
//  2. Tabs: a registry of the pages open in the browser context. Each page
//     gets a stable TabID when it opens and keeps its place in open order
//     until it closes.
//
// # Tab Events
//
// Tabs forwards page lifecycle to a TabEventListener:
//
//   - page closed: NotifyTabClosed
//   - main frame navigated: NotifyTabNavigated
//
// Sub-frame navigations are not reported.
//
// # Activation
//
// Activating a tab brings its page to the front. Reloading waits only for
// the navigation to commit, so a slow page never holds up the scheduler.
package browser
