package browser

import (
	"github.com/entrhq/tabrotate/pkg/types"
)

// SessionOptions configures the browser launch.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the page viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for page operations (in milliseconds)
	Timeout float64

	// UserDataDir, when set, launches a persistent profile so logins survive
	// restarts
	UserDataDir string

	// StartURLs are opened as tabs at launch, in order
	StartURLs []string
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// TabEventListener receives tab lifecycle notifications.
// The rotation scheduler implements it.
type TabEventListener interface {
	NotifyTabClosed(id types.TabID)
	NotifyTabNavigated(id types.TabID)
}

// Default values for the browser session
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)
