package rotation

import (
	"context"

	"github.com/entrhq/tabrotate/pkg/types"
)

// SettingsSource provides the current rotation settings. Implementations
// must read the persisted store on every call; the scheduler relies on it
// to notice changes made while it was waiting.
type SettingsSource interface {
	Settings(ctx context.Context) (types.Settings, error)
}

// TabLister enumerates every open tab across all windows.
type TabLister interface {
	ListAll(ctx context.Context) ([]types.Tab, error)
}

// TabController acts on a single tab.
type TabController interface {
	Activate(ctx context.Context, id types.TabID) error
	Reload(ctx context.Context, id types.TabID) error
	Exists(ctx context.Context, id types.TabID) (bool, error)
}

// TabService is the combined enumeration and control surface a browser
// backend provides.
type TabService interface {
	TabLister
	TabController
}
