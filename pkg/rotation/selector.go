package rotation

import (
	"strings"

	"github.com/entrhq/tabrotate/pkg/types"
)

// internalSchemes are URL prefixes of privileged pages that ordinary tab
// operations cannot reach.
var internalSchemes = []string{
	"chrome://",
	"chrome-extension://",
	"devtools://",
	"edge://",
}

// Selection is the outcome of SelectNext.
type Selection struct {
	Tab    types.Tab
	Reload bool
}

// IsInternalURL reports whether url belongs to a privileged browser scheme.
func IsInternalURL(url string) bool {
	for _, scheme := range internalSchemes {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

// FilterTabs returns the tabs eligible for rotation, in enumeration order:
// tabs with an id and a URL that is neither internal nor excluded by
// settings.NoSwitchURLs.
func FilterTabs(tabs []types.Tab, settings types.Settings) []types.Tab {
	noSwitch := CompilePatterns(settings.NoSwitchURLs)

	filtered := make([]types.Tab, 0, len(tabs))
	for _, tab := range tabs {
		if tab.ID == "" || tab.URL == "" || IsInternalURL(tab.URL) {
			continue
		}
		if noSwitch.Match(tab.URL) {
			continue
		}
		filtered = append(filtered, tab)
	}
	return filtered
}

// SelectNext picks the tab after last in the filtered list, wrapping around.
// When last is empty or not in the filtered list the first tab is picked.
// It returns false when no tab is eligible.
func SelectNext(tabs []types.Tab, last types.TabID, settings types.Settings) (Selection, bool) {
	filtered := FilterTabs(tabs, settings)
	if len(filtered) == 0 {
		return Selection{}, false
	}

	idx := -1
	if last != "" {
		for i, tab := range filtered {
			if tab.ID == last {
				idx = i
				break
			}
		}
	}

	target := filtered[(idx+1)%len(filtered)]
	return Selection{
		Tab:    target,
		Reload: ShouldReload(target, settings),
	}, true
}

// ShouldReload reports whether tab should be reloaded after activation.
func ShouldReload(tab types.Tab, settings types.Settings) bool {
	if !settings.ShouldRefresh {
		return false
	}
	return !CompilePatterns(settings.NoRefreshURLs).Match(tab.URL)
}
