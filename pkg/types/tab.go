package types

// TabID is an opaque identifier for an open browser tab. It is stable for
// the lifetime of the tab and never reused.
type TabID string

// Tab is a tab eligible for rotation, captured at enumeration time.
type Tab struct {
	ID  TabID
	URL string
}
