package config

// Section is a named group of settings persisted under its ID in the store.
type Section interface {
	// ID is the key the section is stored under.
	ID() string

	// Title is a short human readable name.
	Title() string

	// Description explains what the section configures.
	Description() string

	// Data returns the section's values in their persisted form.
	Data() map[string]interface{}

	// SetData applies persisted values over the current ones. Unknown keys
	// are ignored. On error the section is unchanged.
	SetData(data map[string]interface{}) error

	// Replace restores defaults and applies data as one step. On error the
	// section is unchanged.
	Replace(data map[string]interface{}) error

	// Validate checks the current values.
	Validate() error

	// Reset restores defaults.
	Reset()
}
