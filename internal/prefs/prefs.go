package prefs

// Presets are the identity presets persisted across sessions. They seed the
// initial room state at bootstrap and are updated whenever the local user
// changes an own-identity field.
type Presets struct {
	Username string
	Email    string
	Avatar   int
	UserID   string
}

// Store persists local identity presets outside reducer lifetime.
type Store interface {
	// SetPresetUsername persists the preferred username. An empty value
	// clears the preset.
	SetPresetUsername(username string) error

	// SetPresetEmail persists the preferred email address.
	SetPresetEmail(email string) error

	// SetPresetAvatar persists the preferred avatar index.
	SetPresetAvatar(avatar int) error

	// SetPresetUserID persists the last known own user id.
	SetPresetUserID(userID string) error

	// Presets reads all stored presets. Missing values come back zero.
	Presets() (Presets, error)

	// Close releases the underlying storage.
	Close() error
}
