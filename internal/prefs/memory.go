package prefs

import "sync"

// MemoryStore is an in-process Store. It backs tests and sessions that run
// without a preference database.
type MemoryStore struct {
	mu sync.Mutex
	p  Presets
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetPresetUsername stores the preferred username.
func (m *MemoryStore) SetPresetUsername(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p.Username = username
	return nil
}

// SetPresetEmail stores the preferred email address.
func (m *MemoryStore) SetPresetEmail(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p.Email = email
	return nil
}

// SetPresetAvatar stores the preferred avatar index.
func (m *MemoryStore) SetPresetAvatar(avatar int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p.Avatar = avatar
	return nil
}

// SetPresetUserID stores the last known own user id.
func (m *MemoryStore) SetPresetUserID(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p.UserID = userID
	return nil
}

// Presets returns the stored presets.
func (m *MemoryStore) Presets() (Presets, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.p, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
