package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

const (
	keyUsername = "presetUsername"
	keyEmail    = "presetEmail"
	keyAvatar   = "presetAvatar"
	keyUserID   = "presetUserId"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if necessary initializes) the preference database at
// dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS prefs (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) set(key, value string) error {
	query := `
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pref %s: %w", key, err)
	}
	return value, nil
}

// SetPresetUsername persists the preferred username.
func (s *SQLiteStore) SetPresetUsername(username string) error {
	return s.set(keyUsername, username)
}

// SetPresetEmail persists the preferred email address.
func (s *SQLiteStore) SetPresetEmail(email string) error {
	return s.set(keyEmail, email)
}

// SetPresetAvatar persists the preferred avatar index.
func (s *SQLiteStore) SetPresetAvatar(avatar int) error {
	return s.set(keyAvatar, strconv.Itoa(avatar))
}

// SetPresetUserID persists the last known own user id.
func (s *SQLiteStore) SetPresetUserID(userID string) error {
	return s.set(keyUserID, userID)
}

// Presets reads all stored presets.
func (s *SQLiteStore) Presets() (Presets, error) {
	var p Presets
	var err error

	if p.Username, err = s.get(keyUsername); err != nil {
		return p, err
	}
	if p.Email, err = s.get(keyEmail); err != nil {
		return p, err
	}
	if p.UserID, err = s.get(keyUserID); err != nil {
		return p, err
	}

	raw, err := s.get(keyAvatar)
	if err != nil {
		return p, err
	}
	if raw != "" {
		avatar, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return p, fmt.Errorf("parse avatar pref: %w", convErr)
		}
		p.Avatar = avatar
	}

	return p, nil
}
