// Package store persists user settings that outlive a process: the guarded
// contact list and the active focus goal. Loaded once at startup, written
// through on every user-facing mutation.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Omkar399/project-z/internal/guardian"
	"github.com/Omkar399/project-z/internal/logging"
)

// Store manages the settings database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewStore creates or opens the settings store under dataDir.
func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "settings.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS guarded_contacts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		custom_nudge TEXT,
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	-- Single-row table: at most one active goal.
	CREATE TABLE IF NOT EXISTS goal (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		text TEXT NOT NULL,
		set_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// GUARDED CONTACT OPERATIONS
// =============================================================================

// AddContact stores a new guarded contact and returns it with its ID set.
func (s *Store) AddContact(name, customNudge string) (guardian.GuardedContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return guardian.GuardedContact{}, fmt.Errorf("contact name is required")
	}

	contact := guardian.GuardedContact{
		ID:          uuid.New().String(),
		Name:        name,
		CustomNudge: customNudge,
		Enabled:     true,
	}

	_, err := s.db.Exec(`
		INSERT INTO guarded_contacts (id, name, custom_nudge, enabled, created_at)
		VALUES (?, ?, ?, 1, ?)
	`, contact.ID, contact.Name, contact.CustomNudge, time.Now())

	if err != nil {
		return guardian.GuardedContact{}, fmt.Errorf("failed to add contact: %w", err)
	}

	logging.Get(logging.CategoryStore).Info("Added guarded contact %s (%q)", contact.ID, contact.Name)
	return contact, nil
}

// ListContacts returns all guarded contacts, newest first.
func (s *Store) ListContacts() ([]guardian.GuardedContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, custom_nudge, enabled
		FROM guarded_contacts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []guardian.GuardedContact
	for rows.Next() {
		var c guardian.GuardedContact
		var nudge sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &nudge, &c.Enabled); err != nil {
			continue
		}
		c.CustomNudge = nudge.String
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// RemoveContact deletes a guarded contact by ID or exact name.
func (s *Store) RemoveContact(idOrName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		DELETE FROM guarded_contacts WHERE id = ? OR name = ?
	`, idOrName, idOrName)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("contact not found: %s", idOrName)
	}
	return nil
}

// SetContactEnabled toggles a guarded contact by ID or exact name.
func (s *Store) SetContactEnabled(idOrName string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		UPDATE guarded_contacts SET enabled = ? WHERE id = ? OR name = ?
	`, enabled, idOrName, idOrName)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("contact not found: %s", idOrName)
	}
	return nil
}

// =============================================================================
// GOAL OPERATIONS
// =============================================================================

// SaveGoal stores the active goal text, replacing any previous one.
func (s *Store) SaveGoal(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("goal text is required")
	}

	_, err := s.db.Exec(`
		INSERT INTO goal (id, text, set_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, set_at = excluded.set_at
	`, text, time.Now())

	if err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}

	logging.Get(logging.CategoryStore).Info("Goal saved: %q", text)
	return nil
}

// LoadGoal returns the persisted goal text and when it was set.
// Returns ("", zero, nil) when no goal is set.
func (s *Store) LoadGoal() (string, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var text string
	var setAt time.Time
	err := s.db.QueryRow(`SELECT text, set_at FROM goal WHERE id = 1`).Scan(&text, &setAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load goal: %w", err)
	}
	return text, setAt, nil
}

// ClearGoal removes the persisted goal. Clearing an absent goal is a no-op.
func (s *Store) ClearGoal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM goal WHERE id = 1`)
	return err
}
