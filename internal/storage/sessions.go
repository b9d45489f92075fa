package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lotas/brisk/internal/types"
)

// CreateSession stores s with its tabs in a single transaction and returns
// it with a new id.
func CreateSession(db *sql.DB, user string, s types.Session) (types.Session, error) {
	s.ID = uuid.NewString()
	s.CreatedAt = now()
	if s.Tabs == nil {
		s.Tabs = []types.SessionTab{}
	}

	tx, err := db.Begin()
	if err != nil {
		return types.Session{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO sessions (id, user, name, created_at) VALUES (?, ?, ?, ?)",
		s.ID, user, s.Name, formatTime(s.CreatedAt),
	); err != nil {
		return types.Session{}, fmt.Errorf("insert session: %w", err)
	}
	for i, tab := range s.Tabs {
		if _, err := tx.Exec(
			"INSERT INTO session_tabs (session_id, position, url, title) VALUES (?, ?, ?, ?)",
			s.ID, i, tab.URL, tab.Title,
		); err != nil {
			return types.Session{}, fmt.Errorf("insert tab %q: %w", tab.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return types.Session{}, fmt.Errorf("commit transaction: %w", err)
	}
	return s, nil
}

// ListSessions returns up to limit sessions of user with their tabs,
// oldest first.
func ListSessions(db *sql.DB, user string, limit int) ([]types.Session, error) {
	rows, err := db.Query(
		"SELECT id, name, created_at FROM sessions WHERE user = ? ORDER BY created_at, rowid LIMIT ?",
		user, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	result := []types.Session{}
	for rows.Next() {
		var s types.Session
		var created string
		if err := rows.Scan(&s.ID, &s.Name, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.CreatedAt = parseTime(created)
		s.Tabs = []types.SessionTab{}
		result = append(result, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	// Tabs are loaded after the session rows are closed; the pool holds a
	// single connection.
	for i := range result {
		tabs, err := sessionTabs(db, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Tabs = tabs
	}
	return result, nil
}

func sessionTabs(db *sql.DB, sessionID string) ([]types.SessionTab, error) {
	rows, err := db.Query(
		"SELECT url, title FROM session_tabs WHERE session_id = ? ORDER BY position", sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session tabs: %w", err)
	}
	defer rows.Close()

	tabs := []types.SessionTab{}
	for rows.Next() {
		var t types.SessionTab
		if err := rows.Scan(&t.URL, &t.Title); err != nil {
			return nil, fmt.Errorf("scan session tab: %w", err)
		}
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}

// DeleteSession removes session id of user and its tabs. It returns
// types.ErrNotFound if there is no such session.
func DeleteSession(db *sql.DB, user, id string) error {
	res, err := db.Exec("DELETE FROM sessions WHERE id = ? AND user = ?", id, user)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return expectAffected(res, "session", id)
}
