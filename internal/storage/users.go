package storage

import (
	"database/sql"
	"fmt"

	"github.com/lotas/brisk/internal/types"
)

// EnsureUser creates username with default preferences if it does not
// exist yet. It reports whether the user was created.
func EnsureUser(db *sql.DB, username string) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ts := formatTime(now())
	res, err := tx.Exec("INSERT OR IGNORE INTO users (username, created_at) VALUES (?, ?)", username, ts)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	if n > 0 {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO preferences (user, theme, settings, updated_at) VALUES (?, ?, '{}', ?)",
			username, types.DefaultTheme, ts,
		); err != nil {
			return false, fmt.Errorf("insert default preferences: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return n > 0, nil
}
