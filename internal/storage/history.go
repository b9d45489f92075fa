package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lotas/brisk/internal/types"
)

// AddHistory records a visit for user.
func AddHistory(db *sql.DB, user string, e types.HistoryEntry) (types.HistoryEntry, error) {
	e.ID = uuid.NewString()
	e.VisitTime = now()
	_, err := db.Exec(
		"INSERT INTO history (id, user, url, title, visit_time) VALUES (?, ?, ?, ?, ?)",
		e.ID, user, e.URL, e.Title, formatTime(e.VisitTime),
	)
	if err != nil {
		return types.HistoryEntry{}, fmt.Errorf("insert history %q: %w", e.URL, err)
	}
	return e, nil
}

// ListHistory returns up to limit visits of user, newest first.
func ListHistory(db *sql.DB, user string, limit int) ([]types.HistoryEntry, error) {
	rows, err := db.Query(
		"SELECT id, url, title, visit_time FROM history WHERE user = ? ORDER BY visit_time DESC, rowid DESC LIMIT ?",
		user, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	result := []types.HistoryEntry{}
	for rows.Next() {
		var e types.HistoryEntry
		var visited string
		if err := rows.Scan(&e.ID, &e.URL, &e.Title, &visited); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.VisitTime = parseTime(visited)
		result = append(result, e)
	}
	return result, rows.Err()
}

// ClearHistory deletes every visit of user and returns how many were removed.
func ClearHistory(db *sql.DB, user string) (int64, error) {
	res, err := db.Exec("DELETE FROM history WHERE user = ?", user)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}
