package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lotas/brisk/internal/types"
)

// CreateBookmark stores a bookmark for user and returns it with a new id.
func CreateBookmark(db *sql.DB, user string, b types.Bookmark) (types.Bookmark, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = now()

	var favicon any
	if b.Favicon != "" {
		favicon = b.Favicon
	}
	_, err := db.Exec(
		"INSERT INTO bookmarks (id, user, url, title, favicon, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		b.ID, user, b.URL, b.Title, favicon, formatTime(b.CreatedAt),
	)
	if err != nil {
		return types.Bookmark{}, fmt.Errorf("insert bookmark %q: %w", b.URL, err)
	}
	return b, nil
}

// ListBookmarks returns up to limit bookmarks of user, oldest first.
func ListBookmarks(db *sql.DB, user string, limit int) ([]types.Bookmark, error) {
	rows, err := db.Query(
		"SELECT id, url, title, favicon, created_at FROM bookmarks WHERE user = ? ORDER BY created_at, rowid LIMIT ?",
		user, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	result := []types.Bookmark{}
	for rows.Next() {
		var b types.Bookmark
		var favicon sql.NullString
		var created string
		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &favicon, &created); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		b.Favicon = favicon.String
		b.CreatedAt = parseTime(created)
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return result, nil
}

// DeleteBookmark removes bookmark id of user. It returns types.ErrNotFound
// if there is no such bookmark.
func DeleteBookmark(db *sql.DB, user, id string) error {
	res, err := db.Exec("DELETE FROM bookmarks WHERE id = ? AND user = ?", id, user)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return expectAffected(res, "bookmark", id)
}

func expectAffected(res sql.Result, kind, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, types.ErrNotFound)
	}
	return nil
}
