package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lotas/brisk/internal/types"
)

// GetPreferences returns the preferences of user, creating the defaults on
// first access.
func GetPreferences(db *sql.DB, user string) (types.Preferences, error) {
	var p types.Preferences
	var settings, updated string
	err := db.QueryRow(
		"SELECT theme, settings, updated_at FROM preferences WHERE user = ?", user,
	).Scan(&p.Theme, &settings, &updated)
	if err == sql.ErrNoRows {
		p = types.Preferences{Theme: types.DefaultTheme, Settings: map[string]any{}, UpdatedAt: now()}
		if _, err := db.Exec(
			"INSERT OR IGNORE INTO preferences (user, theme, settings, updated_at) VALUES (?, ?, '{}', ?)",
			user, p.Theme, formatTime(p.UpdatedAt),
		); err != nil {
			return types.Preferences{}, fmt.Errorf("insert default preferences: %w", err)
		}
		return p, nil
	}
	if err != nil {
		return types.Preferences{}, fmt.Errorf("query preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(settings), &p.Settings); err != nil {
		return types.Preferences{}, fmt.Errorf("decode settings: %w", err)
	}
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

// UpdatePreferences sets the theme (if non-empty) and settings (if non-nil)
// of user, creating the row when needed.
func UpdatePreferences(db *sql.DB, user, theme string, settings map[string]any) error {
	current, err := GetPreferences(db, user)
	if err != nil {
		return err
	}
	if theme != "" {
		current.Theme = theme
	}
	if settings != nil {
		current.Settings = settings
	}
	data, err := json.Marshal(current.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO preferences (user, theme, settings, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user) DO UPDATE SET theme = excluded.theme, settings = excluded.settings, updated_at = excluded.updated_at`,
		user, current.Theme, string(data), formatTime(now()),
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}
