package types

import "time"

// TabID identifies a tab for as long as it is open. IDs are never reused
// within a store.
type TabID uint64

// DefaultTitle is the title of a tab that has not navigated anywhere yet.
const DefaultTitle = "New Tab"

// Tab is a value snapshot of a single open tab.
type Tab struct {
	ID      TabID
	URL     string // always resolved, never raw address-bar text
	Title   string
	Loading bool

	CanGoBack    bool
	CanGoForward bool
}

// SessionTab is one (url, title) pair inside a saved session.
type SessionTab struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Session is a named snapshot of the tab strip.
type Session struct {
	ID        string       `json:"id,omitempty"`
	Name      string       `json:"name"`
	Tabs      []SessionTab `json:"tabs"`
	CreatedAt time.Time    `json:"created_at,omitzero"`
}

// Bookmark is a saved URL owned by the API.
type Bookmark struct {
	ID        string    `json:"id,omitempty"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Favicon   string    `json:"favicon,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// HistoryEntry is one visited page. ID and VisitTime are assigned by the server.
type HistoryEntry struct {
	ID        string    `json:"id,omitempty"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	VisitTime time.Time `json:"visit_time,omitzero"`
}

// DefaultTheme is the theme given to new users.
const DefaultTheme = "white-gold"

// Preferences holds per-user settings.
type Preferences struct {
	Theme     string         `json:"theme"`
	Settings  map[string]any `json:"settings,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitzero"`
}

// Themes lists the known theme names in cycling order.
var Themes = []string{"white-gold", "tech-dark", "ocean", "forest"}
