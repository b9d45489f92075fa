package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/surface"
	"github.com/lotas/brisk/internal/types"
)

// Backend is the collaborator API the browser persists to.
type Backend interface {
	Login(ctx context.Context, username string) (string, error)
	ListBookmarks(ctx context.Context, user string) ([]types.Bookmark, error)
	AddBookmark(ctx context.Context, user string, b types.Bookmark) (types.Bookmark, error)
	DeleteBookmark(ctx context.Context, user, id string) error
	ListHistory(ctx context.Context, user string, limit int) ([]types.HistoryEntry, error)
	AddHistory(ctx context.Context, user string, e types.HistoryEntry) error
	ClearHistory(ctx context.Context, user string) error
	GetPreferences(ctx context.Context, user string) (types.Preferences, error)
	UpdatePreferences(ctx context.Context, user string, p types.Preferences) error
	ListSessions(ctx context.Context, user string) ([]types.Session, error)
	CreateSession(ctx context.Context, user string, s types.Session) (types.Session, error)
	DeleteSession(ctx context.Context, user, id string) error
}

// historyPanelLimit caps the history panel.
const historyPanelLimit = 100

// --- Messages ---

type loginMsg struct {
	user  string
	prefs types.Preferences
	err   error
}

type bookmarksLoadedMsg struct {
	list []types.Bookmark
	err  error
}

type historyLoadedMsg struct {
	list []types.HistoryEntry
	err  error
}

type sessionsLoadedMsg struct {
	list []types.Session
	err  error
}

// writeDoneMsg reports a completed write. The affected list is reloaded.
type writeDoneMsg struct {
	what   string
	reload panelKind
	err    error
}

type prefsSavedMsg struct{ err error }

type clipboardMsg struct {
	url string
	err error
}

type surfaceEventMsg struct{ ev surface.Event }

type tickMsg time.Time

// --- Commands ---

func (m Model) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m Model) loginCmd(username string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		user, err := api.Login(ctx, username)
		if err != nil {
			return loginMsg{err: err}
		}
		prefs, err := api.GetPreferences(ctx, user)
		if err != nil {
			// Logged in anyway; the theme just stays as configured.
			return loginMsg{user: user, err: err}
		}
		return loginMsg{user: user, prefs: prefs}
	}
}

func (m Model) loadBookmarks() tea.Cmd {
	api, user := m.api, m.user
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		list, err := api.ListBookmarks(ctx, user)
		return bookmarksLoadedMsg{list: list, err: err}
	}
}

func (m Model) loadHistory() tea.Cmd {
	api, user := m.api, m.user
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		list, err := api.ListHistory(ctx, user, historyPanelLimit)
		return historyLoadedMsg{list: list, err: err}
	}
}

func (m Model) loadSessions() tea.Cmd {
	api, user := m.api, m.user
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		list, err := api.ListSessions(ctx, user)
		return sessionsLoadedMsg{list: list, err: err}
	}
}

// write runs fn against the backend and reports which list to reload.
func (m Model) write(what string, reload panelKind, fn func(ctx context.Context, api Backend, user string) error) tea.Cmd {
	api, user := m.api, m.user
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		return writeDoneMsg{what: what, reload: reload, err: fn(ctx, api, user)}
	}
}

func (m Model) savePrefs(theme string) tea.Cmd {
	api, user := m.api, m.user
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		return prefsSavedMsg{err: api.UpdatePreferences(ctx, user, types.Preferences{Theme: theme})}
	}
}

func (m Model) copyURL(url string) tea.Cmd {
	write := m.clipboard
	return func() tea.Msg {
		return clipboardMsg{url: url, err: write(url)}
	}
}

func (m Model) closeOnSurface(ids ...types.TabID) tea.Cmd {
	surf := m.surface
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		for _, id := range ids {
			if err := surf.Close(ctx, id); err != nil {
				applog.Error("surface.close", err, "tab", id)
			}
		}
		return nil
	}
}

// showOnSurface hands restored tabs to the surface without navigation side
// effects.
func (m Model) showOnSurface(list []types.Tab) tea.Cmd {
	surf := m.surface
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		for _, t := range list {
			if err := surf.Show(ctx, t.ID, t.URL); err != nil {
				applog.Error("surface.show", err, "tab", t.ID, "url", t.URL)
			}
		}
		return nil
	}
}

func listenSurface(s surface.Surface) tea.Cmd {
	events := s.Events()
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return surfaceEventMsg{ev: ev}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}
