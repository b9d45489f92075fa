// Package backend serves the bookmarks/history/sessions/preferences API over SQLite.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/storage"
	"github.com/lotas/brisk/internal/types"
)

const (
	bookmarkLimit       = 1000
	sessionLimit        = 100
	defaultHistoryLimit = 100
	maxBodySize         = 1 << 20
)

// Server exposes the API under /api.
type Server struct {
	db      *sql.DB
	origins []string
}

// New creates a Server. origins lists the allowed CORS origins; "*" or an
// empty list allows any.
func New(db *sql.DB, origins []string) *Server {
	return &Server{db: db, origins: origins}
}

// Handler returns the API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.login)

	mux.HandleFunc("GET /api/bookmarks", s.listBookmarks)
	mux.HandleFunc("POST /api/bookmarks", s.createBookmark)
	mux.HandleFunc("DELETE /api/bookmarks/{id}", s.deleteBookmark)

	mux.HandleFunc("GET /api/history", s.listHistory)
	mux.HandleFunc("POST /api/history", s.addHistory)
	mux.HandleFunc("DELETE /api/history", s.clearHistory)

	mux.HandleFunc("GET /api/preferences", s.getPreferences)
	mux.HandleFunc("PUT /api/preferences", s.updatePreferences)

	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.deleteSession)

	return s.cors(s.logRequests(mux))
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	applog.Info("backend.start", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
}

type bookmarkCreate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Favicon string `json:"favicon"`
}

type historyCreate struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type preferencesUpdate struct {
	Theme    *string        `json:"theme"`
	Settings map[string]any `json:"settings"`
}

type sessionCreate struct {
	Name string             `json:"name"`
	Tabs []types.SessionTab `json:"tabs"`
}

type success struct {
	Success bool `json:"success"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username cannot be empty")
		return
	}
	created, err := storage.EnsureUser(s.db, username)
	if err != nil {
		internalError(w, "login", err)
		return
	}
	if created {
		applog.Info("backend.user.created", "user", username)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "username": username})
}

func (s *Server) listBookmarks(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := storage.ListBookmarks(s.db, user, bookmarkLimit)
	if err != nil {
		internalError(w, "bookmarks.list", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req bookmarkCreate
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" || req.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "url and title are required")
		return
	}
	b, err := storage.CreateBookmark(s.db, user, types.Bookmark{URL: req.URL, Title: req.Title, Favicon: req.Favicon})
	if err != nil {
		internalError(w, "bookmarks.create", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "bookmark": b})
}

func (s *Server) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	err := storage.DeleteBookmark(s.db, user, r.PathValue("id"))
	if errors.Is(err, types.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Bookmark not found")
		return
	}
	if err != nil {
		internalError(w, "bookmarks.delete", err)
		return
	}
	writeJSON(w, http.StatusOK, success{true})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := storage.ListHistory(s.db, user, limit)
	if err != nil {
		internalError(w, "history.list", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) addHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req historyCreate
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusUnprocessableEntity, "url is required")
		return
	}
	if _, err := storage.AddHistory(s.db, user, types.HistoryEntry{URL: req.URL, Title: req.Title}); err != nil {
		internalError(w, "history.add", err)
		return
	}
	writeJSON(w, http.StatusOK, success{true})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := storage.ClearHistory(s.db, user)
	if err != nil {
		internalError(w, "history.clear", err)
		return
	}
	applog.Info("backend.history.cleared", "user", user, "entries", n)
	writeJSON(w, http.StatusOK, success{true})
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := storage.GetPreferences(s.db, user)
	if err != nil {
		internalError(w, "preferences.get", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"theme":      p.Theme,
		"settings":   p.Settings,
		"updated_at": p.UpdatedAt,
	})
}

func (s *Server) updatePreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req preferencesUpdate
	if !decode(w, r, &req) {
		return
	}
	theme := ""
	if req.Theme != nil {
		theme = *req.Theme
	}
	if err := storage.UpdatePreferences(s.db, user, theme, req.Settings); err != nil {
		internalError(w, "preferences.update", err)
		return
	}
	writeJSON(w, http.StatusOK, success{true})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := storage.ListSessions(s.db, user, sessionLimit)
	if err != nil {
		internalError(w, "sessions.list", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req sessionCreate
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	sess, err := storage.CreateSession(s.db, user, types.Session{Name: req.Name, Tabs: req.Tabs})
	if err != nil {
		internalError(w, "sessions.create", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": sess})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	err := storage.DeleteSession(s.db, user, r.PathValue("id"))
	if errors.Is(err, types.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		internalError(w, "sessions.delete", err)
		return
	}
	writeJSON(w, http.StatusOK, success{true})
}
