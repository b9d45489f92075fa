package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/config"
	"github.com/lotas/brisk/internal/surface"
	"github.com/lotas/brisk/internal/types"
)

type fakeBackend struct {
	mu        sync.Mutex
	prefs     types.Preferences
	bookmarks []types.Bookmark
	history   []types.HistoryEntry
	sessions  []types.Session
	nextID    int
	fail      error
}

func (f *fakeBackend) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeBackend) Login(_ context.Context, username string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	return strings.TrimSpace(username), nil
}

func (f *fakeBackend) ListBookmarks(context.Context, string) ([]types.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Bookmark(nil), f.bookmarks...), f.fail
}

func (f *fakeBackend) AddBookmark(_ context.Context, _ string, b types.Bookmark) (types.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.id()
	f.bookmarks = append(f.bookmarks, b)
	return b, nil
}

func (f *fakeBackend) DeleteBookmark(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.bookmarks {
		if b.ID == id {
			f.bookmarks = append(f.bookmarks[:i], f.bookmarks[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

func (f *fakeBackend) ListHistory(context.Context, string, int) ([]types.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.HistoryEntry(nil), f.history...), nil
}

func (f *fakeBackend) AddHistory(_ context.Context, _ string, e types.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, e)
	return nil
}

func (f *fakeBackend) ClearHistory(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = nil
	return nil
}

func (f *fakeBackend) GetPreferences(context.Context, string) (types.Preferences, error) {
	return f.prefs, nil
}

func (f *fakeBackend) UpdatePreferences(_ context.Context, _ string, p types.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs.Theme = p.Theme
	return nil
}

func (f *fakeBackend) ListSessions(context.Context, string) ([]types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Session(nil), f.sessions...), nil
}

func (f *fakeBackend) CreateSession(_ context.Context, _ string, s types.Session) (types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.id()
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeBackend) DeleteSession(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sessions {
		if s.ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

type fakeSurface struct {
	mu     sync.Mutex
	shown  []string
	closed []types.TabID
	events chan surface.Event
}

func (s *fakeSurface) Show(_ context.Context, _ types.TabID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, url)
	return nil
}

func (s *fakeSurface) Close(_ context.Context, id types.TabID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, id)
	return nil
}

func (s *fakeSurface) Events() <-chan surface.Event { return s.events }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestModel(t *testing.T) (Model, *fakeBackend, *fakeSurface, *clock) {
	t.Helper()
	be := &fakeBackend{prefs: types.Preferences{Theme: "ocean"}}
	surf := &fakeSurface{events: make(chan surface.Event, 4)}
	clk := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	m := NewModel(Options{
		Backend:      be,
		Surface:      surf,
		LoadingDelay: time.Millisecond,
		Features:     mapset.NewSet[string](),
		Clipboard:    func(string) error { return nil },
		Now:          clk.now,
	})
	t.Cleanup(m.sched.Stop)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, be, surf, clk
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// press sends keys in order and returns the command of the last one.
func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(t, m, key(k))
	}
	return m, cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return update(t, m, cmd())
}

// drain runs cmd and any commands it batches, discarding their messages.
func drain(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			drain(c)
		}
	}
}

func login(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := press(t, m, "u", "alice", "enter")
	m, cmd = run(t, m, cmd)
	m, _ = run(t, m, cmd)
	return m
}

func TestNavigateFromAddressBar(t *testing.T) {
	m, _, surf, _ := newTestModel(t)

	m, _ = press(t, m, "o", "openai", "enter")
	tab := m.store.Active()
	if tab.URL != "https://www.google.com/search?q=openai" {
		t.Fatalf("URL = %q", tab.URL)
	}
	if !tab.Loading {
		t.Fatal("tab should be loading right after navigation")
	}
	if m.editing {
		t.Error("address bar should lose focus after enter")
	}
	m.nav.Wait()
	if got := surf.shown[len(surf.shown)-1]; got != tab.URL {
		t.Errorf("surface shown %q, want %q", got, tab.URL)
	}

	// The loading timer fires through the event loop.
	m, _ = run(t, m, m.sched.listen())
	if m.store.Active().Loading {
		t.Error("loading should clear after the delay")
	}
}

// stalledSurface accepts nothing until release is closed.
type stalledSurface struct {
	release chan struct{}
	fakeSurface
}

func (s *stalledSurface) Show(ctx context.Context, id types.TabID, url string) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.fakeSurface.Show(ctx, id, url)
}

func TestStalledSurfaceKeepsLoopResponsive(t *testing.T) {
	surf := &stalledSurface{release: make(chan struct{})}
	m := NewModel(Options{
		Backend:      &fakeBackend{},
		Surface:      surf,
		LoadingDelay: time.Millisecond,
		Clipboard:    func(string) error { return nil },
	})
	t.Cleanup(m.sched.Stop)

	start := time.Now()
	m, _ = press(t, m, "o", "openai", "enter")
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Fatalf("Update waited %v on the surface", d)
	}
	if got := m.store.Active().URL; got != "https://www.google.com/search?q=openai" {
		t.Errorf("URL = %q", got)
	}

	close(surf.release)
	m.nav.Wait()
	if len(surf.shown) != 1 || surf.shown[0] != "https://www.google.com/search?q=openai" {
		t.Errorf("surface saw %v", surf.shown)
	}
}

// offlineSurface rejects every request.
type offlineSurface struct{ fakeSurface }

func (*offlineSurface) Show(context.Context, types.TabID, string) error {
	return fmt.Errorf("extension not connected: %w", types.ErrUnavailable)
}

func (*offlineSurface) Close(context.Context, types.TabID) error {
	return fmt.Errorf("extension not connected: %w", types.ErrUnavailable)
}

func TestSurfaceHandOffFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	defer applog.SetOutput(nil)

	m := NewModel(Options{Surface: &offlineSurface{}, Clipboard: func(string) error { return nil }})
	t.Cleanup(m.sched.Stop)
	id := m.store.ActiveID()
	drain(m.showOnSurface(m.store.Tabs()))
	drain(m.closeOnSurface(id))
	applog.SetOutput(nil)

	out := buf.String()
	for _, want := range []string{"ERROR surface.show", "ERROR surface.close", "url=https://www.google.com", "not connected"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestBlankAddressIsIgnored(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	before := m.store.Active()
	m, _ = press(t, m, "o", "enter")
	if got := m.store.Active(); got.URL != before.URL || got.Loading {
		t.Errorf("blank input changed the tab: %+v", got)
	}
	if m.toast != nil {
		t.Errorf("blank input should be silent, got toast %q", m.toast.text)
	}
}

func TestTabsNewSwitchClose(t *testing.T) {
	m, _, surf, _ := newTestModel(t)
	first := m.store.ActiveID()

	m, _ = press(t, m, "t", "esc")
	if m.store.Len() != 2 || m.store.ActiveID() == first {
		t.Fatalf("new tab should be active, got %d tabs active=%d", m.store.Len(), m.store.ActiveID())
	}
	m, _ = press(t, m, "1")
	if m.store.ActiveID() != first {
		t.Error("1 should switch to the first tab")
	}
	m, _ = press(t, m, "tab")
	if m.store.ActiveID() == first {
		t.Error("tab should cycle to the next tab")
	}

	m, cmd := press(t, m, "x")
	if m.store.Len() != 1 || m.store.ActiveID() != first {
		t.Fatalf("closing should leave the first tab active")
	}
	drain(cmd)
	if len(surf.closed) == 0 {
		t.Error("surface should be told to close the tab")
	}
}

func TestCloseSoleTab(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	first := m.store.ActiveID()
	m, _ = press(t, m, "x")
	if m.store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.store.Len())
	}
	tab := m.store.Active()
	if tab.ID == first || tab.Title != types.DefaultTitle {
		t.Errorf("replacement tab = %+v", tab)
	}
}

func TestLoginAppliesPreferences(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m = login(t, m)
	if m.user != "alice" {
		t.Fatalf("user = %q", m.user)
	}
	if m.theme != "ocean" {
		t.Errorf("theme = %q, want ocean from preferences", m.theme)
	}
	if m.nav.User() != "alice" {
		t.Error("navigation should record history for the logged in user")
	}
}

func TestLoginEmptyNameKeepsModal(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m, cmd := press(t, m, "u", "enter")
	if cmd != nil || !m.showModal {
		t.Fatal("empty username should keep the modal open")
	}
	m, _ = press(t, m, "esc")
	if m.showModal {
		t.Error("esc should cancel the modal")
	}
}

func TestLoginFailureToasts(t *testing.T) {
	m, be, _, _ := newTestModel(t)
	be.fail = fmt.Errorf("connection refused: %w", types.ErrUnavailable)
	m, cmd := press(t, m, "u", "alice", "enter")
	m, _ = run(t, m, cmd)
	if m.user != "" {
		t.Error("user should stay logged out")
	}
	if m.toast == nil || !m.toast.isError {
		t.Fatal("expected an error toast")
	}
}

func TestBookmarkToggle(t *testing.T) {
	m, be, _, _ := newTestModel(t)

	m, _ = press(t, m, "b")
	if m.toast == nil || !strings.Contains(m.toast.text, "Log in") {
		t.Fatal("bookmarking while logged out should ask to log in")
	}

	m = login(t, m)
	m, cmd := press(t, m, "b")
	m, cmd = run(t, m, cmd)
	m, _ = run(t, m, cmd)
	if len(be.bookmarks) != 1 || !m.bookmarked(m.store.Active().URL) {
		t.Fatalf("bookmark not added: %+v", be.bookmarks)
	}
	if be.bookmarks[0].Favicon != "https://www.google.com/favicon.ico" {
		t.Errorf("favicon = %q", be.bookmarks[0].Favicon)
	}

	m, cmd = press(t, m, "b")
	m, cmd = run(t, m, cmd)
	m, _ = run(t, m, cmd)
	if len(be.bookmarks) != 0 || m.bookmarked(m.store.Active().URL) {
		t.Error("second toggle should remove the bookmark")
	}
}

func TestSaveAndRestoreSession(t *testing.T) {
	m, be, surf, _ := newTestModel(t)
	m = login(t, m)
	m, _ = press(t, m, "o", "go.dev", "enter", "t", "pkg.go.dev", "enter")

	m, cmd := press(t, m, "s", "enter")
	if cmd != nil || !m.showModal {
		t.Fatal("empty session name should keep the modal open")
	}
	m, cmd = press(t, m, "work", "enter")
	m, cmd = run(t, m, cmd)
	if len(be.sessions) != 1 || len(be.sessions[0].Tabs) != 2 {
		t.Fatalf("sessions = %+v", be.sessions)
	}
	m, _ = run(t, m, cmd)

	// Replace the live tabs, then restore.
	m, _ = press(t, m, "x")
	m, cmd = press(t, m, "S")
	m, _ = run(t, m, cmd)
	if !m.showPanel || len(m.panel.Items) != 1 {
		t.Fatalf("sessions panel items = %+v", m.panel.Items)
	}
	m, _ = press(t, m, "v")
	if !strings.Contains(m.panel.Note, "pkg.go.dev") {
		t.Errorf("diff note = %q", m.panel.Note)
	}
	m, cmd = press(t, m, "enter")
	if m.showPanel {
		t.Error("restoring should close the panel")
	}
	got := m.store.Tabs()
	if len(got) != 2 || got[0].URL != "https://go.dev" || got[1].URL != "https://pkg.go.dev" {
		t.Fatalf("restored tabs = %+v", got)
	}
	if m.store.ActiveID() != got[0].ID {
		t.Error("first restored tab should be active")
	}
	drain(cmd)
	if len(surf.closed) == 0 {
		t.Error("old tabs should be closed on the surface")
	}
}

func TestHistoryPanelClear(t *testing.T) {
	m, be, _, _ := newTestModel(t)
	m = login(t, m)
	m, _ = press(t, m, "o", "go.dev", "enter")
	m.nav.Wait()
	if len(be.history) != 1 {
		t.Fatalf("history = %+v", be.history)
	}

	m, cmd := press(t, m, "h")
	m, _ = run(t, m, cmd)
	if len(m.panel.Items) != 1 || m.panel.Items[0].label != "go.dev" {
		t.Fatalf("history items = %+v", m.panel.Items)
	}
	m, cmd = press(t, m, "c")
	m, cmd = run(t, m, cmd)
	m, _ = run(t, m, cmd)
	if len(be.history) != 0 || len(m.panel.Items) != 0 {
		t.Error("history should be cleared and the panel reloaded")
	}
}

func TestSurfaceFailureClearsLoading(t *testing.T) {
	m, _, surf, _ := newTestModel(t)
	m, _ = press(t, m, "o", "broken.example", "enter")
	id := m.store.ActiveID()

	surf.events <- surface.EventFailed{TabID: id, URL: "https://broken.example", Reason: "dns"}
	m, _ = run(t, m, listenSurface(surf))
	tab := m.store.Active()
	if tab.Loading {
		t.Error("failure should clear loading")
	}
	if tab.URL != "https://broken.example" {
		t.Errorf("URL should stay unchanged, got %q", tab.URL)
	}
	if m.toast == nil || !m.toast.isError || !strings.Contains(m.toast.text, "dns") {
		t.Errorf("toast = %+v", m.toast)
	}

	surf.events <- surface.EventTitle{TabID: id, Title: "Broken"}
	m, _ = run(t, m, listenSurface(surf))
	if m.store.Active().Title != "Broken" {
		t.Errorf("title = %q", m.store.Active().Title)
	}
}

func TestTickExpiresToastAndRunsPomodoro(t *testing.T) {
	m, _, _, clk := newTestModel(t)
	m.features.Add(config.FeaturePomodoro)
	m, _ = press(t, m, "p")
	if !m.pomodoro.running {
		t.Fatal("p should start the pomodoro")
	}

	m.notify("hello")
	clk.t = clk.t.Add(toastDuration)
	m, _ = update(t, m, tickMsg(clk.t))
	if m.toast != nil {
		t.Error("toast should expire")
	}

	m.pomodoro.remaining = time.Second
	m, _ = update(t, m, tickMsg(clk.t))
	if m.pomodoro.running || m.pomodoro.remaining != PomodoroLength {
		t.Errorf("pomodoro should reset after completing: %+v", m.pomodoro)
	}
	if m.toast == nil || !strings.Contains(m.toast.text, "Pomodoro") {
		t.Error("completion should be announced")
	}
}

func TestPomodoroRequiresFeature(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m, _ = press(t, m, "p")
	if m.pomodoro.running {
		t.Error("pomodoro should not start while the feature is off")
	}
}

func TestFeaturesPanelToggles(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m, _ = press(t, m, "F")
	if !m.showPanel || len(m.panel.Items) != config.KnownFeatures.Cardinality() {
		t.Fatalf("features panel = %+v", m.panel)
	}
	m, _ = press(t, m, "enter")
	if !m.features.Contains(config.FeatureMetrics) {
		t.Error("enter should enable the highlighted feature")
	}
	if !strings.HasPrefix(m.panel.Items[0].label, "[x]") {
		t.Errorf("item = %q", m.panel.Items[0].label)
	}
}

func TestThemeCyclePersists(t *testing.T) {
	m, be, _, _ := newTestModel(t)
	m = login(t, m)
	m, cmd := press(t, m, "T")
	if m.theme != "forest" {
		t.Fatalf("theme = %q, want forest after ocean", m.theme)
	}
	m, _ = run(t, m, cmd)
	if be.prefs.Theme != "forest" {
		t.Errorf("saved theme = %q", be.prefs.Theme)
	}
}

func TestCopyURL(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	var copied string
	m.clipboard = func(s string) error { copied = s; return nil }
	m, cmd := press(t, m, "c")
	m, _ = run(t, m, cmd)
	if copied != m.store.Active().URL {
		t.Errorf("copied %q", copied)
	}

	m.clipboard = func(string) error { return errors.New("no clipboard") }
	m, cmd = press(t, m, "c")
	m, _ = run(t, m, cmd)
	if m.toast == nil || !m.toast.isError {
		t.Error("copy failure should show an error toast")
	}
}

func TestViewRenders(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	out := m.View()
	for _, want := range []string{"1:New Tab", "https://www.google.com", "guest"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	_, cmd := press(t, m, "q")
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
