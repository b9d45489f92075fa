// Package tui is the terminal browser shell: a tab strip, an address bar,
// and panels for bookmarks, history and saved sessions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/config"
	"github.com/lotas/brisk/internal/navigate"
	"github.com/lotas/brisk/internal/resolve"
	"github.com/lotas/brisk/internal/session"
	"github.com/lotas/brisk/internal/surface"
	"github.com/lotas/brisk/internal/tabs"
	"github.com/lotas/brisk/internal/types"
)

const toastDuration = 3 * time.Second

// Options configures the browser model.
type Options struct {
	Backend        Backend
	Surface        surface.Surface
	User           string
	HomeURL        string
	Theme          string
	LoadingDelay   time.Duration
	RequestTimeout time.Duration
	Features       mapset.Set[string]
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	// Now defaults to time.Now.
	Now func() time.Time
}

type toast struct {
	text    string
	isError bool
	until   time.Time
}

// --- Model ---

type Model struct {
	// Collaborators
	api       Backend
	surface   surface.Surface
	store     *tabs.Store
	nav       *navigate.Controller
	sched     *loopScheduler
	clipboard func(string) error
	now       func() time.Time
	timeout   time.Duration

	// Account
	user      string
	autoLogin string
	theme     string
	st        styles
	features  mapset.Set[string]

	// Cached lists, reloaded after every write
	bookmarks []types.Bookmark
	history   []types.HistoryEntry
	sessions  []types.Session

	// UI state
	address   textinput.Model
	editing   bool
	spinner   spinner.Model
	panel     Picker
	showPanel bool
	modal     Modal
	showModal bool
	toast     *toast
	pomodoro  pomodoro
	metrics   metrics
	width     int
	height    int
}

func NewModel(opts Options) Model {
	surf := opts.Surface
	if surf == nil {
		surf = surface.None{}
	}
	home := opts.HomeURL
	if home == "" {
		home = resolve.HomeURL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	features := opts.Features
	if features == nil {
		features = mapset.NewSet[string]()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := tabs.New(home)
	sched := newLoopScheduler()
	var history navigate.HistoryRecorder
	if opts.Backend != nil {
		history = opts.Backend
	}
	nav := navigate.New(store, navigate.Options{
		History:        history,
		Surface:        surf,
		Scheduler:      sched,
		LoadingDelay:   opts.LoadingDelay,
		RequestTimeout: timeout,
		HomeURL:        home,
	})

	addr := textinput.New()
	addr.Placeholder = "Search or enter address"
	addr.Prompt = ""
	addr.CharLimit = 2048

	theme := opts.Theme
	if _, ok := palettes[theme]; !ok {
		theme = types.DefaultTheme
	}

	return Model{
		api:       opts.Backend,
		surface:   surf,
		store:     store,
		nav:       nav,
		sched:     sched,
		clipboard: copyFn,
		now:       now,
		timeout:   timeout,
		autoLogin: strings.TrimSpace(opts.User),
		theme:     theme,
		st:        newStyles(theme),
		features:  features,
		address:   addr,
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		pomodoro:  newPomodoro(),
		metrics:   newMetrics(uint64(now().UnixNano())),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.sched.listen(),
		listenSurface(m.surface),
		m.showOnSurface(m.store.Tabs()),
		m.spinner.Tick,
		tick(),
	}
	if m.autoLogin != "" && m.api != nil {
		cmds = append(cmds, m.loginCmd(m.autoLogin))
	}
	return tea.Batch(cmds...)
}

func (m *Model) notify(text string) {
	m.toast = &toast{text: text, until: m.now().Add(toastDuration)}
}

func (m *Model) fail(text string, err error) {
	applog.Error("ui.error", err, "msg", text)
	m.toast = &toast{text: fmt.Sprintf("%s: %v", text, err), isError: true, until: m.now().Add(toastDuration)}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.address.Width = max(10, m.width-8)
		m.panel.Height = max(3, m.height-16)
		return m, nil

	case deferredMsg:
		msg.run()
		return m, m.sched.listen()

	case surfaceEventMsg:
		m.handleSurfaceEvent(msg.ev)
		return m, listenSurface(m.surface)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.onTick()
		return m, tick()

	case loginMsg:
		if msg.user == "" {
			m.fail("Login failed", msg.err)
			return m, nil
		}
		m.user = msg.user
		m.nav.SetUser(msg.user)
		applog.Info("ui.login", "user", msg.user)
		if msg.err != nil {
			m.fail("Could not load preferences", msg.err)
		} else {
			if _, ok := palettes[msg.prefs.Theme]; ok {
				m.applyTheme(msg.prefs.Theme)
			}
			m.notify("Logged in as " + msg.user)
		}
		return m, m.loadBookmarks()

	case bookmarksLoadedMsg:
		if msg.err != nil {
			m.fail("Could not load bookmarks", msg.err)
			return m, nil
		}
		m.bookmarks = msg.list
		m.refreshPanel(panelBookmarks)
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.fail("Could not load history", msg.err)
			return m, nil
		}
		m.history = msg.list
		m.refreshPanel(panelHistory)
		return m, nil

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.fail("Could not load sessions", msg.err)
			return m, nil
		}
		m.sessions = msg.list
		m.refreshPanel(panelSessions)
		return m, nil

	case writeDoneMsg:
		if msg.err != nil {
			m.fail(msg.what+" failed", msg.err)
		} else {
			m.notify(msg.what)
		}
		return m, m.reload(msg.reload)

	case prefsSavedMsg:
		if msg.err != nil {
			m.fail("Could not save theme", msg.err)
		}
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.fail("Copy failed", msg.err)
		} else {
			m.notify("Copied " + msg.url)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleSurfaceEvent(ev surface.Event) {
	switch ev := ev.(type) {
	case surface.EventFailed:
		if err := m.store.Update(ev.TabID, tabs.Patch{Loading: tabs.Bool(false)}); err != nil {
			return
		}
		m.fail("Could not display "+ev.URL, fmt.Errorf("%w: %s", types.ErrRenderFailure, ev.Reason))
	case surface.EventTitle:
		m.store.Update(ev.TabID, tabs.Patch{Title: tabs.String(ev.Title)})
	}
}

func (m *Model) onTick() {
	if m.toast != nil && !m.now().Before(m.toast.until) {
		m.toast = nil
	}
	if m.features.Contains(config.FeaturePomodoro) && m.pomodoro.tick(time.Second) {
		m.notify("Pomodoro complete. Take a break!")
	}
	if m.features.Contains(config.FeatureMetrics) {
		m.metrics.sample()
	}
}

func (m *Model) applyTheme(theme string) {
	m.theme = theme
	m.st = newStyles(theme)
}

func (m Model) reload(kind panelKind) tea.Cmd {
	if m.user == "" {
		return nil
	}
	switch kind {
	case panelBookmarks:
		return m.loadBookmarks()
	case panelHistory:
		return m.loadHistory()
	case panelSessions:
		return m.loadSessions()
	}
	return nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.sched.Stop()
	return m, tea.Quit
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.showModal {
		return m.handleModalKey(msg)
	}
	if m.editing {
		return m.handleAddressKey(msg)
	}
	if m.showPanel {
		return m.handlePanelKey(msg)
	}

	active := m.store.ActiveID()
	switch msg.String() {
	case "q":
		return m.quit()
	case "o":
		return m.startEditing("")
	case "e", "ctrl+l":
		return m.startEditing(m.store.Active().URL)
	case "t":
		tab := m.store.NewTab()
		applog.Info("ui.tab.new", "tab", tab.ID)
		next, cmd := m.startEditing("")
		return next, tea.Batch(cmd, m.showOnSurface([]types.Tab{tab}))
	case "x":
		return m.closeTab(active)
	case "tab":
		m.switchBy(1)
	case "shift+tab":
		m.switchBy(-1)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(msg.String()[0] - '1')
		if list := m.store.Tabs(); n < len(list) {
			m.store.SwitchTo(list[n].ID)
		}
	case "H":
		m.runNav(m.nav.Back, active)
	case "L":
		m.runNav(m.nav.Forward, active)
	case "r":
		m.runNav(m.nav.Reload, active)
	case "g":
		m.runNav(m.nav.Home, active)
	case "b":
		return m.toggleBookmark()
	case "B":
		return m.openPanel(panelBookmarks)
	case "h":
		return m.openPanel(panelHistory)
	case "S":
		return m.openPanel(panelSessions)
	case "F":
		return m.openPanel(panelFeatures)
	case "s":
		if m.user == "" {
			m.notify("Log in (u) to save sessions")
			return m, nil
		}
		return m.openModal(modalSaveSession, "")
	case "u":
		if m.api == nil {
			return m, nil
		}
		return m.openModal(modalLogin, m.user)
	case "c":
		return m, m.copyURL(m.store.Active().URL)
	case "T":
		m.applyTheme(nextTheme(m.theme))
		m.notify("Theme: " + m.theme)
		if m.user != "" {
			return m, m.savePrefs(m.theme)
		}
	case "p":
		if !m.features.Contains(config.FeaturePomodoro) {
			m.notify("Enable the pomodoro timer in features (F)")
			return m, nil
		}
		m.pomodoro.toggle()
	case "P":
		m.pomodoro.reset()
	}
	return m, nil
}

// runNav runs a navigation step on tab id. Missing tabs and exhausted
// history are ignored.
func (m *Model) runNav(step func(context.Context, types.TabID) (types.Tab, error), id types.TabID) {
	ctx, cancel := m.withTimeout()
	defer cancel()
	if _, err := step(ctx, id); err != nil && !errors.Is(err, types.ErrNotFound) && !errors.Is(err, types.ErrNoHistory) {
		m.fail("Navigation failed", err)
	}
}

func (m *Model) switchBy(delta int) {
	list := m.store.Tabs()
	i := m.store.Index(m.store.ActiveID())
	n := len(list)
	m.store.SwitchTo(list[((i+delta)%n+n)%n].ID)
}

func (m Model) closeTab(id types.TabID) (tea.Model, tea.Cmd) {
	sole := m.store.Len() == 1
	if err := m.store.Close(id); err != nil {
		return m, nil
	}
	applog.Info("ui.tab.close", "tab", id)
	cmds := []tea.Cmd{m.closeOnSurface(id)}
	if sole {
		cmds = append(cmds, m.showOnSurface(m.store.Tabs()))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) startEditing(value string) (tea.Model, tea.Cmd) {
	m.editing = true
	m.address.SetValue(value)
	m.address.CursorEnd()
	return m, m.address.Focus()
}

func (m Model) handleAddressKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.address.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.address.Blur()
		raw := m.address.Value()
		m.address.SetValue("")
		ctx, cancel := m.withTimeout()
		defer cancel()
		if _, err := m.nav.Navigate(ctx, m.store.ActiveID(), raw); err != nil &&
			!errors.Is(err, types.ErrValidation) && !errors.Is(err, types.ErrNotFound) {
			m.fail("Navigation failed", err)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.address, cmd = m.address.Update(msg)
	return m, cmd
}

func (m Model) toggleBookmark() (tea.Model, tea.Cmd) {
	if m.user == "" {
		m.notify("Log in (u) to use bookmarks")
		return m, nil
	}
	tab := m.store.Active()
	for _, b := range m.bookmarks {
		if b.URL == tab.URL {
			id := b.ID
			return m, m.write("Bookmark removed", panelBookmarks, func(ctx context.Context, api Backend, user string) error {
				return api.DeleteBookmark(ctx, user, id)
			})
		}
	}
	favicon, _ := resolve.FaviconURL(tab.URL)
	b := types.Bookmark{URL: tab.URL, Title: tab.Title, Favicon: favicon}
	return m, m.write("Bookmarked "+tab.Title, panelBookmarks, func(ctx context.Context, api Backend, user string) error {
		_, err := api.AddBookmark(ctx, user, b)
		return err
	})
}

// bookmarked reports whether url is in the cached bookmark list.
func (m Model) bookmarked(url string) bool {
	for _, b := range m.bookmarks {
		if b.URL == url {
			return true
		}
	}
	return false
}

// --- Modal ---

func (m Model) openModal(kind modalKind, value string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.modal, cmd = NewModal(kind, value)
	m.showModal = true
	return m, cmd
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showModal = false
		return m, nil
	case "enter":
		return m.confirmModal()
	}
	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m Model) confirmModal() (tea.Model, tea.Cmd) {
	switch m.modal.Kind {
	case modalSaveSession:
		s, err := session.Capture(m.store, m.modal.Value())
		if err != nil {
			m.notify("Session name cannot be empty")
			return m, nil
		}
		m.showModal = false
		return m, m.write("Saved session "+s.Name, panelSessions, func(ctx context.Context, api Backend, user string) error {
			_, err := api.CreateSession(ctx, user, s)
			return err
		})
	case modalLogin:
		name := strings.TrimSpace(m.modal.Value())
		if name == "" {
			m.notify("Username cannot be empty")
			return m, nil
		}
		m.showModal = false
		return m, m.loginCmd(name)
	}
	m.showModal = false
	return m, nil
}

// --- Panels ---

func (m Model) openPanel(kind panelKind) (tea.Model, tea.Cmd) {
	if kind != panelFeatures && m.user == "" {
		m.notify("Log in (u) to see " + strings.ToLower(panelTitles[kind]))
		return m, nil
	}
	height := m.panel.Height
	m.panel = NewPicker(kind)
	if height > 0 {
		m.panel.Height = height
	}
	m.showPanel = true
	if kind == panelFeatures {
		m.refreshPanel(kind)
		return m, nil
	}
	if kind == panelBookmarks && m.bookmarks != nil {
		m.refreshPanel(kind)
	}
	return m, m.reload(kind)
}

// refreshPanel rebuilds the open panel's items from the cached lists.
func (m *Model) refreshPanel(kind panelKind) {
	if !m.showPanel || m.panel.Kind != kind {
		return
	}
	var items []pickerItem
	switch kind {
	case panelBookmarks:
		for _, b := range m.bookmarks {
			items = append(items, pickerItem{label: b.Title, detail: b.URL})
		}
	case panelHistory:
		for _, h := range m.history {
			items = append(items, pickerItem{label: h.Title, detail: h.VisitTime.Local().Format("Jan 2 15:04") + "  " + h.URL})
		}
	case panelSessions:
		for _, s := range m.sessions {
			items = append(items, pickerItem{
				label:  fmt.Sprintf("%s (%d tabs)", s.Name, len(s.Tabs)),
				detail: s.CreatedAt.Local().Format("Jan 2 15:04"),
			})
		}
	case panelFeatures:
		for _, f := range config.SortedFeatures(config.KnownFeatures) {
			mark := "[ ]"
			if m.features.Contains(f) {
				mark = "[x]"
			}
			items = append(items, pickerItem{label: mark + " " + f})
		}
	}
	m.panel.SetItems(items)
}

func (m Model) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	i := m.panel.Selected()
	switch msg.String() {
	case "esc", "q":
		m.showPanel = false
		return m, nil
	case "up", "k":
		m.panel.MoveUp()
		m.panel.Note = ""
	case "down", "j":
		m.panel.MoveDown()
		m.panel.Note = ""
	case "enter":
		if i < 0 {
			return m, nil
		}
		switch m.panel.Kind {
		case panelBookmarks:
			return m.openURL(m.bookmarks[i].URL)
		case panelHistory:
			return m.openURL(m.history[i].URL)
		case panelSessions:
			return m.restore(m.sessions[i])
		case panelFeatures:
			f := config.SortedFeatures(config.KnownFeatures)[i]
			if m.features.Contains(f) {
				m.features.Remove(f)
			} else {
				m.features.Add(f)
			}
			m.refreshPanel(panelFeatures)
		}
	case "d":
		if i < 0 {
			return m, nil
		}
		switch m.panel.Kind {
		case panelBookmarks:
			id := m.bookmarks[i].ID
			return m, m.write("Bookmark removed", panelBookmarks, func(ctx context.Context, api Backend, user string) error {
				return api.DeleteBookmark(ctx, user, id)
			})
		case panelSessions:
			s := m.sessions[i]
			return m, m.write("Deleted session "+s.Name, panelSessions, func(ctx context.Context, api Backend, user string) error {
				return api.DeleteSession(ctx, user, s.ID)
			})
		}
	case "c":
		if m.panel.Kind == panelHistory {
			return m, m.write("History cleared", panelHistory, func(ctx context.Context, api Backend, user string) error {
				return api.ClearHistory(ctx, user)
			})
		}
	case "v":
		if m.panel.Kind == panelSessions && i >= 0 {
			m.panel.Note = session.Diff(m.sessions[i], m.store.Tabs()).Format()
		}
	}
	return m, nil
}

func (m Model) openURL(url string) (tea.Model, tea.Cmd) {
	m.showPanel = false
	ctx, cancel := m.withTimeout()
	defer cancel()
	if _, err := m.nav.Navigate(ctx, m.store.ActiveID(), url); err != nil && !errors.Is(err, types.ErrNotFound) {
		m.fail("Navigation failed", err)
	}
	return m, nil
}

func (m Model) restore(s types.Session) (tea.Model, tea.Cmd) {
	m.showPanel = false
	var old []types.TabID
	for _, t := range m.store.Tabs() {
		old = append(old, t.ID)
	}
	restored := session.Restore(m.store, s)
	applog.Info("ui.session.restore", "name", s.Name, "tabs", len(restored))
	m.notify(fmt.Sprintf("Restored %s (%d tabs)", s.Name, len(restored)))
	return m, tea.Batch(m.closeOnSurface(old...), m.showOnSurface(restored))
}
