package navigate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lotas/brisk/internal/tabs"
	"github.com/lotas/brisk/internal/types"
)

const home = "https://www.google.com"

// manualScheduler queues callbacks until fire is called.
type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, f)
	m.delays = append(m.delays, d)
}

func (m *manualScheduler) fire() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []types.HistoryEntry
	users   []string
	err     error
}

func (f *fakeHistory) AddHistory(ctx context.Context, user string, e types.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	f.users = append(f.users, user)
	return f.err
}

type fakeSurface struct {
	mu    sync.Mutex
	shown []string
}

func (f *fakeSurface) Show(ctx context.Context, id types.TabID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, url)
	return errors.New("surface offline")
}

// blockingSurface holds every Show until release is closed.
type blockingSurface struct {
	release chan struct{}
	fakeSurface
}

func (b *blockingSurface) Show(ctx context.Context, id types.TabID, url string) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.fakeSurface.Show(ctx, id, url)
}

func setup(t *testing.T) (*tabs.Store, *Controller, *manualScheduler, *fakeHistory) {
	t.Helper()
	store := tabs.New(home)
	sched := &manualScheduler{}
	hist := &fakeHistory{}
	c := New(store, Options{History: hist, Scheduler: sched})
	return store, c, sched, hist
}

func TestNavigateSearchScenario(t *testing.T) {
	store, c, sched, _ := setup(t)
	id := store.ActiveID()

	tab, err := c.Navigate(context.Background(), id, "openai")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if tab.URL != "https://www.google.com/search?q=openai" {
		t.Errorf("url = %q", tab.URL)
	}
	if !tab.Loading {
		t.Error("expected loading immediately after navigate")
	}
	if len(sched.delays) != 1 || sched.delays[0] != DefaultLoadingDelay {
		t.Errorf("scheduled delays = %v", sched.delays)
	}

	sched.fire()
	got, _ := store.Get(id)
	if got.Loading {
		t.Error("expected loading cleared after the delay")
	}
}

func TestNavigateWithRealTimer(t *testing.T) {
	store := tabs.New(home)
	c := New(store, Options{LoadingDelay: 10 * time.Millisecond})
	id := store.ActiveID()

	if _, err := c.Navigate(context.Background(), id, "example.com"); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tab, _ := store.Get(id); !tab.Loading {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("loading flag never cleared")
}

func TestClosedBeforeTimerFires(t *testing.T) {
	store, c, sched, _ := setup(t)
	id := store.NewTab().ID
	if _, err := c.Navigate(context.Background(), id, "example.com"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(id); err != nil {
		t.Fatal(err)
	}

	sched.fire()

	if _, err := store.Get(id); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("closed tab came back: err = %v", err)
	}
	for _, tab := range store.Tabs() {
		if tab.Loading {
			t.Errorf("unrelated tab touched: %+v", tab)
		}
	}
}

func TestTimerTargetsOriginalTab(t *testing.T) {
	store, c, sched, _ := setup(t)
	first := store.ActiveID()
	c.Navigate(context.Background(), first, "a.example")

	second := store.NewTab().ID
	store.Update(second, tabs.Patch{Loading: tabs.Bool(true)})

	sched.fire()

	a, _ := store.Get(first)
	b, _ := store.Get(second)
	if a.Loading {
		t.Error("navigated tab still loading")
	}
	if !b.Loading {
		t.Error("timer cleared the tab that became active instead")
	}
}

func TestRenavigateKeepsLoading(t *testing.T) {
	store, c, sched, _ := setup(t)
	id := store.ActiveID()
	c.Navigate(context.Background(), id, "a.example")

	// Run only the first timer after a second navigation started.
	sched.mu.Lock()
	firstTimer := sched.pending[0]
	sched.pending = nil
	sched.mu.Unlock()

	c.Navigate(context.Background(), id, "b.example")
	firstTimer()

	tab, _ := store.Get(id)
	if !tab.Loading {
		t.Error("stale timer cleared loading of the newer navigation")
	}
	sched.fire()
	tab, _ = store.Get(id)
	if tab.Loading {
		t.Error("current timer did not clear loading")
	}
}

func TestHistoryOnlyWhenLoggedIn(t *testing.T) {
	store, c, _, hist := setup(t)
	id := store.ActiveID()

	c.Navigate(context.Background(), id, "example.com")
	c.Wait()
	if len(hist.entries) != 0 {
		t.Fatalf("history recorded without a user: %+v", hist.entries)
	}

	c.SetUser("alice")
	c.Navigate(context.Background(), id, "https://www.example.com/page")
	c.Wait()
	if len(hist.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(hist.entries))
	}
	if hist.users[0] != "alice" {
		t.Errorf("user = %q", hist.users[0])
	}
	if hist.entries[0].URL != "https://www.example.com/page" || hist.entries[0].Title != "www.example.com" {
		t.Errorf("entry = %+v", hist.entries[0])
	}
}

func TestHistoryFailureDoesNotBlock(t *testing.T) {
	store, c, _, hist := setup(t)
	hist.err = errors.New("backend down")
	c.SetUser("alice")

	tab, err := c.Navigate(context.Background(), store.ActiveID(), "example.com")
	c.Wait()
	if err != nil {
		t.Fatalf("navigation failed because of history: %v", err)
	}
	if tab.URL != "https://example.com" {
		t.Errorf("url = %q", tab.URL)
	}
}

func TestNavigateValidation(t *testing.T) {
	store, c, sched, _ := setup(t)
	id := store.ActiveID()

	if _, err := c.Navigate(context.Background(), id, "   "); !errors.Is(err, types.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if tab, _ := store.Get(id); tab.Loading || tab.URL != home {
		t.Errorf("blank input changed the tab: %+v", tab)
	}
	if len(sched.pending) != 0 {
		t.Error("blank input scheduled a timer")
	}

	if _, err := c.Navigate(context.Background(), 404, "example.com"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBackForwardHomeReload(t *testing.T) {
	store := tabs.New(home)
	sched := &manualScheduler{}
	surf := &fakeSurface{}
	c := New(store, Options{Scheduler: sched, Surface: surf, HomeURL: "https://start.example"})
	id := store.ActiveID()
	ctx := context.Background()

	c.Navigate(ctx, id, "a.example")
	c.Navigate(ctx, id, "b.example")

	tab, err := c.Back(ctx, id)
	if err != nil || tab.URL != "https://a.example" || tab.Title != "a.example" || !tab.Loading {
		t.Fatalf("back = %+v, %v", tab, err)
	}
	tab, err = c.Forward(ctx, id)
	if err != nil || tab.URL != "https://b.example" {
		t.Fatalf("forward = %+v, %v", tab, err)
	}
	if _, err := c.Forward(ctx, id); !errors.Is(err, types.ErrNoHistory) {
		t.Errorf("forward at end err = %v", err)
	}

	sched.fire()
	tab, err = c.Reload(ctx, id)
	if err != nil || !tab.Loading || tab.URL != "https://b.example" {
		t.Fatalf("reload = %+v, %v", tab, err)
	}

	tab, err = c.Home(ctx, id)
	if err != nil || tab.URL != "https://start.example" {
		t.Fatalf("home = %+v, %v", tab, err)
	}

	c.Wait()
	want := []string{"https://a.example", "https://b.example", "https://a.example", "https://b.example", "https://b.example", "https://start.example"}
	if len(surf.shown) != len(want) {
		t.Fatalf("surface saw %v", surf.shown)
	}
	for i := range want {
		if surf.shown[i] != want[i] {
			t.Errorf("shown[%d] = %q, want %q", i, surf.shown[i], want[i])
		}
	}
}

func TestSlowSurfaceDoesNotBlockNavigate(t *testing.T) {
	store := tabs.New(home)
	surf := &blockingSurface{release: make(chan struct{})}
	c := New(store, Options{Scheduler: &manualScheduler{}, Surface: surf})
	id := store.ActiveID()

	// The caller's context ends right away; the hand-off must outlive it.
	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	for _, in := range []string{"a.example", "b.example", "c.example"} {
		if _, err := c.Navigate(ctx, id, in); err != nil {
			t.Fatalf("Navigate(%q): %v", in, err)
		}
	}
	cancel()
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Fatalf("Navigate waited %v on the surface", d)
	}
	if got := store.Active().URL; got != "https://c.example" {
		t.Errorf("URL = %q", got)
	}

	close(surf.release)
	c.Wait()
	want := []string{"https://a.example", "https://b.example", "https://c.example"}
	if len(surf.shown) != len(want) {
		t.Fatalf("surface saw %v, want %v", surf.shown, want)
	}
	for i := range want {
		if surf.shown[i] != want[i] {
			t.Errorf("shown[%d] = %q, want %q", i, surf.shown[i], want[i])
		}
	}
}
