// Package navigate drives tab navigation: it resolves input, updates the
// tab store, logs history and clears the loading flag after a delay.
package navigate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/resolve"
	"github.com/lotas/brisk/internal/tabs"
	"github.com/lotas/brisk/internal/types"
)

// DefaultLoadingDelay is how long a tab shows as loading after navigation.
// The surface gives no completion signal, so this is a fixed timer.
const DefaultLoadingDelay = time.Second

// HistoryRecorder appends visited pages for a user.
type HistoryRecorder interface {
	AddHistory(ctx context.Context, user string, entry types.HistoryEntry) error
}

// Surface displays URLs for tabs.
type Surface interface {
	Show(ctx context.Context, id types.TabID, url string) error
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Options configures a Controller. Zero values are usable.
type Options struct {
	History        HistoryRecorder
	Surface        Surface
	Scheduler      Scheduler
	LoadingDelay   time.Duration
	RequestTimeout time.Duration
	HomeURL        string
}

// Controller performs navigation on a tab store.
type Controller struct {
	store   *tabs.Store
	history HistoryRecorder
	surface Surface
	sched   Scheduler
	delay   time.Duration
	timeout time.Duration
	home    string

	mu       sync.Mutex
	user     string
	lastShow chan struct{}
	wg       sync.WaitGroup
}

// New creates a Controller for store.
func New(store *tabs.Store, opts Options) *Controller {
	c := &Controller{
		store:   store,
		history: opts.History,
		surface: opts.Surface,
		sched:   opts.Scheduler,
		delay:   opts.LoadingDelay,
		timeout: opts.RequestTimeout,
		home:    opts.HomeURL,
	}
	if c.sched == nil {
		c.sched = timerScheduler{}
	}
	if c.delay <= 0 {
		c.delay = DefaultLoadingDelay
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if c.home == "" {
		c.home = store.DefaultURL()
	}
	return c
}

// SetUser sets the logged-in user. History is only recorded while a user
// is set.
func (c *Controller) SetUser(user string) {
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
}

// User returns the logged-in user, or "".
func (c *Controller) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Navigate resolves raw and loads it into tab id.
func (c *Controller) Navigate(ctx context.Context, id types.TabID, raw string) (types.Tab, error) {
	if strings.TrimSpace(raw) == "" {
		return types.Tab{}, fmt.Errorf("navigate: empty input: %w", types.ErrValidation)
	}
	return c.load(ctx, id, resolve.Resolve(raw))
}

// Home loads the home page into tab id.
func (c *Controller) Home(ctx context.Context, id types.TabID) (types.Tab, error) {
	return c.load(ctx, id, c.home)
}

// Reload marks tab id as loading and shows its current URL again.
func (c *Controller) Reload(ctx context.Context, id types.TabID) (types.Tab, error) {
	url, err := c.store.Step(id, 0)
	if err != nil {
		return types.Tab{}, err
	}
	applog.Info("nav.reload", "tab", id, "url", url)
	c.show(ctx, id, url)
	c.scheduleClear(id)
	return c.store.Get(id)
}

// Back moves tab id one entry back.
func (c *Controller) Back(ctx context.Context, id types.TabID) (types.Tab, error) {
	return c.step(ctx, id, -1)
}

// Forward moves tab id one entry forward.
func (c *Controller) Forward(ctx context.Context, id types.TabID) (types.Tab, error) {
	return c.step(ctx, id, 1)
}

func (c *Controller) step(ctx context.Context, id types.TabID, delta int) (types.Tab, error) {
	url, err := c.store.Step(id, delta)
	if err != nil {
		return types.Tab{}, err
	}
	title := resolve.Title(url)
	if err := c.store.Update(id, tabs.Patch{Title: &title}); err != nil {
		return types.Tab{}, err
	}
	applog.Info("nav.step", "tab", id, "delta", delta, "url", url)
	c.show(ctx, id, url)
	c.scheduleClear(id)
	return c.store.Get(id)
}

func (c *Controller) load(ctx context.Context, id types.TabID, url string) (types.Tab, error) {
	title := resolve.Title(url)
	if err := c.store.Update(id, tabs.Patch{
		URL:     &url,
		Title:   &title,
		Loading: tabs.Bool(true),
	}); err != nil {
		return types.Tab{}, err
	}
	applog.Info("nav.start", "tab", id, "url", url)

	c.recordHistory(url)
	c.show(ctx, id, url)
	c.scheduleClear(id)
	return c.store.Get(id)
}

// recordHistory appends a history entry in the background. Failures are
// logged and otherwise ignored.
func (c *Controller) recordHistory(url string) {
	user := c.User()
	if user == "" || c.history == nil {
		return
	}
	host, err := resolve.Hostname(url)
	if err != nil {
		applog.Error("history.append", err, "url", url)
		return
	}
	entry := types.HistoryEntry{URL: url, Title: host}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.history.AddHistory(ctx, user, entry); err != nil {
			applog.Error("history.append", err, "url", url, "user", user)
		}
	}()
}

// show hands url to the surface in the background. Hand-offs run one at a
// time in call order, so a slow surface never sees loads out of order.
func (c *Controller) show(ctx context.Context, id types.TabID, url string) {
	if c.surface == nil {
		return
	}
	c.mu.Lock()
	prev := c.lastShow
	done := make(chan struct{})
	c.lastShow = done
	c.mu.Unlock()

	// The caller's deadline belongs to the UI action, not to the hand-off.
	base := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(base, c.timeout)
		defer cancel()
		if err := c.surface.Show(ctx, id, url); err != nil {
			applog.Error("surface.show", err, "tab", id, "url", url)
		}
	}()
}

// scheduleClear clears the loading flag of tab id after the delay, unless
// the tab was closed or navigated again in the meantime.
func (c *Controller) scheduleClear(id types.TabID) {
	seq, err := c.store.Seq(id)
	if err != nil {
		return
	}
	c.sched.AfterFunc(c.delay, func() {
		if c.store.ClearLoading(id, seq) {
			applog.Info("nav.loaded", "tab", id)
		}
	})
}

// Wait blocks until background history appends and surface hand-offs have
// finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}
