package surface

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/types"
)

// Chrome renders every tab in its own target of a Chrome instance driven
// over the DevTools protocol.
type Chrome struct {
	browser     context.Context
	cancelAlloc context.CancelFunc
	cancel      context.CancelFunc
	events      chan Event

	mu      sync.Mutex
	targets map[types.TabID]*target
	closed  bool
}

type target struct {
	ctx    context.Context
	cancel context.CancelFunc
	// run serialises navigations; gen marks the latest one.
	run sync.Mutex
	gen uint64
}

// NewChrome launches Chrome. The browser lives until Shutdown or until ctx
// is cancelled.
func NewChrome(ctx context.Context, headless bool) (*Chrome, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browser, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browser); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	applog.Info("chrome.start", "headless", headless)
	return &Chrome{
		browser:     browser,
		cancelAlloc: cancelAlloc,
		cancel:      cancel,
		events:      make(chan Event, 64),
		targets:     make(map[types.TabID]*target),
	}, nil
}

func (c *Chrome) target(id types.TabID) (*target, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, 0, fmt.Errorf("chrome surface shut down: %w", types.ErrUnavailable)
	}
	t, ok := c.targets[id]
	if !ok {
		ctx, cancel := chromedp.NewContext(c.browser)
		t = &target{ctx: ctx, cancel: cancel}
		c.targets[id] = t
	}
	t.gen++
	return t, t.gen, nil
}

// Show starts loading url in the tab's target and returns immediately.
// The outcome arrives as an event.
func (c *Chrome) Show(_ context.Context, id types.TabID, url string) error {
	t, gen, err := c.target(id)
	if err != nil {
		return err
	}
	go c.load(t, gen, id, url)
	return nil
}

func (c *Chrome) load(t *target, gen uint64, id types.TabID, url string) {
	t.run.Lock()
	defer t.run.Unlock()

	var title string
	err := chromedp.Run(t.ctx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
	)

	c.mu.Lock()
	latest := t.gen == gen && c.targets[id] == t
	c.mu.Unlock()
	if !latest {
		return
	}

	if err != nil {
		applog.Error("chrome.navigate", err, "tab", id, "url", url)
		emit(c.events, EventFailed{TabID: id, URL: url, Reason: err.Error()})
		return
	}
	if title != "" {
		emit(c.events, EventTitle{TabID: id, Title: title})
	}
}

// Close closes the tab's target. Unknown tabs are ignored.
func (c *Chrome) Close(_ context.Context, id types.TabID) error {
	c.mu.Lock()
	t, ok := c.targets[id]
	delete(c.targets, id)
	c.mu.Unlock()
	if ok {
		t.cancel()
	}
	return nil
}

func (c *Chrome) Events() <-chan Event { return c.events }

// Shutdown closes every target and the browser.
func (c *Chrome) Shutdown() {
	c.mu.Lock()
	c.closed = true
	targets := c.targets
	c.targets = map[types.TabID]*target{}
	c.mu.Unlock()

	for _, t := range targets {
		t.cancel()
	}
	c.cancel()
	c.cancelAlloc()
	applog.Info("chrome.stop")
}
