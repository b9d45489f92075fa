// Package tabs holds the ordered set of open tabs and the active-tab pointer.
package tabs

import (
	"fmt"
	"sync"

	"github.com/lotas/brisk/internal/types"
)

// Patch is a partial tab update. Nil fields are left untouched.
type Patch struct {
	URL     *string
	Title   *string
	Loading *bool
}

// String returns a pointer to s, for building a Patch.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building a Patch.
func Bool(b bool) *bool { return &b }

// record is the store-private state of one tab.
type record struct {
	id      types.TabID
	title   string
	loading bool
	entries []string // visited URLs; entries[index] is the current one
	index   int
	seq     uint64 // bumped on every URL change
}

func (r *record) url() string {
	return r.entries[r.index]
}

func (r *record) snapshot() types.Tab {
	return types.Tab{
		ID:           r.id,
		URL:          r.url(),
		Title:        r.title,
		Loading:      r.loading,
		CanGoBack:    r.index > 0,
		CanGoForward: r.index < len(r.entries)-1,
	}
}

// Store is the ordered tab collection. It is never empty and its active id
// always names a member. All methods are safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	defaultURL string
	tabs       []*record
	active     types.TabID
	nextID     types.TabID
}

// New creates a store holding a single default tab.
func New(defaultURL string) *Store {
	s := &Store{defaultURL: defaultURL}
	r := s.newRecordLocked(defaultURL, types.DefaultTitle)
	s.tabs = []*record{r}
	s.active = r.id
	return s
}

func (s *Store) newRecordLocked(url, title string) *record {
	s.nextID++
	if title == "" {
		title = types.DefaultTitle
	}
	return &record{id: s.nextID, title: title, entries: []string{url}}
}

func (s *Store) findLocked(id types.TabID) (int, *record) {
	for i, r := range s.tabs {
		if r.id == id {
			return i, r
		}
	}
	return -1, nil
}

func notFound(id types.TabID) error {
	return fmt.Errorf("tab %d: %w", id, types.ErrNotFound)
}

// DefaultURL is the URL new tabs open at.
func (s *Store) DefaultURL() string {
	return s.defaultURL
}

// NewTab appends a default tab and makes it active.
func (s *Store) NewTab() types.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.newRecordLocked(s.defaultURL, types.DefaultTitle)
	s.tabs = append(s.tabs, r)
	s.active = r.id
	return r.snapshot()
}

// Close removes a tab. Closing the last tab leaves a fresh default tab in
// its place. When the active tab is closed the first remaining tab becomes
// active.
func (s *Store) Close(id types.TabID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, _ := s.findLocked(id)
	if i < 0 {
		return notFound(id)
	}
	if len(s.tabs) == 1 {
		s.tabs = append(s.tabs, s.newRecordLocked(s.defaultURL, types.DefaultTitle))
	}
	s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
	if s.active == id {
		s.active = s.tabs[0].id
	}
	return nil
}

// SwitchTo makes id the active tab.
func (s *Store) SwitchTo(id types.TabID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, _ := s.findLocked(id); i < 0 {
		return notFound(id)
	}
	s.active = id
	return nil
}

// Update merges p into the tab. A new URL becomes the current back/forward
// entry and drops any forward entries.
func (s *Store) Update(id types.TabID, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, r := s.findLocked(id)
	if r == nil {
		return notFound(id)
	}
	if p.URL != nil {
		if *p.URL != r.url() {
			r.entries = append(r.entries[:r.index+1], *p.URL)
			r.index = len(r.entries) - 1
		}
		r.seq++
	}
	if p.Title != nil {
		r.title = *p.Title
	}
	if p.Loading != nil {
		r.loading = *p.Loading
	}
	return nil
}

// Step moves delta entries through the tab's history (negative is back)
// and returns the URL it lands on. The tab is marked loading.
func (s *Store) Step(id types.TabID, delta int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, r := s.findLocked(id)
	if r == nil {
		return "", notFound(id)
	}
	next := r.index + delta
	if next < 0 || next >= len(r.entries) {
		return "", fmt.Errorf("tab %d: %w", id, types.ErrNoHistory)
	}
	r.index = next
	r.loading = true
	r.seq++
	return r.url(), nil
}

// Seq returns the tab's navigation sequence number.
func (s *Store) Seq(id types.TabID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, r := s.findLocked(id)
	if r == nil {
		return 0, notFound(id)
	}
	return r.seq, nil
}

// ClearLoading turns the loading flag off if the tab still exists and has
// not navigated since seq was read. It reports whether anything changed.
func (s *Store) ClearLoading(id types.TabID, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, r := s.findLocked(id)
	if r == nil || r.seq != seq || !r.loading {
		return false
	}
	r.loading = false
	return true
}

// Replace swaps the whole tab set for fresh tabs built from entries. The
// first becomes active. An empty list yields one default tab.
func (s *Store) Replace(entries []types.SessionTab) []types.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*record, 0, len(entries))
	for _, e := range entries {
		url := e.URL
		if url == "" {
			url = s.defaultURL
		}
		next = append(next, s.newRecordLocked(url, e.Title))
	}
	if len(next) == 0 {
		next = append(next, s.newRecordLocked(s.defaultURL, types.DefaultTitle))
	}
	s.tabs = next
	s.active = next[0].id
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []types.Tab {
	out := make([]types.Tab, len(s.tabs))
	for i, r := range s.tabs {
		out[i] = r.snapshot()
	}
	return out
}

// Tabs returns the tabs in display order.
func (s *Store) Tabs() []types.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns one tab.
func (s *Store) Get(id types.TabID) (types.Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, r := s.findLocked(id)
	if r == nil {
		return types.Tab{}, notFound(id)
	}
	return r.snapshot(), nil
}

// ActiveID returns the id of the active tab.
func (s *Store) ActiveID() types.TabID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Active returns the active tab.
func (s *Store) Active() types.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, r := s.findLocked(s.active)
	return r.snapshot()
}

// Index returns the display position of a tab, or -1.
func (s *Store) Index(id types.TabID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, _ := s.findLocked(id)
	return i
}

// Len returns the number of open tabs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs)
}
