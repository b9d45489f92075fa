package tabs

import (
	"errors"
	"testing"

	"github.com/lotas/brisk/internal/types"
)

const home = "https://www.google.com"

func TestNew(t *testing.T) {
	s := New(home)
	if s.Len() != 1 {
		t.Fatalf("expected 1 tab, got %d", s.Len())
	}
	active := s.Active()
	if active.URL != home || active.Title != types.DefaultTitle || active.Loading {
		t.Errorf("unexpected default tab: %+v", active)
	}
}

func TestNewTabBecomesActive(t *testing.T) {
	s := New(home)
	first := s.ActiveID()
	tab := s.NewTab()
	if tab.ID == first {
		t.Fatal("new tab reused an id")
	}
	if s.ActiveID() != tab.ID {
		t.Errorf("active = %d, want %d", s.ActiveID(), tab.ID)
	}
	got := s.Tabs()
	if len(got) != 2 || got[0].ID != first || got[1].ID != tab.ID {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestCloseSoleTab(t *testing.T) {
	s := New(home)
	id := s.ActiveID()
	s.Update(id, Patch{URL: String("https://example.com"), Title: String("example.com")})

	if err := s.Close(id); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got := s.Tabs()
	if len(got) != 1 {
		t.Fatalf("expected exactly one tab, got %d", len(got))
	}
	if got[0].ID == id {
		t.Error("replacement tab reused the closed id")
	}
	if got[0].URL != home {
		t.Errorf("replacement URL = %q, want %q", got[0].URL, home)
	}
	if s.ActiveID() != got[0].ID {
		t.Error("replacement tab is not active")
	}
}

func TestCloseActiveMovesToFirst(t *testing.T) {
	s := New(home)
	a := s.ActiveID()
	b := s.NewTab().ID
	c := s.NewTab().ID

	if err := s.Close(c); err != nil {
		t.Fatal(err)
	}
	if s.ActiveID() != a {
		t.Errorf("active = %d, want first tab %d", s.ActiveID(), a)
	}

	if err := s.SwitchTo(b); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(a); err != nil {
		t.Fatal(err)
	}
	if s.ActiveID() != b {
		t.Errorf("closing an inactive tab moved active to %d", s.ActiveID())
	}
}

func TestCloseTwiceIsNotFound(t *testing.T) {
	s := New(home)
	id := s.NewTab().ID
	if err := s.Close(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(id); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("second close err = %v, want ErrNotFound", err)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d", s.Len())
	}
}

func TestSwitchToUnknown(t *testing.T) {
	s := New(home)
	before := s.ActiveID()
	if err := s.SwitchTo(999); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if s.ActiveID() != before {
		t.Error("active changed on failed switch")
	}
}

func TestUpdate(t *testing.T) {
	s := New(home)
	id := s.ActiveID()
	if err := s.Update(id, Patch{Loading: Bool(true)}); err != nil {
		t.Fatal(err)
	}
	tab, _ := s.Get(id)
	if !tab.Loading || tab.URL != home {
		t.Errorf("unexpected tab after loading patch: %+v", tab)
	}
	if err := s.Update(42, Patch{Title: String("x")}); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStepThroughEntries(t *testing.T) {
	s := New(home)
	id := s.ActiveID()
	s.Update(id, Patch{URL: String("https://a.example")})
	s.Update(id, Patch{URL: String("https://b.example")})

	url, err := s.Step(id, -1)
	if err != nil || url != "https://a.example" {
		t.Fatalf("back = %q, %v", url, err)
	}
	tab, _ := s.Get(id)
	if !tab.CanGoBack || !tab.CanGoForward {
		t.Errorf("expected both directions available: %+v", tab)
	}

	// Navigating from the middle drops forward entries.
	s.Update(id, Patch{URL: String("https://c.example")})
	if _, err := s.Step(id, 1); !errors.Is(err, types.ErrNoHistory) {
		t.Errorf("forward after branch err = %v, want ErrNoHistory", err)
	}
	url, _ = s.Step(id, -2)
	if url != home {
		t.Errorf("back twice = %q, want %q", url, home)
	}
	if _, err := s.Step(id, -1); !errors.Is(err, types.ErrNoHistory) {
		t.Errorf("err = %v, want ErrNoHistory", err)
	}
}

func TestClearLoadingHonoursSeq(t *testing.T) {
	s := New(home)
	id := s.ActiveID()
	s.Update(id, Patch{URL: String("https://a.example"), Loading: Bool(true)})
	stale, _ := s.Seq(id)
	s.Update(id, Patch{URL: String("https://b.example"), Loading: Bool(true)})

	if s.ClearLoading(id, stale) {
		t.Error("stale sequence cleared loading")
	}
	cur, _ := s.Seq(id)
	if !s.ClearLoading(id, cur) {
		t.Error("current sequence did not clear loading")
	}
	if s.ClearLoading(777, cur) {
		t.Error("unknown tab reported a change")
	}
}

func TestReplace(t *testing.T) {
	s := New(home)
	old := s.ActiveID()
	got := s.Replace([]types.SessionTab{
		{URL: "https://a.example", Title: "A"},
		{URL: "https://b.example", Title: "B"},
	})
	if len(got) != 2 || got[0].Title != "A" || got[1].URL != "https://b.example" {
		t.Fatalf("unexpected tabs: %+v", got)
	}
	for _, tab := range got {
		if tab.ID == old || tab.Loading {
			t.Errorf("unexpected restored tab: %+v", tab)
		}
	}
	if s.ActiveID() != got[0].ID {
		t.Error("first restored tab is not active")
	}

	got = s.Replace(nil)
	if len(got) != 1 || got[0].URL != home {
		t.Errorf("empty replace = %+v", got)
	}
}
