// Package surface defines where tabs are rendered. The browser core hands a
// surface a (tab, url) pair and only hears back about failures and titles.
package surface

import (
	"context"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/types"
)

// Event is a signal from a surface about one tab.
type Event interface {
	Tab() types.TabID
}

// EventFailed reports that a URL could not be displayed.
type EventFailed struct {
	TabID  types.TabID
	URL    string
	Reason string
}

func (e EventFailed) Tab() types.TabID { return e.TabID }

// EventTitle reports the document title of a loaded page.
type EventTitle struct {
	TabID types.TabID
	Title string
}

func (e EventTitle) Tab() types.TabID { return e.TabID }

// Surface renders tabs.
type Surface interface {
	Show(ctx context.Context, id types.TabID, url string) error
	Close(ctx context.Context, id types.TabID) error
	Events() <-chan Event
}

// None renders nothing. Every load succeeds silently.
type None struct{}

func (None) Show(context.Context, types.TabID, string) error { return nil }
func (None) Close(context.Context, types.TabID) error        { return nil }
func (None) Events() <-chan Event                            { return nil }

func emit(ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	default:
		applog.Info("surface.event.dropped", "tab", ev.Tab())
	}
}
