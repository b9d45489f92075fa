package surface

import (
	"context"

	"github.com/lotas/brisk/internal/server"
	"github.com/lotas/brisk/internal/types"
)

// Extension renders tabs in a real browser through the companion
// extension connected to srv.
type Extension struct {
	srv    *server.Server
	events chan Event
}

// NewExtension translates extension messages into events until ctx is done.
func NewExtension(ctx context.Context, srv *server.Server) *Extension {
	e := &Extension{srv: srv, events: make(chan Event, 64)}
	go e.pump(ctx)
	return e
}

func (e *Extension) pump(ctx context.Context) {
	msgs := e.srv.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-msgs:
			if ev, ok := toEvent(msg); ok {
				emit(e.events, ev)
			}
		}
	}
}

func toEvent(msg server.IncomingMsg) (Event, bool) {
	switch msg.Type {
	case server.TypeLoadFailed:
		reason := msg.Error
		if reason == "" {
			reason = "load failed"
		}
		return EventFailed{TabID: msg.TabID, URL: msg.URL, Reason: reason}, true
	case server.TypeTabTitle:
		if msg.Title == "" {
			return nil, false
		}
		return EventTitle{TabID: msg.TabID, Title: msg.Title}, true
	}
	return nil, false
}

// Connected reports whether an extension is attached.
func (e *Extension) Connected() bool { return e.srv.Connected() }

func (e *Extension) Show(ctx context.Context, id types.TabID, url string) error {
	return e.srv.Send(ctx, server.OutgoingMsg{Action: server.ActionNavigate, TabID: id, URL: url})
}

func (e *Extension) Close(ctx context.Context, id types.TabID) error {
	return e.srv.Send(ctx, server.OutgoingMsg{Action: server.ActionClose, TabID: id})
}

func (e *Extension) Events() <-chan Event { return e.events }
