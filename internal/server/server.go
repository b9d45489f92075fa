// Package server bridges the browser extension that renders tabs over a
// WebSocket connection.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/types"
	"nhooyr.io/websocket"
)

// Message types sent by the extension.
const (
	TypeLoadFailed = "load.failed"
	TypeTabTitle   = "tab.title"
	TypeHello      = "hello"
)

// Actions sent to the extension.
const (
	ActionNavigate = "navigate"
	ActionClose    = "close"
)

// IncomingMsg is a message from the extension.
type IncomingMsg struct {
	Type  string      `json:"type"`
	TabID types.TabID `json:"tabId,omitempty"`
	URL   string      `json:"url,omitempty"`
	Title string      `json:"title,omitempty"`
	Error string      `json:"error,omitempty"`
	// Agent identifies the extension build on hello.
	Agent string `json:"agent,omitempty"`
}

// OutgoingMsg is a command to the extension.
type OutgoingMsg struct {
	ID     string      `json:"id"`
	Action string      `json:"action"`
	TabID  types.TabID `json:"tabId"`
	URL    string      `json:"url,omitempty"`
}

// Server manages the WebSocket connection to the extension.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	seq     atomic.Uint64
	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port: port,
		msgs: make(chan IncomingMsg, 64),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of incoming messages from the extension.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send sends a command to the connected extension. Without a connection it
// returns ErrUnavailable. An empty msg.ID is filled in.
func (s *Server) Send(ctx context.Context, msg OutgoingMsg) error {
	s.mu.Lock()
	conn := s.conn
	connCtx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("send %s: no extension connected: %w", msg.Action, types.ErrUnavailable)
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("cmd-%d", s.seq.Add(1))
	}

	applog.Info("ws.send", "action", msg.Action, "id", msg.ID, "tab", msg.TabID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// Writes stop when either the caller or the connection goes away.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(connCtx, cancel)
	defer stop()

	if err := conn.Write(wctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("send %s: %v: %w", msg.Action, err, types.ErrUnavailable)
	}
	return nil
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(1 << 20)

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("ws.parse", err)
				continue
			}
			applog.Info("ws.recv", "type", msg.Type, "tab", msg.TabID)
			select {
			case s.msgs <- msg:
			default:
				applog.Info("ws.dropped", "type", msg.Type)
			}
		}
	})
}

// ListenAndServe starts the WebSocket server on the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("server.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
