package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// deferredMsg carries a timer continuation onto the event loop.
type deferredMsg struct{ run func() }

// loopScheduler delays functions and then hands them to the bubbletea
// event loop, so timer continuations never race with Update.
type loopScheduler struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

func newLoopScheduler() *loopScheduler {
	return &loopScheduler{
		ch:   make(chan func(), 64),
		done: make(chan struct{}),
	}
}

func (s *loopScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, func() {
		select {
		case s.ch <- f:
		case <-s.done:
		}
	})
}

// Stop releases pending timers once the program is gone.
func (s *loopScheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *loopScheduler) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-s.ch:
			return deferredMsg{run: f}
		case <-s.done:
			return nil
		}
	}
}
