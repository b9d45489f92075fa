package tui

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// PomodoroLength is one work interval.
const PomodoroLength = 25 * time.Minute

type pomodoro struct {
	remaining time.Duration
	running   bool
}

func newPomodoro() pomodoro {
	return pomodoro{remaining: PomodoroLength}
}

func (p *pomodoro) toggle() { p.running = !p.running }

func (p *pomodoro) reset() {
	p.remaining = PomodoroLength
	p.running = false
}

// tick advances a running timer by d and reports whether it just finished.
func (p *pomodoro) tick(d time.Duration) bool {
	if !p.running {
		return false
	}
	p.remaining -= d
	if p.remaining > 0 {
		return false
	}
	p.reset()
	return true
}

func (p pomodoro) View() string {
	m := int(p.remaining / time.Minute)
	s := int(p.remaining%time.Minute) / int(time.Second)
	state := "paused"
	if p.running {
		state = "running"
	}
	return fmt.Sprintf("🍅 %02d:%02d %s", m, s, state)
}

// metrics is a simulated resource monitor. The shell renders nothing
// itself, so there is no real usage to sample.
type metrics struct {
	cpu, mem float64
	rnd      *rand.Rand
}

func newMetrics(seed uint64) metrics {
	return metrics{cpu: 12, mem: 35, rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (m *metrics) sample() {
	m.cpu = clamp(m.cpu+m.rnd.NormFloat64()*4, 1, 99)
	m.mem = clamp(m.mem+m.rnd.NormFloat64()*1.5, 5, 95)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func (m metrics) View(tabs int) string {
	return fmt.Sprintf("cpu %2.0f%% · mem %2.0f%% · %d tabs", m.cpu, m.mem, tabs)
}
