// Package debounce provides a trailing-edge gate for values that change in
// bursts, such as search text typed into a table screen.
package debounce

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// DefaultWindow is the quiescence window used when none is given.
const DefaultWindow = 300 * time.Millisecond

// FiredMsg is delivered when an armed window elapses. Only the gate that armed
// it, and only for its latest arm, turns it into a value.
type FiredMsg struct {
	Gate string
	Seq  uint64
}

// Gate coalesces a burst of values into the last one. Every Arm starts a new
// window and supersedes the previous one; Cancel drops the pending value.
// A Gate lives on the Bubble Tea update loop and is not safe for concurrent use.
type Gate[T any] struct {
	id     string
	window time.Duration
	seq    uint64
	value  T
	armed  bool
}

func New[T any](window time.Duration) *Gate[T] {
	if window < 0 {
		window = DefaultWindow
	}
	return &Gate[T]{id: uuid.NewString(), window: window}
}

func (g *Gate[T]) ID() string { return g.id }

func (g *Gate[T]) Window() time.Duration { return g.window }

// Arm stores v as the pending value and starts a fresh window measured from
// now. The returned command delivers a FiredMsg when the window elapses.
func (g *Gate[T]) Arm(v T) tea.Cmd {
	g.seq++
	g.value = v
	g.armed = true
	id, seq := g.id, g.seq
	return tea.Tick(g.window, func(time.Time) tea.Msg {
		return FiredMsg{Gate: id, Seq: seq}
	})
}

// Cancel drops the pending value; its in-flight tick resolves to nothing.
func (g *Gate[T]) Cancel() {
	g.seq++
	g.armed = false
	var zero T
	g.value = zero
}

// Pending returns the value waiting for its window, if any.
func (g *Gate[T]) Pending() (T, bool) {
	return g.value, g.armed
}

// Owns reports whether msg was produced by this gate.
func (g *Gate[T]) Owns(msg FiredMsg) bool {
	return msg.Gate == g.id
}

// Resolve turns a FiredMsg into the propagated value. It returns false for
// ticks of other gates, superseded arms, and cancelled windows.
func (g *Gate[T]) Resolve(msg FiredMsg) (T, bool) {
	var zero T
	if msg.Gate != g.id || msg.Seq != g.seq || !g.armed {
		return zero, false
	}
	v := g.value
	g.armed = false
	g.value = zero
	return v, true
}

// Flush propagates the pending value immediately, as when the user presses
// enter in a search box, and cancels its window.
func (g *Gate[T]) Flush() (T, bool) {
	v, ok := g.value, g.armed
	g.Cancel()
	return v, ok
}
