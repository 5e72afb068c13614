package debounce

import (
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

// runAll executes the commands concurrently, the way Bubble Tea does, and
// returns their messages in completion order.
func runAll(cmds ...tea.Cmd) []tea.Msg {
	var (
		mu  sync.Mutex
		out []tea.Msg
		wg  sync.WaitGroup
	)
	for _, c := range cmds {
		wg.Add(1)
		go func(c tea.Cmd) {
			defer wg.Done()
			msg := c()
			mu.Lock()
			out = append(out, msg)
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return out
}

func TestGateCoalescesBurstToLastValue(t *testing.T) {
	g := New[string](10 * time.Millisecond)
	c1 := g.Arm("f1")
	c2 := g.Arm("f2")
	c3 := g.Arm("f3")

	var propagated []string
	for _, msg := range runAll(c1, c2, c3) {
		fired, ok := msg.(FiredMsg)
		require.True(t, ok)
		if v, ok := g.Resolve(fired); ok {
			propagated = append(propagated, v)
		}
	}
	require.Equal(t, []string{"f3"}, propagated)

	_, pending := g.Pending()
	require.False(t, pending)
}

func TestGateWindowRestartsFromLastChange(t *testing.T) {
	g := New[int](40 * time.Millisecond)
	first := g.Arm(1)
	time.Sleep(25 * time.Millisecond)
	start := time.Now()
	second := g.Arm(2)

	msgs := runAll(first, second)
	var got []int
	for _, m := range msgs {
		if v, ok := g.Resolve(m.(FiredMsg)); ok {
			got = append(got, v)
		}
	}
	require.Equal(t, []int{2}, got)
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestGateCancelDropsPendingEmission(t *testing.T) {
	g := New[string](5 * time.Millisecond)
	cmd := g.Arm("typed")
	g.Cancel()

	msg := cmd().(FiredMsg)
	_, ok := g.Resolve(msg)
	require.False(t, ok)
}

func TestGateIgnoresOtherGates(t *testing.T) {
	a := New[string](time.Millisecond)
	b := New[string](time.Millisecond)
	cmd := a.Arm("x")
	b.Arm("y")

	msg := cmd().(FiredMsg)
	require.False(t, b.Owns(msg))
	_, ok := b.Resolve(msg)
	require.False(t, ok)
	v, ok := a.Resolve(msg)
	require.True(t, ok)
	require.Equal(t, "x", v)
}

func TestGateFlush(t *testing.T) {
	g := New[string](time.Hour)
	g.Arm("now")
	v, ok := g.Flush()
	require.True(t, ok)
	require.Equal(t, "now", v)

	_, ok = g.Flush()
	require.False(t, ok)

	// The stale tick must not deliver after a flush; build its message
	// instead of waiting an hour.
	_, ok = g.Resolve(FiredMsg{Gate: g.ID(), Seq: 1})
	require.False(t, ok)
}
