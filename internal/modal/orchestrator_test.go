package modal

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type stubContent struct {
	data any
	done Done
	seen []tea.Msg
	busy bool
}

func (s *stubContent) Update(msg tea.Msg) tea.Cmd {
	s.seen = append(s.seen, msg)
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
		return s.done(s.data)
	}
	return nil
}

func (s *stubContent) View(int) string { return "body of the stub" }

func (s *stubContent) Busy() bool { return s.busy }

type resultMsg struct {
	name   string
	result any
}

// recorder hands out OnClose callbacks that report through a message.
func recorder(name string) OnClose {
	return func(result any) tea.Cmd {
		return func() tea.Msg { return resultMsg{name: name, result: result} }
	}
}

func factory(into **stubContent) Factory {
	return func(data any, done Done) Content {
		c := &stubContent{data: data, done: done}
		*into = c
		return c
	}
}

// collect runs cmd, flattening batches, and returns every message.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func results(msgs []tea.Msg) []resultMsg {
	var out []resultMsg
	for _, m := range msgs {
		if r, ok := m.(resultMsg); ok {
			out = append(out, r)
		}
	}
	return out
}

func TestReplacedModalNeverCloses(t *testing.T) {
	o := New(time.Millisecond, nil)
	var a, b *stubContent
	o.Open(factory(&a), "A", Options{Title: "a"}, recorder("A"))
	o.Open(factory(&b), "B", Options{Title: "b"}, recorder("B"))
	require.Equal(t, "b", o.Title())
	require.Equal(t, "B", o.Data())

	require.Nil(t, a.done("late"), "replaced content cannot close the slot")
	require.True(t, o.IsOpen())

	got := results(collect(o.Close("ok")))
	require.Equal(t, []resultMsg{{name: "B", result: "ok"}}, got)
	require.False(t, o.IsOpen())
}

func TestOnCloseFiresAtMostOnce(t *testing.T) {
	o := New(time.Millisecond, nil)
	var c *stubContent
	o.Open(factory(&c), 7, Options{}, recorder("A"))

	cmd, consumed := o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, consumed)
	require.Equal(t, []resultMsg{{name: "A", result: 7}}, results(collect(cmd)))

	require.Nil(t, c.done(8))
	require.Nil(t, o.Close(9))
}

func TestEscCancelsUnlessBusy(t *testing.T) {
	o := New(time.Millisecond, nil)
	var c *stubContent
	o.Open(factory(&c), nil, Options{}, recorder("A"))

	c.busy = true
	cmd, consumed := o.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.True(t, consumed)
	require.Nil(t, cmd)
	require.True(t, o.IsOpen())

	c.busy = false
	cmd, _ = o.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, []resultMsg{{name: "A", result: nil}}, results(collect(cmd)))
}

func TestClosedContentClearsAfterExitDelay(t *testing.T) {
	o := New(time.Millisecond, nil)
	var c *stubContent
	o.Open(factory(&c), "payload", Options{}, nil)

	msgs := collect(o.Close(nil))
	require.Len(t, msgs, 1)
	require.True(t, o.Retained())
	require.Nil(t, o.Data())

	_, handled := o.Update(msgs[0])
	require.True(t, handled)
	require.False(t, o.Retained())
}

func TestStaleClearLeavesNewModalAlone(t *testing.T) {
	o := New(time.Millisecond, nil)
	var a, b *stubContent
	o.Open(factory(&a), "A", Options{}, nil)
	expire := collect(o.Close(nil))
	o.Open(factory(&b), "B", Options{Title: "second"}, nil)

	o.Update(expire[0])
	require.True(t, o.IsOpen())
	require.Equal(t, "B", o.Data())
	require.Contains(t, o.View("", 80, 24), "second")
}

func TestUpdateRouting(t *testing.T) {
	o := New(0, nil)
	_, consumed := o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, consumed, "closed orchestrator leaves keys alone")

	var c *stubContent
	o.Open(factory(&c), nil, Options{}, nil)
	_, consumed = o.Update("tick")
	require.False(t, consumed)
	_, consumed = o.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.True(t, consumed)
	require.Len(t, c.seen, 2)
}

func TestViewCompositesOverBase(t *testing.T) {
	o := New(0, nil)
	base := strings.Repeat(strings.Repeat(".", 80)+"\n", 23) + strings.Repeat(".", 80)
	require.Equal(t, base, o.View(base, 80, 24))

	var c *stubContent
	o.Open(factory(&c), nil, Options{Title: "Delete user", ShowCloseButton: true, Size: Small}, nil)
	out := o.View(base, 80, 24)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 24)
	require.Contains(t, out, "Delete user")
	require.Contains(t, out, "body of the stub")
	require.Contains(t, out, "esc")
	require.True(t, strings.HasPrefix(lines[0], "...."), "rows outside the card keep the base")
}

func TestFromContext(t *testing.T) {
	require.PanicsWithValue(t, ErrNoOrchestrator, func() { FromContext(context.Background()) })

	o := New(0, nil)
	ctx := WithOrchestrator(context.Background(), o)
	require.Same(t, o, FromContext(ctx))
}
