// Package notify surfaces short-lived messages (toasts) to the user.
package notify

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Notifier surfaces a caught failure to the user. Implementations are called
// on the update loop and return any follow-up command (expiry timers).
type Notifier interface {
	NotifyError(err error) tea.Cmd
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error) tea.Cmd

func (f NotifierFunc) NotifyError(err error) tea.Cmd { return f(err) }

type Level int

const (
	Info Level = iota
	Success
	Error
)

type Toast struct {
	ID    uint64
	Level Level
	Text  string
}

type expireMsg struct {
	id uint64
}

const (
	DefaultTTL = 4 * time.Second
	maxToasts  = 4
)

// Center keeps the visible toasts. Each toast expires after the TTL.
type Center struct {
	seq    uint64
	ttl    time.Duration
	toasts []Toast
}

func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl}
}

// Push shows a toast and schedules its expiry. The oldest toast is dropped
// when the stack is full.
func (c *Center) Push(level Level, text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	c.seq++
	id := c.seq
	c.toasts = append(c.toasts, Toast{ID: id, Level: level, Text: text})
	if len(c.toasts) > maxToasts {
		c.toasts = c.toasts[len(c.toasts)-maxToasts:]
	}
	return tea.Tick(c.ttl, func(time.Time) tea.Msg { return expireMsg{id: id} })
}

func (c *Center) Info(text string) tea.Cmd    { return c.Push(Info, text) }
func (c *Center) Success(text string) tea.Cmd { return c.Push(Success, text) }

func (c *Center) NotifyError(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return c.Push(Error, err.Error())
}

// Update removes expired toasts. It reports whether msg belonged to the center.
func (c *Center) Update(msg tea.Msg) bool {
	m, ok := msg.(expireMsg)
	if !ok {
		return false
	}
	for i, t := range c.toasts {
		if t.ID == m.id {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			break
		}
	}
	return true
}

func (c *Center) Toasts() []Toast {
	return append([]Toast(nil), c.toasts...)
}

var (
	toastBase    = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	toastInfo    = toastBase.BorderForeground(lipgloss.Color("#89b4fa"))
	toastSuccess = toastBase.BorderForeground(lipgloss.Color("#a6e3a1"))
	toastError   = toastBase.BorderForeground(lipgloss.Color("#f38ba8")).Foreground(lipgloss.Color("#f38ba8"))
)

// View stacks the toasts, newest last, each clipped to width.
func (c *Center) View(width int) string {
	if len(c.toasts) == 0 {
		return ""
	}
	if width < 12 {
		width = 12
	}
	lines := make([]string, 0, len(c.toasts))
	for _, t := range c.toasts {
		style := toastInfo
		switch t.Level {
		case Success:
			style = toastSuccess
		case Error:
			style = toastError
		}
		lines = append(lines, style.MaxWidth(width).Render(t.Text))
	}
	return lipgloss.JoinVertical(lipgloss.Right, lines...)
}
