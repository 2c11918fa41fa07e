// Package tui provides the Bubble Tea front end: a terminal rendition of the LED panel
// and joystick, the SSH server that hands one to every connection, and the trace viewer.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// statusRate is how often the status line is refreshed.
const statusRate = 10

// TickMsg triggers a status refresh.
type TickMsg time.Time

// frameMsg signals that the panel changed.
type frameMsg struct{}

// doneMsg carries the end of the session run.
type doneMsg struct{ err error }

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// waitFrame blocks until the panel signals a change. It returns nil once the console
// is closed.
func waitFrame(wake <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-wake; !ok {
			return nil
		}
		return frameMsg{}
	}
}

// waitDone blocks until the session run returns.
func waitDone(r *runner) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: r.wait()}
	}
}
