package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/ledsnake/internal/config"
	"github.com/vovakirdan/ledsnake/internal/core"
	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/hal"
	"github.com/vovakirdan/ledsnake/internal/logging"
	"github.com/vovakirdan/ledsnake/internal/sched"
	"github.com/vovakirdan/ledsnake/internal/session"
)

// logLines is how many console log lines are shown under the panel.
const logLines = 4

// ErrNotSimulated is returned when a session's board has no terminal peripherals.
var ErrNotSimulated = errors.New("tui: board has no virtual panel and stick")

// runner owns the session goroutine and the frame signal. It is shared by every copy
// of the model.
type runner struct {
	sess   *session.Session
	sink   *logging.Sink
	rec    *display.Recorder
	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	once     sync.Once
	finished chan struct{}
	err      error

	closeOnce sync.Once
	closeErr  error
}

func (r *runner) start() {
	r.once.Do(func() {
		go func() {
			r.err = r.sess.Run(r.ctx)
			close(r.finished)
		}()
	})
}

func (r *runner) wait() error {
	<-r.finished
	return r.err
}

// stop cancels the run, waits for it and releases the session. Pending frame waits
// return once the signal channel is closed. Later calls return the first result.
func (r *runner) stop() error {
	r.closeOnce.Do(func() {
		r.cancel()
		// A run that never started has nothing to wait for.
		r.once.Do(func() { close(r.finished) })
		<-r.finished

		// OnFrame takes the recorder lock, so no callback is in flight past this point.
		r.rec.OnFrame(nil)
		close(r.wake)

		r.sink.Close()
		r.closeErr = r.sess.Close()
	})
	return r.closeErr
}

// SimModel is the Bubble Tea model of the simulator: it draws the panel the console
// writes to and turns key presses into stick deflections and button presses.
type SimModel struct {
	run      *runner
	rec      *display.Recorder
	stick    *hal.VirtualStick
	hold     uint64 // Stick hold window in cycles
	tail     *logTail
	keys     SimKeyMap
	help     help.Model
	err      error
	quitting bool
}

// NewSimModel opens a session on the terminal backend. The caller must call Close once
// the program has finished.
func NewSimModel(cfg config.Config, opts ...session.Option) (SimModel, error) {
	tail := newLogTail(logLines)
	sink := logging.New(tail, logging.Options{
		Level:  cfg.LogLevel(),
		Prefix: "console",
	})

	sess, err := session.Open(Backend, cfg, append(opts, session.WithLogger(sink))...)
	if err != nil {
		sink.Close()
		return SimModel{}, err
	}

	m, err := newSimModel(sess, sink, tail)
	if err != nil {
		sink.Close()
		sess.Close()
		return SimModel{}, err
	}
	return m, nil
}

func newSimModel(sess *session.Session, sink *logging.Sink, tail *logTail) (SimModel, error) {
	rec, okRec := sess.Recorder()
	stick, okStick := sess.Stick()
	if !okRec || !okStick {
		return SimModel{}, ErrNotSimulated
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &runner{
		sess:     sess,
		sink:     sink,
		rec:      rec,
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	m := SimModel{
		run:   run,
		rec:   rec,
		stick: stick,
		hold:  sched.Cycles(HoldFor, sess.Board().Clock.FrequencyHz()),
		tail:  tail,
		keys:  DefaultSimKeyMap(),
		help:  help.New(),
	}

	// The recorder calls back under its own lock: only signal here, read in View.
	rec.OnFrame(func(core.Bitmap, bool) {
		select {
		case run.wake <- struct{}{}:
		default:
		}
	})
	return m, nil
}

// Init starts the console.
func (m SimModel) Init() tea.Cmd {
	m.run.start()
	return tea.Batch(
		waitFrame(m.run.wake),
		waitDone(m.run),
		tickCmd(statusRate),
	)
}

// Update handles messages and updates the model state.
func (m SimModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case frameMsg:
		return m, waitFrame(m.run.wake)

	case TickMsg:
		return m, tickCmd(statusRate)

	case doneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m SimModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.run.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Start):
		m.stick.Press()
		return m, nil
	}

	if dir := m.keys.Direction(msg); dir != core.DirNone {
		m.stick.Hold(dir, m.hold)
	}
	return m, nil
}

// View renders the panel, the status line, recent console logs and help.
func (m SimModel) View() string {
	if m.quitting {
		return ""
	}

	c := m.run.sess.Console()
	var b strings.Builder
	b.WriteString(RenderMatrix(m.rec.Last(), m.rec.Powered(), m.rec.Intensity()))
	b.WriteString("\n")
	b.WriteString(RenderStatus(c.Phase(), c.Snapshot()))
	b.WriteString("\n\n")

	logStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	lines := m.tail.Lines()
	for i := range logLines {
		if i < len(lines) {
			b.WriteString(logStyle.Render(lines[i]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Err returns the error that ended the console, if any.
func (m SimModel) Err() error {
	return m.err
}

// Close stops the console and releases the session.
func (m SimModel) Close() error {
	return m.run.stop()
}

// Run starts the simulator in the terminal and blocks until the player quits.
func Run(cfg config.Config, opts ...session.Option) error {
	model, err := NewSimModel(cfg, opts...)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	final, err := p.Run()
	closeErr := model.Close()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if sm, ok := final.(SimModel); ok && sm.Err() != nil {
		return sm.Err()
	}
	return closeErr
}
