package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/ledsnake/internal/config"
	"github.com/vovakirdan/ledsnake/internal/console"
	"github.com/vovakirdan/ledsnake/internal/core"
	"github.com/vovakirdan/ledsnake/internal/games/snake"
	"github.com/vovakirdan/ledsnake/internal/storage"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyDirections(t *testing.T) {
	keys := DefaultSimKeyMap()
	tests := []struct {
		key      string
		expected core.Direction
	}{
		{"up", core.North},
		{"w", core.North},
		{"down", core.South},
		{"s", core.South},
		{"left", core.East},
		{"a", core.East},
		{"right", core.West},
		{"d", core.West},
		{"x", core.DirNone},
		{"enter", core.DirNone},
	}

	for _, tc := range tests {
		if got := keys.Direction(keyMsg(tc.key)); got != tc.expected {
			t.Errorf("Direction(%q) = %v, expected %v", tc.key, got, tc.expected)
		}
	}
}

func TestRenderMatrix(t *testing.T) {
	var frame core.Bitmap
	frame.Set(core.Pt(0, 0))
	frame.Set(core.Pt(7, 7))

	lit := strings.Count(RenderMatrix(frame, true, 255), ledOn)
	if lit != 2 {
		t.Errorf("Expected 2 lit LEDs, got %d", lit)
	}
	if dark := strings.Count(RenderMatrix(frame, false, 255), ledOn); dark != 0 {
		t.Errorf("Expected powered-off panel to be dark, got %d lit", dark)
	}
}

func TestShadeBands(t *testing.T) {
	for _, level := range []uint8{0, 64, 127, 128, 200, 255} {
		_ = shade(level) // Must stay in range
	}
}

func TestRenderStatus(t *testing.T) {
	attract := RenderStatus(console.AttractMode, snake.Snapshot{})
	if !strings.Contains(attract, "ATTRACT") || !strings.Contains(attract, "press space") {
		t.Errorf("Unexpected attract status %q", attract)
	}
	playing := RenderStatus(console.Playing, snake.Snapshot{Score: 3, SnakeLen: 5})
	if !strings.Contains(playing, "score 3") || !strings.Contains(playing, "length 5") {
		t.Errorf("Unexpected playing status %q", playing)
	}
}

func TestLogTail(t *testing.T) {
	tail := newLogTail(2)
	fmt.Fprintln(tail, "one")
	fmt.Fprint(tail, "two\nthree\n")

	lines := tail.Lines()
	if len(lines) != 2 || lines[0] != "two" || lines[1] != "three" {
		t.Errorf("Expected [two three], got %v", lines)
	}
}

func TestSimModelInput(t *testing.T) {
	m, err := NewSimModel(config.Default())
	if err != nil {
		t.Fatalf("NewSimModel failed: %v", err)
	}
	defer m.Close()

	next, _ := m.Update(keyMsg(" "))
	m = next.(SimModel)
	if pressed, _ := m.stick.IsButtonPressed(); !pressed {
		t.Error("Expected space to press the button")
	}

	next, _ = m.Update(keyMsg("up"))
	m = next.(SimModel)
	if m.stick.Held() != core.North {
		t.Errorf("Expected up to hold North, got %v", m.stick.Held())
	}

	next, _ = m.Update(keyMsg("?"))
	m = next.(SimModel)
	if !m.help.ShowAll {
		t.Error("Expected ? to expand help")
	}

	view := m.View()
	if !strings.Contains(view, ledOff) || !strings.Contains(view, "ATTRACT") {
		t.Errorf("Expected a dark panel in attract mode, got:\n%s", view)
	}

	next, cmd := m.Update(keyMsg("q"))
	m = next.(SimModel)
	if cmd == nil || m.View() != "" {
		t.Error("Expected q to quit")
	}
}

func TestCloseReleasesFrameWait(t *testing.T) {
	m, err := NewSimModel(config.Default())
	if err != nil {
		t.Fatalf("NewSimModel failed: %v", err)
	}
	if cmd := m.Init(); cmd == nil {
		t.Fatal("Expected Init to schedule commands")
	}

	released := make(chan struct{})
	go func() {
		// Drain a pending signal, then wait for the close.
		for waitFrame(m.run.wake)() != nil {
		}
		close(released)
	}()

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the frame wait to return after Close")
	}

	if err := m.Close(); err != nil {
		t.Errorf("Expected a second Close to succeed, got %v", err)
	}
	if msg := waitDone(m.run)(); msg == nil {
		t.Error("Expected the finished run to report done")
	}
}

func TestTraceView(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("storage.Open failed: %v", err)
	}
	defer store.Close()

	empty := NewTraceViewModel(store, 0, 100, 40)
	if !strings.Contains(empty.View(), "No runs recorded") {
		t.Error("Expected empty message without runs")
	}

	first, _ := store.BeginRun("bench", 1000)
	second, _ := store.BeginRun("term", 1000)
	if err := store.SaveDispatches(first, []storage.DispatchRecord{
		{Task: "tick", Priority: 2, Deadline: 0, Start: 5, End: 7, Lateness: 5},
	}); err != nil {
		t.Fatal(err)
	}

	m := NewTraceViewModel(store, first, 100, 40)
	if m.selected != first {
		t.Errorf("Expected run %d highlighted, got %d", first, m.selected)
	}
	if rows := m.stats.Rows(); len(rows) != 1 || rows[0][0] != "tick" {
		t.Errorf("Expected tick stats, got %v", rows)
	}

	next, _ := m.Update(keyMsg("up"))
	m = next.(TraceViewModel)
	if m.selected != second {
		t.Errorf("Expected run %d after moving up, got %d", second, m.selected)
	}
	if rows := m.stats.Rows(); len(rows) != 0 {
		t.Errorf("Expected no stats for run %d, got %v", second, rows)
	}
}

func TestStatsRows(t *testing.T) {
	rows := StatsRows([]storage.TaskStats{{Task: "attract", Dispatches: 4, MeanLateness: 1.24}})
	if rows[0][0] != "attract" || rows[0][1] != "4" || rows[0][4] != "1.2" {
		t.Errorf("Unexpected row %v", rows[0])
	}
}
