package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/ledsnake/internal/console"
	"github.com/vovakirdan/ledsnake/internal/core"
	"github.com/vovakirdan/ledsnake/internal/games/snake"
)

// ledShades maps intensity bands to LED colors, dim to bright.
var ledShades = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("52")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("88")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

var (
	darkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	phaseStyles = map[console.Phase]lipgloss.Style{
		console.AttractMode:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		console.Playing:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		console.GameOverFlash: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
)

const (
	ledOn  = "●"
	ledOff = "·"
)

// shade picks the LED style for a 0-255 intensity.
func shade(intensity uint8) lipgloss.Style {
	i := int(intensity) * len(ledShades) / 256
	return ledShades[i]
}

// RenderMatrix draws the panel as an 8x8 grid of LEDs. A powered-off panel is all dark.
func RenderMatrix(frame core.Bitmap, powered bool, intensity uint8) string {
	on := shade(intensity)

	var sb strings.Builder
	for y := range core.GridSize {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for x := range core.GridSize {
			if x > 0 {
				sb.WriteRune(' ')
			}
			if powered && frame.Get(core.Pt(uint8(x), uint8(y))) {
				sb.WriteString(on.Render(ledOn))
			} else {
				sb.WriteString(darkStyle.Render(ledOff))
			}
		}
	}
	return panelStyle.Render(sb.String())
}

// RenderStatus draws the line under the panel: the phase, and the score while a game is
// visible.
func RenderStatus(phase console.Phase, snap snake.Snapshot) string {
	label := phaseStyles[phase].Render(strings.ToUpper(phase.String()))
	if phase == console.AttractMode {
		return label + statusStyle.Render("  press space to play")
	}
	return label + statusStyle.Render(fmt.Sprintf("  score %d  length %d", snap.Score, snap.SnakeLen))
}
