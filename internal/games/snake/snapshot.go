package snake

import "github.com/vovakirdan/ledsnake/internal/core"

// Snapshot captures the observable game state for status lines and traces.
type Snapshot struct {
	Tick     uint64
	Score    int
	SnakeLen int
	Head     core.Point
	Heading  core.Direction
	Fruit    core.Point
	State    core.GameState
}

// Snapshot returns the current game snapshot.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Tick:     g.ticks,
		Score:    g.Score(),
		SnakeLen: g.snake.Len(),
		Head:     g.snake.Head(),
		Heading:  g.snake.Heading(),
		Fruit:    g.fruit,
		State:    g.state,
	}
}
