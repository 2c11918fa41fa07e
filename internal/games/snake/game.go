// Package snake implements the Snake model and the game engine that drives it on the
// 8x8 toroidal grid.
package snake

import (
	"fmt"
	"math/rand/v2"

	"github.com/vovakirdan/ledsnake/internal/core"
)

// StartHeading is the direction of a freshly spawned snake.
const StartHeading = core.West

// pcgStream selects the PCG sequence; the per-placement seed comes from the SeedSource.
const pcgStream = 0x9E3779B97F4A7C15

// maxFruitRerolls bounds rejection sampling under FruitAvoidSnake.
const maxFruitRerolls = 8

// SeedSource supplies the seed for each random draw, typically the elapsed cycle count
// since a fixed reference instant. Draws in rapid succession may repeat a value.
type SeedSource interface {
	Seed() uint64
}

// SeedFunc adapts a plain function to SeedSource.
type SeedFunc func() uint64

// Seed calls f.
func (f SeedFunc) Seed() uint64 {
	return f()
}

// FruitPolicy decides what happens when a new fruit lands on the snake.
type FruitPolicy string

const (
	// FruitAnywhere accepts any drawn cell, including one under the snake.
	FruitAnywhere FruitPolicy = "anywhere"
	// FruitAvoidSnake re-rolls occupied cells and falls back to the first free cell.
	FruitAvoidSnake FruitPolicy = "avoid_snake"
)

// ParseFruitPolicy validates a policy name. The empty string selects FruitAnywhere.
func ParseFruitPolicy(name string) (FruitPolicy, error) {
	switch FruitPolicy(name) {
	case "", FruitAnywhere:
		return FruitAnywhere, nil
	case FruitAvoidSnake:
		return FruitAvoidSnake, nil
	default:
		return "", fmt.Errorf("snake: unknown fruit policy %q", name)
	}
}

// Option configures a Game.
type Option func(*Game)

// WithFruitPolicy selects the fruit placement policy.
func WithFruitPolicy(p FruitPolicy) Option {
	return func(g *Game) {
		g.policy = p
	}
}

// Game owns the snake, the fruit and the random source. It is the only mutator of
// either.
type Game struct {
	seeds  SeedSource
	policy FruitPolicy
	snake  *Snake
	fruit  core.Point
	state  core.GameState
	ticks  uint64
}

// New creates a running game with a random snake and fruit.
func New(seeds SeedSource, opts ...Option) *Game {
	g := &Game{
		seeds:  seeds,
		policy: FruitAnywhere,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.Reset()
	return g
}

// Reset starts a new game from the same seed source. The head and the fruit come from
// one generator, so a seed that repeats between calls cannot stack them on one cell.
func (g *Game) Reset() {
	r := g.newRand()
	head := randomPoint(r)
	fruit := randomPoint(r)
	for i := 0; fruit == head && i < maxFruitRerolls; i++ {
		fruit = randomPoint(r)
	}
	if fruit == head {
		fruit = head.Step(StartHeading.Opposite())
	}

	g.snake = NewSnake(head, StartHeading)
	g.fruit = fruit
	g.state = core.Running
	g.ticks = 0
}

// Tick advances the game by one step. Once GameOver it returns GameOver without
// touching the snake or the fruit.
func (g *Game) Tick(input core.Direction) core.GameState {
	if g.state == core.GameOver {
		return core.GameOver
	}
	g.ticks++

	// Eating is judged on the head as it stands before this move.
	ateFruit := g.snake.Head() == g.fruit

	g.snake.SetHeading(input)
	g.snake.Advance(ateFruit)

	if g.snake.CollidedWithSelf() || g.snake.IsFull() {
		g.state = core.GameOver
		return g.state
	}

	if ateFruit {
		g.placeFruit()
	}
	return core.Running
}

// Render returns the snake bitmap with the fruit cell lit.
func (g *Game) Render() core.Bitmap {
	b := g.snake.Render()
	b.Set(g.fruit)
	return b
}

// Score is the number of segments grown beyond the starting head.
func (g *Game) Score() int {
	return g.snake.Len() - 1
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	return g.state
}

// Fruit returns the fruit cell.
func (g *Game) Fruit() core.Point {
	return g.fruit
}

// Snake returns the snake for read-only inspection.
func (g *Game) Snake() *Snake {
	return g.snake
}

// placeFruit draws a new fruit cell according to the policy.
func (g *Game) placeFruit() {
	r := g.newRand()
	p := randomPoint(r)
	if g.policy != FruitAvoidSnake {
		g.fruit = p
		return
	}

	for range maxFruitRerolls {
		if !g.snake.Contains(p) {
			g.fruit = p
			return
		}
		p = randomPoint(r)
	}

	occupied := g.snake.Render()
	for y := uint8(0); y < core.GridSize; y++ {
		for x := uint8(0); x < core.GridSize; x++ {
			if c := core.Pt(x, y); !occupied.Get(c) {
				g.fruit = c
				return
			}
		}
	}
	// Unreachable while the game is running: a full snake ends the game first.
	g.fruit = p
}

// newRand seeds a PCG generator for one placement.
func (g *Game) newRand() *rand.Rand {
	return rand.New(rand.NewPCG(g.seeds.Seed(), pcgStream))
}

// randomPoint derives one byte per axis from the next generator output, reduced modulo
// the grid size.
func randomPoint(r *rand.Rand) core.Point {
	v := r.Uint32()
	return core.Pt(uint8(v)%core.GridSize, uint8(v>>8)%core.GridSize)
}
