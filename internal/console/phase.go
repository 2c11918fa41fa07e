package console

import "fmt"

// Phase is the console's top-level state.
type Phase int32

const (
	// AttractMode shows the filler animation until the button is pressed.
	AttractMode Phase = iota
	// Playing runs the game tick.
	Playing
	// GameOverFlash blinks the final board.
	GameOverFlash
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case AttractMode:
		return "attract"
	case Playing:
		return "playing"
	case GameOverFlash:
		return "flash"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Next returns the only phase reachable from p.
func (p Phase) Next() Phase {
	switch p {
	case AttractMode:
		return Playing
	case Playing:
		return GameOverFlash
	case GameOverFlash:
		return AttractMode
	default:
		panic(fmt.Sprintf("console: no successor for %s", p))
	}
}

// Transition records one phase change.
type Transition struct {
	From  Phase
	To    Phase
	At    uint64 // Cycle count when the change happened
	Score int    // Score of the game in progress or just finished
}
