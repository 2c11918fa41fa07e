package core

// GameState is the engine's status after a tick. GameOver is terminal until Reset.
type GameState uint8

const (
	Running GameState = iota
	GameOver
)

// String returns a human-readable name for the state.
func (s GameState) String() string {
	switch s {
	case Running:
		return "running"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}
