package display

import "github.com/vovakirdan/ledsnake/internal/core"

// Scene is anything that can describe itself as an occupancy grid.
type Scene interface {
	Render() core.Bitmap
}

// Project renders a scene into the bitmap the matrix driver consumes.
func Project(scene Scene) core.Bitmap {
	return scene.Render()
}

// AttractFrame is the filler animation shown while waiting for a player: row i holds
// the byte frame+i, so the pattern scrolls as frame counts up.
func AttractFrame(frame uint8) core.Bitmap {
	var b core.Bitmap
	for i := range b {
		b[i] = frame + uint8(i)
	}
	return b
}

// Attract is a Scene that plays AttractFrame for a moving frame counter.
type Attract struct {
	frame uint8
}

// Render returns the current frame.
func (a *Attract) Render() core.Bitmap {
	return AttractFrame(a.frame)
}

// Next advances the animation by one frame, wrapping at 256.
func (a *Attract) Next() {
	a.frame++
}

// Frame returns the frame counter.
func (a *Attract) Frame() uint8 {
	return a.frame
}
