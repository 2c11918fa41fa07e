package console

import (
	"github.com/vovakirdan/ledsnake/internal/core"
	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

// attract animates the filler pattern and waits for the button.
func (c *Console) attract(tc *sched.TaskContext) error {
	var frame core.Bitmap
	c.game.Lock(tc, func(a *arena) {
		frame = display.Project(&a.attract)
		a.attract.Next()
	})

	var pressed bool
	var err error
	c.board.Lock(tc, func(b *Board) {
		if err = b.Display.Write(frame); err != nil {
			return
		}
		pressed, err = b.Stick.Pressed()
	})
	if err != nil {
		return err
	}

	if !pressed {
		return tc.Rearm(AttractPeriod)
	}

	c.game.Lock(tc, func(a *arena) {
		a.game.Reset()
	})
	c.transition(tc, AttractMode, Playing)
	c.logf(tc, "game start")
	return tc.Spawn(TaskTick)
}

// tick reads the stick, advances the game and renders it.
func (c *Console) tick(tc *sched.TaskContext) error {
	var dir core.Direction
	var err error
	c.board.Lock(tc, func(b *Board) {
		dir, err = b.Stick.Direction()
	})
	if err != nil {
		return err
	}

	var state core.GameState
	var frame core.Bitmap
	var score int
	c.game.Lock(tc, func(a *arena) {
		state = a.game.Tick(dir)
		frame = display.Project(a.game)
		score = a.game.Score()
	})

	c.board.Lock(tc, func(b *Board) {
		err = b.Display.Write(frame)
	})
	if err != nil {
		return err
	}

	if state == core.Running {
		return tc.Rearm(TickPeriod)
	}

	c.logf(tc, "game end - final score: %d", score)
	c.game.Lock(tc, func(a *arena) {
		a.toggles = 0
	})
	c.transition(tc, Playing, GameOverFlash)
	return tc.Spawn(TaskFlash)
}

// flash blinks the panel, then restores it and returns to attract mode.
func (c *Console) flash(tc *sched.TaskContext) error {
	var done bool
	c.game.Lock(tc, func(a *arena) {
		if a.toggles < 2*FlashCycles {
			a.toggles++
		} else {
			done = true
		}
	})

	var err error
	if !done {
		c.board.Lock(tc, func(b *Board) {
			err = b.Display.Toggle()
		})
		if err != nil {
			return err
		}
		return tc.Rearm(FlashPeriod)
	}

	c.board.Lock(tc, func(b *Board) {
		err = b.Display.TurnOn()
	})
	if err != nil {
		return err
	}
	c.transition(tc, GameOverFlash, AttractMode)
	c.logf(tc, "waiting for player")
	return tc.Spawn(TaskAttract)
}
