// Package display drives the 8x8 LED matrix: the collaborator interface the hardware
// layer implements, a controller that tracks panel power and brightness, and the
// projector that turns game scenes into bitmaps.
package display

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/ledsnake/internal/core"
)

// MaxBrightness is the largest accepted brightness percentage.
const MaxBrightness = 100

// ErrBrightnessRange is returned for brightness values above MaxBrightness.
var ErrBrightnessRange = errors.New("display: brightness out of range")

// Display is the LED matrix collaborator. Every call is synchronous and may fail with a
// transport error.
type Display interface {
	PowerOn() error
	PowerOff() error
	// SetIntensity takes the driver's native 0-255 intensity.
	SetIntensity(level uint8) error
	WriteBitmap(rows core.Bitmap) error
	Clear() error
}

// Controller wraps a Display and remembers whether the panel is powered.
type Controller struct {
	dev        Display
	on         bool
	brightness uint8
}

// NewController takes ownership of dev. The panel is assumed to be off until TurnOn.
func NewController(dev Display) *Controller {
	return &Controller{dev: dev}
}

// IsOn reports whether the panel is powered.
func (c *Controller) IsOn() bool {
	return c.on
}

// Brightness returns the last accepted brightness percentage.
func (c *Controller) Brightness() uint8 {
	return c.brightness
}

// TurnOn powers the panel. It is a no-op when already on.
func (c *Controller) TurnOn() error {
	if c.on {
		return nil
	}
	if err := c.dev.PowerOn(); err != nil {
		return fmt.Errorf("display: power on: %w", err)
	}
	c.on = true
	return nil
}

// TurnOff powers the panel down. It is a no-op when already off.
func (c *Controller) TurnOff() error {
	if !c.on {
		return nil
	}
	if err := c.dev.PowerOff(); err != nil {
		return fmt.Errorf("display: power off: %w", err)
	}
	c.on = false
	return nil
}

// Toggle flips panel power.
func (c *Controller) Toggle() error {
	if c.on {
		return c.TurnOff()
	}
	return c.TurnOn()
}

// SetBrightness sets brightness as a percentage. Values above 100 are rejected before
// anything reaches the device.
func (c *Controller) SetBrightness(percent uint8) error {
	if percent > MaxBrightness {
		return fmt.Errorf("%w: %d", ErrBrightnessRange, percent)
	}
	level := uint8(uint16(percent) * 255 / MaxBrightness)
	if err := c.dev.SetIntensity(level); err != nil {
		return fmt.Errorf("display: set intensity: %w", err)
	}
	c.brightness = percent
	return nil
}

// Write sends a bitmap, powering the panel first when it is off.
func (c *Controller) Write(b core.Bitmap) error {
	if err := c.TurnOn(); err != nil {
		return err
	}
	if err := c.dev.WriteBitmap(b); err != nil {
		return fmt.Errorf("display: write bitmap: %w", err)
	}
	return nil
}

// Clear blanks the panel.
func (c *Controller) Clear() error {
	if err := c.dev.Clear(); err != nil {
		return fmt.Errorf("display: clear: %w", err)
	}
	return nil
}
