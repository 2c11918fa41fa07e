// Package joystick turns raw analog stick readings into compass directions using a
// dead zone calibrated once at startup.
package joystick

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/ledsnake/internal/core"
)

// Sampling constants.
const (
	SampleCount      = 16   // Reads averaged per Direction call
	CalibrationReads = 64   // Reads taken by Calibrate
	DeadZoneMargin   = 0.10 // Fraction added on each side of the observed rest range
)

// ErrNotCalibrated is returned by Direction when Calibrate has not run.
var ErrNotCalibrated = errors.New("joystick: not calibrated")

// Sensor is the analog stick collaborator provided by the hardware layer.
type Sensor interface {
	// ReadRawAxes returns one raw ADC sample for the x and y channels.
	ReadRawAxes() (x, y uint16, err error)
	// IsButtonPressed reports whether the stick's push button is engaged.
	IsButtonPressed() (bool, error)
}

// DeadZone is the half-open range [Low, High) of readings treated as "no deflection"
// on one axis.
type DeadZone struct {
	Low  float64
	High float64
}

// NewDeadZone widens the observed rest range [min, max] by DeadZoneMargin on each side.
func NewDeadZone(min, max uint16) DeadZone {
	return DeadZone{
		Low:  float64(min) * (1 - DeadZoneMargin),
		High: float64(max) * (1 + DeadZoneMargin),
	}
}

// Contains reports whether v lies inside the dead zone.
func (z DeadZone) Contains(v float64) bool {
	return v >= z.Low && v < z.High
}

// Deflection returns -1 below the zone, +1 at or above its upper bound, 0 inside.
func (z DeadZone) Deflection(v float64) int {
	switch {
	case v < z.Low:
		return -1
	case v >= z.High:
		return 1
	default:
		return 0
	}
}

// Classify maps an averaged reading onto a direction. Raw x below the zone steers East
// and above it West; raw y below steers North and above it South. Both axes deflected
// produce a diagonal; neither produces DirNone.
func Classify(x, y float64, zoneX, zoneY DeadZone) core.Direction {
	return core.Compose(zoneX.Deflection(x), zoneY.Deflection(y))
}

// Joystick owns a sensor and the per-axis dead zones computed by Calibrate.
type Joystick struct {
	sensor     Sensor
	zoneX      DeadZone
	zoneY      DeadZone
	calibrated bool
}

// New wraps a sensor. Calibrate must run before Direction.
func New(sensor Sensor) *Joystick {
	return &Joystick{sensor: sensor}
}

// Calibrate samples a burst of readings and derives the dead zone of each axis from the
// observed extremes. The stick must be at rest; this is not checked.
func (j *Joystick) Calibrate() error {
	var minX, minY uint16 = 0xFFFF, 0xFFFF
	var maxX, maxY uint16

	for range CalibrationReads {
		x, y, err := j.sensor.ReadRawAxes()
		if err != nil {
			return fmt.Errorf("joystick: calibrate: %w", err)
		}
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}

	j.zoneX = NewDeadZone(minX, maxX)
	j.zoneY = NewDeadZone(minY, maxY)
	j.calibrated = true
	return nil
}

// DeadZones returns the calibrated x and y dead zones.
func (j *Joystick) DeadZones() (x, y DeadZone) {
	return j.zoneX, j.zoneY
}

// Calibrated reports whether Calibrate has completed.
func (j *Joystick) Calibrated() bool {
	return j.calibrated
}

// Sample returns the mean of SampleCount reads of both axes.
func (j *Joystick) Sample() (x, y float64, err error) {
	var sumX, sumY uint32
	for range SampleCount {
		rx, ry, err := j.sensor.ReadRawAxes()
		if err != nil {
			return 0, 0, fmt.Errorf("joystick: read axes: %w", err)
		}
		sumX += uint32(rx)
		sumY += uint32(ry)
	}
	return float64(sumX) / SampleCount, float64(sumY) / SampleCount, nil
}

// Direction samples the stick and classifies it. DirNone means centered.
func (j *Joystick) Direction() (core.Direction, error) {
	if !j.calibrated {
		return core.DirNone, ErrNotCalibrated
	}
	x, y, err := j.Sample()
	if err != nil {
		return core.DirNone, err
	}
	return Classify(x, y, j.zoneX, j.zoneY), nil
}

// Pressed reports the button state.
func (j *Joystick) Pressed() (bool, error) {
	pressed, err := j.sensor.IsButtonPressed()
	if err != nil {
		return false, fmt.Errorf("joystick: read button: %w", err)
	}
	return pressed, nil
}
