package joystick

import (
	"errors"
	"testing"

	"github.com/vovakirdan/ledsnake/internal/core"
)

// scriptedSensor replays a fixed list of readings, repeating the last one.
type scriptedSensor struct {
	xs, ys  []uint16
	idx     int
	pressed bool
	err     error
	reads   int
}

func (s *scriptedSensor) ReadRawAxes() (uint16, uint16, error) {
	s.reads++
	if s.err != nil {
		return 0, 0, s.err
	}
	i := min(s.idx, len(s.xs)-1)
	s.idx++
	return s.xs[i], s.ys[i], nil
}

func (s *scriptedSensor) IsButtonPressed() (bool, error) {
	return s.pressed, s.err
}

// restSensor cycles through readings confined to [lo, hi] on both axes, touching
// both extremes.
func restSensor(lo, hi uint16) *scriptedSensor {
	s := &scriptedSensor{}
	levels := []uint16{lo, hi, lo + (hi-lo)/2}
	for i := range CalibrationReads {
		v := levels[i%len(levels)]
		s.xs = append(s.xs, v)
		s.ys = append(s.ys, v)
	}
	return s
}

func TestCalibrateDeadZone(t *testing.T) {
	lo, hi := uint16(3000), uint16(3400)
	s := restSensor(lo, hi)
	j := New(s)

	if err := j.Calibrate(); err != nil {
		t.Fatalf("Calibrate() failed: %v", err)
	}
	if s.reads != CalibrationReads {
		t.Errorf("Expected %d calibration reads, got %d", CalibrationReads, s.reads)
	}

	zx, zy := j.DeadZones()
	want := DeadZone{Low: float64(lo) * 0.9, High: float64(hi) * 1.1}
	if zx != want || zy != want {
		t.Errorf("Expected dead zones %+v, got x=%+v y=%+v", want, zx, zy)
	}
}

func TestCenteredReadingIsNone(t *testing.T) {
	s := restSensor(3000, 3400)
	j := New(s)
	if err := j.Calibrate(); err != nil {
		t.Fatalf("Calibrate() failed: %v", err)
	}

	// Hold the stick at the midpoint of the rest range.
	s.xs, s.ys, s.idx = []uint16{3200}, []uint16{3200}, 0

	dir, err := j.Direction()
	if err != nil {
		t.Fatalf("Direction() failed: %v", err)
	}
	if dir != core.DirNone {
		t.Errorf("Expected centered stick to be none, got %v", dir)
	}
}

func TestClassify(t *testing.T) {
	zone := DeadZone{Low: 2700, High: 3740}
	tests := []struct {
		name     string
		x, y     float64
		expected core.Direction
	}{
		{"centered", 3200, 3200, core.DirNone},
		{"low edge inside", 2700, 3200, core.DirNone},
		{"high edge outside", 3740, 3200, core.West},
		{"x low", 100, 3200, core.East},
		{"x high", 4000, 3200, core.West},
		{"y low", 3200, 100, core.North},
		{"y high", 3200, 4000, core.South},
		{"both low", 100, 100, core.NorthEast},
		{"x high y low", 4000, 100, core.NorthWest},
		{"x low y high", 100, 4000, core.SouthEast},
		{"both high", 4000, 4000, core.SouthWest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.x, tc.y, zone, zone); got != tc.expected {
				t.Errorf("Classify(%v, %v) = %v, expected %v", tc.x, tc.y, got, tc.expected)
			}
		})
	}
}

func TestDiagonalRequiresBothAxes(t *testing.T) {
	zone := DeadZone{Low: 1000, High: 2000}
	for _, x := range []float64{0, 1500, 3000} {
		for _, y := range []float64{0, 1500, 3000} {
			dir := Classify(x, y, zone, zone)
			bothDeflected := !zone.Contains(x) && !zone.Contains(y)
			if dir.IsDiagonal() != bothDeflected {
				t.Errorf("Classify(%v, %v) = %v, diagonal should be %v", x, y, dir, bothDeflected)
			}
		}
	}
}

func TestSampleAverages(t *testing.T) {
	s := &scriptedSensor{}
	for i := range SampleCount {
		if i%2 == 0 {
			s.xs = append(s.xs, 1000)
			s.ys = append(s.ys, 2000)
		} else {
			s.xs = append(s.xs, 3000)
			s.ys = append(s.ys, 4000)
		}
	}

	x, y, err := New(s).Sample()
	if err != nil {
		t.Fatalf("Sample() failed: %v", err)
	}
	if x != 2000 || y != 3000 {
		t.Errorf("Expected mean (2000, 3000), got (%v, %v)", x, y)
	}
	if s.reads != SampleCount {
		t.Errorf("Expected %d reads, got %d", SampleCount, s.reads)
	}
}

func TestDirectionBeforeCalibrate(t *testing.T) {
	j := New(restSensor(100, 200))
	if _, err := j.Direction(); !errors.Is(err, ErrNotCalibrated) {
		t.Errorf("Expected ErrNotCalibrated, got %v", err)
	}
}

func TestSensorFailurePropagates(t *testing.T) {
	busErr := errors.New("adc timeout")
	s := restSensor(100, 200)
	j := New(s)
	if err := j.Calibrate(); err != nil {
		t.Fatalf("Calibrate() failed: %v", err)
	}

	s.err = busErr
	reads := s.reads
	if _, err := j.Direction(); !errors.Is(err, busErr) {
		t.Errorf("Expected wrapped sensor error, got %v", err)
	}
	if s.reads != reads+1 {
		t.Errorf("Expected no retry after failure, got %d extra reads", s.reads-reads)
	}
	if _, err := j.Pressed(); !errors.Is(err, busErr) {
		t.Errorf("Expected wrapped button error, got %v", err)
	}
}
