package display

import (
	"sync"

	"github.com/vovakirdan/ledsnake/internal/core"
)

// maxRecordedFrames caps the frame history; older frames are discarded first.
const maxRecordedFrames = 4096

// Recorder is an in-memory Display that keeps every frame and power change. It backs
// the headless hardware backend and the tests.
type Recorder struct {
	mu        sync.Mutex
	powered   bool
	intensity uint8
	frames    []core.Bitmap
	toggles   int
	failAfter int // Fail once this many more calls have succeeded; negative disables
	failErr   error
	onFrame   func(core.Bitmap, bool)
}

// NewRecorder creates a powered-off recorder.
func NewRecorder() *Recorder {
	return &Recorder{failAfter: -1}
}

// FailAfter makes the recorder return err once n more calls have succeeded.
func (r *Recorder) FailAfter(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAfter = n
	r.failErr = err
}

// OnFrame registers a callback invoked with the visible frame after every change.
// A powered-off panel reports a blank bitmap and false.
func (r *Recorder) OnFrame(fn func(frame core.Bitmap, powered bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFrame = fn
}

// check consumes one call from the failure budget. Caller holds mu.
func (r *Recorder) check() error {
	if r.failAfter < 0 {
		return nil
	}
	if r.failAfter == 0 {
		return r.failErr
	}
	r.failAfter--
	return nil
}

func (r *Recorder) notify() {
	if r.onFrame == nil {
		return
	}
	var frame core.Bitmap
	if r.powered && len(r.frames) > 0 {
		frame = r.frames[len(r.frames)-1]
	}
	r.onFrame(frame, r.powered)
}

// PowerOn implements Display.
func (r *Recorder) PowerOn() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	if !r.powered {
		r.toggles++
	}
	r.powered = true
	r.notify()
	return nil
}

// PowerOff implements Display.
func (r *Recorder) PowerOff() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	if r.powered {
		r.toggles++
	}
	r.powered = false
	r.notify()
	return nil
}

// SetIntensity implements Display.
func (r *Recorder) SetIntensity(level uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	r.intensity = level
	return nil
}

// WriteBitmap implements Display.
func (r *Recorder) WriteBitmap(rows core.Bitmap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	if len(r.frames) == maxRecordedFrames {
		r.frames = append(r.frames[:0], r.frames[maxRecordedFrames/2:]...)
	}
	r.frames = append(r.frames, rows)
	r.notify()
	return nil
}

// Clear implements Display.
func (r *Recorder) Clear() error {
	return r.WriteBitmap(core.Bitmap{})
}

// Powered reports the panel power state.
func (r *Recorder) Powered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.powered
}

// Intensity returns the last native intensity written.
func (r *Recorder) Intensity() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intensity
}

// Toggles counts power state changes.
func (r *Recorder) Toggles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toggles
}

// Frames returns a copy of the recorded bitmaps, oldest first.
func (r *Recorder) Frames() []core.Bitmap {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Bitmap, len(r.frames))
	copy(out, r.frames)
	return out
}

// Last returns the most recent bitmap, or a blank one.
func (r *Recorder) Last() core.Bitmap {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return core.Bitmap{}
	}
	return r.frames[len(r.frames)-1]
}
