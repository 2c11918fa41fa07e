package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vovakirdan/ledsnake/internal/console"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

const (
	tracerBuffer   = 256
	tracerBatch    = 64
	tracerInterval = time.Second
)

type traceEvent struct {
	dispatch   *DispatchRecord
	transition *TransitionRecord
}

// Tracer records a run's dispatches and phase changes without blocking the dispatch
// goroutine. Events are queued and written in batches by one goroutine; a full queue
// drops the event.
type Tracer struct {
	store   *Store
	runID   int64
	events  chan traceEvent
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
	err    error // First write error, reported by Close
}

// NewTracer starts a tracer for runID.
func (s *Store) NewTracer(runID int64) *Tracer {
	t := &Tracer{
		store:  s,
		runID:  runID,
		events: make(chan traceEvent, tracerBuffer),
		done:   make(chan struct{}),
	}
	go t.loop()
	return t
}

// RunID returns the run being traced.
func (t *Tracer) RunID() int64 {
	return t.runID
}

// Dispatch queues one invocation. It matches the console's OnDispatch hook.
func (t *Tracer) Dispatch(d sched.Dispatch) {
	rec := DispatchRecord{
		Task:     d.Name,
		Priority: int(d.Priority),
		Deadline: d.Deadline,
		Start:    d.Start,
		End:      d.End,
		Lateness: d.Lateness(),
	}
	if d.Err != nil {
		rec.Err = d.Err.Error()
	}
	t.push(traceEvent{dispatch: &rec})
}

// Transition queues one phase change. It matches the console's OnTransition hook.
func (t *Tracer) Transition(tr console.Transition) {
	t.push(traceEvent{transition: &TransitionRecord{
		From:    tr.From.String(),
		To:      tr.To.String(),
		AtCycle: tr.At,
		Score:   tr.Score,
	}})
}

// Dropped returns how many events were discarded.
func (t *Tracer) Dropped() uint64 {
	return t.dropped.Load()
}

// Close flushes pending events and returns the first write error.
func (t *Tracer) Close() error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	t.mu.Unlock()
	<-t.done
	return t.err
}

func (t *Tracer) push(ev traceEvent) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return
	}
	select {
	case t.events <- ev:
	default:
		t.dropped.Add(1)
	}
}

func (t *Tracer) loop() {
	defer close(t.done)

	ticker := time.NewTicker(tracerInterval)
	defer ticker.Stop()

	var batch []DispatchRecord
	flush := func() {
		if len(batch) == 0 {
			return
		}
		t.record(t.store.SaveDispatches(t.runID, batch))
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				flush()
				return
			}
			switch {
			case ev.dispatch != nil:
				batch = append(batch, *ev.dispatch)
				if len(batch) >= tracerBatch {
					flush()
				}
			case ev.transition != nil:
				// Keep dispatch rows ahead of the transition they led to.
				flush()
				t.record(t.store.SaveTransition(t.runID, *ev.transition))
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (t *Tracer) record(err error) {
	if err != nil && t.err == nil {
		t.err = err
	}
}
