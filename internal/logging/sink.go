// Package logging provides the console's logger: a best-effort sink that never blocks the
// task that logs. Entries are queued on a bounded channel and written by one goroutine;
// when the queue is full the entry is dropped and counted.
package logging

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// DefaultBuffer is the queue length used when Options.Buffer is zero.
const DefaultBuffer = 64

// Logger is what the console tasks log through.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Options configures a Sink.
type Options struct {
	Level           log.Level
	Prefix          string
	ReportTimestamp bool
	Buffer          int
}

type entry struct {
	level log.Level
	msg   string
	kv    []any
}

// Sink is a non-blocking Logger backed by charmbracelet/log.
type Sink struct {
	logger  *log.Logger
	entries chan entry
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// New creates a sink writing to w and starts its writer goroutine.
func New(w io.Writer, opts Options) *Sink {
	logger := log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
	})
	return NewWithLogger(logger, opts.Buffer)
}

// NewWithLogger wraps an existing logger, for example a per-session SSH logger.
func NewWithLogger(logger *log.Logger, buffer int) *Sink {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Sink{
		logger:  logger,
		entries: make(chan entry, buffer),
		done:    make(chan struct{}),
	}
	go s.drain()
	return s
}

// Discard returns a sink that writes nowhere.
func Discard() *Sink {
	return New(io.Discard, Options{Level: log.FatalLevel})
}

// ParseLevel parses a level name such as "info" or "debug".
func ParseLevel(name string) (log.Level, error) {
	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("logging: %w", err)
	}
	return level, nil
}

func (s *Sink) drain() {
	defer close(s.done)
	for e := range s.entries {
		s.logger.Log(e.level, e.msg, e.kv...)
	}
}

func (s *Sink) push(e entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.entries <- e:
	default:
		s.dropped.Add(1)
	}
}

// Debugf queues a debug entry.
func (s *Sink) Debugf(format string, args ...any) {
	s.push(entry{level: log.DebugLevel, msg: fmt.Sprintf(format, args...)})
}

// Infof queues an info entry.
func (s *Sink) Infof(format string, args ...any) {
	s.push(entry{level: log.InfoLevel, msg: fmt.Sprintf(format, args...)})
}

// Warnf queues a warning.
func (s *Sink) Warnf(format string, args ...any) {
	s.push(entry{level: log.WarnLevel, msg: fmt.Sprintf(format, args...)})
}

// Errorf queues an error entry.
func (s *Sink) Errorf(format string, args ...any) {
	s.push(entry{level: log.ErrorLevel, msg: fmt.Sprintf(format, args...)})
}

// Info queues a structured entry with key/value pairs.
func (s *Sink) Info(msg string, keyvals ...any) {
	s.push(entry{level: log.InfoLevel, msg: msg, kv: keyvals})
}

// Warn queues a structured warning.
func (s *Sink) Warn(msg string, keyvals ...any) {
	s.push(entry{level: log.WarnLevel, msg: msg, kv: keyvals})
}

// Dropped returns how many entries were discarded because the queue was full or closed.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close flushes queued entries and stops the writer. Later entries are dropped.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.entries)
	s.mu.Unlock()
	<-s.done
}
