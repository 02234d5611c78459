package otel

// The drain goroutine is the only reader of l.ch and the only writer to l.w.
// l.mu guards the ring pointer alone; drain drops it before pushing.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the async write queue.
const queueSize = 2048

type entry struct {
	line []byte
	ev   Event
}

// Logger writes events as JSONL from a background goroutine.
// Emit never blocks; events that do not fit are counted as dropped.
type Logger struct {
	mu        sync.Mutex
	ring      *RingBuffer
	sessionID string
	ch        chan entry
	w         io.Writer
	dropped   atomic.Uint64
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewLogger starts a Logger writing to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		sessionID: uuid.NewString(),
		ch:        make(chan entry, queueSize),
		w:         w,
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger discards output. It still needs Close.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) drain() {
	defer close(l.done)
	for e := range l.ch {
		if _, err := l.w.Write(e.line); err != nil {
			l.dropped.Add(1)
		}
		l.mu.Lock()
		ring := l.ring
		l.mu.Unlock()
		if ring != nil {
			ring.Push(e.ev)
		}
	}
}

// Emit stamps the event with time and session and queues it.
// Safe to call concurrently with Close: a send that loses the race is
// recovered and counted as dropped.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	select {
	case l.ch <- entry{line: line, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error event. A nil err is logged with an empty message.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	var s string
	if err != nil {
		s = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: s})
}

// SetRingBuffer mirrors every written event into ring.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	l.mu.Lock()
	l.ring = ring
	l.mu.Unlock()
}

// SessionID identifies this run in every event.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Dropped is the number of events lost so far.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close flushes queued events and stops the drain goroutine. Idempotent.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done
		if d := l.dropped.Load(); d > 0 {
			fmt.Fprintf(os.Stderr, "tatami: %d events dropped in session %s\n", d, l.sessionID)
		}
	})
}
