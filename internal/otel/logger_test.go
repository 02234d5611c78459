package otel

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for i, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %d: invalid JSON: %v", i, err)
		}
		out = append(out, m)
	}
	return out
}

func TestEmitWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Kind: KindPollComplete, Level: LevelInfo, Comp: "feed", Feed: "tag:go", Count: 2})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["kind"] != "poll.complete" {
		t.Errorf("kind = %v, want poll.complete", got["kind"])
	}
	if got["feed"] != "tag:go" {
		t.Errorf("feed = %v, want tag:go", got["feed"])
	}
	if got["count"] != float64(2) {
		t.Errorf("count = %v, want 2", got["count"])
	}
	if got["session_id"] != l.SessionID() {
		t.Errorf("session_id = %v, want %s", got["session_id"], l.SessionID())
	}
}

func TestDurationWrittenAsMillis(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindPageComplete, Dur: 250 * time.Millisecond})
	l.Close()

	lines := decodeLines(t, &buf)
	if lines[0]["dur_ms"] != float64(250) {
		t.Errorf("dur_ms = %v, want 250", lines[0]["dur_ms"])
	}
}

func TestEmptyFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	line := buf.String()
	for _, field := range []string{"dur_ms", "count", "feed", "status_id", "cursor", "err", "msg", "extra"} {
		if strings.Contains(line, `"`+field+`"`) {
			t.Errorf("field %q should be omitted: %s", field, line)
		}
	}
}

func TestHelpersSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info(KindStartup, "main", "hello")
	l.Warn(KindPollError, "feed", "slow")
	l.Error(KindActionReject, "feed", errors.New("403"))
	l.Error(KindError, "main", nil)
	l.Close()

	lines := decodeLines(t, &buf)
	want := []string{"info", "warn", "error", "error"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i, level := range want {
		if lines[i]["level"] != level {
			t.Errorf("line %d: level = %v, want %s", i, lines[i]["level"], level)
		}
	}
	if lines[2]["err"] != "403" {
		t.Errorf("err = %v, want 403", lines[2]["err"])
	}
}

func TestConcurrentEmitAndClose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Emit(Event{Kind: KindPollStart})
		}()
	}
	wg.Wait()
	l.Close()
	l.Close()

	if got := len(decodeLines(t, &buf)); got != 50 {
		t.Errorf("got %d lines, want 50", got)
	}

	// After Close, Emit is a counted drop, not a panic.
	l.Emit(Event{Kind: KindPollStart})
	if l.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", l.Dropped())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.Info(KindStartup, "main", "x")
	l.Close()
}

type gateWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (w *gateWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return len(p), nil
}

func TestFullQueueDrops(t *testing.T) {
	w := &gateWriter{entered: make(chan struct{}), release: make(chan struct{})}
	l := NewLogger(w)

	l.Emit(Event{Kind: KindPollStart})
	<-w.entered

	for i := 0; i < queueSize+5; i++ {
		l.Emit(Event{Kind: KindPollStart})
	}
	if l.Dropped() == 0 {
		t.Error("expected drops once the queue is full")
	}

	close(w.release)
	l.Close()
}
