// Package otel records what the feed machinery does as typed events.
//
// Events are written as JSONL by an async Logger. A RingBuffer attached to
// the Logger keeps the most recent events in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level is the event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind is "<subsystem>.<action>".
type EventKind string

const (
	KindPollStart    EventKind = "poll.start"
	KindPollComplete EventKind = "poll.complete"
	KindPollError    EventKind = "poll.error"

	KindPageStart    EventKind = "page.start"
	KindPageComplete EventKind = "page.complete"
	KindPageEnd      EventKind = "page.end"
	KindPageError    EventKind = "page.error"

	KindActionStart    EventKind = "action.start"
	KindActionComplete EventKind = "action.complete"
	KindActionReject   EventKind = "action.reject"

	KindFeedEnter  EventKind = "feed.enter"
	KindFeedAccept EventKind = "feed.accept"
	KindFeedClose  EventKind = "feed.close"
	KindFeedStale  EventKind = "feed.stale" // message for a closed or replaced feed

	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is one JSONL line. Only Kind is required.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "feed", "api", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	Feed      string         `json:"feed,omitempty"` // feed context, e.g. "tag:go"
	StatusID  string         `json:"status_id,omitempty"`
	Action    string         `json:"action,omitempty"`
	Cursor    string         `json:"cursor,omitempty"`
	Count     int            `json:"count,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as dur_ms.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}
