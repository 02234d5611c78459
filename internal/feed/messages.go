package feed

import (
	"time"

	"github.com/abelbrown/tatami/internal/status"
)

// Messages below are addressed to one controller instance through the
// feed field. The host forwards every message to Controller.Update,
// which drops anything addressed to another or a closed instance.

// pollDueMsg fires when the scheduled poll delay has elapsed.
type pollDueMsg struct {
	feed uint64
	seq  uint64
}

// pollResultMsg carries the outcome of a "since newest" read.
type pollResultMsg struct {
	feed  uint64
	items []status.Status
	err   error
	dur   time.Duration
}

// pageResultMsg carries the outcome of a "before oldest" read.
type pageResultMsg struct {
	feed   uint64
	cursor status.Position
	items  []status.Status
	err    error
	dur    time.Duration
}

// actionResultMsg carries the outcome of a per-status call.
type actionResultMsg struct {
	feed   uint64
	action Action
	id     string
	item   status.Status // Update response for favorite/share/announce
	shares []string      // share list for ActionShares
	err    error
}

// ReloadMsg asks the host to re-enter Context with a fresh first page.
// The controller emits it after a successful announce.
type ReloadMsg struct {
	Context Context
}
