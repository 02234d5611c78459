// Package ui provides the Bubble Tea TUI for Tatami.
package ui

import (
	"github.com/abelbrown/tatami/internal/feed"
	"github.com/abelbrown/tatami/internal/status"
)

// FeedLoaded is sent when the first page of a context has been read.
// seq ties it to the enter that requested it; older loads are dropped.
type FeedLoaded struct {
	Context feed.Context
	Items   []status.Status
	Err     error
	seq     uint64
}

