package feed

import (
	"errors"
	"fmt"
)

// ErrNoEndpoint is matched by NoEndpointError via errors.Is.
var ErrNoEndpoint = errors.New("no endpoint for feed kind")

// NoEndpointError is returned when Services has no fetcher for a kind.
type NoEndpointError struct {
	Kind Kind
}

func (e *NoEndpointError) Error() string {
	return fmt.Sprintf("no endpoint for %s feed", e.Kind)
}

func (e *NoEndpointError) Is(target error) bool {
	return target == ErrNoEndpoint
}

// FetchOp names the timeline read that failed.
type FetchOp string

const (
	OpPoll FetchOp = "poll"
	OpPage FetchOp = "page"
)

// FetchError is a failed poll or page read. It is always transient:
// the next poll or the next LoadOlder simply tries again.
type FetchError struct {
	Op      FetchOp
	Context Context
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Context, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Action names a per-status call.
type Action string

const (
	ActionFavorite Action = "favorite"
	ActionShare    Action = "share"
	ActionAnnounce Action = "announce"
	ActionDelete   Action = "delete"
	ActionShares   Action = "shares"
)

// RejectionError is a per-status call the server refused or that never
// reached it. The status keeps its last confirmed state.
type RejectionError struct {
	Action   Action
	StatusID string
	Err      error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.StatusID, e.Err)
}

func (e *RejectionError) Unwrap() error { return e.Err }
