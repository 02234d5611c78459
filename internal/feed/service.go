package feed

import (
	"context"

	"github.com/abelbrown/tatami/internal/status"
)

// Direction says which side of the cursor a query reads.
type Direction int

const (
	// DirNone fetches the latest page.
	DirNone Direction = iota
	// DirSince fetches entries strictly newer than the cursor.
	DirSince
	// DirBefore fetches entries strictly older than the cursor.
	DirBefore
)

func (d Direction) String() string {
	switch d {
	case DirSince:
		return "since"
	case DirBefore:
		return "before"
	}
	return "latest"
}

// Query is one timeline read.
type Query struct {
	Filter    Filter
	Direction Direction
	Cursor    status.Position // empty when Direction is DirNone
	Count     int             // 0 lets the server pick
}

// Fetcher reads one kind of timeline.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]status.Status, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, q Query) ([]status.Status, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, q Query) ([]status.Status, error) {
	return f(ctx, q)
}

// StatusService performs per-status calls.
type StatusService interface {
	Update(ctx context.Context, id string, patch status.Patch) (status.Status, error)
	Delete(ctx context.Context, id string) error
	Shares(ctx context.Context, id string) ([]string, error)
}

// Services bundles the remote collaborators a controller needs.
// Timelines maps every supported Kind to its endpoint.
type Services struct {
	Timelines map[Kind]Fetcher
	Statuses  StatusService
}

// Timeline returns the fetcher wired for kind.
func (s Services) Timeline(kind Kind) (Fetcher, error) {
	f, ok := s.Timelines[kind]
	if !ok || f == nil {
		return nil, &NoEndpointError{Kind: kind}
	}
	return f, nil
}
