// Package feed drives one visible timeline: it polls for newer statuses,
// pages backward through history and applies per-status actions.
//
// A Controller is a Bubble Tea sub-component. Its state only changes in
// Update and in the operation methods, which the host calls from its own
// Update, so there is never more than one goroutine touching it. Remote
// calls run as tea.Cmds and report back through messages stamped with the
// controller's instance id; results that arrive after Close, or that
// belong to a controller the host has already replaced, are dropped.
package feed

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/abelbrown/tatami/internal/logging"
	"github.com/abelbrown/tatami/internal/otel"
	"github.com/abelbrown/tatami/internal/status"
)

// DefaultPollInterval is the delay between the end of one poll and the
// start of the next.
const DefaultPollInterval = 20 * time.Second

const (
	defaultRequestTimeout = 15 * time.Second
	defaultPageSize       = 20
	defaultTitle          = "Tatami"
)

var lastID atomic.Uint64

// Config tunes a Controller. Zero fields take defaults.
type Config struct {
	PollInterval   time.Duration
	RequestTimeout time.Duration
	PageSize       int
	Title          string // window title without unread count
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		PollInterval:   DefaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
		PageSize:       defaultPageSize,
		Title:          defaultTitle,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	return c
}

// Controller owns the state of one feed view.
type Controller struct {
	id       uint64
	fc       Context
	fetcher  Fetcher
	statuses StatusService
	cfg      Config
	events   *otel.Logger

	// ctx parents every request and the poll timer; cancel runs on Close.
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	items   []status.Status // newest first
	pending []status.Status // polled but not yet shown
	cursor  status.Position // oldest position shown
	busy    bool            // page read in flight
	end     bool            // a page read came back empty
	err     error           // last surfaced failure

	poll     *pollTimer
	pollSeq  uint64
	polling  bool              // poll read in flight
	inflight map[string]Action // per-status calls in flight
}

// New builds a controller for fc seeded with the first page. The initial
// slice is copied. events may be nil.
func New(parent context.Context, fc Context, initial []status.Status, svc Services, cfg Config, events *otel.Logger) (*Controller, error) {
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	fetcher, err := svc.Timeline(fc.Kind)
	if err != nil {
		return nil, err
	}
	if svc.Statuses == nil {
		return nil, fmt.Errorf("feed %s: no status service", fc)
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		id:       lastID.Add(1),
		fc:       fc,
		fetcher:  fetcher,
		statuses: svc.Statuses,
		cfg:      cfg.withDefaults(),
		events:   events,
		ctx:      ctx,
		cancel:   cancel,
		items:    append([]status.Status(nil), initial...),
		inflight: make(map[string]Action),
	}

	c.end = len(c.items) == 0
	if !c.end {
		c.cursor = c.items[len(c.items)-1].Position
	}

	c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFeedEnter, Count: len(c.items), Cursor: string(c.cursor)})
	logging.Debug("feed entered", "feed", fc, "items", len(c.items))
	return c, nil
}

// Init schedules the first poll.
func (c *Controller) Init() tea.Cmd {
	return c.schedulePoll()
}

// Update applies results addressed to this controller. Other messages
// are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pollDueMsg:
		if !c.accepts(msg.feed, "poll.due") {
			return nil
		}
		if c.poll == nil || c.poll.seq != msg.seq {
			return nil // superseded by a manual poll
		}
		c.poll.stop()
		c.poll = nil
		return c.PollOnce()

	case pollResultMsg:
		if !c.accepts(msg.feed, "poll.result") {
			return nil
		}
		return c.handlePoll(msg)

	case pageResultMsg:
		if !c.accepts(msg.feed, "page.result") {
			return nil
		}
		c.handlePage(msg)
		return nil

	case actionResultMsg:
		if !c.accepts(msg.feed, "action.result") {
			return nil
		}
		return c.handleAction(msg)
	}
	return nil
}

// accepts is the "still active" guard every result passes before it may
// touch state.
func (c *Controller) accepts(feed uint64, what string) bool {
	if feed == c.id && !c.closed {
		return true
	}
	if feed == c.id {
		c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFeedStale, Msg: what})
	}
	return false
}

// Close cancels the scheduled poll and every request in flight. Safe to
// call more than once.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.poll.stop()
	c.poll = nil
	c.cancel()
	c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFeedClose, Count: len(c.items)})
	logging.Debug("feed closed", "feed", c.fc)
}

// PollOnce reads everything newer than the newest visible status now,
// replacing any scheduled poll. The next poll is scheduled when this one
// completes.
func (c *Controller) PollOnce() tea.Cmd {
	if c.closed || c.polling {
		return nil
	}
	c.poll.stop()
	c.poll = nil
	c.polling = true

	q := Query{Filter: c.fc.Filter()}
	if len(c.items) > 0 {
		q.Direction = DirSince
		q.Cursor = c.items[0].Position
	}
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPollStart, Cursor: string(q.Cursor)})

	id, fetcher, ctx, timeout := c.id, c.fetcher, c.ctx, c.cfg.RequestTimeout
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		start := time.Now()
		items, err := fetcher.Fetch(reqCtx, q)
		return pollResultMsg{feed: id, items: items, err: err, dur: time.Since(start)}
	}
}

func (c *Controller) handlePoll(msg pollResultMsg) tea.Cmd {
	c.polling = false
	next := c.schedulePoll()

	if msg.err != nil {
		err := &FetchError{Op: OpPoll, Context: c.fc, Err: msg.err}
		c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindPollError, Err: err.Error(), Dur: msg.dur})
		logging.Warn("poll failed", "feed", c.fc, "err", msg.err)
		return next
	}

	fresh := c.withoutVisible(msg.items)
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPollComplete, Count: len(fresh), Dur: msg.dur})
	if len(fresh) == 0 {
		return next
	}
	// Each poll reads from the visible top, so its result supersedes the
	// previous unaccepted batch.
	c.pending = fresh
	return tea.Batch(next, tea.SetWindowTitle(c.Title()))
}

// AcceptNewMessages moves the polled batch to the top of the feed,
// keeping its order, and resets the unread count. No-op when nothing is
// pending.
func (c *Controller) AcceptNewMessages() tea.Cmd {
	if len(c.pending) == 0 {
		return nil
	}
	fresh := c.withoutVisible(c.pending)
	c.pending = nil

	merged := make([]status.Status, 0, len(fresh)+len(c.items))
	merged = append(merged, fresh...)
	merged = append(merged, c.items...)
	c.items = merged

	// A feed that started empty gets a cursor from its first batch.
	if c.cursor == "" && len(c.items) > 0 {
		c.cursor = c.items[len(c.items)-1].Position
		c.end = false
	}

	c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFeedAccept, Count: len(fresh)})
	return tea.SetWindowTitle(c.Title())
}

// LoadOlder reads the page before the oldest visible status. It does
// nothing while a page read is in flight or once the end was reached.
func (c *Controller) LoadOlder() tea.Cmd {
	if c.closed || c.busy || c.end {
		return nil
	}
	c.busy = true

	q := Query{
		Filter:    c.fc.Filter(),
		Direction: DirBefore,
		Cursor:    c.cursor,
		Count:     c.cfg.PageSize,
	}
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPageStart, Cursor: string(q.Cursor)})

	id, fetcher, ctx, timeout := c.id, c.fetcher, c.ctx, c.cfg.RequestTimeout
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		start := time.Now()
		items, err := fetcher.Fetch(reqCtx, q)
		return pageResultMsg{feed: id, cursor: q.Cursor, items: items, err: err, dur: time.Since(start)}
	}
}

func (c *Controller) handlePage(msg pageResultMsg) {
	c.busy = false

	switch {
	case msg.err != nil:
		err := &FetchError{Op: OpPage, Context: c.fc, Err: msg.err}
		c.err = err
		c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindPageError, Cursor: string(msg.cursor), Err: err.Error(), Dur: msg.dur})
		logging.Warn("page failed", "feed", c.fc, "cursor", msg.cursor, "err", msg.err)

	case len(msg.items) == 0:
		c.end = true
		c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPageEnd, Cursor: string(msg.cursor), Dur: msg.dur})

	default:
		older := c.withoutVisible(msg.items)
		c.items = append(c.items, older...)
		// The cursor follows the page even when every entry was already
		// shown, so the next read moves past it.
		c.cursor = msg.items[len(msg.items)-1].Position
		c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPageComplete, Count: len(older), Cursor: string(c.cursor), Dur: msg.dur})
	}
}

// ToggleFavorite flips the favorite flag of status id on the server and
// then locally.
func (c *Controller) ToggleFavorite(id string) tea.Cmd {
	item, ok := c.find(id)
	if !ok {
		return nil
	}
	return c.update(ActionFavorite, id, status.FavoritePatch(!item.Favorite))
}

// ToggleShare flips the shared-by-me flag of status id.
func (c *Controller) ToggleShare(id string) tea.Cmd {
	item, ok := c.find(id)
	if !ok {
		return nil
	}
	return c.update(ActionShare, id, status.SharePatch(!item.SharedByMe))
}

// Announce announces status id. On success the host receives a
// ReloadMsg for this feed's context.
func (c *Controller) Announce(id string) tea.Cmd {
	if _, ok := c.find(id); !ok {
		return nil
	}
	return c.update(ActionAnnounce, id, status.AnnouncePatch())
}

func (c *Controller) update(action Action, id string, patch status.Patch) tea.Cmd {
	if !c.begin(action, id) {
		return nil
	}
	feedID, svc, ctx, timeout := c.id, c.statuses, c.ctx, c.cfg.RequestTimeout
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		item, err := svc.Update(reqCtx, id, patch)
		return actionResultMsg{feed: feedID, action: action, id: id, item: item, err: err}
	}
}

// Delete removes status id on the server, then from the feed. The status
// stays visible until the server confirms.
func (c *Controller) Delete(id string) tea.Cmd {
	if _, ok := c.find(id); !ok {
		return nil
	}
	if !c.begin(ActionDelete, id) {
		return nil
	}
	feedID, svc, ctx, timeout := c.id, c.statuses, c.ctx, c.cfg.RequestTimeout
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := svc.Delete(reqCtx, id)
		return actionResultMsg{feed: feedID, action: ActionDelete, id: id, err: err}
	}
}

// LoadShares fetches who shared status id. It is skipped when the list
// is already loaded or the status type has no share list.
func (c *Controller) LoadShares(id string) tea.Cmd {
	item, ok := c.find(id)
	if !ok || item.SharesLoaded() || !item.SupportsShares() {
		return nil
	}
	if !c.begin(ActionShares, id) {
		return nil
	}
	feedID, svc, ctx, timeout := c.id, c.statuses, c.ctx, c.cfg.RequestTimeout
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		shares, err := svc.Shares(reqCtx, id)
		return actionResultMsg{feed: feedID, action: ActionShares, id: id, shares: shares, err: err}
	}
}

// begin marks a per-status call in flight; one call per status at a time.
func (c *Controller) begin(action Action, id string) bool {
	if c.closed {
		return false
	}
	if _, busy := c.inflight[id]; busy {
		return false
	}
	c.inflight[id] = action
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindActionStart, Action: string(action), StatusID: id})
	return true
}

func (c *Controller) handleAction(msg actionResultMsg) tea.Cmd {
	delete(c.inflight, msg.id)

	if msg.err != nil {
		err := &RejectionError{Action: msg.action, StatusID: msg.id, Err: msg.err}
		c.err = err
		c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindActionReject, Action: string(msg.action), StatusID: msg.id, Err: msg.err.Error()})
		logging.Warn("action rejected", "action", msg.action, "status", msg.id, "err", msg.err)
		return nil
	}
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindActionComplete, Action: string(msg.action), StatusID: msg.id})

	// The status may have moved or gone while the call was in flight.
	i := c.indexOf(msg.id)

	switch msg.action {
	case ActionFavorite:
		if i >= 0 {
			c.items[i].Favorite = msg.item.Favorite
		}
	case ActionShare:
		if i >= 0 {
			c.items[i].SharedByMe = msg.item.SharedByMe
		}
	case ActionShares:
		if i >= 0 {
			shares := msg.shares
			if shares == nil {
				shares = []string{}
			}
			c.items[i].Shares = shares
		}
	case ActionDelete:
		if i >= 0 {
			// Fresh slice: Items() results already handed out stay intact.
			c.items = slices.Delete(slices.Clone(c.items), i, i+1)
		}
	case ActionAnnounce:
		fc := c.fc
		return func() tea.Msg { return ReloadMsg{Context: fc} }
	}
	return nil
}

func (c *Controller) find(id string) (status.Status, bool) {
	item, _, ok := lo.FindIndexOf(c.items, func(s status.Status) bool { return s.ID == id })
	return item, ok
}

func (c *Controller) indexOf(id string) int {
	_, i, _ := lo.FindIndexOf(c.items, func(s status.Status) bool { return s.ID == id })
	return i
}

// withoutVisible drops entries already in the feed.
func (c *Controller) withoutVisible(batch []status.Status) []status.Status {
	if len(c.items) == 0 {
		return batch
	}
	seen := lo.SliceToMap(c.items, func(s status.Status) (string, struct{}) { return s.ID, struct{}{} })
	return lo.Filter(batch, func(s status.Status, _ int) bool {
		_, dup := seen[s.ID]
		return !dup
	})
}

func (c *Controller) emit(e otel.Event) {
	if c.events == nil {
		return
	}
	e.Comp = "feed"
	e.Feed = c.fc.String()
	c.events.Emit(e)
}

// Context is the feed's routing context.
func (c *Controller) Context() Context { return c.fc }

// Items returns the visible feed, newest first. Do not modify it.
func (c *Controller) Items() []status.Status { return c.items }

// Pending returns the polled statuses awaiting AcceptNewMessages.
func (c *Controller) Pending() []status.Status { return c.pending }

// Unread is the number of pending statuses.
func (c *Controller) Unread() int { return len(c.pending) }

// Busy reports a page read in flight.
func (c *Controller) Busy() bool { return c.busy }

// End reports that history is exhausted.
func (c *Controller) End() bool { return c.end }

// Cursor is the position of the oldest visible status.
func (c *Controller) Cursor() status.Position { return c.cursor }

// Closed reports whether Close has run.
func (c *Controller) Closed() bool { return c.closed }

// InFlight reports whether a per-status call for id is running.
func (c *Controller) InFlight(id string) bool {
	_, ok := c.inflight[id]
	return ok
}

// Err is the last page or action failure, until ClearErr.
func (c *Controller) Err() error { return c.err }

// ClearErr forgets the last failure once the host has shown it.
func (c *Controller) ClearErr() { c.err = nil }

// Title is the window title: "Tatami" or "Tatami (N)" with N unread.
func (c *Controller) Title() string {
	if n := len(c.pending); n > 0 {
		return fmt.Sprintf("%s (%d)", c.cfg.Title, n)
	}
	return c.cfg.Title
}
