package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/tatami/internal/feed"
	"github.com/abelbrown/tatami/internal/otel"
	"github.com/abelbrown/tatami/internal/ui/command"
	"github.com/abelbrown/tatami/internal/status"
)

// scrollAhead is how close to the bottom the cursor gets before the
// next page is requested.
const scrollAhead = 3

// FeedLoader reads the first page of a context. It runs inside a tea.Cmd.
type FeedLoader func(fc feed.Context) ([]status.Status, error)

// ControllerFactory builds the controller for a freshly loaded context.
type ControllerFactory func(fc feed.Context, items []status.Status) (*feed.Controller, error)

// Options wires the App to the rest of the program.
type Options struct {
	Load      FeedLoader
	NewFeed   ControllerFactory
	Start     feed.Context // entered by Init when no initial controller is given
	Profile   status.Profile
	Ring      *otel.RingBuffer
	Events    *otel.Logger
	Theme     string // glamour style
	TimeBands bool
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the API client. It reaches the server only
// through the injected loader and the feed controller's commands.
type App struct {
	load    FeedLoader
	newFeed ControllerFactory
	ring    *otel.RingBuffer
	events  *otel.Logger
	profile status.Profile

	feed    *feed.Controller
	fc      feed.Context // current context, or the one being entered
	loading bool
	loadSeq uint64

	cursor    int
	width     int
	height    int
	ready     bool
	err       error
	confirmID string // status awaiting delete confirmation
	detail    bool
	overlay   bool
	timeBands bool

	palette command.Palette
	spinner spinner.Model
	help    help.Model
	md      *markdown
}

// NewApp creates the root model around initial, which may be nil.
func NewApp(opts Options, initial *feed.Controller) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	a := App{
		load:      opts.Load,
		newFeed:   opts.NewFeed,
		ring:      opts.Ring,
		events:    opts.Events,
		profile:   opts.Profile,
		feed:      initial,
		fc:        opts.Start,
		timeBands: opts.TimeBands,
		palette:   command.New(),
		spinner:   s,
		help:      help.New(),
		md:        &markdown{theme: opts.Theme},
	}
	if initial != nil {
		a.fc = initial.Context()
	} else {
		a.loading = true
		a.loadSeq = 1
	}
	return a
}

// Init starts polling the initial feed, or enters the start context.
func (a App) Init() tea.Cmd {
	if a.feed == nil {
		return a.enterCmd(a.fc, a.loadSeq)
	}
	return tea.Batch(a.feed.Init(), tea.SetWindowTitle(a.feed.Title()))
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.palette.SetWidth(msg.Width)
		return a, nil

	case FeedLoaded:
		return a.handleFeedLoaded(msg)

	case feed.ReloadMsg:
		if msg.Context == a.fc {
			return a.enter(msg.Context)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.spinning() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Everything else belongs to the feed controller or the command bar.
	var cmds []tea.Cmd
	if a.palette.IsActive() {
		var cmd tea.Cmd
		a.palette, cmd, _ = a.palette.Update(msg)
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, a.forward(msg))
	return a, tea.Batch(cmds...)
}

// forward hands msg to the feed controller and picks up its new state.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	if a.feed == nil {
		return nil
	}
	cmd := a.feed.Update(msg)
	a.syncFeed()
	return cmd
}

func (a *App) syncFeed() {
	if a.feed == nil {
		return
	}
	if n := len(a.feed.Items()); a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
	if err := a.feed.Err(); err != nil {
		a.err = err
		a.feed.ClearErr()
	}
}

func (a App) handleFeedLoaded(msg FeedLoaded) (tea.Model, tea.Cmd) {
	if msg.seq != a.loadSeq {
		return a, nil // superseded by a later enter
	}
	a.loading = false
	if msg.Err != nil {
		a.err = fmt.Errorf("load %s: %w", msg.Context, msg.Err)
		a.events.Error(otel.KindError, "ui", a.err)
		a.restoreContext()
		return a, nil
	}
	if a.newFeed == nil {
		a.restoreContext()
		return a, nil
	}
	c, err := a.newFeed(msg.Context, msg.Items)
	if err != nil {
		a.err = err
		a.restoreContext()
		return a, nil
	}
	if a.feed != nil {
		a.feed.Close()
	}
	a.feed = c
	a.fc = c.Context()
	a.cursor = 0
	return a, tea.Batch(c.Init(), tea.SetWindowTitle(c.Title()))
}

// restoreContext points the header back at the feed still on screen
// after a failed enter.
func (a *App) restoreContext() {
	if a.feed != nil {
		a.fc = a.feed.Context()
	}
}

// enter loads fc. The current feed keeps running until the new one is
// built, so a failed load leaves it usable.
func (a App) enter(fc feed.Context) (tea.Model, tea.Cmd) {
	a.loadSeq++
	a.loading = true
	a.fc = fc
	a.detail = false
	a.confirmID = ""
	return a, a.enterCmd(fc, a.loadSeq)
}

func (a App) enterCmd(fc feed.Context, seq uint64) tea.Cmd {
	if a.load == nil {
		return nil
	}
	load := a.load
	return tea.Batch(func() tea.Msg {
		items, err := load(fc)
		return FeedLoaded{Context: fc, Items: items, Err: err, seq: seq}
	}, a.spinner.Tick)
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.palette.IsActive() {
		return a.handleCommandKey(msg)
	}
	if a.confirmID != "" {
		return a.handleConfirmKey(msg)
	}

	// Clear any existing error on key press
	a.err = nil

	switch {
	case key.Matches(msg, keys.Quit):
		if a.feed != nil {
			a.feed.Close()
		}
		return a, tea.Quit

	case key.Matches(msg, keys.Escape):
		a.detail = false
		a.overlay = false
		return a, nil

	case key.Matches(msg, keys.Help):
		a.overlay = !a.overlay
		return a, nil

	case key.Matches(msg, keys.Down):
		cmd := a.move(1)
		return a, cmd

	case key.Matches(msg, keys.Up):
		cmd := a.move(-1)
		return a, cmd

	case key.Matches(msg, keys.Top):
		a.cursor = 0
		return a, nil

	case key.Matches(msg, keys.Bottom):
		cmd := a.move(len(a.items()))
		return a, cmd

	case key.Matches(msg, keys.Accept):
		if a.feed == nil {
			return a, nil
		}
		cmd := a.feed.AcceptNewMessages()
		if cmd != nil {
			a.cursor = 0
		}
		return a, cmd

	case key.Matches(msg, keys.Command):
		return a, a.palette.Activate()

	case key.Matches(msg, keys.Reload):
		return a.enter(a.fc)

	case key.Matches(msg, keys.Home):
		return a.enter(feed.Home())

	case key.Matches(msg, keys.Mentions):
		return a.enter(feed.Mentions())

	case key.Matches(msg, keys.Company):
		return a.enter(feed.Company())
	}

	sel, ok := a.selected()
	if !ok {
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Favorite):
		return a, a.feed.ToggleFavorite(sel.ID)

	case key.Matches(msg, keys.Share):
		return a, a.feed.ToggleShare(sel.ID)

	case key.Matches(msg, keys.Announce):
		return a, a.feed.Announce(sel.ID)

	case key.Matches(msg, keys.Delete):
		a.confirmID = sel.ID
		return a, nil

	case key.Matches(msg, keys.Shares):
		return a, a.feed.LoadShares(sel.ID)

	case key.Matches(msg, keys.Detail):
		a.detail = !a.detail
		if a.detail {
			return a, a.feed.LoadShares(sel.ID)
		}
		return a, nil
	}

	return a, nil
}

func (a App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := a.confirmID
	a.confirmID = ""
	if msg.String() != "y" || a.feed == nil {
		return a, nil
	}
	return a, a.feed.Delete(id)
}

func (a App) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		line string
	)
	a.palette, cmd, line = a.palette.Update(msg)
	if line != "" {
		return a.runCommand(line)
	}
	return a, cmd
}

// runCommand handles a ":" line: "reload", "quit" or a feed context.
func (a App) runCommand(line string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(line) {
	case "":
		return a, nil
	case "reload", "refresh", "r":
		return a.enter(a.fc)
	case "quit", "exit", "q":
		if a.feed != nil {
			a.feed.Close()
		}
		return a, tea.Quit
	}

	fc, err := feed.ParseContext(line)
	if err != nil {
		a.err = err
		return a, nil
	}
	return a.enter(fc)
}

// move shifts the cursor and pages in history near the bottom.
func (a *App) move(delta int) tea.Cmd {
	n := len(a.items())
	if n == 0 {
		return nil
	}
	a.cursor = min(max(a.cursor+delta, 0), n-1)
	if a.cursor < n-scrollAhead || a.feed == nil {
		return nil
	}
	cmd := a.feed.LoadOlder()
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, a.spinner.Tick)
}

func (a App) items() []status.Status {
	if a.feed == nil {
		return nil
	}
	return a.feed.Items()
}

func (a App) selected() (status.Status, bool) {
	items := a.items()
	if a.cursor < 0 || a.cursor >= len(items) {
		return status.Status{}, false
	}
	return items[a.cursor], true
}

func (a App) spinning() bool {
	return a.loading || (a.feed != nil && a.feed.Busy())
}

func (a App) unread() int {
	if a.feed == nil || a.loading {
		return 0
	}
	return a.feed.Unread()
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := RenderHeader(a.label(), a.account(), a.unread(), a.width)
	banner := RenderNewBanner(a.unread(), a.width)
	footer := a.footer()
	bottom := a.bottomBar()

	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: " + a.err.Error() + " (press any key to dismiss)")
	}

	used := 0
	for _, part := range []string{header, banner, footer, errorBar, bottom} {
		if part != "" {
			used += lipgloss.Height(part)
		}
	}
	bodyHeight := max(a.height-used, 1)

	var body string
	sel, hasSel := a.selected()
	switch {
	case a.overlay:
		body = debugOverlay(a.ring, a.help.FullHelpView(keys.FullHelp()), a.width, bodyHeight)
	case a.detail && hasSel:
		body = renderDetail(a.md, sel, a.width)
	case a.loading && len(a.items()) == 0:
		body = HelpStyle.Render("Loading " + a.fc.Label() + "…")
	case a.feed == nil:
		body = HelpStyle.Render("Could not load " + a.fc.Label() + ". Press r to retry.")
	default:
		body = RenderStream(a.items(), a.cursor, a.width, bodyHeight, a.timeBands)
	}
	body = clampLines(strings.TrimRight(body, "\n"), bodyHeight)

	var parts []string
	for _, part := range []string{header, banner, body, footer, errorBar, bottom} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n")
}

func (a App) label() string {
	if a.loading {
		return a.fc.Label() + " (loading)"
	}
	return a.fc.Label()
}

func (a App) account() string {
	if a.profile.Username == "" {
		return ""
	}
	if name := a.profile.DisplayName(); name != a.profile.Username {
		return fmt.Sprintf("%s @%s", name, a.profile.Username)
	}
	return "@" + a.profile.Username
}

func (a App) footer() string {
	switch {
	case a.loading:
		return ""
	case a.feed != nil && a.feed.Busy():
		return EndMarker.Render(a.spinner.View() + " loading older statuses")
	case a.feed != nil && a.feed.End() && len(a.feed.Items()) > 0:
		return EndMarker.Render("end of timeline")
	}
	return ""
}

func (a App) bottomBar() string {
	switch {
	case a.palette.IsActive():
		return a.palette.View()
	case a.confirmID != "":
		return ConfirmBar.Width(a.width).Render("Delete this status? y/n")
	}
	hints := StatusBarText.Render(a.help.ShortHelpView(keys.ShortHelp()))
	if a.loading {
		hints = a.spinner.View() + " " + hints
	}
	return RenderStatusBar(a.cursor, len(a.items()), a.width, hints)
}

func clampLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Feed returns the active controller, nil before the first load.
func (a App) Feed() *feed.Controller {
	return a.feed
}

// Context returns the current or loading context.
func (a App) Context() feed.Context {
	return a.fc
}

// Loading reports a context load in flight.
func (a App) Loading() bool {
	return a.loading
}

// Err returns the error shown in the error bar.
func (a App) Err() error {
	return a.err
}
