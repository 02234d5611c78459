package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/tatami/internal/feed"
	"github.com/abelbrown/tatami/internal/status"
)

// fakeServer stands in for the API client.
type fakeServer struct {
	mu       sync.Mutex
	timeline []status.Status // answer for every fetch
	fetchErr error
	loads    []feed.Context
	loadErr  error
	deleted  []string
}

func (s *fakeServer) Fetch(ctx context.Context, q feed.Query) ([]status.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline, s.fetchErr
}

func (s *fakeServer) Update(ctx context.Context, id string, p status.Patch) (status.Status, error) {
	out := status.Status{ID: id}
	if p.Favorite != nil {
		out.Favorite = *p.Favorite
	}
	if p.Shared != nil {
		out.SharedByMe = *p.Shared
	}
	return out, nil
}

func (s *fakeServer) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeServer) Shares(ctx context.Context, id string) ([]string, error) {
	return []string{"bob"}, nil
}

func (s *fakeServer) load(fc feed.Context) ([]status.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, fc)
	return []status.Status{makeStatus("fresh", "99")}, s.loadErr
}

func (s *fakeServer) services() feed.Services {
	timelines := make(map[feed.Kind]feed.Fetcher)
	for _, k := range []feed.Kind{feed.KindHome, feed.KindMentions, feed.KindCompany, feed.KindTag, feed.KindGroup, feed.KindProfile} {
		timelines[k] = s
	}
	return feed.Services{Timelines: timelines, Statuses: s}
}

func makeStatus(id, pos string) status.Status {
	return status.Status{
		ID:       id,
		Position: status.Position(pos),
		Type:     status.TypeStatus,
		Username: "user" + id,
		Content:  "status " + id,
		Date:     status.MillisOf(time.Now().Add(-time.Hour)),
	}
}

func newTestApp(t *testing.T, n int) (App, *fakeServer) {
	t.Helper()
	srv := &fakeServer{}
	factory := func(fc feed.Context, items []status.Status) (*feed.Controller, error) {
		c, err := feed.New(context.Background(), fc, items, srv.services(), feed.Config{PollInterval: time.Hour}, nil)
		if err == nil {
			t.Cleanup(c.Close)
		}
		return c, err
	}

	var items []status.Status
	for i := 0; i < n; i++ {
		items = append(items, makeStatus(fmt.Sprintf("s%d", i), fmt.Sprintf("%d", 100-i)))
	}
	c, err := factory(feed.Home(), items)
	if err != nil {
		t.Fatal(err)
	}

	app := NewApp(Options{Load: srv.load, NewFeed: factory, Profile: status.Profile{Username: "ada"}}, c)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return model.(App), srv
}

func press(t *testing.T, a App, keys string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, r := range keys {
		var model tea.Model
		model, cmd = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		a = model.(App)
	}
	return a, cmd
}

func send(a App, msg tea.Msg) (App, tea.Cmd) {
	model, cmd := a.Update(msg)
	return model.(App), cmd
}

// firstMsg runs cmd and returns the first message of a batch, which is
// the request; the rest are spinner ticks.
func firstMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		if len(batch) == 0 || batch[0] == nil {
			t.Fatal("empty batch")
		}
		return batch[0]()
	}
	return msg
}

func TestAppInitStartsPolling(t *testing.T) {
	app, _ := newTestApp(t, 3)
	if app.Init() == nil {
		t.Error("Init should schedule the first poll")
	}
}

func TestAppInitWithoutFeedLoadsStart(t *testing.T) {
	srv := &fakeServer{}
	app := NewApp(Options{Load: srv.load, Start: feed.Mentions()}, nil)
	if !app.Loading() {
		t.Error("app without a feed should start loading")
	}

	msg := firstMsg(t, app.Init())
	loaded, ok := msg.(FeedLoaded)
	if !ok {
		t.Fatalf("Init produced %T, want FeedLoaded", msg)
	}
	if loaded.Context != feed.Mentions() {
		t.Errorf("loaded %s, want mentions", loaded.Context)
	}
}

func TestAppNavigation(t *testing.T) {
	app, _ := newTestApp(t, 10)

	tests := []struct {
		keys string
		want int
	}{
		{"j", 1},
		{"k", 0},
		{"k", 0},
		{"jjj", 3},
		{"G", 9},
		{"j", 9},
		{"g", 0},
	}
	for _, tt := range tests {
		app, _ = press(t, app, tt.keys)
		if app.Cursor() != tt.want {
			t.Errorf("after %q cursor = %d, want %d", tt.keys, app.Cursor(), tt.want)
		}
	}

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := model.(App).Cursor(); got != 1 {
		t.Errorf("down arrow: cursor = %d, want 1", got)
	}
}

func TestAppScrollNearBottomLoadsOlder(t *testing.T) {
	app, _ := newTestApp(t, 6)

	app, cmd := press(t, app, "jj")
	if cmd != nil || app.Feed().Busy() {
		t.Fatal("paging started too early")
	}
	app, cmd = press(t, app, "j")
	if cmd == nil || !app.Feed().Busy() {
		t.Fatal("moving within three of the bottom should load older statuses")
	}

	// The guard makes further moves free.
	_, again := press(t, app, "j")
	if again != nil {
		t.Error("second page request while busy")
	}
}

func TestAppFavorite(t *testing.T) {
	app, _ := newTestApp(t, 3)
	app, _ = press(t, app, "j")

	app, cmd := press(t, app, "f")
	app, _ = send(app, firstMsg(t, cmd))

	items := app.Feed().Items()
	if !items[1].Favorite || items[0].Favorite || items[2].Favorite {
		t.Errorf("favorite flags = %v %v %v, want only the selected one", items[0].Favorite, items[1].Favorite, items[2].Favorite)
	}
}

func TestAppDeleteAsksFirst(t *testing.T) {
	app, srv := newTestApp(t, 3)

	app, cmd := press(t, app, "d")
	if cmd != nil {
		t.Fatal("delete should wait for confirmation")
	}
	if !strings.Contains(app.View(), "Delete this status? y/n") {
		t.Error("confirmation prompt not shown")
	}

	app, cmd = press(t, app, "n")
	if cmd != nil || len(app.Feed().Items()) != 3 {
		t.Fatal("declined delete went ahead")
	}

	app, _ = press(t, app, "d")
	app, cmd = press(t, app, "y")
	app, _ = send(app, firstMsg(t, cmd))

	if len(app.Feed().Items()) != 2 || app.Feed().Items()[0].ID != "s1" {
		t.Errorf("items after delete = %v", app.Feed().Items())
	}
	if len(srv.deleted) != 1 || srv.deleted[0] != "s0" {
		t.Errorf("deleted = %v, want [s0]", srv.deleted)
	}
}

func TestAppDeleteLastClampsCursor(t *testing.T) {
	app, _ := newTestApp(t, 2)
	app, _ = press(t, app, "G")
	app, _ = press(t, app, "d")
	app, cmd := press(t, app, "y")
	app, _ = send(app, firstMsg(t, cmd))

	if app.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", app.Cursor())
	}
}

func TestAppCommandEntersContext(t *testing.T) {
	app, srv := newTestApp(t, 3)
	old := app.Feed()

	app, _ = press(t, app, ":")
	app, _ = press(t, app, "tag go")
	app, cmd := send(app, tea.KeyMsg{Type: tea.KeyEnter})

	if old.Closed() {
		t.Error("old controller closed before the new context loaded")
	}
	if !app.Loading() || app.Context() != feed.Tag("go") {
		t.Fatalf("loading = %v context = %s", app.Loading(), app.Context())
	}

	app, cmd = send(app, firstMsg(t, cmd))
	if cmd == nil {
		t.Error("new feed should start polling")
	}
	if !old.Closed() {
		t.Error("old controller still open after the new context loaded")
	}
	if app.Loading() || app.Feed() == old || app.Feed().Context() != feed.Tag("go") {
		t.Fatalf("feed not replaced: loading = %v", app.Loading())
	}
	if len(srv.loads) != 1 || srv.loads[0] != feed.Tag("go") {
		t.Errorf("loads = %v", srv.loads)
	}
}

func TestAppCommandRunsBestMatch(t *testing.T) {
	app, _ := newTestApp(t, 1)
	app, _ = press(t, app, ":men")
	app, _ = send(app, tea.KeyMsg{Type: tea.KeyEnter})

	if !app.Loading() || app.Context() != feed.Mentions() {
		t.Errorf("loading = %v context = %s", app.Loading(), app.Context())
	}
}

func TestAppCommandRejectsUnknownFeed(t *testing.T) {
	app, _ := newTestApp(t, 1)
	app, _ = press(t, app, ":inbox")
	app, cmd := send(app, tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil || app.Err() == nil || app.Loading() {
		t.Errorf("cmd = %v err = %v loading = %v", cmd != nil, app.Err(), app.Loading())
	}
}

func TestAppCommandEscapeCancels(t *testing.T) {
	app, _ := newTestApp(t, 3)
	app, _ = press(t, app, ":tag")
	app, _ = send(app, tea.KeyMsg{Type: tea.KeyEsc})

	// Keys reach the feed again.
	app, _ = press(t, app, "j")
	if app.Cursor() != 1 || app.Loading() {
		t.Errorf("cursor = %d loading = %v", app.Cursor(), app.Loading())
	}
}

func TestAppStaleLoadIgnored(t *testing.T) {
	app, _ := newTestApp(t, 3)

	app, mentionsCmd := press(t, app, "2")
	app, _ = press(t, app, "3")

	app, _ = send(app, firstMsg(t, mentionsCmd))
	if !app.Loading() || app.Context() != feed.Company() {
		t.Errorf("stale mentions load applied: loading = %v context = %s", app.Loading(), app.Context())
	}
}

func TestAppReloadAfterAnnounce(t *testing.T) {
	app, srv := newTestApp(t, 2)

	app, _ = send(app, feed.ReloadMsg{Context: feed.Tag("other")})
	if app.Loading() {
		t.Error("reload for another context should be ignored")
	}

	app, cmd := send(app, feed.ReloadMsg{Context: feed.Home()})
	if !app.Loading() {
		t.Fatal("reload for the current context should re-enter it")
	}
	app, _ = send(app, firstMsg(t, cmd))
	if len(srv.loads) != 1 || srv.loads[0] != feed.Home() {
		t.Errorf("loads = %v", srv.loads)
	}
	if got := app.Feed().Items(); len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("items = %v", got)
	}
}

func TestAppLoadErrorShownAndCleared(t *testing.T) {
	app, srv := newTestApp(t, 1)
	srv.loadErr = errors.New("502 bad gateway")

	app, cmd := press(t, app, "r")
	app, _ = send(app, firstMsg(t, cmd))
	if app.Err() == nil || !strings.Contains(app.View(), "502 bad gateway") {
		t.Fatalf("load error not shown: %v", app.Err())
	}

	app, _ = press(t, app, "k")
	if app.Err() != nil {
		t.Error("key press should clear the error")
	}
}

func TestAppFailedEnterKeepsCurrentFeed(t *testing.T) {
	app, srv := newTestApp(t, 5)
	old := app.Feed()
	srv.loadErr = errors.New("503 service unavailable")

	app, cmd := press(t, app, "2")
	app, _ = send(app, firstMsg(t, cmd))

	if app.Loading() || app.Err() == nil {
		t.Fatalf("loading = %v err = %v", app.Loading(), app.Err())
	}
	if app.Feed() != old || old.Closed() {
		t.Fatalf("feed replaced or closed after failed load: closed = %v", old.Closed())
	}
	if app.Context() != feed.Home() {
		t.Errorf("context = %s, want home", app.Context())
	}
	if view := app.View(); !strings.Contains(view, "Home") || strings.Contains(view, "Mentions") {
		t.Errorf("header should name the feed on screen:\n%s", view)
	}

	// The feed still takes actions.
	app, cmd = press(t, app, "f")
	if cmd == nil {
		t.Error("favorite on the surviving feed returned no command")
	}
	if app.Err() != nil {
		t.Errorf("err = %v after key press", app.Err())
	}
}

func TestAppFailedFirstLoadSaysSo(t *testing.T) {
	srv := &fakeServer{loadErr: errors.New("connection refused")}
	app := NewApp(Options{Load: srv.load, Start: feed.Mentions()}, nil)
	app, _ = send(app, tea.WindowSizeMsg{Width: 100, Height: 30})

	app, _ = send(app, firstMsg(t, app.Init()))
	if app.Loading() || app.Feed() != nil {
		t.Fatalf("loading = %v feed = %v", app.Loading(), app.Feed())
	}
	app, _ = press(t, app, "j")
	if !strings.Contains(app.View(), "Could not load Mentions. Press r to retry.") {
		t.Errorf("View() = %q", app.View())
	}
}

func TestAppSurfacesPageFailure(t *testing.T) {
	app, srv := newTestApp(t, 2)
	srv.fetchErr = errors.New("timeout")

	app, cmd := press(t, app, "j")
	app, _ = send(app, firstMsg(t, cmd))

	var fe *feed.FetchError
	if !errors.As(app.Err(), &fe) || fe.Op != feed.OpPage {
		t.Errorf("Err() = %v, want page FetchError", app.Err())
	}
	if app.Feed().Busy() {
		t.Error("busy after failed page")
	}
}

func TestAppAcceptNewMessages(t *testing.T) {
	app, srv := newTestApp(t, 2)
	app, _ = press(t, app, "j")
	srv.timeline = []status.Status{makeStatus("n1", "200"), makeStatus("n2", "150")}

	app, _ = send(app, firstMsg(t, app.Feed().PollOnce()))
	view := app.View()
	if !strings.Contains(view, "2 new statuses, press n to show") {
		t.Errorf("banner missing:\n%s", view)
	}
	if !strings.Contains(view, "Home (2)") {
		t.Errorf("header count missing:\n%s", view)
	}

	app, _ = press(t, app, "n")
	if app.Cursor() != 0 || len(app.Feed().Items()) != 4 || app.Feed().Items()[0].ID != "n1" {
		t.Errorf("cursor = %d items = %v", app.Cursor(), app.Feed().Items())
	}
}

func TestAppDetailLoadsShares(t *testing.T) {
	app, _ := newTestApp(t, 1)

	app, cmd := send(app, tea.KeyMsg{Type: tea.KeyEnter})
	app, _ = send(app, firstMsg(t, cmd))

	if got := app.Feed().Items()[0].Shares; len(got) != 1 || got[0] != "bob" {
		t.Errorf("shares = %v", got)
	}
	if !strings.Contains(app.View(), "Shared by bob") {
		t.Errorf("detail pane missing share list:\n%s", app.View())
	}
}

func TestAppViewBeforeSize(t *testing.T) {
	app := NewApp(Options{}, nil)
	if app.View() != "Loading..." {
		t.Errorf("View() = %q", app.View())
	}
}

func TestAppQuitClosesFeed(t *testing.T) {
	app, _ := newTestApp(t, 1)
	app, cmd := press(t, app, "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not produce QuitMsg")
	}
	if !app.Feed().Closed() {
		t.Error("feed still open after quit")
	}
}
