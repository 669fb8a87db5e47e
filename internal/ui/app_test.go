package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/marquee/internal/otel"
	"github.com/abelbrown/marquee/internal/search"
	"github.com/abelbrown/marquee/internal/tmdb"
	"github.com/abelbrown/marquee/internal/trending"
)

type searchCall struct {
	gen   uint64
	query string
}

// mockCmd tracks which command functions were called.
type mockCmd struct {
	searches       []searchCall
	trendingCalled bool
	pending        []func(time.Time) tea.Msg
}

func (m *mockCmd) search(gen uint64, query string) tea.Cmd {
	m.searches = append(m.searches, searchCall{gen, query})
	return func() tea.Msg {
		return SearchFinished{Outcome: search.Outcome{Generation: gen, Query: query}}
	}
}

func (m *mockCmd) loadTrending() tea.Cmd {
	m.trendingCalled = true
	return func() tea.Msg {
		return TrendingLoaded{Entries: []trending.Entry{{MovieID: 1, Title: "Heat", Count: 3}}}
	}
}

// schedule captures debounce callbacks instead of starting timers. The
// returned Cmd stands in for the timer and delivers nothing.
func (m *mockCmd) schedule(_ time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	m.pending = append(m.pending, fn)
	return func() tea.Msg { return nil }
}

// flush delivers every captured debounce message in order.
func (m *mockCmd) flush(t *testing.T, app App) (App, []tea.Cmd) {
	t.Helper()
	var cmds []tea.Cmd
	for _, fn := range m.pending {
		model, cmd := app.Update(fn(time.Time{}))
		app = model.(App)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	m.pending = nil
	return app, cmds
}

func newTestApp(m *mockCmd) App {
	return NewApp(m.search, m.loadTrending, Options{Scheduler: m.schedule})
}

func typeText(t *testing.T, app App, s string) App {
	t.Helper()
	for _, r := range s {
		model, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		app = model.(App)
	}
	return app
}

func TestAppInit(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)

	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if !mock.trendingCalled {
		t.Error("Init should load trending")
	}
	if len(mock.searches) != 1 || mock.searches[0] != (searchCall{1, ""}) {
		t.Errorf("Init searches = %+v, want one discover for gen 1", mock.searches)
	}
	if !app.State().Loading {
		t.Error("app should start loading")
	}
}

func TestAppInitNilCommands(t *testing.T) {
	app := NewApp(nil, nil, Options{})
	app.Init()
	if app.State().Loading {
		t.Error("no search command means nothing is loading")
	}
}

func TestAppDebouncedTyping(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)
	app.Init()

	app = typeText(t, app, "bat")
	if app.State().Query != "bat" {
		t.Fatalf("Query = %q, want bat", app.State().Query)
	}
	if len(mock.searches) != 1 {
		t.Fatalf("typing must not search before the debounce settles: %+v", mock.searches)
	}
	if len(mock.pending) != 3 {
		t.Fatalf("expected 3 debounce ticks, got %d", len(mock.pending))
	}

	app, _ = mock.flush(t, app)
	if len(mock.searches) != 2 {
		t.Fatalf("expected exactly one debounced search, got %+v", mock.searches[1:])
	}
	if got := mock.searches[1]; got.query != "bat" || got.gen != 2 {
		t.Errorf("search = %+v, want gen 2 for bat", got)
	}
	if !app.State().Loading || app.State().Effective != "bat" {
		t.Errorf("state after settle: %+v", app.State())
	}
}

func TestAppSameEffectiveQueryDoesNotRefetch(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)

	app = typeText(t, app, "a")
	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	app = model.(App)
	app, _ = mock.flush(t, app)

	if len(mock.searches) != 0 {
		t.Errorf("settling back on the current query refetched: %+v", mock.searches)
	}
}

func TestAppSearchFinished(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)

	movies := []tmdb.Movie{{ID: 1, Title: "Batman"}, {ID: 2, Title: "Batman Returns"}}
	model, _ := app.Update(SearchFinished{Outcome: search.Outcome{Generation: 1, Movies: movies}})
	app = model.(App)

	if app.State().Loading || len(app.State().Movies) != 2 {
		t.Errorf("outcome not applied: %+v", app.State())
	}
}

func TestAppIgnoresStaleSearch(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)

	app = typeText(t, app, "x")
	app, _ = mock.flush(t, app) // gen 2 in flight

	stale := search.Outcome{Generation: 1, Movies: []tmdb.Movie{{ID: 99, Title: "Old"}}}
	model, _ := app.Update(SearchFinished{Outcome: stale})
	app = model.(App)
	if !app.State().Loading || len(app.State().Movies) != 0 {
		t.Errorf("stale outcome applied: %+v", app.State())
	}

	model, _ = app.Update(SearchFinished{Outcome: search.Outcome{Generation: 2, Err: errors.New("boom")}})
	app = model.(App)
	if app.State().ErrorMessage != search.MsgFetchFailed {
		t.Errorf("ErrorMessage = %q", app.State().ErrorMessage)
	}
}

func TestAppClearQuery(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)

	app = typeText(t, app, "alien")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	app = model.(App)

	if app.State().Query != "" {
		t.Errorf("Query = %q after ctrl+u", app.State().Query)
	}
	if cmd == nil {
		t.Error("clearing should schedule a debounce")
	}
	if len(mock.pending) != 6 {
		t.Errorf("expected 6 scheduled ticks, got %d", len(mock.pending))
	}
}

func TestAppQuit(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		app := newTestApp(&mockCmd{})
		_, cmd := app.Update(key)
		if cmd == nil {
			t.Fatalf("%s should quit", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not return tea.Quit", key)
		}
	}
}

func TestAppTrendingLoaded(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)

	model, _ := app.Update(mock.loadTrending()())
	app = model.(App)
	if len(app.State().Trending) != 1 {
		t.Fatalf("Trending = %+v", app.State().Trending)
	}
	if !strings.Contains(app.View(), "Trending Movies") {
		t.Error("view should show the trending rail")
	}
}

func TestAppWindowSize(t *testing.T) {
	app := newTestApp(&mockCmd{})
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = model.(App)
	if app.Frame().Width != 120 {
		t.Errorf("Frame().Width = %d", app.Frame().Width)
	}
}

func TestAppDebugToggle(t *testing.T) {
	recent := otel.NewRecent(16)
	recent.Add(otel.Event{Kind: otel.KindSearchStart, Time: time.Unix(0, 0), Query: "heat"})

	app := NewApp(nil, nil, Options{Recent: recent, Now: func() time.Time { return time.Unix(1, 0) }})
	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyF2})
	app = model.(App)

	// No WindowSizeMsg yet: the overlay still gets a usable height.
	view := app.View()
	if !strings.Contains(view, "Recent Events") {
		t.Error("f2 should show the events overlay")
	}
	if !strings.Contains(view, "q:heat") {
		t.Error("overlay should list the recent event")
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyF2})
	app = model.(App)
	if strings.Contains(app.View(), "Recent Events") {
		t.Error("second f2 should close the overlay")
	}
}

func TestAppViewHeightDefault(t *testing.T) {
	app := newTestApp(&mockCmd{})
	if got := app.viewHeight(); got != defaultHigh {
		t.Errorf("viewHeight() before resize = %d, want %d", got, defaultHigh)
	}
	model, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	app = model.(App)
	if got := app.viewHeight(); got != 50 {
		t.Errorf("viewHeight() = %d, want 50", got)
	}
}
