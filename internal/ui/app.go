package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/marquee/internal/debounce"
	"github.com/abelbrown/marquee/internal/otel"
	"github.com/abelbrown/marquee/internal/search"
)

// DefaultDebounce is the quiet period before a query is searched.
const DefaultDebounce = 500 * time.Millisecond

// Options tune an App. The zero value is usable.
type Options struct {
	Debounce  time.Duration
	Events    *otel.Logger
	Recent    *otel.Recent
	Scheduler debounce.Scheduler
	Now       func() time.Time
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the TMDB client or the trending store.
// It asks for work through injected commands and gets results as messages.
type App struct {
	search       func(gen uint64, query string) tea.Cmd
	loadTrending func() tea.Cmd

	events *otel.Logger
	recent *otel.Recent
	now    func() time.Time

	input    textinput.Model
	spinner  spinner.Model
	debounce debounce.Debouncer[string]
	state    search.State

	width     int
	height    int
	ready     bool
	showDebug bool
}

// NewApp creates an App.
// runSearch: returns a Cmd that fetches query and reports SearchFinished
// loadTrending: returns a Cmd that reads the trending rail and reports TrendingLoaded
func NewApp(runSearch func(gen uint64, query string) tea.Cmd, loadTrending func() tea.Cmd, opts Options) App {
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	d := debounce.New[string](delay)
	if opts.Scheduler != nil {
		d = d.WithScheduler(opts.Scheduler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ti := textinput.New()
	ti.Placeholder = "Search through thousands of movies"
	ti.Prompt = "🔍 "
	ti.CharLimit = 120
	ti.Focus()

	// The first fetch is the empty-query discover listing. Init can't
	// return a model, so its generation is begun here.
	var state search.State
	if runSearch != nil {
		state, _ = state.Begin("")
	}

	return App{
		search:       runSearch,
		loadTrending: loadTrending,
		events:       opts.Events,
		recent:       opts.Recent,
		now:          now,
		input:        ti,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		debounce:     d,
		state:        state,
	}
}

// Init issues the initial discover fetch and the one-time trending read.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if a.loadTrending != nil {
		cmds = append(cmds, a.loadTrending())
	}
	if a.search != nil {
		cmds = append(cmds, a.search(a.state.Generation, a.state.Effective), a.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindMsgReceived,
			Comp:  "ui",
			Msg:   fmt.Sprintf("%T", msg),
		})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case debounce.Msg[string]:
		if !a.debounce.Settled(msg) || msg.Value == a.state.Effective {
			return a, nil
		}
		return a.begin(msg.Value)

	case SearchFinished:
		if a.state.Stale(msg.Outcome) {
			a.events.Emit(otel.Event{
				Level:      otel.LevelDebug,
				Kind:       otel.KindSearchStale,
				Comp:       "ui",
				Generation: msg.Outcome.Generation,
				Query:      msg.Outcome.Query,
			})
			return a, nil
		}
		a.state = a.state.Complete(msg.Outcome)
		return a, nil

	case TrendingLoaded:
		a.state = a.state.WithTrending(msg.Entries)
		return a, nil

	case spinner.TickMsg:
		// Let the tick chain lapse while idle; begin restarts it.
		if !a.state.Loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return a, tea.Quit

	case "f2":
		a.showDebug = !a.showDebug
		return a, nil

	case "ctrl+u":
		a.input.SetValue("")
		return a.queryChanged(nil)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a.queryChanged(cmd)
}

// queryChanged syncs the state with the search box and restarts the
// debounce window when the text moved.
func (a App) queryChanged(inputCmd tea.Cmd) (tea.Model, tea.Cmd) {
	q := a.input.Value()
	if q == a.state.Query {
		return a, inputCmd
	}
	a.state = a.state.WithQuery(q)

	var bump tea.Cmd
	a.debounce, bump = a.debounce.Bump(q)
	return a, tea.Batch(inputCmd, bump)
}

func (a App) begin(query string) (tea.Model, tea.Cmd) {
	var gen uint64
	a.state, gen = a.state.Begin(query)
	if a.search == nil {
		return a, nil
	}
	return a, tea.Batch(a.search(gen, query), a.spinner.Tick)
}

// View renders the UI.
func (a App) View() string {
	if a.showDebug && a.recent != nil {
		return debugOverlay(a.recent, a.viewWidth(), a.viewHeight(), a.now()) + "\n" + debugStatusBar(a.viewWidth())
	}
	return Render(a.Frame())
}

// Frame captures what the screen shows right now.
func (a App) Frame() Frame {
	return Frame{
		State:     a.state,
		SearchBox: a.input.View(),
		Spinner:   a.spinner.View(),
		Width:     a.viewWidth(),
	}
}

func (a App) viewWidth() int {
	if !a.ready {
		return defaultWide
	}
	return a.width
}

func (a App) viewHeight() int {
	if !a.ready {
		return defaultHigh
	}
	return a.height
}

// State returns the current search state (for testing).
func (a App) State() search.State {
	return a.state
}
