// Package search holds the search screen state and the fetch that drives
// it.
//
// State is an immutable snapshot. Every transition returns a new value,
// so the TUI and the JSON API can share it without locking. Each fetch
// is tagged with a generation and only the latest one may land.
package search

import (
	"github.com/abelbrown/marquee/internal/tmdb"
	"github.com/abelbrown/marquee/internal/trending"
)

// User-facing messages. The underlying cause is logged, never shown.
const (
	MsgNoMovies    = "No movies found"
	MsgFetchFailed = "Hard time fetching your films. Try again later."
)

// Phase summarises what the results section should show.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseResults
	PhaseEmpty
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseResults:
		return "results"
	case PhaseEmpty:
		return "empty"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one fetch.
type Outcome struct {
	Generation uint64
	Query      string
	Movies     []tmdb.Movie
	Err        error
}

// State is the search screen at one instant.
type State struct {
	// Query is the raw text in the search box.
	Query string
	// Effective is the debounced query the last fetch was issued for.
	Effective    string
	Loading      bool
	ErrorMessage string
	Movies       []tmdb.Movie
	Trending     []trending.Entry
	Generation   uint64
}

// WithQuery returns a copy with the search box text set.
func (s State) WithQuery(q string) State {
	s.Query = q
	return s
}

// WithTrending returns a copy with the trending rail replaced.
func (s State) WithTrending(entries []trending.Entry) State {
	s.Trending = entries
	return s
}

// Begin starts a fetch for query and returns the generation the outcome
// must carry. The previous error is cleared; the previous movies stay
// until the outcome replaces them.
func (s State) Begin(query string) (State, uint64) {
	s.Generation++
	s.Effective = query
	s.Loading = true
	s.ErrorMessage = ""
	return s, s.Generation
}

// Complete applies o. Outcomes from an older generation are ignored.
func (s State) Complete(o Outcome) State {
	if o.Generation != s.Generation {
		return s
	}
	s.Loading = false
	switch {
	case o.Err != nil:
		s.Movies = nil
		s.ErrorMessage = MsgFetchFailed
	case len(o.Movies) == 0:
		s.Movies = nil
		s.ErrorMessage = MsgNoMovies
	default:
		s.Movies = o.Movies
		s.ErrorMessage = ""
	}
	return s
}

// Stale reports whether o belongs to a superseded fetch.
func (s State) Stale(o Outcome) bool {
	return o.Generation != s.Generation
}

// Phase reports the state of the results section.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Generation == 0:
		return PhaseIdle
	case s.ErrorMessage == MsgFetchFailed:
		return PhaseError
	case s.ErrorMessage == MsgNoMovies:
		return PhaseEmpty
	default:
		return PhaseResults
	}
}
