// Package ui provides the Bubble Tea TUI for Marquee.
package ui

import (
	"github.com/abelbrown/marquee/internal/search"
	"github.com/abelbrown/marquee/internal/trending"
)

// SearchFinished is sent when a fetch for some generation returns.
type SearchFinished struct {
	Outcome search.Outcome
}

// TrendingLoaded is sent once the trending rail has been read. A failed
// read arrives as an empty list.
type TrendingLoaded struct {
	Entries []trending.Entry
}
