// Package trending records which movies people search for and lists the
// most frequent ones.
//
// A Store owns both ranking and limit; callers never re-sort entries.
package trending

import (
	"context"
	"fmt"

	"github.com/abelbrown/marquee/internal/tmdb"
)

// DefaultLimit is how many entries List returns unless configured.
const DefaultLimit = 5

// Entry is one row of the trending rail.
type Entry struct {
	ID         string `json:"id"`
	SearchTerm string `json:"search_term"`
	MovieID    int64  `json:"movie_id"`
	Title      string `json:"title"`
	PosterURL  string `json:"poster_url"`
	Count      int    `json:"count"`
}

// Store is a trending backend.
type Store interface {
	// List returns the top entries ordered by count, highest first.
	List(ctx context.Context) ([]Entry, error)
	// Record counts one more occurrence of movie as the top result for
	// query, creating the entry when the movie has none yet.
	Record(ctx context.Context, query string, movie tmdb.Movie) error
}

// Nop is a Store that keeps nothing.
type Nop struct{}

func (Nop) List(context.Context) ([]Entry, error) { return nil, nil }

func (Nop) Record(context.Context, string, tmdb.Movie) error { return nil }

// StatusError is returned by remote stores on a non-2xx answer.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trending: %s returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

func entryFor(query string, movie tmdb.Movie) Entry {
	return Entry{
		SearchTerm: query,
		MovieID:    movie.ID,
		Title:      movie.Title,
		PosterURL:  movie.PosterURL(),
		Count:      1,
	}
}
