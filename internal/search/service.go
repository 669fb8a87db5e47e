package search

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/marquee/internal/logging"
	"github.com/abelbrown/marquee/internal/otel"
	"github.com/abelbrown/marquee/internal/tmdb"
)

// MovieSource fetches movies for a query; "" means discover.
type MovieSource interface {
	Fetch(ctx context.Context, query string) ([]tmdb.Movie, error)
}

// Recorder counts a movie as the top result for a query. It must not
// fail the search, so it returns nothing.
type Recorder interface {
	Record(ctx context.Context, query string, movie tmdb.Movie)
}

// Service runs one fetch and, on a useful result, records the top movie
// as trending.
type Service struct {
	source   MovieSource
	recorder Recorder
	log      *log.Logger
	events   *otel.Logger
}

// NewService wires a fetch service. recorder, logger and events may be nil.
func NewService(source MovieSource, recorder Recorder, logger *log.Logger, events *otel.Logger) *Service {
	return &Service{
		source:   source,
		recorder: recorder,
		log:      logging.OrDiscard(logger),
		events:   events,
	}
}

// WithoutRecording returns a copy of s that never touches trending.
func (s *Service) WithoutRecording() *Service {
	c := *s
	c.recorder = nil
	return &c
}

// Run fetches query for generation gen. The returned Outcome carries the
// raw error; State.Complete maps it to the user-facing message.
func (s *Service) Run(ctx context.Context, gen uint64, query string) Outcome {
	start := time.Now()
	s.events.Emit(otel.Event{
		Level:      otel.LevelInfo,
		Kind:       otel.KindSearchStart,
		Comp:       "search",
		Generation: gen,
		Query:      query,
	})

	movies, err := s.source.Fetch(ctx, query)
	out := Outcome{Generation: gen, Query: query, Movies: movies, Err: err}

	switch {
	case err != nil:
		s.log.Error("error fetching movies", "query", query, "err", err)
		s.events.Emit(otel.Event{
			Level:      otel.LevelError,
			Kind:       otel.KindSearchError,
			Comp:       "search",
			Generation: gen,
			Query:      query,
			Err:        err.Error(),
			Dur:        time.Since(start),
		})
		return out

	case len(movies) == 0:
		s.log.Debug("no movies", "query", query)
		s.events.Emit(otel.Event{
			Level:      otel.LevelInfo,
			Kind:       otel.KindSearchEmpty,
			Comp:       "search",
			Generation: gen,
			Query:      query,
			Dur:        time.Since(start),
		})
		return out
	}

	s.log.Debug("movies fetched", "query", query, "count", len(movies))
	s.events.Emit(otel.Event{
		Level:      otel.LevelInfo,
		Kind:       otel.KindSearchComplete,
		Comp:       "search",
		Generation: gen,
		Query:      query,
		Count:      len(movies),
		Dur:        time.Since(start),
	})

	if query != "" && s.recorder != nil {
		s.recorder.Record(ctx, query, movies[0])
	}
	return out
}
