package trending

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/abelbrown/marquee/internal/logging"
	"github.com/abelbrown/marquee/internal/otel"
	"github.com/abelbrown/marquee/internal/tmdb"
)

// BestEffort wraps a Store so trending never breaks a search. Errors are
// logged and dropped; a failing backend logs at most once per interval.
type BestEffort struct {
	store  Store
	log    *log.Logger
	events *otel.Logger
	warn   *rate.Sometimes
}

// NewBestEffort wraps store. A nil store behaves like Nop.
func NewBestEffort(store Store, logger *log.Logger, events *otel.Logger) *BestEffort {
	if store == nil {
		store = Nop{}
	}
	return &BestEffort{
		store:  store,
		log:    logging.OrDiscard(logger),
		events: events,
		warn:   &rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// Top returns the current trending list, or nil if the store failed.
func (b *BestEffort) Top(ctx context.Context) []Entry {
	start := time.Now()
	entries, err := b.store.List(ctx)
	if err != nil {
		b.fail("list", err, 0)
		return nil
	}
	b.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindTrendingList,
		Comp:  "trending",
		Count: len(entries),
		Dur:   time.Since(start),
	})
	return entries
}

// Record counts movie as the top result for query.
func (b *BestEffort) Record(ctx context.Context, query string, movie tmdb.Movie) {
	start := time.Now()
	if err := b.store.Record(ctx, query, movie); err != nil {
		b.fail("record", err, movie.ID)
		return
	}
	b.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindTrendingRecord,
		Comp:    "trending",
		Query:   query,
		MovieID: movie.ID,
		Dur:     time.Since(start),
	})
}

func (b *BestEffort) fail(op string, err error, movieID int64) {
	b.events.Emit(otel.Event{
		Level:   otel.LevelWarn,
		Kind:    otel.KindTrendingError,
		Comp:    "trending",
		MovieID: movieID,
		Err:     err.Error(),
		Msg:     op,
	})
	b.warn.Do(func() {
		b.log.Warn("trending store unavailable", "op", op, "err", err)
	})
}
