package trending

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abelbrown/marquee/internal/logging"
	"github.com/abelbrown/marquee/internal/otel"
	"github.com/abelbrown/marquee/internal/tmdb"
)

type recordCall struct {
	query   string
	movieID int64
}

// fakeStore records calls and fails when err is set.
type fakeStore struct {
	entries []Entry
	err     error
	calls   []recordCall
}

func (f *fakeStore) List(context.Context) ([]Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func (f *fakeStore) Record(_ context.Context, query string, movie tmdb.Movie) error {
	f.calls = append(f.calls, recordCall{query, movie.ID})
	return f.err
}

func TestBestEffortPassesThrough(t *testing.T) {
	store := &fakeStore{entries: []Entry{{MovieID: 1, Title: "Heat", Count: 4}}}
	b := NewBestEffort(store, nil, nil)

	top := b.Top(context.Background())
	if len(top) != 1 || top[0].Title != "Heat" {
		t.Errorf("Top() = %+v", top)
	}

	b.Record(context.Background(), "heat", tmdb.Movie{ID: 1})
	if len(store.calls) != 1 || store.calls[0] != (recordCall{"heat", 1}) {
		t.Errorf("calls = %+v", store.calls)
	}
}

func TestBestEffortSwallowsErrors(t *testing.T) {
	var logBuf, evBuf bytes.Buffer
	events := otel.NewLogger(&evBuf)
	store := &fakeStore{err: errors.New("appwrite down")}
	b := NewBestEffort(store, logging.New(&logBuf, "info"), events)

	if top := b.Top(context.Background()); top != nil {
		t.Errorf("Top() = %+v, want nil on error", top)
	}
	b.Record(context.Background(), "q", tmdb.Movie{ID: 9})
	b.Record(context.Background(), "q", tmdb.Movie{ID: 9})
	events.Close()

	if n := strings.Count(logBuf.String(), "trending store unavailable"); n != 1 {
		t.Errorf("expected 1 throttled warning, got %d:\n%s", n, logBuf.String())
	}
	if n := strings.Count(evBuf.String(), `"kind":"trending.error"`); n != 3 {
		t.Errorf("expected 3 trending.error events, got %d:\n%s", n, evBuf.String())
	}
}

func TestBestEffortNilStore(t *testing.T) {
	b := NewBestEffort(nil, nil, nil)
	if top := b.Top(context.Background()); len(top) != 0 {
		t.Errorf("Top() = %+v", top)
	}
	b.Record(context.Background(), "q", tmdb.Movie{ID: 1})
}

func TestBestEffortOverSQLite(t *testing.T) {
	st := openMem(t, 5)
	b := NewBestEffort(st, nil, nil)
	ctx := context.Background()

	b.Record(ctx, "batman", tmdb.Movie{ID: 1, Title: "Batman"})
	b.Record(ctx, "batman", tmdb.Movie{ID: 1, Title: "Batman"})

	top := b.Top(ctx)
	if len(top) != 1 || top[0].Count != 2 {
		t.Errorf("Top() = %+v", top)
	}
}
