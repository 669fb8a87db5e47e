package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/marquee/internal/config"
	"github.com/abelbrown/marquee/internal/otel"
	"github.com/abelbrown/marquee/internal/search"
	"github.com/abelbrown/marquee/internal/tmdb"
	"github.com/abelbrown/marquee/internal/trending"
)

// deps is everything a command needs, built once from config.
type deps struct {
	client  *tmdb.Client
	store   trending.Store
	tracker *trending.BestEffort
	service *search.Service
	events  *otel.Logger
	recent  *otel.Recent

	closers []func() error
}

// wire builds the clients, the trending store and the event logger.
// Events go to events.jsonl in the log directory.
func wire(cfg *config.Config, logger *log.Logger) (*deps, error) {
	d := &deps{}

	eventsOut, err := openEvents(cfg.Log.Dir)
	if err != nil {
		logger.Warn("event log disabled", "err", err)
		eventsOut = io.Discard
	}
	if c, ok := eventsOut.(io.Closer); ok {
		d.closers = append(d.closers, c.Close)
	}
	d.events = otel.NewLogger(eventsOut)
	d.recent = otel.NewRecent(otel.DefaultRecentSize)
	d.events.Attach(d.recent)
	// Closers run in reverse, so the logger flushes before its file closes.
	d.closers = append(d.closers, func() error { d.events.Close(); return nil })

	store, closeStore, err := openStore(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	if closeStore != nil {
		d.closers = append(d.closers, closeStore)
	}
	d.store = store

	d.client = tmdb.NewClient(tmdb.Config{
		BaseURL:     cfg.TMDB.BaseURL,
		AccessToken: cfg.TMDB.AccessToken,
		APIKey:      cfg.TMDB.APIKey,
		Timeout:     cfg.TMDB.Timeout,
	})
	d.tracker = trending.NewBestEffort(store, logger, d.events)
	d.service = search.NewService(d.client, d.tracker, logger, d.events)
	return d, nil
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
	d.closers = nil
}

// openStore returns the configured trending backend and its closer.
func openStore(cfg *config.Config) (trending.Store, func() error, error) {
	switch cfg.Trending.Backend {
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.Trending.DBPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		st, err := trending.OpenSQLite(cfg.Trending.DBPath, cfg.Trending.Limit)
		if err != nil {
			return nil, nil, fmt.Errorf("open trending database: %w", err)
		}
		return st, st.Close, nil

	case config.BackendAppwrite:
		a := cfg.Trending.Appwrite
		return trending.NewAppwriteStore(trending.AppwriteConfig{
			Endpoint:     a.Endpoint,
			ProjectID:    a.ProjectID,
			APIKey:       a.APIKey,
			DatabaseID:   a.DatabaseID,
			CollectionID: a.CollectionID,
			Limit:        cfg.Trending.Limit,
			Timeout:      cfg.TMDB.Timeout,
		}), nil, nil

	case config.BackendNone:
		return trending.Nop{}, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown trending backend %q", cfg.Trending.Backend)
}

func openEvents(dir string) (io.Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	return f, nil
}
