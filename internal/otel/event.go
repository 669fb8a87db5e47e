// Package otel records structured search telemetry for Marquee.
//
// Events are typed structs written as JSONL lines by an async Logger.
// An optional Recent buffer keeps the latest events in memory so the
// JSON API can expose them for inspection.
package otel

import (
	"time"

	"github.com/goccy/go-json"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Search pipeline
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchEmpty    EventKind = "search.empty"
	KindSearchError    EventKind = "search.error"
	KindSearchStale    EventKind = "search.stale"

	// Trending store
	KindTrendingList   EventKind = "trending.list"
	KindTrendingRecord EventKind = "trending.record"
	KindTrendingError  EventKind = "trending.error"

	// JSON API
	KindHTTPRequest EventKind = "http.request"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// UI message tracing, only when MARQUEE_TRACE is set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal telemetry record. Every field except Kind and
// Time is optional.
type Event struct {
	Time       time.Time      `json:"t"`
	Level      Level          `json:"level,omitempty"`
	Kind       EventKind      `json:"kind"`
	Comp       string         `json:"comp,omitempty"` // "search", "trending", "ui", "api", "main"
	SessionID  string         `json:"session_id,omitempty"`
	Generation uint64         `json:"gen,omitempty"`
	Query      string         `json:"query,omitempty"`
	Count      int            `json:"count,omitempty"`
	MovieID    int64          `json:"movie_id,omitempty"`
	Status     int            `json:"status,omitempty"`
	Path       string         `json:"path,omitempty"`
	Dur        time.Duration  `json:"-"`
	DurMs      float64        `json:"dur_ms,omitempty"`
	Err        string         `json:"err,omitempty"`
	Msg        string         `json:"msg,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
