// Package api serves the search flow as a small JSON API.
package api

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"

	"github.com/abelbrown/marquee/internal/logging"
	"github.com/abelbrown/marquee/internal/otel"
	"github.com/abelbrown/marquee/internal/search"
	"github.com/abelbrown/marquee/internal/tmdb"
	"github.com/abelbrown/marquee/internal/trending"
)

const (
	defaultEventCount = 50
	maxEventCount     = 500
)

// Deps are the collaborators the API needs. Only Search is required.
type Deps struct {
	Search      *search.Service
	Trending    *trending.BestEffort
	Recent      *otel.Recent
	Events      *otel.Logger
	Log         *log.Logger
	CORSOrigins []string
}

// Server holds the handlers.
type Server struct {
	search   *search.Service
	trending *trending.BestEffort
	recent   *otel.Recent
	events   *otel.Logger
	log      *log.Logger
	origins  []string
	gen      atomic.Uint64
}

// MoviesResponse is the body of GET /api/movies.
type MoviesResponse struct {
	Query   string       `json:"query"`
	Results []tmdb.Movie `json:"results"`
	Error   string       `json:"error"`
}

// TrendingResponse is the body of GET /api/trending.
type TrendingResponse struct {
	Results []trending.Entry `json:"results"`
}

// EventsResponse is the body of GET /api/events.
type EventsResponse struct {
	SessionID string                 `json:"session_id"`
	Counts    map[otel.EventKind]int `json:"counts"`
	Events    []otel.Event           `json:"events"`
}

// New creates a Server.
func New(d Deps) *Server {
	tracker := d.Trending
	if tracker == nil {
		tracker = trending.NewBestEffort(nil, d.Log, d.Events)
	}
	return &Server{
		search:   d.Search,
		trending: tracker,
		recent:   d.Recent,
		events:   d.Events,
		log:      logging.OrDiscard(d.Log),
		origins:  d.CORSOrigins,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/movies", s.handleMovies)
		r.Get("/trending", s.handleTrending)
		r.Get("/events", s.handleEvents)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleMovies runs one search. "No movies" is a 200 with the message in
// error; a failed fetch is a 502 with the generic message.
func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	// Requests share no state; the counter only numbers them in events.
	state := search.State{Generation: s.gen.Add(1) - 1}
	state, gen := state.Begin(query)

	out := s.search.Run(r.Context(), gen, query)
	state = state.Complete(out)

	resp := MoviesResponse{
		Query:   query,
		Results: state.Movies,
		Error:   state.ErrorMessage,
	}
	if resp.Results == nil {
		resp.Results = []tmdb.Movie{}
	}

	status := http.StatusOK
	if state.Phase() == search.PhaseError {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	entries := s.trending.Top(r.Context())
	if entries == nil {
		entries = []trending.Entry{}
	}
	writeJSON(w, http.StatusOK, TrendingResponse{Results: entries})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	n := defaultEventCount
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be a positive integer"})
			return
		}
		n = min(v, maxEventCount)
	}

	resp := EventsResponse{
		SessionID: s.events.SessionID(),
		Counts:    map[otel.EventKind]int{},
		Events:    []otel.Event{},
	}
	if s.recent != nil {
		resp.Counts = s.recent.Counts()
		if last := s.recent.Last(n); last != nil {
			resp.Events = last
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestLogger logs each request with charm log and emits an
// http.request event.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)

		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"dur", dur,
			"req_id", chimiddleware.GetReqID(r.Context()),
		)
		s.events.Emit(otel.Event{
			Level:  otel.LevelInfo,
			Kind:   otel.KindHTTPRequest,
			Comp:   "api",
			Path:   r.URL.Path,
			Query:  r.URL.Query().Get("query"),
			Status: status,
			Dur:    dur,
			Msg:    r.Method,
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
