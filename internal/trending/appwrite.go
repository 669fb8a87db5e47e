package trending

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/abelbrown/marquee/internal/tmdb"
)

// AppwriteConfig locates a hosted Appwrite collection holding one
// document per trending movie.
type AppwriteConfig struct {
	Endpoint     string // e.g. https://cloud.appwrite.io/v1
	ProjectID    string
	APIKey       string
	DatabaseID   string
	CollectionID string
	Limit        int
	Timeout      time.Duration
}

// AppwriteStore talks to the Appwrite Databases REST API.
//
// Record is a read-then-write: concurrent records for the same movie
// from different processes can lose an increment.
type AppwriteStore struct {
	endpoint   string
	project    string
	apiKey     string
	database   string
	collection string
	limit      int
	client     *http.Client
	newID      func() string
}

// appwriteDocument is the collection schema.
type appwriteDocument struct {
	ID         string `json:"$id,omitempty"`
	SearchTerm string `json:"searchTerm"`
	Count      int    `json:"count"`
	MovieID    int64  `json:"movie_id"`
	Title      string `json:"title"`
	PosterURL  string `json:"poster_url"`
}

type appwriteDocumentList struct {
	Total     int                `json:"total"`
	Documents []appwriteDocument `json:"documents"`
}

type appwriteQuery struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// NewAppwriteStore creates a store for cfg.
func NewAppwriteStore(cfg AppwriteConfig) *AppwriteStore {
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AppwriteStore{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		project:    cfg.ProjectID,
		apiKey:     cfg.APIKey,
		database:   cfg.DatabaseID,
		collection: cfg.CollectionID,
		limit:      limit,
		client:     &http.Client{Timeout: timeout},
		newID:      uuid.NewString,
	}
}

// List returns the top documents ordered by count.
func (s *AppwriteStore) List(ctx context.Context) ([]Entry, error) {
	list, err := s.listDocuments(ctx,
		appwriteQuery{Method: "orderDesc", Attribute: "count"},
		appwriteQuery{Method: "limit", Values: []any{s.limit}},
	)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(list.Documents))
	for _, d := range list.Documents {
		entries = append(entries, Entry{
			ID:         d.ID,
			SearchTerm: d.SearchTerm,
			MovieID:    d.MovieID,
			Title:      d.Title,
			PosterURL:  d.PosterURL,
			Count:      d.Count,
		})
	}
	return entries, nil
}

// Record increments the document for movie, creating it when missing.
func (s *AppwriteStore) Record(ctx context.Context, query string, movie tmdb.Movie) error {
	list, err := s.listDocuments(ctx,
		appwriteQuery{Method: "equal", Attribute: "movie_id", Values: []any{movie.ID}},
		appwriteQuery{Method: "limit", Values: []any{1}},
	)
	if err != nil {
		return err
	}

	if len(list.Documents) > 0 {
		doc := list.Documents[0]
		patch := map[string]any{
			"data": map[string]any{
				"count":      doc.Count + 1,
				"searchTerm": query,
			},
		}
		return s.send(ctx, http.MethodPatch, s.documentsURL()+"/"+url.PathEscape(doc.ID), patch, nil)
	}

	e := entryFor(query, movie)
	create := map[string]any{
		"documentId": s.newID(),
		"data": appwriteDocument{
			SearchTerm: e.SearchTerm,
			Count:      e.Count,
			MovieID:    e.MovieID,
			Title:      e.Title,
			PosterURL:  e.PosterURL,
		},
	}
	return s.send(ctx, http.MethodPost, s.documentsURL(), create, nil)
}

func (s *AppwriteStore) documentsURL() string {
	return fmt.Sprintf("%s/databases/%s/collections/%s/documents",
		s.endpoint, url.PathEscape(s.database), url.PathEscape(s.collection))
}

func (s *AppwriteStore) listDocuments(ctx context.Context, queries ...appwriteQuery) (*appwriteDocumentList, error) {
	params := url.Values{}
	for _, q := range queries {
		raw, err := json.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("trending: encode query: %w", err)
		}
		params.Add("queries[]", string(raw))
	}

	var list appwriteDocumentList
	if err := s.send(ctx, http.MethodGet, s.documentsURL()+"?"+params.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *AppwriteStore) send(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("trending: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("trending: create request: %w", err)
	}
	req.Header.Set("X-Appwrite-Project", s.project)
	req.Header.Set("X-Appwrite-Key", s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("trending: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("trending: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: method + " documents", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("trending: parse response: %w", err)
	}
	return nil
}
