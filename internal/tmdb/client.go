package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBaseURL is the v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// Config holds everything the client needs. Secrets are passed in
// explicitly; the client never reads the environment.
type Config struct {
	BaseURL     string
	AccessToken string        // v4 read access token, sent as Bearer
	APIKey      string        // v3 key; kept for completeness, not sent
	Timeout     time.Duration // 0 means no client-side timeout
}

// Client issues search and discover requests.
type Client struct {
	baseURL string
	token   string
	apiKey  string
	client  *http.Client
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "tmdb: status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("tmdb: %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("tmdb: %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		token:   cfg.AccessToken,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Endpoint returns the request URL for query. An empty query selects the
// popularity-sorted discover listing instead of a search.
func Endpoint(baseURL, query string) string {
	if query == "" {
		return baseURL + "/discover/movie?sort_by=popularity.desc"
	}
	// Spaces go out as %20, not +.
	return baseURL + "/search/movie?query=" + strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}

// Fetch searches for query, or discovers popular movies when query is empty.
// A response without results yields an empty slice and a nil error.
func (c *Client) Fetch(ctx context.Context, query string) ([]Movie, error) {
	if query == "" {
		return c.Discover(ctx)
	}
	return c.Search(ctx, query)
}

// Search runs a title search. query must be non-empty.
func (c *Client) Search(ctx context.Context, query string) ([]Movie, error) {
	if query == "" {
		return nil, fmt.Errorf("tmdb: empty search query")
	}
	return c.get(ctx, Endpoint(c.baseURL, query))
}

// Discover lists movies sorted by popularity.
func (c *Client) Discover(ctx context.Context) ([]Movie, error) {
	return c.get(ctx, Endpoint(c.baseURL, ""))
}

func (c *Client) get(ctx context.Context, endpoint string) ([]Movie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tmdb: failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("tmdb: request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("tmdb: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			URL:        req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), 200),
		}
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("tmdb: failed to parse response: %w", err)
	}
	if list.Results == nil {
		return []Movie{}, nil
	}
	return list.Results, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
