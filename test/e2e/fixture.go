package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/abelbrown/marquee/internal/tmdb"
	"github.com/abelbrown/marquee/internal/trending"
)

// seedTrendingDB records one search in ~/.marquee/trending.db under homeDir.
func seedTrendingDB(homeDir string) error {
	dataDir := filepath.Join(homeDir, ".marquee")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	st, err := trending.OpenSQLite(filepath.Join(dataDir, "trending.db"), trending.DefaultLimit)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.Record(context.Background(), "classic", tmdb.Movie{
		ID:         11,
		Title:      "Seeded Classic",
		PosterPath: "/classic.jpg",
	})
}

// fakeTMDB serves one popular movie for discover and one hit for "batman".
func fakeTMDB() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/discover/movie":
			w.Write([]byte(`{"results":[{"id":1,"title":"Popular Pick","vote_average":7.5,"original_language":"en","release_date":"2020-01-01"}]}`))
		case r.URL.Path == "/search/movie" && strings.EqualFold(r.URL.Query().Get("query"), "batman"):
			w.Write([]byte(`{"results":[{"id":414906,"title":"The Batman","vote_average":7.7,"original_language":"en","release_date":"2022-03-01","poster_path":"/batman.jpg"}]}`))
		case r.URL.Path == "/search/movie":
			w.Write([]byte(`{"results":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}
