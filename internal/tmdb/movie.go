// Package tmdb is a read-only client for The Movie Database HTTP API.
package tmdb

import (
	"strconv"
	"strings"
)

// ImageBaseURL is the prefix for w500 poster images.
const ImageBaseURL = "https://image.tmdb.org/t/p/w500"

// Movie is a single entry of a search or discover response.
// Fields are taken verbatim from the API; nothing is normalized locally.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	PosterPath       string  `json:"poster_path"`
	Overview         string  `json:"overview,omitempty"`
	VoteAverage      float64 `json:"vote_average,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
}

// PosterURL returns the full poster image URL, or "" if the movie has none.
func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	if !strings.HasPrefix(m.PosterPath, "/") {
		return ImageBaseURL + "/" + m.PosterPath
	}
	return ImageBaseURL + m.PosterPath
}

// Year returns the release year or "N/A".
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return "N/A"
	}
	return m.ReleaseDate[:4]
}

// Rating returns the vote average with one decimal, or "N/A" when unrated.
func (m Movie) Rating() string {
	if m.VoteAverage <= 0 {
		return "N/A"
	}
	return strconv.FormatFloat(m.VoteAverage, 'f', 1, 64)
}

// Language returns the original language code or "N/A".
func (m Movie) Language() string {
	if m.OriginalLanguage == "" {
		return "N/A"
	}
	return m.OriginalLanguage
}

// listResponse is the envelope shared by /search/movie and /discover/movie.
type listResponse struct {
	Results []Movie `json:"results"`
}
