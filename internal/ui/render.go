package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/marquee/internal/search"
	"github.com/abelbrown/marquee/internal/tmdb"
	"github.com/abelbrown/marquee/internal/trending"
)

const (
	appTitle    = "Marquee"
	appTagline  = "Find movies you'll enjoy without the hassle"
	defaultWide = 80
	defaultHigh = 24
	minCardWide = 28
	maxCardWide = 44
)

// Frame is everything Render needs. SearchBox and Spinner are the
// already-rendered views of the bubbles components.
type Frame struct {
	State     search.State
	SearchBox string
	Spinner   string
	Width     int
}

// Render draws the whole screen. It has no side effects, so the same
// Frame always yields the same string.
func Render(f Frame) string {
	width := f.Width
	if width <= 0 {
		width = defaultWide
	}

	var sections []string
	sections = append(sections, renderHeader(f.SearchBox, width))
	if len(f.State.Trending) > 0 {
		sections = append(sections, renderTrending(f.State.Trending, width))
	}
	sections = append(sections, renderResults(f.State, f.Spinner, width))
	sections = append(sections, RenderStatusBar(f.State, width))

	return strings.Join(sections, "\n")
}

func renderHeader(searchBox string, width int) string {
	boxWidth := width - 2
	if boxWidth < 20 {
		boxWidth = 20
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(appTitle),
		TaglineStyle.Render(appTagline),
		SearchBox.Width(boxWidth).Render(searchBox),
	)
}

// renderTrending lists entries in the order the store returned them.
func renderTrending(entries []trending.Entry, width int) string {
	var b strings.Builder
	b.WriteString(SectionHeader.Render("Trending Movies"))
	for i, e := range entries {
		b.WriteString("\n")
		title := truncateRunes(e.Title, width/2)
		line := fmt.Sprintf("  %s  %s", TrendingRank.Render(fmt.Sprintf("%2d", i+1)), title)
		if e.PosterURL != "" {
			line += "  " + MutedText.Render(e.PosterURL)
		}
		b.WriteString(line)
	}
	return b.String()
}

// renderResults shows, in priority order, the spinner, the error
// message, or one card per movie.
func renderResults(s search.State, spin string, width int) string {
	header := SectionHeader.Render("All Movies")
	switch {
	case s.Loading:
		return header + "\n" + HelpStyle.Render(strings.TrimSpace(spin+" Loading..."))
	case s.ErrorMessage != "":
		return header + "\n" + ErrorStyle.Render(s.ErrorMessage)
	case len(s.Movies) == 0:
		return header
	}
	return header + "\n" + renderGrid(s.Movies, width)
}

// renderGrid lays cards out in rows that fit width.
func renderGrid(movies []tmdb.Movie, width int) string {
	cardWidth, perRow := cardLayout(width)

	var rows []string
	for start := 0; start < len(movies); start += perRow {
		end := start + perRow
		if end > len(movies) {
			end = len(movies)
		}
		cards := make([]string, 0, end-start)
		for _, m := range movies[start:end] {
			cards = append(cards, renderCard(m, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(rows, "\n")
}

func cardLayout(width int) (cardWidth, perRow int) {
	perRow = width / maxCardWide
	if perRow < 1 {
		perRow = 1
	}
	cardWidth = width/perRow - 2
	if cardWidth > maxCardWide {
		cardWidth = maxCardWide
	}
	if cardWidth < minCardWide {
		cardWidth = minCardWide
	}
	return cardWidth, perRow
}

func renderCard(m tmdb.Movie, width int) string {
	inner := width - 4
	if inner < 8 {
		inner = 8
	}

	poster := m.PosterURL()
	if poster == "" {
		poster = "no poster"
	}

	lines := []string{
		CardTitle.Render(truncateRunes(m.Title, inner)),
		RatingStyle.Render("★ "+m.Rating()) + MutedText.Render(" • "+m.Language()+" • "+m.Year()),
		MutedText.Render(truncateRunes(poster, inner)),
	}
	return Card.Width(width).Render(strings.Join(lines, "\n"))
}

// RenderStatusBar renders the bottom status bar with key hints and the
// current results phase.
func RenderStatusBar(s search.State, width int) string {
	var status string
	switch s.Phase() {
	case search.PhaseLoading:
		status = " Loading... "
	case search.PhaseResults:
		status = fmt.Sprintf(" %d movies ", len(s.Movies))
	case search.PhaseEmpty:
		status = " 0 movies "
	case search.PhaseError:
		status = " offline "
	default:
		status = " "
	}

	keys := []string{
		StatusBarKey.Render("ctrl+u") + StatusBarText.Render(":clear"),
		StatusBarKey.Render("f2") + StatusBarText.Render(":events"),
		StatusBarKey.Render("esc") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(status) - lipgloss.Width(keyHints) - 2
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).Render(status + strings.Repeat(" ", padding) + keyHints)
}

// truncateRunes cuts s to at most n runes, ending in "..." when cut.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
