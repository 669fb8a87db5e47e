package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/marquee/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders search and trending stats plus the latest events.
// Ages are measured against now. Returns "" if recent is nil.
func debugOverlay(recent *otel.Recent, width, height int, now time.Time) string {
	if recent == nil {
		return ""
	}

	stats := recent.Counts()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d complete, %d empty, %d errors, %d stale",
		stats[otel.KindSearchStart], stats[otel.KindSearchComplete], stats[otel.KindSearchEmpty],
		stats[otel.KindSearchError], stats[otel.KindSearchStale]))
	lines = append(lines, fmt.Sprintf("  Trending:   %d lists, %d records, %d errors",
		stats[otel.KindTrendingList], stats[otel.KindTrendingRecord], stats[otel.KindTrendingError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", recent.Len(), recent.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent.Last(20) {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(now.Sub(e.Time)), string(e.Kind))
		if e.Generation > 0 {
			line += fmt.Sprintf("  gen:%d", e.Generation)
		}
		if e.Query != "" {
			line += "  q:" + truncateRunes(e.Query, 24)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 30)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Negative durations from clock skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar shown under the overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("f2") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [EVENTS]  " + keys)
}
