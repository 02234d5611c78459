package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/tatami/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
const debugPanelChrome = 4

// debugOverlay renders key help, feed counters and recent events.
// Without a ring only the help section is shown.
func debugOverlay(ring *otel.RingBuffer, helpView string, width, height int) string {
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Keys"))
	lines = append(lines, strings.Split(helpView, "\n")...)
	lines = append(lines, "")

	if ring != nil {
		stats := ring.Counts()
		lines = append(lines, DebugHeaderStyle.Render("Feed Stats"))
		lines = append(lines, fmt.Sprintf("  Polls:    %d complete, %d errors",
			stats[otel.KindPollComplete], stats[otel.KindPollError]))
		lines = append(lines, fmt.Sprintf("  Pages:    %d complete, %d end, %d errors",
			stats[otel.KindPageComplete], stats[otel.KindPageEnd], stats[otel.KindPageError]))
		lines = append(lines, fmt.Sprintf("  Actions:  %d complete, %d rejected",
			stats[otel.KindActionComplete], stats[otel.KindActionReject]))
		lines = append(lines, fmt.Sprintf("  Stale:    %d dropped results", stats[otel.KindFeedStale]))
		lines = append(lines, fmt.Sprintf("  Buffer:   %d events", ring.Len()))
		lines = append(lines, "")

		lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
		for _, e := range ring.Last(20) {
			line := fmt.Sprintf("  %6s  %-16s", formatAge(time.Since(e.Time)), string(e.Kind))
			if e.Feed != "" {
				line += "  " + truncate(e.Feed, 16)
			}
			if e.StatusID != "" {
				line += "  #" + truncate(e.StatusID, 10)
			}
			if e.Count > 0 {
				line += fmt.Sprintf("  n=%d", e.Count)
			}
			if e.Msg != "" {
				line += "  " + truncate(e.Msg, 30)
			}
			if e.Err != "" {
				line += "  ERR:" + truncate(e.Err, 30)
			}
			lines = append(lines, line)
		}
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 84
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
