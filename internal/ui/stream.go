package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/abelbrown/tatami/internal/status"
)

const authorColWidth = 16

// TimeBand returns a display string for grouping statuses by age.
func TimeBand(posted time.Time) string {
	age := time.Since(posted)
	switch {
	case age < 15*time.Minute:
		return "Just Now"
	case age < 1*time.Hour:
		return "Past Hour"
	case age < 24*time.Hour:
		return "Today"
	case age < 48*time.Hour:
		return "Yesterday"
	default:
		return "Older"
	}
}

// RenderStream renders the status list, newest first, scrolled so the
// cursor is visible. When showBands is false time band headers are
// suppressed.
func RenderStream(items []status.Status, cursor, width, height int, showBands bool) string {
	if len(items) == 0 {
		return HelpStyle.Render("No statuses yet. New ones appear above as they arrive.")
	}

	var b strings.Builder
	currentBand := ""
	renderedLines := 0

	availableHeight := height
	if availableHeight < 1 {
		availableHeight = 1
	}

	scrollOffset := calcScrollOffset(items, cursor, availableHeight, showBands)

	for i, item := range items {
		if renderedLines >= availableHeight {
			break
		}

		// Track band state for skipped items too so the first visible
		// header is right.
		if showBands {
			band := TimeBand(item.Date.Time())
			if band != currentBand {
				currentBand = band
				if i >= scrollOffset {
					header := TimeBandHeader.Render(band)
					h := lipgloss.Height(header)
					if renderedLines+h >= availableHeight {
						break
					}
					b.WriteString(header)
					b.WriteString("\n")
					renderedLines += h
				}
			}
		}

		if i < scrollOffset {
			continue
		}
		if renderedLines >= availableHeight {
			break
		}

		b.WriteString(renderStatusLine(item, i == cursor, width))
		b.WriteString("\n")
		renderedLines++
	}

	return b.String()
}

// calcScrollOffset finds the smallest index such that everything from it
// through the cursor, band headers included, fits in availableHeight.
func calcScrollOffset(items []status.Status, cursor, availableHeight int, showBands bool) int {
	if len(items) == 0 || cursor < 0 {
		return 0
	}
	if cursor >= len(items) {
		cursor = len(items) - 1
	}

	offset := 0
	if cursor >= availableHeight {
		offset = cursor - availableHeight + 1
	}
	if !showBands {
		return offset
	}

	for offset <= cursor {
		if visibleLineCount(items, offset, cursor) <= availableHeight {
			return offset
		}
		offset++
	}
	return cursor
}

// visibleLineCount counts rendered lines for items[from..to] with bands.
func visibleLineCount(items []status.Status, from, to int) int {
	headerLines := lipgloss.Height(TimeBandHeader.Render("x"))
	lines := 0
	currentBand := ""
	if from > 0 {
		currentBand = TimeBand(items[from-1].Date.Time())
	}
	for i := from; i <= to && i < len(items); i++ {
		band := TimeBand(items[i].Date.Time())
		if band != currentBand {
			currentBand = band
			lines += headerLines
		}
		lines++
	}
	return lines
}

// renderStatusLine renders one status: author, markers, content, age.
func renderStatusLine(item status.Status, selected bool, width int) string {
	author := truncate(item.Username, authorColWidth)
	authorText := AuthorBadge.Foreground(authorColor(item.Username)).Render(author)

	marks := statusMarks(item)
	age := statusAge(item.Date.Time())

	contentWidth := width - lipgloss.Width(authorText) - lipgloss.Width(marks) - utf8.RuneCountInString(age) - 4
	if contentWidth < 10 {
		contentWidth = 10
	}
	content := truncate(flatten(item.Content), contentWidth)
	if item.Type != status.TypeStatus && item.Type != "" {
		content = truncate(typeLabel(item)+content, contentWidth)
	}

	var style lipgloss.Style
	switch {
	case selected:
		style = SelectedItem
	case item.Type == status.TypeAnnouncement:
		style = AnnouncementItem
	default:
		style = NormalItem
	}

	left := authorText + style.Render(content)
	pad := width - lipgloss.Width(left) - lipgloss.Width(marks) - utf8.RuneCountInString(age) - 1
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + marks + MetaItem.Render(age)
}

func statusMarks(item status.Status) string {
	var parts []string
	if item.Favorite {
		parts = append(parts, FavoriteMark.Render("★"))
	}
	if item.SharedByMe {
		parts = append(parts, SharedMark.Render("↻"))
	}
	if item.Announced {
		parts = append(parts, AnnouncedMark.Render("📢"))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}

func typeLabel(item status.Status) string {
	switch item.Type {
	case status.TypeShare:
		return "↻ shared: "
	case status.TypeAnnouncement:
		return "📢 "
	case status.TypeMentionShare:
		return "@ shared your status: "
	case status.TypeMentionFriend:
		return "@ now follows you "
	}
	return ""
}

// statusAge is the relative age shown at the end of a line.
func statusAge(posted time.Time) string {
	if posted.IsZero() {
		return ""
	}
	if time.Since(posted) < time.Minute {
		return "just now"
	}
	return humanize.Time(posted)
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

func authorColor(name string) lipgloss.Color {
	palette := []lipgloss.Color{
		lipgloss.Color("62"),
		lipgloss.Color("69"),
		lipgloss.Color("39"),
		lipgloss.Color("141"),
		lipgloss.Color("208"),
		lipgloss.Color("75"),
		lipgloss.Color("99"),
		lipgloss.Color("212"),
	}
	sum := 0
	for i := 0; i < len(name); i++ {
		sum += int(name[i])
	}
	return palette[sum%len(palette)]
}

// RenderHeader renders the top bar: app name, context, signed-in account.
func RenderHeader(label, account string, unread, width int) string {
	left := "Tatami · " + label
	if unread > 0 {
		left += fmt.Sprintf(" (%d)", unread)
	}
	right := ""
	if account != "" {
		right = HeaderMeta.Render(account)
	}
	pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}
	return Header.Width(width).Render(left + strings.Repeat(" ", pad) + right)
}

// RenderNewBanner renders the unread banner, or "" when nothing is pending.
func RenderNewBanner(unread, width int) string {
	if unread == 0 {
		return ""
	}
	noun := "statuses"
	if unread == 1 {
		noun = "status"
	}
	return NewBanner.Width(width).Render(fmt.Sprintf("%d new %s, press n to show", unread, noun))
}

// RenderStatusBar renders the bottom bar: position plus key hints.
func RenderStatusBar(cursor, total, width int, hints string) string {
	position := " 0/0 "
	if total > 0 {
		position = fmt.Sprintf(" %d/%d ", cursor+1, total)
	}
	pad := width - lipgloss.Width(position) - lipgloss.Width(hints) - 2
	if pad < 0 {
		pad = 0
	}
	return StatusBar.Width(width).Render(position + strings.Repeat(" ", pad) + hints)
}
