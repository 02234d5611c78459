package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/abelbrown/tatami/internal/logging"
	"github.com/abelbrown/tatami/internal/status"
)

// markdown renders status bodies. It is rebuilt when the wrap width
// changes.
type markdown struct {
	theme    string
	width    int
	renderer *glamour.TermRenderer
}

func (m *markdown) render(body string, width int) string {
	if width < 20 {
		width = 20
	}
	if m.renderer == nil || m.width != width {
		theme := m.theme
		if theme == "" {
			theme = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(theme),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			logging.Warn("markdown renderer", "err", err)
			return body
		}
		m.renderer = r
		m.width = width
	}
	out, err := m.renderer.Render(body)
	if err != nil {
		return body
	}
	return strings.Trim(out, "\n")
}

// renderDetail renders the selected status in a framed pane: author,
// date, flags, markdown body and who shared it.
func renderDetail(md *markdown, item status.Status, width int) string {
	inner := width - 4
	var b strings.Builder

	b.WriteString(DebugHeaderStyle.Render(item.Author()))
	if item.Username != "" && item.Author() != item.Username {
		b.WriteString(DetailMeta.Render(" @" + item.Username))
	}
	b.WriteString("\n")

	var meta []string
	if t := item.Date.Time(); !t.IsZero() {
		meta = append(meta, t.Format("Mon Jan 2 15:04")+" ("+humanize.Time(t)+")")
	}
	if item.GroupName != "" {
		meta = append(meta, "in "+item.GroupName)
	}
	if item.Type != "" && item.Type != status.TypeStatus {
		meta = append(meta, strings.ToLower(string(item.Type)))
	}
	if len(meta) > 0 {
		b.WriteString(DetailMeta.Render(strings.Join(meta, " · ")))
		b.WriteString("\n")
	}
	if marks := statusMarks(item); marks != "" {
		b.WriteString(marks)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(md.render(item.Content, inner))
	b.WriteString("\n\n")

	switch {
	case !item.SupportsShares():
	case !item.SharesLoaded():
		b.WriteString(DetailMeta.Render("Shares: loading…"))
	case len(item.Shares) == 0:
		b.WriteString(DetailMeta.Render("Not shared yet"))
	default:
		b.WriteString(DetailMeta.Render(fmt.Sprintf("Shared by %s", strings.Join(item.Shares, ", "))))
	}

	return DetailPanel.Width(inner).Render(strings.TrimRight(b.String(), "\n"))
}
