package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Command represents an available command
type Command struct {
	Name        string
	Aliases     []string
	Arg         string // placeholder for a required argument, e.g. "<tag>"
	Description string
	Key         string // shortcut key if any
}

// DefaultCommands returns the built-in commands
func DefaultCommands() []Command {
	return []Command{
		{Name: "home", Aliases: []string{"timeline"}, Description: "Your home timeline", Key: "1"},
		{Name: "mentions", Description: "Statuses that mention you", Key: "2"},
		{Name: "company", Description: "Company-wide timeline", Key: "3"},
		{Name: "tag", Arg: "<tag>", Description: "Statuses with a hashtag"},
		{Name: "group", Arg: "<id>", Description: "A group's timeline"},
		{Name: "user", Aliases: []string{"profile"}, Arg: "<login>", Description: "One user's statuses"},
		{Name: "reload", Aliases: []string{"r", "refresh"}, Description: "Reload the current feed", Key: "r"},
		{Name: "quit", Aliases: []string{"exit", "q"}, Description: "Exit Tatami", Key: "q"},
	}
}

// Palette is a command palette with fuzzy matching
type Palette struct {
	input    textinput.Model
	commands []Command
	filtered []Command
	cursor   int
	width    int
	active   bool
}

// New creates a new command palette
func New() Palette {
	ti := textinput.New()
	ti.Placeholder = "tag go · group 42 · user ada · mentions · reload"
	ti.Prompt = ": "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	ti.CharLimit = 120

	return Palette{
		input:    ti,
		commands: DefaultCommands(),
		filtered: DefaultCommands(),
	}
}

// Activate shows the palette
func (p *Palette) Activate() tea.Cmd {
	p.active = true
	p.input.SetValue("")
	p.filtered = p.commands
	p.cursor = 0
	return p.input.Focus()
}

// Deactivate hides the palette
func (p *Palette) Deactivate() {
	p.active = false
	p.input.Blur()
}

// IsActive returns whether palette is showing
func (p Palette) IsActive() bool {
	return p.active
}

// SetWidth sets the palette width
func (p *Palette) SetWidth(w int) {
	p.width = w
	p.input.Width = w - 10
}

// SelectedCommand returns the currently selected command name
func (p Palette) SelectedCommand() string {
	if p.cursor >= 0 && p.cursor < len(p.filtered) {
		return p.filtered[p.cursor].Name
	}
	return ""
}

// line is what enter submits. Typed arguments win over the selection so
// "tag go" runs as typed; a bare word runs the best match.
func (p Palette) line() string {
	raw := strings.TrimSpace(p.input.Value())
	if strings.ContainsAny(raw, " :") {
		return raw
	}
	if sel := p.SelectedCommand(); sel != "" {
		return sel
	}
	return raw
}

// Update handles input. The returned string is the submitted line, set
// only when enter is pressed.
func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd, string) {
	if !p.active {
		return p, nil, ""
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.Deactivate()
			return p, nil, ""

		case "enter":
			line := p.line()
			p.Deactivate()
			return p, nil, line

		case "up", "ctrl+p":
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil, ""

		case "down", "ctrl+n":
			if p.cursor < len(p.filtered)-1 {
				p.cursor++
			}
			return p, nil, ""

		case "tab":
			if len(p.filtered) > 0 {
				c := p.filtered[p.cursor]
				value := c.Name
				if c.Arg != "" {
					value += " "
				}
				p.input.SetValue(value)
				p.input.CursorEnd()
				p.filter()
			}
			return p, nil, ""
		}
	}

	oldValue := p.input.Value()

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)

	if p.input.Value() != oldValue {
		p.filter()
	}

	return p, cmd, ""
}

// filter keeps commands whose name or alias matches the first word typed,
// exact matches first, then prefixes, then substrings.
func (p *Palette) filter() {
	word := strings.ToLower(strings.TrimSpace(p.input.Value()))
	if i := strings.IndexAny(word, " :"); i >= 0 {
		word = word[:i]
	}
	if word == "" {
		p.filtered = p.commands
		p.cursor = 0
		return
	}

	var exact, prefix, contains []Command
	for _, c := range p.commands {
		switch rank(c, word) {
		case 1:
			exact = append(exact, c)
		case 2:
			prefix = append(prefix, c)
		case 3:
			contains = append(contains, c)
		}
	}

	p.filtered = append(append(exact, prefix...), contains...)
	p.cursor = 0
}

// rank scores the best match of word against c's names: 1 exact, 2 prefix,
// 3 substring, 0 none.
func rank(c Command, word string) int {
	best := 0
	for _, name := range append([]string{c.Name}, c.Aliases...) {
		var r int
		switch {
		case name == word:
			r = 1
		case strings.HasPrefix(name, word):
			r = 2
		case strings.Contains(name, word):
			r = 3
		default:
			continue
		}
		if best == 0 || r < best {
			best = r
		}
	}
	return best
}

// View renders the palette
func (p Palette) View() string {
	if !p.active {
		return ""
	}

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(max(p.width-4, 10))

	itemStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("255")).
		Padding(0, 1)

	selectedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("255")).
		Background(lipgloss.Color("62")).
		Bold(true).
		Padding(0, 1)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Padding(0, 1)

	var b strings.Builder

	b.WriteString(p.input.View())
	b.WriteString("\n")

	dividerWidth := max(p.width-8, 0)
	b.WriteString(descStyle.Render(strings.Repeat("─", dividerWidth)))
	b.WriteString("\n")

	// At most 6 rows, scrolled to keep the cursor visible.
	maxVisible := min(6, len(p.filtered))
	start := 0
	if p.cursor >= maxVisible {
		start = p.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(p.filtered))

	for i := start; i < end; i++ {
		c := p.filtered[i]
		name := c.Name
		if c.Arg != "" {
			name += " " + c.Arg
		}

		var line string
		if i == p.cursor {
			line = selectedStyle.Render("› "+name) + descStyle.Render(" "+c.Description)
		} else {
			line = itemStyle.Render("  "+name) + descStyle.Render(" "+c.Description)
		}

		if c.Key != "" {
			keyHint := keyStyle.Render(c.Key)
			padding := p.width - 10 - lipgloss.Width(line) - lipgloss.Width(keyHint)
			if padding > 0 {
				line += strings.Repeat(" ", padding) + keyHint
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if end < len(p.filtered) {
		b.WriteString(descStyle.Render("  ↓ more below"))
		b.WriteString("\n")
	}
	if len(p.filtered) == 0 {
		b.WriteString(descStyle.Render("  No matching commands"))
		b.WriteString("\n")
	}

	b.WriteString(keyStyle.Render("↑↓ choose  tab complete  enter run  esc cancel"))

	return containerStyle.Render(b.String())
}
