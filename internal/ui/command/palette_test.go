package command

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeInto(p Palette, s string) Palette {
	for _, r := range s {
		p, _, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return p
}

func submit(p Palette) (Palette, string) {
	p, _, line := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return p, line
}

func activePalette() Palette {
	p := New()
	p.SetWidth(80)
	p.Activate()
	return p
}

func TestInactivePaletteIgnoresInput(t *testing.T) {
	p := New()
	p, _, line := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if line != "" || p.IsActive() {
		t.Errorf("line = %q active = %v", line, p.IsActive())
	}
	if p.View() != "" {
		t.Error("inactive palette should render nothing")
	}
}

func TestSubmitLine(t *testing.T) {
	tests := []struct {
		typed string
		want  string
	}{
		{"", "home"},
		{"men", "mentions"},
		{"r", "reload"},
		{"q", "quit"},
		{"prof", "user"},
		{"tag go", "tag go"},
		{"user:@ada", "user:@ada"},
		{"inbox", "inbox"},
	}
	for _, tt := range tests {
		t.Run(tt.typed, func(t *testing.T) {
			p := typeInto(activePalette(), tt.typed)
			p, line := submit(p)
			if line != tt.want {
				t.Errorf("typed %q submitted %q, want %q", tt.typed, line, tt.want)
			}
			if p.IsActive() {
				t.Error("palette should close on enter")
			}
		})
	}
}

func TestEscapeCancels(t *testing.T) {
	p := typeInto(activePalette(), "tag")
	p, _, line := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if line != "" || p.IsActive() {
		t.Errorf("line = %q active = %v", line, p.IsActive())
	}
}

func TestArrowsMoveSelection(t *testing.T) {
	p := activePalette()
	p, _, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p, _, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p, _, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := p.SelectedCommand(); got != "mentions" {
		t.Errorf("selected %q, want mentions", got)
	}

	p, _, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	p, _, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := p.SelectedCommand(); got != "home" {
		t.Errorf("selected %q after clamping, want home", got)
	}
}

func TestTabCompletesArgumentCommands(t *testing.T) {
	p := typeInto(activePalette(), "gr")
	p, _, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	p = typeInto(p, "42")

	_, line := submit(p)
	if line != "group 42" {
		t.Errorf("submitted %q, want %q", line, "group 42")
	}
}

func TestFilterRanksExactAndPrefixFirst(t *testing.T) {
	p := typeInto(activePalette(), "e")
	if len(p.filtered) == 0 {
		t.Fatal("no matches for e")
	}
	if got := p.filtered[0].Name; got != "quit" {
		// "exit" is a prefix match on quit's alias; the others only contain e.
		t.Errorf("first match %q, want quit", got)
	}
}

func TestViewListsCommands(t *testing.T) {
	view := activePalette().View()
	for _, want := range []string{"home", "tag <tag>", "↓ more below", "esc cancel"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Exit Tatami") {
		t.Error("rows past the window should not render")
	}

	view = typeInto(activePalette(), "q").View()
	if !strings.Contains(view, "Exit Tatami") || strings.Contains(view, "↓ more below") {
		t.Errorf("filtered view = %q", view)
	}

	view = typeInto(activePalette(), "zzz").View()
	if !strings.Contains(view, "No matching commands") {
		t.Error("expected empty-match hint")
	}
}
