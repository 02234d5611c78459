package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarn      = lipgloss.Color("214") // Amber
)

// SelectedItem style for the currently highlighted status.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected statuses.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// AnnouncementItem style for announcements.
var AnnouncementItem = lipgloss.NewStyle().
	Foreground(colorWarn).
	Padding(0, 1)

// TimeBandHeader style for time band labels (e.g., "Just Now", "Today").
var TimeBandHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginTop(1).
	Padding(0, 1)

// AuthorBadge style for the author column.
var AuthorBadge = lipgloss.NewStyle().
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// MetaItem style for ages and leaders.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorMuted)

// Markers for favorite / shared / announced.
var (
	FavoriteMark  = lipgloss.NewStyle().Foreground(colorHighlight)
	SharedMark    = lipgloss.NewStyle().Foreground(colorSuccess)
	AnnouncedMark = lipgloss.NewStyle().Foreground(colorWarn)
)

// Header style for the top bar.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// HeaderMeta style for the signed-in account in the header.
var HeaderMeta = lipgloss.NewStyle().
	Foreground(lipgloss.Color("189")).
	Background(colorPrimary)

// NewBanner style for the "N new statuses" banner.
var NewBanner = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("16")).
	Background(colorSuccess).
	Padding(0, 1)

// EndMarker style for the end-of-timeline line.
var EndMarker = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// ConfirmBar style for the delete confirmation prompt.
var ConfirmBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("124")).
	Bold(true).
	Padding(0, 1)

// DetailPanel frames the selected status.
var DetailPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// DetailMeta style for the detail pane metadata lines.
var DetailMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// DebugPanel frames the help/debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorHighlight).
	Padding(1, 2)

// DebugHeaderStyle for section titles in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// SpinnerStyle colors the paging spinner.
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(colorHighlight)
