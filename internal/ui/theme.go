package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// init pins the color profile before any style renders: NO_COLOR strips
// styling entirely, otherwise lipgloss keeps the profile termenv detects
// for the terminal.
func init() {
	if os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// triage's color palette: alarm reds, caution ambers, calm jades.
var (
	// Primary colors
	Scarlet = lipgloss.Color("#FF5F56")
	Amber   = lipgloss.Color("#FFBF00")
	Jade    = lipgloss.Color("#50C878")
	Azure   = lipgloss.Color("#3B9EFF")
	Slate   = lipgloss.Color("#8B8680")
	Ink     = lipgloss.Color("#2D2D2D")
	Dim     = lipgloss.Color("#666666")
	Bright  = lipgloss.Color("#FFFFFF")
	Subtle  = lipgloss.Color("#AAAAAA")

	// Semantic styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Azure)

	Subtitle = lipgloss.NewStyle().
			Foreground(Subtle)

	Success = lipgloss.NewStyle().
		Foreground(Jade)

	Error = lipgloss.NewStyle().
		Foreground(Scarlet)

	Warning = lipgloss.NewStyle().
		Foreground(Amber)

	Info = lipgloss.NewStyle().
		Foreground(Azure)

	Muted = lipgloss.NewStyle().
		Foreground(Dim)

	Accent = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	// Urgency styles, shared by CLI list output and the TUI.
	OverdueStyle = lipgloss.NewStyle().
			Foreground(Scarlet).
			Bold(true)

	DueSoonStyle = lipgloss.NewStyle().
			Foreground(Amber)

	PendingStyle = lipgloss.NewStyle().
			Foreground(Dim).
			Italic(true)

	// Component styles
	Banner = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Azure).
		Padding(0, 1)

	Tag = lipgloss.NewStyle().
		Foreground(Bright).
		Background(Slate).
		Padding(0, 1).
		Bold(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)
)

// Icon constants — consistent emoji language.
const (
	IconBolt     = "⚡"
	IconTask     = "📋"
	IconDone     = "✅"
	IconOverdue  = "🔴"
	IconClock    = "⏰"
	IconCalendar = "📅"
	IconStats    = "📊"
	IconFire     = "🔥"
	IconUser     = "👤"
	IconKey      = "🔑"
	IconBell     = "🔔"
	IconParty    = "🎉"
	IconWarn     = "⚠️ "
	IconError    = "✗ "
	IconOk       = "✓ "
	IconArrow    = "→"
	IconDot      = "·"
)
