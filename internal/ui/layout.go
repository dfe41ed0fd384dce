package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clubhub/internal/theme"
)

// Layout manages the terminal frame: a header row, the content area and a
// status row.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title on the left and the poll status on the
// right, padded to the full width.
func (l Layout) RenderHeader(title string, pollStatus string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Align(lipgloss.Right).Render(pollStatus)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		l.filler(theme.HeaderStyle, lipgloss.Width(left)+lipgloss.Width(right)),
		right,
	)
}

// RenderStatusBar renders the bottom row with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, hints)
}

// RenderErrorBar renders the bottom row in the error palette.
func (l Layout) RenderErrorBar(message string) string {
	return l.bar(theme.ErrorBarStyle, message)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (l Layout) bar(style lipgloss.Style, text string) string {
	rendered := style.Render(text)
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, l.filler(style, lipgloss.Width(rendered)))
}

// filler pads a row of used columns out to the layout width.
func (l Layout) filler(style lipgloss.Style, used int) string {
	gap := l.Width - used
	if gap < 0 {
		gap = 0
	}
	return style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)
}
