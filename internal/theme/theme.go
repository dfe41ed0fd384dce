package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clubhub/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorCyan    = lipgloss.AdaptiveColor{Dark: "#66D9E8", Light: "#0987A0"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces StatusBarStyle while an error is shown.
var ErrorBarStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorRed).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// DimmedStyle renders read notifications.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// UnreadMarkerStyle renders the dot in front of unread notifications.
var UnreadMarkerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// ActionBadgeStyle flags notifications that accept approve/deny.
var ActionBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TypeStyle returns a color-coded badge style for a notification type.
func TypeStyle(t model.NotificationType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.TypeJoinRequest:
		return base.Foreground(ColorOrange)
	case model.TypeJoinResponse:
		return base.Foreground(ColorGreen)
	case model.TypeMessageReaction, model.TypeCommentReaction, model.TypeChatCommentReaction:
		return base.Foreground(ColorMagenta)
	case model.TypeClubChatMessage, model.TypeTeamChatMessage:
		return base.Foreground(ColorBlue)
	case model.TypeRewardMinted, model.TypePointsAwarded:
		return base.Foreground(ColorYellow)
	case model.TypeDutySwapRequest, model.TypeDutySwapAccepted, model.TypeDutyAssignment:
		return base.Foreground(ColorCyan)
	case model.TypeEventInvitation:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// TypeLabel returns the short badge text for a notification type.
func TypeLabel(t model.NotificationType) string {
	switch t {
	case model.TypeJoinRequest:
		return "JOIN"
	case model.TypeJoinResponse:
		return "RESP"
	case model.TypeMessageReaction, model.TypeCommentReaction, model.TypeChatCommentReaction:
		return "REACT"
	case model.TypeClubChatMessage:
		return "CLUB"
	case model.TypeTeamChatMessage:
		return "TEAM"
	case model.TypeRewardMinted:
		return "REWARD"
	case model.TypePointsAwarded:
		return "POINTS"
	case model.TypeDutySwapRequest, model.TypeDutySwapAccepted:
		return "SWAP"
	case model.TypeDutyAssignment:
		return "DUTY"
	case model.TypeEventInvitation:
		return "EVENT"
	default:
		return "INFO"
	}
}
