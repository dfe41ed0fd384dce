package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clubhub/internal/keys"
	"github.com/nhle/clubhub/internal/model"
	"github.com/nhle/clubhub/internal/notify"
	"github.com/nhle/clubhub/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg asks the parent to run a feed action on the current
// notification. Action is one of the notify.Action* constants.
type ActionMsg struct {
	Action       string
	Notification model.Notification
}

// Model is the notification detail view component.
type Model struct {
	notification *model.Notification
	viewport     viewport.Model
	keys         *keys.KeyMap
	width        int
	height       int

	members        []model.TeamMembership
	membersErr     error
	membersLoading bool

	confirm       *huh.Form
	confirmAction string
	confirmed     *bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Confirming reports whether an approve/deny prompt is open.
func (m Model) Confirming() bool {
	return m.confirm != nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.notification != nil {
		n := *m.notification
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.MarkRead):
			if n.Read {
				return m, nil
			}
			return m, emit(notify.ActionMarkRead, n)

		case key.Matches(msg, m.keys.Approve):
			if n.IsActionable() {
				return m.openConfirm(notify.ActionApprove)
			}
			return m, nil

		case key.Matches(msg, m.keys.Deny):
			if n.IsActionable() {
				return m.openConfirm(notify.ActionDeny)
			}
			return m, nil

		case key.Matches(msg, m.keys.Roster):
			if n.TeamID == "" {
				return m, nil
			}
			m.membersLoading = true
			m.refresh()
			return m, emit(notify.ActionTeamMembers, n)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func emit(action string, n model.Notification) tea.Cmd {
	return func() tea.Msg {
		return ActionMsg{Action: action, Notification: n}
	}
}

func (m Model) openConfirm(action string) (Model, tea.Cmd) {
	n := m.notification

	verb := "Approve"
	if action == notify.ActionDeny {
		verb = "Deny"
	}

	requester := n.RequesterName
	if requester == "" {
		requester = "this user"
	}
	team := n.TeamName
	if team == "" {
		team = "the team"
	}

	m.confirmAction = action
	m.confirmed = new(bool)
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s join request?", verb)).
				Description(fmt.Sprintf("%s wants to join %s.", requester, team)).
				Affirmative(verb).
				Negative("Cancel").
				Value(m.confirmed),
		),
	).WithWidth(min(m.width-4, 60))

	return m, m.confirm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Back) {
		m.confirm = nil
		return m, nil
	}

	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		action, ok := m.confirmAction, *m.confirmed
		m.confirm = nil
		if ok && m.notification != nil {
			return m, emit(action, *m.notification)
		}
		return m, nil
	case huh.StateAborted:
		m.confirm = nil
		return m, nil
	}

	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.notification == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No notification selected")
	}

	if m.confirm != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			theme.BorderStyle.Padding(0, 1).Render(m.confirm.View()),
		)
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.notification == nil {
		return ""
	}

	n := m.notification
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(n.Title))

	state := lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("unread")
	if n.Read {
		state = theme.DimmedStyle.Render("read")
	}
	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.TypeStyle(n.Type).Render(theme.TypeLabel(n.Type)), "  ", state,
	)
	sections = append(sections, badgeLine, "")

	sections = append(sections, n.Message, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label+":")+" "+valStyle.Render(value))
	}

	row("Received", n.CreatedAt().Format("2006-01-02 15:04"))
	row("Club", n.ClubName)
	row("Team", n.TeamName)
	row("Thread", n.ThreadName)
	row("Requester", n.RequesterName)
	row("Role", n.RequestedRole)
	row("Request ID", n.RequestID)
	row("Sender", n.SenderName)
	row("Reactor", n.ReactorName)
	row("Emoji", n.Emoji)
	row("Points", n.PointsAwarded)
	row("Reward", n.RewardID)
	row("Duty", n.DutyRole)
	row("Event", n.EventTitle)
	row("Swap ID", n.SwapRequestID)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))

	if n.TeamID != "" && (m.membersLoading || m.members != nil || m.membersErr != nil) {
		sections = append(sections, "", separator, "", m.renderRoster())
	}

	var hints []string
	if !n.Read {
		hints = append(hints, "m mark read")
	}
	if n.IsActionable() {
		hints = append(hints, "a approve", "d deny")
	}
	if n.TeamID != "" {
		hints = append(hints, "t team roster")
	}
	hints = append(hints, "esc back")
	sections = append(sections, "", separator, theme.HelpStyle.Render(strings.Join(hints, " | ")))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderRoster() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	switch {
	case m.membersLoading:
		return header.Render("Team Roster") + "\n" + theme.DimmedStyle.Render("Loading...")
	case m.membersErr != nil:
		return header.Render("Team Roster") + "\n" +
			lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.membersErr.Error())
	}

	lines := []string{header.Render(fmt.Sprintf("Team Roster (%d)", len(m.members)))}
	roleStyle := lipgloss.NewStyle().Foreground(theme.ColorCyan).Width(12)
	for _, mem := range m.members {
		lines = append(lines, roleStyle.Render(mem.Role)+" "+mem.UserPrincipal)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

// SetNotification updates the notification being displayed.
func (m *Model) SetNotification(n model.Notification) {
	m.notification = &n
	m.members = nil
	m.membersErr = nil
	m.membersLoading = false
	m.confirm = nil
	m.refresh()
	m.viewport.GotoTop()
}

// Notification returns the displayed notification, if any.
func (m Model) Notification() (model.Notification, bool) {
	if m.notification == nil {
		return model.Notification{}, false
	}
	return *m.notification, true
}

// MarkRead flips the displayed notification to read.
func (m *Model) MarkRead() {
	if m.notification == nil {
		return
	}
	m.notification.Read = true
	m.refresh()
}

// SetMembers shows the result of a team roster lookup.
func (m *Model) SetMembers(members []model.TeamMembership, err error) {
	m.membersLoading = false
	m.membersErr = err
	m.members = members
	if err == nil && members == nil {
		m.members = []model.TeamMembership{}
	}
	m.refresh()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}
