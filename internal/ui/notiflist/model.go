package notiflist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clubhub/internal/keys"
	"github.com/nhle/clubhub/internal/model"
	"github.com/nhle/clubhub/internal/theme"
)

// SelectedNotificationMsg is sent when the user opens a notification.
type SelectedNotificationMsg struct {
	Notification model.Notification
}

// Model is the notification list view component.
type Model struct {
	list       list.Model
	keys       *keys.KeyMap
	all        []model.Notification
	unreadOnly bool
	loaded     bool
	err        error
	width      int
	height     int
}

// New creates a new notification list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("notification", "notifications")
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetNotifications replaces the list with the result of a pipeline run.
// A non-nil err is shown in place of the list when nothing was loaded.
func (m *Model) SetNotifications(list []model.Notification, err error) tea.Cmd {
	m.all = list
	m.err = err
	m.loaded = true
	return m.refreshItems()
}

// MarkReadLocally flips the read flag of the given ids without waiting
// for the next pipeline run.
func (m *Model) MarkReadLocally(ids ...string) tea.Cmd {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for i := range m.all {
		if set[m.all[i].ID] {
			m.all[i].Read = true
		}
	}
	return m.refreshItems()
}

// Clear empties the list after a clear-all.
func (m *Model) Clear() tea.Cmd {
	m.all = nil
	m.err = nil
	return m.refreshItems()
}

// ToggleUnreadOnly switches between all and unread-only notifications.
func (m *Model) ToggleUnreadOnly() tea.Cmd {
	m.unreadOnly = !m.unreadOnly
	if m.unreadOnly {
		m.list.Title = "Notifications (unread)"
	} else {
		m.list.Title = "Notifications"
	}
	return m.refreshItems()
}

// UnreadOnly reports whether the unread filter is active.
func (m Model) UnreadOnly() bool {
	return m.unreadOnly
}

func (m *Model) refreshItems() tea.Cmd {
	var items []list.Item
	for _, n := range m.all {
		if m.unreadOnly && n.Read {
			continue
		}
		items = append(items, NotificationItem{Notification: n})
	}
	if items == nil {
		items = []list.Item{}
	}
	return m.list.SetItems(items)
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(NotificationItem)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// Notifications returns every loaded notification, ignoring the filter.
func (m Model) Notifications() []model.Notification {
	return m.all
}

// UnreadIDs returns the ids of all unread notifications.
func (m Model) UnreadIDs() []string {
	var ids []string
	for _, n := range m.all {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select):
			n, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedNotificationMsg{Notification: n}
			}

		case key.Matches(msg, m.keys.FilterUnread):
			return m, m.ToggleUnreadOnly()
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notification list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState covers the loading, error and no-notification cases.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case !m.loaded:
		return style.Render("Loading notifications...")
	case m.err != nil:
		return style.Foreground(theme.ColorRed).Render(
			fmt.Sprintf("Could not load notifications.\n%v\n\nPress r to retry.", m.err),
		)
	case m.unreadOnly && len(m.all) > 0:
		return style.Render("No unread notifications.\nPress u to show all.")
	default:
		return style.Render("You're all caught up.")
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
