package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clubhub/internal/keys"
	"github.com/nhle/clubhub/internal/logger"
	"github.com/nhle/clubhub/internal/model"
	"github.com/nhle/clubhub/internal/notify"
	appsync "github.com/nhle/clubhub/internal/sync"
	"github.com/nhle/clubhub/internal/ui"
	"github.com/nhle/clubhub/internal/ui/command"
	configview "github.com/nhle/clubhub/internal/ui/config"
	"github.com/nhle/clubhub/internal/ui/detail"
	helpview "github.com/nhle/clubhub/internal/ui/help"
	"github.com/nhle/clubhub/internal/ui/notiflist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewConfig
	ViewHelp
	ViewCommand
	ViewConfirmClear
)

const (
	actionTimeout     = 30 * time.Second
	statusMessageLife = 5 * time.Second
)

// Feed is the set of notification actions the UI drives.
type Feed interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, ids []string) error
	ClearAll(ctx context.Context) error
	ApproveJoinRequest(ctx context.Context, n model.Notification) error
	DenyJoinRequest(ctx context.Context, n model.Notification) error
	TeamMembers(ctx context.Context, teamID string) ([]model.TeamMembership, error)
}

// Poller runs the notification pipeline in the background.
type Poller interface {
	Start() tea.Cmd
	Stop()
	Refresh() tea.Cmd
	Status() appsync.PollStatus
	WaitForNextResult() tea.Cmd
}

// Options wires the root model. Feed and Poller may be nil when the
// application starts without a session; the connection view is shown
// first in that case.
type Options struct {
	Feed       Feed
	Poller     Poller
	Config     *model.AppConfig
	ConfigPath string
	Validate   configview.Validator
	Logger     logger.Logger
	Principal  string
	HasToken   bool
}

// actionDoneMsg reports the outcome of a feed action.
type actionDoneMsg struct {
	action       string
	notification model.Notification
	ids          []string
	members      []model.TeamMembership
	err          error
}

// clearStatusMsg expires a transient status message.
type clearStatusMsg struct {
	seq int
}

// Model is the root Bubble Tea model that manages view routing and
// layout, and dispatches user actions to the notification feed.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	log          logger.Logger

	feed      Feed
	poller    Poller
	principal string

	notifications notiflist.Model
	detail        detail.Model
	helpView      helpview.Model
	commandView   command.Model
	configView    configview.Model
	clearConfirm  *huh.Form
	confirmClear  *bool

	ready            bool
	unreadCount      int
	authErrorMessage string
	statusMessage    string
	statusIsError    bool
	statusSeq        int
	reconnect        bool
}

// New creates the root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = &model.AppConfig{}
	}

	m := Model{
		currentView:   ViewList,
		keys:          k,
		log:           log.WithFields(map[string]interface{}{"component": "ui"}),
		feed:          opts.Feed,
		poller:        opts.Poller,
		principal:     opts.Principal,
		notifications: notiflist.New(k, 80, 22),
		detail:        detail.New(k, 80, 22),
		helpView:      helpview.New(k, 80, 22),
		commandView:   command.New(80, 22),
		configView:    configview.New(cfg, opts.ConfigPath, opts.Validate, opts.HasToken, 80, 22),
	}
	if !m.connected() {
		m.currentView = ViewConfig
	}
	return m
}

// Reconnect reports whether the program exited to apply new connection
// settings.
func (m Model) Reconnect() bool {
	return m.reconnect
}

func (m Model) connected() bool {
	return m.feed != nil && m.poller != nil
}

// Init starts polling, or the connection form when there is no session.
func (m Model) Init() tea.Cmd {
	if !m.connected() {
		return m.configView.Init()
	}
	return m.poller.Start()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.notifications.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.configView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.FeedResultMsg:
		return m.handleFeedResult(msg)

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil

	case notiflist.SelectedNotificationMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetNotification(msg.Notification)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		return m, m.runAction(msg.Action, msg.Notification)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case configview.ConfigDoneMsg:
		if !m.connected() {
			return m, tea.Quit
		}
		m.currentView = ViewList
		return m, nil

	case configview.ConfigSavedMsg:
		m.log.Info("connection settings saved", map[string]interface{}{"principal": msg.Principal})
		m.reconnect = true
		m.stopPoller()
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopPoller()
			return m, tea.Quit
		}
		if m.capturesKeys() {
			break
		}
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturesKeys reports whether the active view consumes every key press,
// as forms and text inputs do.
func (m Model) capturesKeys() bool {
	switch m.currentView {
	case ViewConfig, ViewCommand, ViewConfirmClear:
		return true
	case ViewDetail:
		return m.detail.Confirming()
	}
	return false
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
		m.currentView = m.previousView
		return m, nil, true
	}

	if m.currentView != ViewList {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopPoller()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Setup):
		m.previousView = m.currentView
		m.currentView = ViewConfig
		return m, m.configView.Reset(), true

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh(), true

	case key.Matches(msg, m.keys.MarkRead):
		n, ok := m.notifications.Selected()
		if !ok || n.Read {
			return m, nil, true
		}
		return m, m.runAction(notify.ActionMarkRead, n), true

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead(), true

	case key.Matches(msg, m.keys.ClearAll):
		return m.openClearConfirm()
	}

	return m, nil, false
}

func (m Model) handleFeedResult(msg appsync.FeedResultMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.notifications.SetNotifications(msg.Notifications, msg.Err)}
	if m.poller != nil {
		cmds = append(cmds, m.poller.WaitForNextResult())
	}

	switch {
	case msg.AuthError != nil:
		m.authErrorMessage = msg.AuthError.Message
	case msg.Err == nil:
		m.authErrorMessage = ""
	}

	m.unreadCount = notify.UnreadCount(m.notifications.Notifications())
	if msg.NewCount > 0 {
		cmds = append(cmds, m.setStatus(fmt.Sprintf("%d new notification(s)", msg.NewCount), false))
	}

	// Keep the open detail in step with the refreshed list.
	if cur, ok := m.detail.Notification(); ok && m.currentView == ViewDetail {
		for _, n := range m.notifications.Notifications() {
			if n.ID == cur.ID && n.Read && !cur.Read {
				m.detail.MarkRead()
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	if msg.action == notify.ActionTeamMembers {
		m.detail.SetMembers(msg.members, msg.err)
		if msg.err != nil {
			return m, m.setStatus(msg.err.Error(), true)
		}
		return m, nil
	}

	if msg.err != nil {
		return m, m.setStatus(msg.err.Error(), true)
	}

	var cmds []tea.Cmd
	switch msg.action {
	case notify.ActionMarkRead:
		cmds = append(cmds, m.notifications.MarkReadLocally(msg.notification.ID))
		m.markDetailRead(msg.notification.ID)

	case notify.ActionMarkAllRead:
		cmds = append(cmds,
			m.notifications.MarkReadLocally(msg.ids...),
			m.setStatus(fmt.Sprintf("Marked %d notification(s) as read", len(msg.ids)), false),
		)

	case notify.ActionClearAll:
		cmds = append(cmds, m.notifications.Clear(), m.setStatus("Notifications cleared", false))
		m.currentView = ViewList

	case notify.ActionApprove, notify.ActionDeny:
		verb := "approved"
		if msg.action == notify.ActionDeny {
			verb = "denied"
		}
		cmds = append(cmds,
			m.notifications.MarkReadLocally(msg.notification.ID),
			m.setStatus("Join request "+verb, false),
			m.refresh(),
		)
		m.markDetailRead(msg.notification.ID)
	}

	m.unreadCount = notify.UnreadCount(m.notifications.Notifications())
	return m, tea.Batch(cmds...)
}

func (m *Model) markDetailRead(id string) {
	if cur, ok := m.detail.Notification(); ok && cur.ID == id {
		m.detail.MarkRead()
	}
}

// runAction returns a command performing action against the feed.
func (m Model) runAction(action string, n model.Notification) tea.Cmd {
	if m.feed == nil {
		return nil
	}
	f := m.feed
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		done := actionDoneMsg{action: action, notification: n}
		switch action {
		case notify.ActionMarkRead:
			done.err = f.MarkRead(ctx, n.ID)
		case notify.ActionApprove:
			done.err = f.ApproveJoinRequest(ctx, n)
		case notify.ActionDeny:
			done.err = f.DenyJoinRequest(ctx, n)
		case notify.ActionTeamMembers:
			done.members, done.err = f.TeamMembers(ctx, n.TeamID)
		default:
			done.err = fmt.Errorf("unknown action %q", action)
		}
		return done
	}
}

func (m Model) markAllRead() tea.Cmd {
	ids := m.notifications.UnreadIDs()
	if m.feed == nil || len(ids) == 0 {
		return nil
	}
	f := m.feed
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{action: notify.ActionMarkAllRead, ids: ids, err: f.MarkAllRead(ctx, ids)}
	}
}

func (m Model) clearAll() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	f := m.feed
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{action: notify.ActionClearAll, err: f.ClearAll(ctx)}
	}
}

func (m Model) openClearConfirm() (tea.Model, tea.Cmd, bool) {
	m.confirmClear = new(bool)
	m.clearConfirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Clear all notifications?").
				Description("This removes them on the server and resets local read state.").
				Affirmative("Clear").
				Negative("Cancel").
				Value(m.confirmClear),
		),
	).WithWidth(min(m.layout.ContentWidth()-4, 60))
	m.previousView = m.currentView
	m.currentView = ViewConfirmClear
	return m, m.clearConfirm.Init(), true
}

func (m Model) updateClearConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	mdl, cmd := m.clearConfirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.clearConfirm = f
	}

	switch m.clearConfirm.State {
	case huh.StateCompleted:
		m.currentView = ViewList
		m.clearConfirm = nil
		if *m.confirmClear {
			return m, m.clearAll()
		}
		return m, nil
	case huh.StateAborted:
		m.currentView = ViewList
		m.clearConfirm = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) refresh() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return m.poller.Refresh()
}

func (m Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

// setStatus shows a transient message in the status bar.
func (m *Model) setStatus(text string, isError bool) tea.Cmd {
	m.statusSeq++
	m.statusMessage = text
	m.statusIsError = isError
	seq := m.statusSeq
	return tea.Tick(statusMessageLife, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewConfirmClear:
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
			m.currentView = ViewList
			m.clearConfirm = nil
			return m, nil
		}
		if m.clearConfirm != nil {
			return m.updateClearConfirm(msg)
		}
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "ClubHub"
	if m.unreadCount > 0 {
		title = fmt.Sprintf("ClubHub [%d unread]", m.unreadCount)
	}
	header := m.layout.RenderHeader(title, m.pollStatus())

	var statusBar string
	switch {
	case m.statusMessage != "" && m.statusIsError:
		statusBar = m.layout.RenderErrorBar(m.statusMessage)
	case m.statusMessage != "":
		statusBar = m.layout.RenderStatusBar(m.statusMessage)
	case m.authErrorMessage != "" && m.currentView == ViewList:
		statusBar = m.layout.RenderErrorBar(m.authErrorMessage)
	default:
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.notifications.View()
	case ViewDetail:
		return m.detail.View()
	case ViewConfig:
		return m.configView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewConfirmClear:
		if m.clearConfirm == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.clearConfirm.View())
	default:
		return ""
	}
}

// pollStatus returns a short string describing the poller state.
func (m Model) pollStatus() string {
	if m.poller == nil {
		return "not connected"
	}

	s := m.poller.Status()
	prefix := ""
	if m.principal != "" {
		prefix = m.principal + " · "
	}

	switch s.State {
	case appsync.PollRunning:
		return prefix + "syncing"
	case appsync.PollError:
		return prefix + "⚠ sync failed"
	}
	if s.LastPoll.IsZero() {
		return prefix + "idle"
	}
	return prefix + "updated " + s.LastPoll.Format("15:04:05")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | m read | a approve | d deny | t roster | j/k scroll"
	case ViewConfig:
		return "enter next | shift+tab previous | esc cancel"
	case ViewConfirmClear:
		return "←/→ choose | enter confirm | esc cancel"
	default:
		if m.notifications.UnreadOnly() {
			return "unread only | u show all | m read | M all read | q quit"
		}
		return "q quit | ? help | enter open | m read | M all read | X clear | u unread | r refresh"
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "refresh", "sync":
		return m, m.refresh()
	case "read all", "mark all read":
		return m, m.markAllRead()
	case "clear all", "clear":
		next, c, _ := m.openClearConfirm()
		return next, c
	case "unread", "filter unread":
		return m, m.notifications.ToggleUnreadOnly()
	case "connection", "setup", "config":
		m.previousView = m.currentView
		m.currentView = ViewConfig
		return m, m.configView.Reset()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case "quit", "q":
		m.stopPoller()
		return m, tea.Quit
	default:
		return m, m.setStatus(fmt.Sprintf("Unknown command %q", cmd), true)
	}
}
