package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/clubhub/internal/model"
)

// Write actions, used as metric labels and in ActionError messages.
const (
	ActionMarkRead    = "mark_read"
	ActionMarkAllRead = "mark_all_read"
	ActionClearAll    = "clear_all"
	ActionApprove     = "approve"
	ActionDeny        = "deny"
	ActionTeamMembers = "team_members"
)

var actionLabels = map[string]string{
	ActionMarkRead:    "mark the notification as read",
	ActionMarkAllRead: "mark all notifications as read",
	ActionClearAll:    "clear notifications",
	ActionApprove:     "approve the join request",
	ActionDeny:        "deny the join request",
	ActionTeamMembers: "load the team roster",
}

// ActionError is returned by the write actions. Its message is meant for
// display.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	label, ok := actionLabels[e.Action]
	if !ok {
		label = e.Action
	}
	return fmt.Sprintf("Could not %s: %v", label, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// IsActionError reports whether err is (or wraps) an *ActionError.
func IsActionError(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae)
}

func (f *Feed) actionFailed(action string, err error) error {
	f.metrics.ActionFailures.WithLabelValues(action).Inc()
	f.log.WithError(err).Error("action failed", map[string]interface{}{"action": action})
	return &ActionError{Action: action, Err: err}
}

// backendID strips the composite prefix. ok is false for ids that did
// not come from the backend.
func backendID(id string) (uint64, bool) {
	raw, found := strings.CutPrefix(id, model.BackendIDPrefix)
	if !found {
		return 0, false
	}
	return parseID(raw)
}

// MarkRead records id as read locally, then tells the backend. Only the
// local write can fail the call; backend failures are logged.
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	if err := f.reads.Add(ctx, id); err != nil {
		return f.actionFailed(ActionMarkRead, err)
	}
	f.markReadRemote(ctx, id)
	return nil
}

// MarkAllRead records every id as read locally, then tells the backend
// about each one.
func (f *Feed) MarkAllRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := f.reads.AddAll(ctx, ids); err != nil {
		return f.actionFailed(ActionMarkAllRead, err)
	}
	for _, id := range ids {
		f.markReadRemote(ctx, id)
	}
	return nil
}

func (f *Feed) markReadRemote(ctx context.Context, id string) {
	num, ok := backendID(id)
	if !ok {
		f.log.Debug("skipping backend mark-read for local id", map[string]interface{}{"id": id})
		return
	}
	if err := f.backend.MarkNotificationAsRead(ctx, num); err != nil {
		f.metrics.ActionFailures.WithLabelValues(ActionMarkRead).Inc()
		f.log.WithError(err).Warn("backend mark-read failed", map[string]interface{}{"id": id})
	}
}

// ClearAll clears the notifications on the backend, then empties the
// local read-state.
func (f *Feed) ClearAll(ctx context.Context) error {
	if err := f.backend.ClearAllNotifications(ctx); err != nil {
		return f.actionFailed(ActionClearAll, err)
	}
	if err := f.reads.Clear(ctx); err != nil {
		return f.actionFailed(ActionClearAll, err)
	}
	f.log.Info("notifications cleared", nil)
	return nil
}

// ApproveJoinRequest approves the join request behind n and marks n
// read.
func (f *Feed) ApproveJoinRequest(ctx context.Context, n model.Notification) error {
	return f.respond(ctx, n, ActionApprove, f.backend.ApproveJoinRequest)
}

// DenyJoinRequest denies the join request behind n and marks n read.
func (f *Feed) DenyJoinRequest(ctx context.Context, n model.Notification) error {
	return f.respond(ctx, n, ActionDeny, f.backend.DenyJoinRequest)
}

func (f *Feed) respond(ctx context.Context, n model.Notification, action string, call func(context.Context, uint64) error) error {
	if n.Type != model.TypeJoinRequest {
		return f.actionFailed(action, fmt.Errorf("%s is not a join request", n.ID))
	}
	id, ok := parseID(n.RequestID)
	if !ok {
		return f.actionFailed(action, fmt.Errorf("join request id %q is not valid", n.RequestID))
	}
	if err := call(ctx, id); err != nil {
		return f.actionFailed(action, err)
	}

	f.log.Info("join request answered", map[string]interface{}{
		"action":     action,
		"request_id": n.RequestID,
	})

	if err := f.MarkRead(ctx, n.ID); err != nil {
		f.log.WithError(err).Warn("marking answered join request read failed", map[string]interface{}{"id": n.ID})
	}
	return nil
}

// TeamMembers returns the memberships of the team with the given id.
func (f *Feed) TeamMembers(ctx context.Context, teamID string) ([]model.TeamMembership, error) {
	id, ok := parseID(teamID)
	if !ok {
		return nil, f.actionFailed(ActionTeamMembers, fmt.Errorf("team id %q is not valid", teamID))
	}
	members, err := f.backend.GetTeamMembershipsByTeam(ctx, id)
	if err != nil {
		return nil, f.actionFailed(ActionTeamMembers, err)
	}
	return members, nil
}
