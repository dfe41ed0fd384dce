package backend

import (
	"context"
	"fmt"

	"github.com/nhle/clubhub/internal/model"
)

// Actor method names exposed by the RPC gateway.
const (
	methodGetNotifications         = "getNotifications"
	methodGetAllClubs              = "getAllClubs"
	methodGetAllTeams              = "getAllTeams"
	methodGetAllMessageThreads     = "getAllMessageThreads"
	methodGetAllComments           = "getAllComments"
	methodGetJoinRequestByID       = "getJoinRequestById"
	methodGetUserProfile           = "getUserProfile"
	methodGetClubByID              = "getClubById"
	methodGetTeamByID              = "getTeamById"
	methodGetTeamMembershipsByTeam = "getTeamMembershipsByTeam"
	methodMarkNotificationAsRead   = "markNotificationAsRead"
	methodClearAllNotifications    = "clearAllNotifications"
	methodApproveJoinRequest       = "approveJoinRequest"
	methodDenyJoinRequest          = "denyJoinRequest"
	methodWhoAmI                   = "whoami"
)

// GetNotifications returns the caller's notifications.
func (c *Client) GetNotifications(ctx context.Context) ([]model.RawNotification, error) {
	var out []model.RawNotification
	if err := c.Call(ctx, methodGetNotifications, &out); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	return out, nil
}

// GetAllClubs returns every club.
func (c *Client) GetAllClubs(ctx context.Context) ([]model.Club, error) {
	var out []model.Club
	if err := c.Call(ctx, methodGetAllClubs, &out); err != nil {
		return nil, fmt.Errorf("fetching clubs: %w", err)
	}
	return out, nil
}

// GetAllTeams returns every team.
func (c *Client) GetAllTeams(ctx context.Context) ([]model.Team, error) {
	var out []model.Team
	if err := c.Call(ctx, methodGetAllTeams, &out); err != nil {
		return nil, fmt.Errorf("fetching teams: %w", err)
	}
	return out, nil
}

// GetAllMessageThreads returns every chat thread visible to the caller.
func (c *Client) GetAllMessageThreads(ctx context.Context) ([]model.MessageThread, error) {
	var out []model.MessageThread
	if err := c.Call(ctx, methodGetAllMessageThreads, &out); err != nil {
		return nil, fmt.Errorf("fetching message threads: %w", err)
	}
	return out, nil
}

// GetAllComments returns every comment visible to the caller.
func (c *Client) GetAllComments(ctx context.Context) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.Call(ctx, methodGetAllComments, &out); err != nil {
		return nil, fmt.Errorf("fetching comments: %w", err)
	}
	return out, nil
}

// GetJoinRequestByID returns a join request or ErrNotFound.
func (c *Client) GetJoinRequestByID(ctx context.Context, id uint64) (*model.JoinRequest, error) {
	var out *model.JoinRequest
	if err := c.Call(ctx, methodGetJoinRequestByID, &out, id); err != nil {
		return nil, fmt.Errorf("fetching join request %d: %w", id, err)
	}
	if out == nil {
		return nil, fmt.Errorf("fetching join request %d: %w", id, ErrNotFound)
	}
	return out, nil
}

// GetUserProfile returns the profile of principal or ErrNotFound.
func (c *Client) GetUserProfile(ctx context.Context, principal string) (*model.UserProfile, error) {
	var out *model.UserProfile
	if err := c.Call(ctx, methodGetUserProfile, &out, principal); err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", principal, err)
	}
	if out == nil {
		return nil, fmt.Errorf("fetching profile %s: %w", principal, ErrNotFound)
	}
	return out, nil
}

// GetClubByID returns a single club or ErrNotFound.
func (c *Client) GetClubByID(ctx context.Context, id uint64) (*model.Club, error) {
	var out *model.Club
	if err := c.Call(ctx, methodGetClubByID, &out, id); err != nil {
		return nil, fmt.Errorf("fetching club %d: %w", id, err)
	}
	if out == nil {
		return nil, fmt.Errorf("fetching club %d: %w", id, ErrNotFound)
	}
	return out, nil
}

// GetTeamByID returns a single team or ErrNotFound.
func (c *Client) GetTeamByID(ctx context.Context, id uint64) (*model.Team, error) {
	var out *model.Team
	if err := c.Call(ctx, methodGetTeamByID, &out, id); err != nil {
		return nil, fmt.Errorf("fetching team %d: %w", id, err)
	}
	if out == nil {
		return nil, fmt.Errorf("fetching team %d: %w", id, ErrNotFound)
	}
	return out, nil
}

// GetTeamMembershipsByTeam returns the roster of a team.
func (c *Client) GetTeamMembershipsByTeam(ctx context.Context, teamID uint64) ([]model.TeamMembership, error) {
	var out []model.TeamMembership
	if err := c.Call(ctx, methodGetTeamMembershipsByTeam, &out, teamID); err != nil {
		return nil, fmt.Errorf("fetching memberships of team %d: %w", teamID, err)
	}
	return out, nil
}

// MarkNotificationAsRead sets the backend read flag.
func (c *Client) MarkNotificationAsRead(ctx context.Context, id uint64) error {
	if err := c.Call(ctx, methodMarkNotificationAsRead, nil, id); err != nil {
		return fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	return nil
}

// ClearAllNotifications deletes every notification of the caller.
func (c *Client) ClearAllNotifications(ctx context.Context) error {
	if err := c.Call(ctx, methodClearAllNotifications, nil); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	return nil
}

// ApproveJoinRequest approves a pending join request.
func (c *Client) ApproveJoinRequest(ctx context.Context, id uint64) error {
	if err := c.Call(ctx, methodApproveJoinRequest, nil, id); err != nil {
		return fmt.Errorf("approving join request %d: %w", id, err)
	}
	return nil
}

// DenyJoinRequest denies a pending join request.
func (c *Client) DenyJoinRequest(ctx context.Context, id uint64) error {
	if err := c.Call(ctx, methodDenyJoinRequest, nil, id); err != nil {
		return fmt.Errorf("denying join request %d: %w", id, err)
	}
	return nil
}

// WhoAmI returns the principal behind the session token. It doubles as
// a connectivity check.
func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	var principal string
	if err := c.Call(ctx, methodWhoAmI, &principal); err != nil {
		return "", fmt.Errorf("validating session: %w", err)
	}
	return principal, nil
}
