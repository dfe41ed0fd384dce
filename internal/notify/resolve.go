package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/clubhub/internal/model"
)

// lookups holds the id to display name tables fetched at the start of a
// pipeline run. Names resolved through single-entity fallbacks are added
// so repeated ids in one run hit the backend once.
type lookups struct {
	clubs    map[uint64]string
	teams    map[uint64]string
	threads  map[uint64]string
	comments map[uint64]model.Comment
}

func newLookups(clubs []model.Club, teams []model.Team, threads []model.MessageThread, comments []model.Comment) *lookups {
	l := &lookups{
		clubs:    make(map[uint64]string, len(clubs)),
		teams:    make(map[uint64]string, len(teams)),
		threads:  make(map[uint64]string, len(threads)),
		comments: make(map[uint64]model.Comment, len(comments)),
	}
	for _, c := range clubs {
		l.clubs[c.ID] = c.Name
	}
	for _, t := range teams {
		l.teams[t.ID] = t.Name
	}
	for _, t := range threads {
		l.threads[t.ID] = t.Name
	}
	for _, c := range comments {
		l.comments[c.ID] = c
	}
	return l
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func parseID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return id, err == nil
}

func placeholder(kind, id string) string {
	return fmt.Sprintf("Unknown %s (ID: %s)", kind, id)
}

// resolver turns ids into display names for one pipeline run.
type resolver struct {
	backend Backend
	tables  *lookups
	warn    func(msg string, fields map[string]interface{})
}

func (r *resolver) clubName(ctx context.Context, id string) string {
	num, ok := parseID(id)
	if !ok {
		return placeholder("Club", id)
	}
	if name, ok := r.tables.clubs[num]; ok && name != "" {
		return name
	}
	club, err := r.backend.GetClubByID(ctx, num)
	if err != nil {
		r.lookupFailed("club", id, err)
		return placeholder("Club", id)
	}
	r.tables.clubs[num] = club.Name
	return club.Name
}

func (r *resolver) teamName(ctx context.Context, id string) string {
	num, ok := parseID(id)
	if !ok {
		return placeholder("Team", id)
	}
	if name, ok := r.tables.teams[num]; ok && name != "" {
		return name
	}
	team, err := r.backend.GetTeamByID(ctx, num)
	if err != nil {
		r.lookupFailed("team", id, err)
		return placeholder("Team", id)
	}
	r.tables.teams[num] = team.Name
	return team.Name
}

func (r *resolver) threadName(id string) string {
	if num, ok := parseID(id); ok {
		if name, ok := r.tables.threads[num]; ok && name != "" {
			return name
		}
	}
	return placeholder("Thread", id)
}

func (r *resolver) comment(id string) (model.Comment, bool) {
	num, ok := parseID(id)
	if !ok {
		return model.Comment{}, false
	}
	c, ok := r.tables.comments[num]
	return c, ok
}

func (r *resolver) lookupFailed(kind, id string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	r.warn("name lookup failed", map[string]interface{}{
		"kind":  kind,
		"id":    id,
		"error": err.Error(),
	})
}

// resolveNames fills ClubName, TeamName and ThreadName from their ids.
// Names already present (typed payloads, or text without ids) are kept.
func (r *resolver) resolveNames(ctx context.Context, n *model.Notification) {
	if n.ClubID != "" && n.ClubName == "" {
		n.ClubName = r.clubName(ctx, n.ClubID)
	}
	if n.TeamID != "" && n.TeamName == "" {
		n.TeamName = r.teamName(ctx, n.TeamID)
	}
	if n.ChatThreadID != "" && n.ThreadName == "" {
		n.ThreadName = r.threadName(n.ChatThreadID)
	}
}

// Join request drop reasons, used as metric labels.
const (
	dropMissingID   = "missing_id"
	dropLookup      = "lookup_failed"
	dropNotPending  = "not_pending"
	dropUnparseable = "unparseable_ids"
)

// verifyJoinRequest re-fetches each candidate id and returns the first
// request that is pending and carries numeric team and club ids. When
// none survives it returns the reason the last candidate failed. A done
// ctx stops the search with no request and no reason.
func (r *resolver) verifyJoinRequest(ctx context.Context, candidates []string) (*model.JoinRequest, string) {
	if len(candidates) == 0 {
		return nil, dropMissingID
	}

	reason := dropMissingID
	for _, candidate := range candidates {
		id, ok := parseID(candidate)
		if !ok {
			reason = dropMissingID
			continue
		}

		req, err := r.backend.GetJoinRequestByID(ctx, id)
		if ctx.Err() != nil {
			return nil, ""
		}
		if err != nil {
			reason = dropLookup
			continue
		}
		if req.Status != model.JoinRequestPending {
			reason = dropNotPending
			continue
		}
		if _, ok := parseID(req.TeamID); !ok {
			reason = dropUnparseable
			continue
		}
		if _, ok := parseID(req.ClubID); !ok {
			reason = dropUnparseable
			continue
		}
		return req, ""
	}
	return nil, reason
}

// backfillJoinRequest copies the verified request's data onto n where the
// message text did not supply it.
func (r *resolver) backfillJoinRequest(ctx context.Context, req *model.JoinRequest, n *model.Notification) {
	n.RequestID = formatID(req.ID)
	setIfEmpty(&n.TeamID, req.TeamID)
	setIfEmpty(&n.ClubID, req.ClubID)
	setIfEmpty(&n.RequestedRole, req.RequestedRole)

	if n.RequesterName != "" || req.UserPrincipal == "" {
		return
	}
	profile, err := r.backend.GetUserProfile(ctx, req.UserPrincipal)
	if err != nil {
		r.lookupFailed("user", req.UserPrincipal, err)
		n.RequesterName = req.UserPrincipal
		return
	}
	n.RequesterName = profile.Name
}
