// Package notify turns the backend's raw notifications into classified,
// enriched, read-state-merged notifications and carries out the write
// actions the notification list offers.
package notify

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/clubhub/internal/logger"
	"github.com/nhle/clubhub/internal/metrics"
	"github.com/nhle/clubhub/internal/model"
	"github.com/nhle/clubhub/internal/readstate"
)

// Backend is the subset of the club backend the pipeline talks to.
// *backend.Client satisfies it.
type Backend interface {
	GetNotifications(ctx context.Context) ([]model.RawNotification, error)
	GetAllClubs(ctx context.Context) ([]model.Club, error)
	GetAllTeams(ctx context.Context) ([]model.Team, error)
	GetAllMessageThreads(ctx context.Context) ([]model.MessageThread, error)
	GetAllComments(ctx context.Context) ([]model.Comment, error)
	GetJoinRequestByID(ctx context.Context, id uint64) (*model.JoinRequest, error)
	GetUserProfile(ctx context.Context, principal string) (*model.UserProfile, error)
	GetClubByID(ctx context.Context, id uint64) (*model.Club, error)
	GetTeamByID(ctx context.Context, id uint64) (*model.Team, error)
	GetTeamMembershipsByTeam(ctx context.Context, teamID uint64) ([]model.TeamMembership, error)
	MarkNotificationAsRead(ctx context.Context, id uint64) error
	ClearAllNotifications(ctx context.Context) error
	ApproveJoinRequest(ctx context.Context, id uint64) error
	DenyJoinRequest(ctx context.Context, id uint64) error
}

// Feed runs the notification pipeline against one backend and one
// read-state store.
type Feed struct {
	backend Backend
	reads   readstate.Store
	log     logger.Logger
	metrics *metrics.Pipeline
}

// NewFeed creates a Feed. A nil log or m falls back to a no-op logger and
// a private metrics registry.
func NewFeed(b Backend, reads readstate.Store, log logger.Logger, m *metrics.Pipeline) *Feed {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if m == nil {
		m = metrics.NewPipeline()
	}
	return &Feed{
		backend: b,
		reads:   reads,
		log:     log.WithFields(map[string]interface{}{"component": "feed"}),
		metrics: m,
	}
}

// snapshot is the result of the concurrent initial reads.
type snapshot struct {
	raw    []model.RawNotification
	tables *lookups
}

// fetchAll issues the notification and lookup-table reads concurrently.
// Any failure fails the whole snapshot.
func (f *Feed) fetchAll(ctx context.Context) (*snapshot, error) {
	var (
		raw      []model.RawNotification
		clubs    []model.Club
		teams    []model.Team
		threads  []model.MessageThread
		comments []model.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		raw, err = f.backend.GetNotifications(gctx)
		return err
	})
	g.Go(func() (err error) {
		clubs, err = f.backend.GetAllClubs(gctx)
		return err
	})
	g.Go(func() (err error) {
		teams, err = f.backend.GetAllTeams(gctx)
		return err
	})
	g.Go(func() (err error) {
		threads, err = f.backend.GetAllMessageThreads(gctx)
		return err
	})
	g.Go(func() (err error) {
		comments, err = f.backend.GetAllComments(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &snapshot{
		raw:    raw,
		tables: newLookups(clubs, teams, threads, comments),
	}, nil
}

// List runs the pipeline and returns the notifications sorted newest
// first. When the initial backend reads fail, or ctx ends mid-run, the
// list is empty and the error is returned alongside it so callers can
// offer a retry.
func (f *Feed) List(ctx context.Context) ([]model.Notification, error) {
	start := time.Now()
	defer func() {
		f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}()

	snap, err := f.fetchAll(ctx)
	if err != nil {
		f.metrics.FetchFailures.Inc()
		f.log.WithError(err).Warn("fetching notifications failed", nil)
		return []model.Notification{}, fmt.Errorf("fetching notifications: %w", err)
	}

	readSet, err := f.reads.Load(ctx)
	if err != nil {
		f.log.WithError(err).Warn("loading read-state failed, treating all as unread locally", nil)
		readSet = map[string]bool{}
	}

	r := &resolver{backend: f.backend, tables: snap.tables, warn: f.log.Warn}

	out := make([]model.Notification, 0, len(snap.raw))
	for _, raw := range snap.raw {
		n, ok := f.build(ctx, r, raw, readSet)
		if err := ctx.Err(); err != nil {
			f.metrics.FetchFailures.Inc()
			f.log.WithError(err).Warn("pipeline run interrupted", nil)
			return []model.Notification{}, fmt.Errorf("building notifications: %w", err)
		}
		if !ok {
			continue
		}
		f.metrics.Classified.WithLabelValues(string(n.Type)).Inc()
		out = append(out, n)
	}

	SortNotifications(out)

	f.log.Debug("pipeline run complete", map[string]interface{}{
		"raw":     len(snap.raw),
		"emitted": len(out),
	})

	return out, nil
}

// build converts one raw notification. It reports false when the
// notification must be dropped.
func (f *Feed) build(ctx context.Context, r *resolver, raw model.RawNotification, readSet map[string]bool) (model.Notification, bool) {
	id := model.BackendIDPrefix + formatID(raw.ID)
	n := model.Notification{
		ID:        id,
		Message:   raw.Message,
		Timestamp: raw.Timestamp / int64(time.Millisecond),
		Read:      raw.IsRead || readSet[id],
	}

	typ, typed := Classify(raw)
	n.Type = typ
	if typed {
		applyPayload(raw.Payload, &n)
	} else {
		ExtractFields(typ, raw.Message, &n)
	}
	if raw.ChatThreadID != nil {
		n.ChatThreadID = formatID(*raw.ChatThreadID)
	}

	if n.Type == model.TypeJoinRequest {
		req, reason := r.verifyJoinRequest(ctx, requestIDCandidates(raw, &n))
		if req == nil && ctx.Err() != nil {
			return model.Notification{}, false
		}
		if req == nil {
			f.metrics.JoinRequestsDropped.WithLabelValues(reason).Inc()
			f.log.Warn("join request dropped", map[string]interface{}{
				"notification_id": id,
				"reason":          reason,
			})
			return model.Notification{}, false
		}
		r.backfillJoinRequest(ctx, req, &n)
	}

	r.resolveNames(ctx, &n)

	var commentText string
	if c, ok := r.comment(n.CommentID); ok {
		commentText = c.Content
	}

	n.Title = titleFor(n)
	n.Message = describe(n, commentText)
	return n, true
}

// SortNotifications orders list by timestamp, newest first. Equal
// timestamps keep their backend order.
func SortNotifications(list []model.Notification) {
	slices.SortStableFunc(list, func(a, b model.Notification) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
}

// UnreadCount returns the number of unread notifications in list.
func UnreadCount(list []model.Notification) int {
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count
}
