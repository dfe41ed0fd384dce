package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/nhle/clubhub/internal/backend"
	"github.com/nhle/clubhub/internal/model"
)

var errBackendDown = errors.New("backend down")

// fakeBackend is an in-memory Backend with per-method failure switches
// and call recording.
type fakeBackend struct {
	mu sync.Mutex

	notifications []model.RawNotification
	clubs         []model.Club
	teams         []model.Team
	threads       []model.MessageThread
	comments      []model.Comment
	joinRequests  map[uint64]*model.JoinRequest
	profiles      map[string]*model.UserProfile
	clubByID      map[uint64]*model.Club
	teamByID      map[uint64]*model.Team
	memberships   map[uint64][]model.TeamMembership

	failNotifications bool
	failClubs         bool
	failMarkRead      bool
	failClear         bool
	failApprove       bool

	// onJoinLookup runs at the start of every GetJoinRequestByID call.
	onJoinLookup func()

	markedRead  []uint64
	clearCalls  int
	approved    []uint64
	denied      []uint64
	joinLookups []uint64
	clubLookups []uint64
	teamLookups []uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		joinRequests: map[uint64]*model.JoinRequest{},
		profiles:     map[string]*model.UserProfile{},
		clubByID:     map[uint64]*model.Club{},
		teamByID:     map[uint64]*model.Team{},
		memberships:  map[uint64][]model.TeamMembership{},
	}
}

func (b *fakeBackend) GetNotifications(_ context.Context) ([]model.RawNotification, error) {
	if b.failNotifications {
		return nil, errBackendDown
	}
	return b.notifications, nil
}

func (b *fakeBackend) GetAllClubs(_ context.Context) ([]model.Club, error) {
	if b.failClubs {
		return nil, errBackendDown
	}
	return b.clubs, nil
}

func (b *fakeBackend) GetAllTeams(_ context.Context) ([]model.Team, error) {
	return b.teams, nil
}

func (b *fakeBackend) GetAllMessageThreads(_ context.Context) ([]model.MessageThread, error) {
	return b.threads, nil
}

func (b *fakeBackend) GetAllComments(_ context.Context) ([]model.Comment, error) {
	return b.comments, nil
}

func (b *fakeBackend) GetJoinRequestByID(ctx context.Context, id uint64) (*model.JoinRequest, error) {
	b.mu.Lock()
	b.joinLookups = append(b.joinLookups, id)
	b.mu.Unlock()
	if b.onJoinLookup != nil {
		b.onJoinLookup()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, ok := b.joinRequests[id]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return req, nil
}

func (b *fakeBackend) GetUserProfile(_ context.Context, principal string) (*model.UserProfile, error) {
	p, ok := b.profiles[principal]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return p, nil
}

func (b *fakeBackend) GetClubByID(_ context.Context, id uint64) (*model.Club, error) {
	b.mu.Lock()
	b.clubLookups = append(b.clubLookups, id)
	b.mu.Unlock()
	c, ok := b.clubByID[id]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return c, nil
}

func (b *fakeBackend) GetTeamByID(_ context.Context, id uint64) (*model.Team, error) {
	b.mu.Lock()
	b.teamLookups = append(b.teamLookups, id)
	b.mu.Unlock()
	t, ok := b.teamByID[id]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return t, nil
}

func (b *fakeBackend) GetTeamMembershipsByTeam(_ context.Context, teamID uint64) ([]model.TeamMembership, error) {
	return b.memberships[teamID], nil
}

func (b *fakeBackend) MarkNotificationAsRead(_ context.Context, id uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markedRead = append(b.markedRead, id)
	if b.failMarkRead {
		return errBackendDown
	}
	return nil
}

func (b *fakeBackend) ClearAllNotifications(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearCalls++
	if b.failClear {
		return errBackendDown
	}
	return nil
}

func (b *fakeBackend) ApproveJoinRequest(_ context.Context, id uint64) error {
	if b.failApprove {
		return errBackendDown
	}
	b.approved = append(b.approved, id)
	return nil
}

func (b *fakeBackend) DenyJoinRequest(_ context.Context, id uint64) error {
	b.denied = append(b.denied, id)
	return nil
}

// failingReadState is a read-state whose writes return writeErr.
type failingReadState struct {
	loadErr  error
	writeErr error
	cleared  bool
}

func (s *failingReadState) Load(context.Context) (map[string]bool, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return map[string]bool{}, nil
}

func (s *failingReadState) Add(context.Context, string) error { return s.writeErr }
func (s *failingReadState) AddAll(context.Context, []string) error { return s.writeErr }
func (s *failingReadState) Clear(context.Context) error { s.cleared = true; return s.writeErr }
func (s *failingReadState) Close() error { return nil }

func u64(v uint64) *uint64 { return &v }
