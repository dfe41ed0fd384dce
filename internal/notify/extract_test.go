package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/clubhub/internal/model"
)

func extract(msg string) model.Notification {
	n := model.Notification{Type: ClassifyMessage(msg)}
	ExtractFields(n.Type, msg, &n)
	return n
}

func TestExtractFields(t *testing.T) {
	tests := []struct {
		name  string
		msg   string
		check func(t *testing.T, n model.Notification)
	}{
		{
			name: "chat comment reaction",
			msg:  "Your chat comment received a new reaction: 👍 (Comment ID: 12)",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "👍", n.Emoji)
				assert.Equal(t, "12", n.CommentID)
			},
		},
		{
			name: "message reaction",
			msg:  "Bob has reacted to your message in thread 4",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Bob", n.ReactorName)
				assert.Equal(t, "4", n.ChatThreadID)
			},
		},
		{
			name: "club chat",
			msg:  "New message from Carol in club chat (club 3)",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Carol", n.SenderName)
				assert.Equal(t, "3", n.ClubID)
				assert.Empty(t, n.TeamID)
			},
		},
		{
			name: "team chat",
			msg:  "New message from Dan Smith in team chat (team 7)",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Dan Smith", n.SenderName)
				assert.Equal(t, "7", n.TeamID)
			},
		},
		{
			name: "join request",
			msg:  "New join request from Alice for team 7 in club 3 with requested role Coach. Request ID: 42",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Alice", n.RequesterName)
				assert.Equal(t, "7", n.TeamID)
				assert.Equal(t, "3", n.ClubID)
				assert.Equal(t, "Coach", n.RequestedRole)
			},
		},
		{
			name: "join request with named team and short role",
			msg:  "New join request from Bea for team U12s in club 3 as a Player",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Bea", n.RequesterName)
				assert.Equal(t, "U12s", n.TeamName)
				assert.Empty(t, n.TeamID)
				assert.Equal(t, "Player", n.RequestedRole)
			},
		},
		{
			name: "join request role label",
			msg:  "New join request from Cy. Role: Assistant. Request ID: 8",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Cy", n.RequesterName)
				assert.Equal(t, "Assistant", n.RequestedRole)
			},
		},
		{
			name: "reward minted",
			msg:  "A new reward has been minted for you. Reward ID: 9",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "9", n.RewardID)
			},
		},
		{
			name: "points awarded",
			msg:  "You have been awarded 25 points for Spring Cleanup",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "25", n.PointsAwarded)
				assert.Equal(t, "Spring Cleanup", n.EventTitle)
			},
		},
		{
			name: "duty swap accepted",
			msg:  "Erin accepted your duty swap request for Referee at event: Derby Day. Swap Request ID: 3",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Erin", n.SenderName)
				assert.Equal(t, "Referee", n.DutyRole)
				assert.Equal(t, "Derby Day", n.EventTitle)
				assert.Equal(t, "3", n.SwapRequestID)
			},
		},
		{
			name: "duty swap request",
			msg:  "Frank sent you a duty swap request for Linesman at event: Derby Day. Swap Request ID: 4",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Frank", n.SenderName)
				assert.Equal(t, "Linesman", n.DutyRole)
				assert.Equal(t, "Derby Day", n.EventTitle)
				assert.Equal(t, "4", n.SwapRequestID)
			},
		},
		{
			name: "event invitation",
			msg:  "You have been invited to event: Summer Gala.",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Summer Gala", n.EventTitle)
			},
		},
		{
			name: "duty assignment",
			msg:  "You have been assigned the duty Kit Manager for event: Cup Final",
			check: func(t *testing.T, n model.Notification) {
				assert.Equal(t, "Kit Manager", n.DutyRole)
				assert.Equal(t, "Cup Final", n.EventTitle)
			},
		},
		{
			name: "join approved",
			msg:  "Your join request for team 7 has been approved",
			check: func(t *testing.T, n model.Notification) {
				assert.True(t, n.Approved)
				assert.Equal(t, "7", n.TeamID)
			},
		},
		{
			name: "join denied",
			msg:  "Your join request for team 7 has been denied",
			check: func(t *testing.T, n model.Notification) {
				assert.False(t, n.Approved)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, extract(tt.msg))
		})
	}
}

func TestExtractFields_KeepsExistingValues(t *testing.T) {
	n := model.Notification{Type: model.TypeJoinRequest, RequesterName: "Alice Liddell"}
	ExtractFields(n.Type, "New join request from Alice for team 7 in club 3", &n)
	assert.Equal(t, "Alice Liddell", n.RequesterName)
	assert.Equal(t, "7", n.TeamID)
}

func TestExtractFields_UsesGivenType(t *testing.T) {
	var club model.Notification
	ExtractFields(model.TypeClubChatMessage, "New message from Carol in club chat (club 3)", &club)
	assert.Equal(t, model.TypeClubChatMessage, club.Type)
	assert.Equal(t, "Carol", club.SenderName)
	assert.Equal(t, "3", club.ClubID)
	assert.Empty(t, club.TeamID)

	var team model.Notification
	ExtractFields(model.TypeTeamChatMessage, "New message from Dan in team chat (team 7)", &team)
	assert.Equal(t, "7", team.TeamID)
	assert.Empty(t, team.ClubID)
}

func TestRequestIDCandidates(t *testing.T) {
	raw := model.RawNotification{
		Message:   "New join request from Alice. Request ID: 42",
		RequestID: u64(50),
	}
	n := model.Notification{}
	assert.Equal(t, []string{"50", "42"}, requestIDCandidates(raw, &n))

	raw.RequestID = u64(42)
	assert.Equal(t, []string{"42"}, requestIDCandidates(raw, &n))

	assert.Empty(t, requestIDCandidates(model.RawNotification{Message: "New join request from Alice"}, &model.Notification{}))
}

func TestApplyPayload(t *testing.T) {
	n := model.Notification{}
	applyPayload(map[string]string{
		"teamId":   "7",
		"emoji":    " 🎉 ",
		"approved": "true",
		"ignored":  "x",
	}, &n)

	assert.Equal(t, "7", n.TeamID)
	assert.Equal(t, "🎉", n.Emoji)
	assert.True(t, n.Approved)
}
