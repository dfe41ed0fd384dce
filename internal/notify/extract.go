package notify

import (
	"regexp"
	"strings"

	"github.com/nhle/clubhub/internal/model"
)

var (
	reactorPattern      = regexp.MustCompile(`(?i)^(.+?)\s+has reacted to your message`)
	threadRefPattern    = regexp.MustCompile(`(?i)\bin thread\s+(\d+)`)
	emojiPattern        = regexp.MustCompile(`(?i)received a new reaction:\s*(\S+)`)
	commentIDPattern    = regexp.MustCompile(`(?i)comment id:\s*(\d+)`)
	senderPattern       = regexp.MustCompile(`(?i)new message from\s+(.+?)\s+in (?:club|team) chat`)
	clubRefPattern      = regexp.MustCompile(`(?i)\bclub\s+(\d+)`)
	teamRefPattern      = regexp.MustCompile(`(?i)\bteam\s+(\d+)`)
	requestIDPattern    = regexp.MustCompile(`(?i)request id:\s*(\d+)`)
	rewardIDPattern     = regexp.MustCompile(`(?i)reward id:\s*(\d+)`)
	pointsPattern       = regexp.MustCompile(`(?i)awarded\s+(\d+)\s+points?`)
	pointsReasonPattern = regexp.MustCompile(`(?i)points?\s+for\s+(?:event:?\s*)?(.+?)\.?\s*$`)
	swapSenderPattern   = regexp.MustCompile(`(?i)^(.+?)\s+(?:sent you a duty swap request|accepted your duty swap)`)
	swapDutyPattern     = regexp.MustCompile(`(?i)request for\s+(.+?)\s+at event:\s*(.+?)(?:\.\s+swap request id|\.?\s*$)`)
	swapIDPattern       = regexp.MustCompile(`(?i)swap request id:\s*(\d+)`)
	invitationPattern   = regexp.MustCompile(`(?i)invited to event:\s*(.+?)\.?\s*$`)
	assignmentPattern   = regexp.MustCompile(`(?i)assigned (?:the duty|to duty)\s+(.+?)\s+for event:\s*(.+?)\.?\s*$`)

	// requesterPatterns are tried in order.
	requesterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)join request from\s+(.+?)\s+for team`),
		regexp.MustCompile(`(?i)join request from\s+(.+?)(?:\s+to join|\s+in club|[.,]|$)`),
	}

	// teamNamePattern covers messages that name the team instead of
	// giving its id.
	teamNamePattern = regexp.MustCompile(`(?i)for team\s+"?([^".,]+?)"?\s+in club`)

	// rolePatterns are tried in order; the first capture wins.
	rolePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)with requested role:?\s+([^.,;]+)`),
		regexp.MustCompile(`(?i)requested role:?\s+([^.,;]+)`),
		regexp.MustCompile(`(?i)\bas (?:an? )?([A-Za-z]+)`),
		regexp.MustCompile(`(?i)\brole:?\s+([A-Za-z]+)`),
	}
)

// extractor pulls type-specific fields out of a message into n.
type extractor func(msg string, n *model.Notification)

var extractors = map[model.NotificationType]extractor{
	model.TypeMessageReaction:     extractMessageReaction,
	model.TypeCommentReaction:     extractCommentReaction,
	model.TypeChatCommentReaction: extractCommentReaction,
	model.TypeClubChatMessage:     extractChatMessage,
	model.TypeTeamChatMessage:     extractChatMessage,
	model.TypeJoinRequest:         extractJoinRequest,
	model.TypeRewardMinted:        extractReward,
	model.TypePointsAwarded:       extractPoints,
	model.TypeDutySwapRequest:     extractDutySwap,
	model.TypeDutySwapAccepted:    extractDutySwap,
	model.TypeEventInvitation:     extractInvitation,
	model.TypeDutyAssignment:      extractAssignment,
	model.TypeJoinResponse:        extractJoinResponse,
}

// ExtractFields fills the fields of n that can be read from msg for the
// given type, which is also recorded as n.Type. Fields already set on n
// are left alone.
func ExtractFields(typ model.NotificationType, msg string, n *model.Notification) {
	n.Type = typ
	if fn, ok := extractors[typ]; ok {
		fn(msg, n)
	}
}

// capture returns the trimmed submatch idx of the first match, or "".
func capture(re *regexp.Regexp, msg string, idx int) string {
	m := re.FindStringSubmatch(msg)
	if len(m) <= idx {
		return ""
	}
	return strings.TrimSpace(m[idx])
}

func firstCapture(patterns []*regexp.Regexp, msg string) string {
	for _, re := range patterns {
		if v := capture(re, msg, 1); v != "" {
			return v
		}
	}
	return ""
}

func setIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func extractMessageReaction(msg string, n *model.Notification) {
	setIfEmpty(&n.ReactorName, capture(reactorPattern, msg, 1))
	setIfEmpty(&n.ChatThreadID, capture(threadRefPattern, msg, 1))
}

func extractCommentReaction(msg string, n *model.Notification) {
	setIfEmpty(&n.Emoji, capture(emojiPattern, msg, 1))
	setIfEmpty(&n.CommentID, capture(commentIDPattern, msg, 1))
}

func extractChatMessage(msg string, n *model.Notification) {
	setIfEmpty(&n.SenderName, capture(senderPattern, msg, 1))
	if n.Type == model.TypeClubChatMessage {
		setIfEmpty(&n.ClubID, capture(clubRefPattern, msg, 1))
	} else {
		setIfEmpty(&n.TeamID, capture(teamRefPattern, msg, 1))
	}
	setIfEmpty(&n.ChatThreadID, capture(threadRefPattern, msg, 1))
}

func extractJoinRequest(msg string, n *model.Notification) {
	setIfEmpty(&n.RequesterName, firstCapture(requesterPatterns, msg))
	setIfEmpty(&n.TeamID, capture(teamRefPattern, msg, 1))
	setIfEmpty(&n.ClubID, capture(clubRefPattern, msg, 1))
	if n.TeamID == "" {
		setIfEmpty(&n.TeamName, capture(teamNamePattern, msg, 1))
	}
	setIfEmpty(&n.RequestedRole, firstCapture(rolePatterns, msg))
}

func extractReward(msg string, n *model.Notification) {
	setIfEmpty(&n.RewardID, capture(rewardIDPattern, msg, 1))
}

func extractPoints(msg string, n *model.Notification) {
	setIfEmpty(&n.PointsAwarded, capture(pointsPattern, msg, 1))
	setIfEmpty(&n.EventTitle, capture(pointsReasonPattern, msg, 1))
}

func extractDutySwap(msg string, n *model.Notification) {
	setIfEmpty(&n.SenderName, capture(swapSenderPattern, msg, 1))
	if m := swapDutyPattern.FindStringSubmatch(msg); m != nil {
		setIfEmpty(&n.DutyRole, strings.TrimSpace(m[1]))
		setIfEmpty(&n.EventTitle, strings.TrimSpace(m[2]))
	}
	setIfEmpty(&n.SwapRequestID, capture(swapIDPattern, msg, 1))
}

func extractInvitation(msg string, n *model.Notification) {
	setIfEmpty(&n.EventTitle, capture(invitationPattern, msg, 1))
}

func extractAssignment(msg string, n *model.Notification) {
	if m := assignmentPattern.FindStringSubmatch(msg); m != nil {
		setIfEmpty(&n.DutyRole, strings.TrimSpace(m[1]))
		setIfEmpty(&n.EventTitle, strings.TrimSpace(m[2]))
	}
}

func extractJoinResponse(msg string, n *model.Notification) {
	lower := strings.ToLower(msg)
	n.Approved = strings.Contains(lower, "approved") || strings.Contains(lower, "accepted")
	setIfEmpty(&n.TeamID, capture(teamRefPattern, msg, 1))
	setIfEmpty(&n.ClubID, capture(clubRefPattern, msg, 1))
}

// requestIDCandidates returns the join request ids to try, typed field
// first, then the id embedded in the message text. Duplicates are
// removed.
func requestIDCandidates(raw model.RawNotification, n *model.Notification) []string {
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		for _, existing := range out {
			if existing == id {
				return
			}
		}
		out = append(out, id)
	}

	if raw.RequestID != nil {
		add(formatID(*raw.RequestID))
	}
	add(n.RequestID)
	add(capture(requestIDPattern, raw.Message, 1))
	return out
}

// payloadFields maps typed payload keys to notification fields.
var payloadFields = map[string]func(n *model.Notification) *string{
	"requestId":     func(n *model.Notification) *string { return &n.RequestID },
	"requesterName": func(n *model.Notification) *string { return &n.RequesterName },
	"requestedRole": func(n *model.Notification) *string { return &n.RequestedRole },
	"clubId":        func(n *model.Notification) *string { return &n.ClubID },
	"clubName":      func(n *model.Notification) *string { return &n.ClubName },
	"teamId":        func(n *model.Notification) *string { return &n.TeamID },
	"teamName":      func(n *model.Notification) *string { return &n.TeamName },
	"chatThreadId":  func(n *model.Notification) *string { return &n.ChatThreadID },
	"threadName":    func(n *model.Notification) *string { return &n.ThreadName },
	"reactorName":   func(n *model.Notification) *string { return &n.ReactorName },
	"senderName":    func(n *model.Notification) *string { return &n.SenderName },
	"emoji":         func(n *model.Notification) *string { return &n.Emoji },
	"commentId":     func(n *model.Notification) *string { return &n.CommentID },
	"rewardId":      func(n *model.Notification) *string { return &n.RewardID },
	"pointsAwarded": func(n *model.Notification) *string { return &n.PointsAwarded },
	"dutyRole":      func(n *model.Notification) *string { return &n.DutyRole },
	"eventTitle":    func(n *model.Notification) *string { return &n.EventTitle },
	"swapRequestId": func(n *model.Notification) *string { return &n.SwapRequestID },
}

// applyPayload copies a typed variant's payload onto n. Unknown keys are
// ignored.
func applyPayload(payload map[string]string, n *model.Notification) {
	for key, value := range payload {
		if field, ok := payloadFields[key]; ok {
			*field(n) = strings.TrimSpace(value)
		}
	}
	if v, ok := payload["approved"]; ok {
		n.Approved = v == "true"
	}
}
