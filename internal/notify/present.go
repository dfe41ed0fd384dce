package notify

import (
	"fmt"
	"strings"

	"github.com/nhle/clubhub/internal/model"
)

var titles = map[model.NotificationType]string{
	model.TypeMessageReaction:     "New Reaction",
	model.TypeCommentReaction:     "Comment Reaction",
	model.TypeChatCommentReaction: "Chat Comment Reaction",
	model.TypeClubChatMessage:     "Club Chat",
	model.TypeTeamChatMessage:     "Team Chat",
	model.TypeJoinRequest:         "Join Request",
	model.TypeRewardMinted:        "Reward Minted",
	model.TypePointsAwarded:       "Points Awarded",
	model.TypeDutySwapRequest:     "Duty Swap Request",
	model.TypeDutySwapAccepted:    "Duty Swap Accepted",
	model.TypeEventInvitation:     "Event Invitation",
	model.TypeDutyAssignment:      "Duty Assignment",
	model.TypeMessage:             "Notification",
}

func titleFor(n model.Notification) string {
	if n.Type == model.TypeJoinResponse {
		if n.Approved {
			return "Join Request Approved"
		}
		return "Join Request Denied"
	}
	if t, ok := titles[n.Type]; ok {
		return t
	}
	return "Notification"
}

const snippetLen = 40

func snippet(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen-1]) + "…"
}

// describe returns the display message for n. Types with nothing to add
// keep the backend text.
func describe(n model.Notification, commentText string) string {
	switch n.Type {
	case model.TypeJoinRequest:
		if n.RequesterName == "" || n.TeamName == "" {
			return n.Message
		}
		msg := fmt.Sprintf("%s wants to join %s", n.RequesterName, n.TeamName)
		if n.ClubName != "" {
			msg += fmt.Sprintf(" (%s)", n.ClubName)
		}
		if n.RequestedRole != "" {
			msg += " as " + n.RequestedRole
		}
		return msg

	case model.TypeMessageReaction:
		if n.ReactorName != "" && n.ChatThreadID != "" {
			return fmt.Sprintf("%s reacted to your message in %s", n.ReactorName, n.ThreadName)
		}

	case model.TypeCommentReaction, model.TypeChatCommentReaction:
		if commentText != "" && n.Emoji != "" {
			return fmt.Sprintf("Your comment %q received a new reaction: %s", snippet(commentText), n.Emoji)
		}

	case model.TypeClubChatMessage:
		if n.SenderName != "" && n.ClubName != "" {
			return fmt.Sprintf("%s posted in %s club chat", n.SenderName, n.ClubName)
		}

	case model.TypeTeamChatMessage:
		if n.SenderName != "" && n.TeamName != "" {
			return fmt.Sprintf("%s posted in %s team chat", n.SenderName, n.TeamName)
		}

	case model.TypeJoinResponse:
		if n.TeamName != "" {
			verdict := "denied"
			if n.Approved {
				verdict = "approved"
			}
			return fmt.Sprintf("Your request to join %s was %s", n.TeamName, verdict)
		}
	}
	return n.Message
}
