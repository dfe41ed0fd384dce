package notify

import (
	"regexp"
	"strings"

	"github.com/nhle/clubhub/internal/model"
)

// rule maps a message trigger to a notification type. matches receives
// the lower-cased message.
type rule struct {
	typ     model.NotificationType
	matches func(lower string) bool
}

func containsAny(subs ...string) func(string) bool {
	return func(lower string) bool {
		for _, sub := range subs {
			if strings.Contains(lower, sub) {
				return true
			}
		}
		return false
	}
}

func containsAll(subs ...string) func(string) bool {
	return func(lower string) bool {
		for _, sub := range subs {
			if !strings.Contains(lower, sub) {
				return false
			}
		}
		return true
	}
}

func matchesPattern(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

var (
	pointsTriggerPattern       = regexp.MustCompile(`awarded \d+ points?`)
	joinResponseTriggerPattern = regexp.MustCompile(`join request\b.*\b(approved|denied|rejected)`)
)

// rules is evaluated top to bottom and the first match wins. A trigger
// that is a substring of another trigger must come after it:
// "chat comment received a new reaction" before "comment received a new
// reaction", "accepted your duty swap" before "duty swap request".
var rules = []rule{
	{model.TypeChatCommentReaction, containsAny("chat comment received a new reaction")},
	{model.TypeCommentReaction, containsAny("comment received a new reaction")},
	{model.TypeMessageReaction, containsAny("has reacted to your message")},
	{model.TypeClubChatMessage, containsAny("in club chat")},
	{model.TypeTeamChatMessage, containsAny("in team chat")},
	{model.TypeJoinRequest, containsAny("new join request")},
	{model.TypeRewardMinted, containsAll("reward", "minted")},
	{model.TypePointsAwarded, matchesPattern(pointsTriggerPattern)},
	{model.TypeDutySwapAccepted, containsAny("accepted your duty swap")},
	{model.TypeDutySwapRequest, containsAny("duty swap request")},
	{model.TypeEventInvitation, containsAny("invited to event")},
	{model.TypeDutyAssignment, containsAny("assigned the duty", "assigned to duty")},
	{model.TypeJoinResponse, matchesPattern(joinResponseTriggerPattern)},
}

// ClassifyMessage returns the type of a free-text notification message.
// Unrecognized text falls back to TypeMessage.
func ClassifyMessage(message string) model.NotificationType {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if r.matches(lower) {
			return r.typ
		}
	}
	return model.TypeMessage
}

// Classify returns the type of a raw notification and whether it came
// from a typed backend variant rather than text matching.
func Classify(raw model.RawNotification) (model.NotificationType, bool) {
	if kind := model.NotificationType(raw.Kind); kind != "" && kind.Valid() {
		return kind, true
	}
	return ClassifyMessage(raw.Message), false
}
