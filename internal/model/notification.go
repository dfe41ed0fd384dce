package model

import "time"

// NotificationType is the semantic category assigned to a backend
// notification by the classifier.
type NotificationType string

const (
	TypeMessageReaction     NotificationType = "message_reaction"
	TypeCommentReaction     NotificationType = "comment_reaction"
	TypeChatCommentReaction NotificationType = "chat_comment_reaction"
	TypeClubChatMessage     NotificationType = "club_chat_message"
	TypeTeamChatMessage     NotificationType = "team_chat_message"
	TypeJoinRequest         NotificationType = "join_request"
	TypeRewardMinted        NotificationType = "reward_minted"
	TypePointsAwarded       NotificationType = "points_awarded"
	TypeDutySwapRequest     NotificationType = "duty_swap_request"
	TypeDutySwapAccepted    NotificationType = "duty_swap_accepted"
	TypeEventInvitation     NotificationType = "event_invitation"
	TypeDutyAssignment      NotificationType = "duty_assignment"
	TypeJoinResponse        NotificationType = "join_response"
	TypeMessage             NotificationType = "message"
)

// NotificationTypes lists every member of the closed type set.
var NotificationTypes = []NotificationType{
	TypeMessageReaction,
	TypeCommentReaction,
	TypeChatCommentReaction,
	TypeClubChatMessage,
	TypeTeamChatMessage,
	TypeJoinRequest,
	TypeRewardMinted,
	TypePointsAwarded,
	TypeDutySwapRequest,
	TypeDutySwapAccepted,
	TypeEventInvitation,
	TypeDutyAssignment,
	TypeJoinResponse,
	TypeMessage,
}

// Valid reports whether t belongs to the closed type set.
func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BackendIDPrefix is prepended to backend notification ids to form the
// local composite id.
const BackendIDPrefix = "backend_"

// RawNotification is a notification as returned by the backend.
type RawNotification struct {
	// ID is the backend-assigned notification id.
	ID uint64 `json:"id"`

	// Message is the free-text notification body.
	Message string `json:"message"`

	// Timestamp is the creation time in nanoseconds since the epoch.
	Timestamp int64 `json:"timestamp"`

	// IsRead is the backend's read flag.
	IsRead bool `json:"isRead"`

	// RequestID is set by newer backends on join request notifications.
	RequestID *uint64 `json:"requestId,omitempty"`

	// ChatThreadID links chat notifications to their thread.
	ChatThreadID *uint64 `json:"chatThreadId,omitempty"`

	// Kind and Payload carry a typed variant when the backend emits one.
	// When Kind names a known type the text classifier is bypassed.
	Kind    string            `json:"kind,omitempty"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Notification is a classified notification ready for display.
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp int64            `json:"timestamp"` // milliseconds
	Read      bool             `json:"read"`

	RequestID     string `json:"requestId,omitempty"`
	RequesterName string `json:"requesterName,omitempty"`
	RequestedRole string `json:"requestedRole,omitempty"`
	ClubID        string `json:"clubId,omitempty"`
	ClubName      string `json:"clubName,omitempty"`
	TeamID        string `json:"teamId,omitempty"`
	TeamName      string `json:"teamName,omitempty"`
	ChatThreadID  string `json:"chatThreadId,omitempty"`
	ThreadName    string `json:"threadName,omitempty"`
	ReactorName   string `json:"reactorName,omitempty"`
	SenderName    string `json:"senderName,omitempty"`
	Emoji         string `json:"emoji,omitempty"`
	CommentID     string `json:"commentId,omitempty"`
	RewardID      string `json:"rewardId,omitempty"`
	PointsAwarded string `json:"pointsAwarded,omitempty"`
	DutyRole      string `json:"dutyRole,omitempty"`
	EventTitle    string `json:"eventTitle,omitempty"`
	SwapRequestID string `json:"swapRequestId,omitempty"`

	// Approved is only meaningful for join_response notifications.
	Approved bool `json:"approved,omitempty"`
}

// CreatedAt converts the millisecond timestamp to a time.Time.
func (n Notification) CreatedAt() time.Time {
	return time.UnixMilli(n.Timestamp)
}

// IsActionable reports whether the notification offers approve/deny.
func (n Notification) IsActionable() bool {
	return n.Type == TypeJoinRequest && n.RequestID != "" && !n.Read
}
