package model

// Club is a sports club as exposed by the backend.
type Club struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Team belongs to a club.
type Team struct {
	ID     uint64 `json:"id"`
	ClubID uint64 `json:"clubId"`
	Name   string `json:"name"`
}

// MessageThread is a club-level or team-level chat thread.
type MessageThread struct {
	ID     uint64  `json:"id"`
	Name   string  `json:"name"`
	ClubID *uint64 `json:"clubId,omitempty"`
	TeamID *uint64 `json:"teamId,omitempty"`
}

// Comment is a comment on an announcement or in a chat thread.
type Comment struct {
	ID       uint64 `json:"id"`
	ThreadID uint64 `json:"threadId"`
	Author   string `json:"author"`
	Content  string `json:"content"`
}

// Join request statuses reported by the backend.
const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestDenied   = "denied"
)

// JoinRequest is a pending application to take a role on a team.
type JoinRequest struct {
	ID            uint64 `json:"id"`
	UserPrincipal string `json:"userPrincipal"`
	ClubID        string `json:"clubId"`
	TeamID        string `json:"teamId"`
	RequestedRole string `json:"requestedRole"`
	Status        string `json:"status"`
}

// UserProfile is the public profile of a backend principal.
type UserProfile struct {
	Principal string `json:"principal"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
}

// TeamMembership records a user's role on a team.
type TeamMembership struct {
	TeamID        uint64 `json:"teamId"`
	UserPrincipal string `json:"userPrincipal"`
	Role          string `json:"role"`
}
