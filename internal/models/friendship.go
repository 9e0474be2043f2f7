package models

import (
	"strings"
	"time"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "Pending"
	FriendRequestAccepted FriendRequestStatus = "Accepted"
	FriendRequestDenied   FriendRequestStatus = "Denied"
)

// Is compares statuses case-insensitively; the backend capitalizes, older rows may not.
func (s FriendRequestStatus) Is(other FriendRequestStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

type FriendRequest struct {
	ID         int64               `json:"id"`
	SenderID   int64               `json:"sender_id"`
	ReceiverID int64               `json:"receiver_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  *time.Time          `json:"created_at,omitempty"`
}

// IsPending reports whether the request still awaits a response.
func (r FriendRequest) IsPending() bool {
	return r.Status.Is(FriendRequestPending)
}

// FriendResponse is the answer to a received request, as spelled in the request path.
type FriendResponse string

const (
	ResponseAccepted FriendResponse = "accepted"
	ResponseDenied   FriendResponse = "denied"
)
