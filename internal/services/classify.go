package services

import "github.com/HammerMeetNail/fanbase/internal/models"

// RelationshipState classifies the connection between the signed-in user and
// another user. It is always derived from the loaded collections, never stored.
type RelationshipState int

const (
	Stranger RelationshipState = iota
	RequestSent
	RequestReceived
	Friends
)

func (s RelationshipState) String() string {
	switch s {
	case Stranger:
		return "stranger"
	case RequestSent:
		return "request_sent"
	case RequestReceived:
		return "request_received"
	case Friends:
		return "friends"
	default:
		return "unknown"
	}
}

// Relationship is the classification result. RequestID is set for
// RequestSent and RequestReceived.
type Relationship struct {
	State     RelationshipState
	RequestID int64
}

// RelationshipSnapshot is the input to Classify.
type RelationshipSnapshot struct {
	Friends  []models.User
	Sent     []models.FriendRequest
	Received []models.FriendRequest
}

// Classify derives the relationship between self and other. Only pending
// requests count. A user found in more than one collection yields an
// *InconsistentStateError rather than a guess.
func Classify(self, other int64, snap RelationshipSnapshot) (Relationship, error) {
	if self == other {
		return Relationship{}, ErrCannotFriendSelf
	}

	var found []Relationship
	for _, f := range snap.Friends {
		if f.ID == other {
			found = append(found, Relationship{State: Friends})
			break
		}
	}
	for _, r := range snap.Sent {
		if r.ReceiverID == other && r.IsPending() {
			found = append(found, Relationship{State: RequestSent, RequestID: r.ID})
			break
		}
	}
	for _, r := range snap.Received {
		if r.SenderID == other && r.IsPending() {
			found = append(found, Relationship{State: RequestReceived, RequestID: r.ID})
			break
		}
	}

	switch len(found) {
	case 0:
		return Relationship{State: Stranger}, nil
	case 1:
		return found[0], nil
	default:
		states := make([]RelationshipState, len(found))
		for i, r := range found {
			states[i] = r.State
		}
		return Relationship{}, &InconsistentStateError{UserID: other, States: states}
	}
}
