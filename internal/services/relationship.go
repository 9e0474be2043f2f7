package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

const minSearchQueryLength = 2

// RelationshipService holds the friends, sent and received collections and
// drives the friend-request workflow. Relationship state is derived from the
// collections by Classify on every read.
type RelationshipService struct {
	api    FriendAPI
	self   SelfProvider
	logger *logging.Logger

	mu       sync.Mutex
	friends  []models.User
	sent     []models.FriendRequest
	received []models.FriendRequest

	friendsLoaded  bool
	sentLoaded     bool
	receivedLoaded bool

	// Bumped on every local change to the collection. A fetch issued under an
	// older epoch is dropped when it lands.
	friendsEpoch  uint64
	sentEpoch     uint64
	receivedEpoch uint64
}

func NewRelationshipService(api FriendAPI, self SelfProvider, logger *logging.Logger) *RelationshipService {
	return &RelationshipService{
		api:    api,
		self:   self,
		logger: logging.OrDefault(logger).Component("relationships"),
	}
}

// Load fetches the three collections in parallel. A failed collection keeps
// its previous contents; the failures are returned joined. A collection
// changed locally or reset while its fetch was in flight keeps the local copy.
func (s *RelationshipService) Load(ctx context.Context) error {
	var g errgroup.Group
	var sentErr, receivedErr, friendsErr error

	g.Go(func() error {
		s.mu.Lock()
		epoch := s.sentEpoch
		s.mu.Unlock()

		sent, err := s.api.SentFriendRequests(ctx)
		if err != nil {
			sentErr = &FetchError{Op: "sent friend requests", Err: err}
			return nil
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.sentEpoch != epoch {
			s.logger.Debug("Dropped stale sent requests")
			return nil
		}
		s.sent = sent
		s.sentLoaded = true
		return nil
	})
	g.Go(func() error {
		s.mu.Lock()
		epoch := s.receivedEpoch
		s.mu.Unlock()

		received, err := s.api.ReceivedFriendRequests(ctx)
		if err != nil {
			receivedErr = &FetchError{Op: "received friend requests", Err: err}
			return nil
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.receivedEpoch != epoch {
			s.logger.Debug("Dropped stale received requests")
			return nil
		}
		s.received = received
		s.receivedLoaded = true
		return nil
	})
	g.Go(func() error {
		friendsErr = s.refreshFriends(ctx)
		return nil
	})
	_ = g.Wait()

	err := errors.Join(sentErr, receivedErr, friendsErr)
	if err != nil {
		s.logger.WithError(err).Warn("Relationship load incomplete")
	}
	return err
}

func (s *RelationshipService) refreshFriends(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.friendsEpoch
	s.mu.Unlock()

	friends, err := s.api.Friends(ctx)
	if err != nil {
		return &FetchError{Op: "friends", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.friendsEpoch != epoch {
		s.logger.Debug("Dropped stale friends list")
		return nil
	}
	s.friends = friends
	s.friendsLoaded = true
	return nil
}

// Ready reports whether every collection has loaded at least once.
func (s *RelationshipService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyLocked()
}

func (s *RelationshipService) readyLocked() bool {
	return s.friendsLoaded && s.sentLoaded && s.receivedLoaded
}

// Snapshot returns copies of the three collections.
func (s *RelationshipService) Snapshot() RelationshipSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *RelationshipService) snapshotLocked() RelationshipSnapshot {
	return RelationshipSnapshot{
		Friends:  append([]models.User(nil), s.friends...),
		Sent:     append([]models.FriendRequest(nil), s.sent...),
		Received: append([]models.FriendRequest(nil), s.received...),
	}
}

func (s *RelationshipService) Friends() []models.User {
	return s.Snapshot().Friends
}

func (s *RelationshipService) Sent() []models.FriendRequest {
	return s.Snapshot().Sent
}

func (s *RelationshipService) Received() []models.FriendRequest {
	return s.Snapshot().Received
}

// PendingReceived returns received requests still awaiting an answer.
func (s *RelationshipService) PendingReceived() []models.FriendRequest {
	var out []models.FriendRequest
	for _, r := range s.Received() {
		if r.IsPending() {
			out = append(out, r)
		}
	}
	return out
}

// Reset drops all collections, e.g. on logout.
func (s *RelationshipService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends, s.sent, s.received = nil, nil, nil
	s.friendsLoaded, s.sentLoaded, s.receivedLoaded = false, false, false
	s.friendsEpoch++
	s.sentEpoch++
	s.receivedEpoch++
}

func (s *RelationshipService) selfID() (int64, error) {
	u := s.self.Current()
	if u == nil {
		return 0, ErrNotLoggedIn
	}
	return u.ID, nil
}

// Relationship classifies other against the signed-in user.
func (s *RelationshipService) Relationship(other int64) (Relationship, error) {
	self, err := s.selfID()
	if err != nil {
		return Relationship{}, err
	}

	s.mu.Lock()
	if !s.readyLocked() {
		s.mu.Unlock()
		return Relationship{}, ErrNotReady
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	rel, err := Classify(self, other, snap)
	var inconsistent *InconsistentStateError
	if errors.As(err, &inconsistent) {
		s.logger.Warn("Inconsistent relationship data", map[string]interface{}{
			"user_id": other,
			"detail":  inconsistent.Error(),
		})
	}
	return rel, err
}

// SendRequest sends a friend request to a stranger and appends the created
// record to the sent collection.
func (s *RelationshipService) SendRequest(ctx context.Context, target int64) (*models.FriendRequest, error) {
	rel, err := s.Relationship(target)
	if err != nil {
		return nil, err
	}
	if rel.State != Stranger {
		return nil, &TransitionError{Op: "send friend request", From: rel.State}
	}

	req, err := s.api.SendFriendRequest(ctx, target)
	if err != nil {
		return nil, &MutationError{Op: "send friend request", Err: err}
	}

	s.mu.Lock()
	s.sent = append(s.sent, *req)
	s.sentEpoch++
	s.mu.Unlock()

	s.logger.Info("Friend request sent", map[string]interface{}{"request_id": req.ID, "receiver_id": target})
	return req, nil
}

// AcceptRequest accepts a pending received request, drops it from received
// and re-reads friends. A failed re-read after a successful accept is
// returned as *FetchError; the accept itself stands.
func (s *RelationshipService) AcceptRequest(ctx context.Context, requestID int64) error {
	if err := s.respond(ctx, requestID, models.ResponseAccepted); err != nil {
		return err
	}
	return s.refreshFriends(ctx)
}

// DeclineRequest declines a pending received request and drops it from received.
func (s *RelationshipService) DeclineRequest(ctx context.Context, requestID int64) error {
	return s.respond(ctx, requestID, models.ResponseDenied)
}

func (s *RelationshipService) respond(ctx context.Context, requestID int64, response models.FriendResponse) error {
	op := "accept friend request"
	if response == models.ResponseDenied {
		op = "decline friend request"
	}

	req, ok := s.findReceived(requestID)
	if !ok {
		return ErrRequestNotFound
	}
	rel, err := s.Relationship(req.SenderID)
	if err != nil {
		return err
	}
	if rel.State != RequestReceived {
		return &TransitionError{Op: op, From: rel.State}
	}

	if err := s.api.RespondToFriendRequest(ctx, requestID, response); err != nil {
		return &MutationError{Op: op, Err: err}
	}

	s.mu.Lock()
	s.received = removeRequest(s.received, requestID)
	s.receivedEpoch++
	if response == models.ResponseAccepted {
		// friends is stale until the refresh that follows
		s.friendsEpoch++
	}
	s.mu.Unlock()

	s.logger.Info("Friend request answered", map[string]interface{}{
		"request_id": requestID,
		"sender_id":  req.SenderID,
		"response":   string(response),
	})
	return nil
}

func (s *RelationshipService) findReceived(requestID int64) (models.FriendRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.received {
		if r.ID == requestID && r.IsPending() {
			return r, true
		}
	}
	return models.FriendRequest{}, false
}

// RemoveFriend ends a friendship and drops the user from friends.
func (s *RelationshipService) RemoveFriend(ctx context.Context, friendID int64) error {
	rel, err := s.Relationship(friendID)
	if err != nil {
		return err
	}
	if rel.State != Friends {
		return &TransitionError{Op: "remove friend", From: rel.State}
	}

	if err := s.api.RemoveFriend(ctx, friendID); err != nil {
		return &MutationError{Op: "remove friend", Err: err}
	}

	s.mu.Lock()
	kept := make([]models.User, 0, len(s.friends))
	for _, f := range s.friends {
		if f.ID != friendID {
			kept = append(kept, f)
		}
	}
	s.friends = kept
	s.friendsEpoch++
	s.mu.Unlock()

	s.logger.Info("Friend removed", map[string]interface{}{"friend_id": friendID})
	return nil
}

// ListCandidates searches all users on the server, or filters the loaded
// friends locally when friendsOnly is set. The signed-in user is never returned.
func (s *RelationshipService) ListCandidates(ctx context.Context, query string, friendsOnly bool) ([]models.User, error) {
	self, err := s.selfID()
	if err != nil {
		return nil, err
	}
	q := strings.TrimSpace(query)

	if friendsOnly {
		out := []models.User{}
		for _, f := range s.Friends() {
			if f.ID == self {
				continue
			}
			if q == "" || f.Matches(q) {
				out = append(out, f)
			}
		}
		return out, nil
	}

	if len([]rune(q)) < minSearchQueryLength {
		return []models.User{}, nil
	}
	users, err := s.api.SearchUsers(ctx, q)
	if err != nil {
		return nil, &FetchError{Op: "user search", Err: err}
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != self {
			out = append(out, u)
		}
	}
	return out, nil
}

func removeRequest(reqs []models.FriendRequest, id int64) []models.FriendRequest {
	out := make([]models.FriendRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
