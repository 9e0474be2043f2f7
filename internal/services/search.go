package services

import (
	"context"
	"sync"
	"time"

	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

// CandidateLister runs one candidate search.
type CandidateLister interface {
	ListCandidates(ctx context.Context, query string, friendsOnly bool) ([]models.User, error)
}

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc in production.
type AfterFunc func(d time.Duration, f func()) Timer

// SearchResult is an applied search response.
type SearchResult struct {
	Generation  uint64
	Query       string
	FriendsOnly bool
	Users       []models.User
	Err         error
}

// CandidateSearch debounces candidate searches. Every Submit starts a new
// generation and cancels the pending timer; a response is applied only if
// its generation is still the latest, whatever order responses arrive in.
type CandidateSearch struct {
	lister   CandidateLister
	debounce time.Duration
	logger   *logging.Logger

	mu         sync.Mutex
	afterFunc  AfterFunc
	generation uint64
	timer      Timer
	latest     SearchResult
	listener   func(SearchResult)
}

func NewCandidateSearch(lister CandidateLister, debounce time.Duration, logger *logging.Logger) *CandidateSearch {
	return &CandidateSearch{
		lister:   lister,
		debounce: debounce,
		logger:   logging.OrDefault(logger).Component("search"),
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
}

// SetAfterFunc replaces the timer factory. Tests use it to fire debounce
// timers by hand.
func (s *CandidateSearch) SetAfterFunc(fn AfterFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterFunc = fn
}

// OnResult registers a listener for applied results.
func (s *CandidateSearch) OnResult(fn func(SearchResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// Submit schedules a search for query and returns its generation.
func (s *CandidateSearch) Submit(ctx context.Context, query string, friendsOnly bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.afterFunc(s.debounce, func() {
		s.run(ctx, gen, query, friendsOnly)
	})
	return gen
}

// Cancel drops the pending search and makes any in-flight response stale.
func (s *CandidateSearch) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Latest returns the most recently applied result.
func (s *CandidateSearch) Latest() SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *CandidateSearch) run(ctx context.Context, gen uint64, query string, friendsOnly bool) {
	users, err := s.lister.ListCandidates(ctx, query, friendsOnly)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale search response", map[string]interface{}{"query": query, "generation": gen})
		return
	}
	result := SearchResult{Generation: gen, Query: query, FriendsOnly: friendsOnly, Users: users, Err: err}
	s.latest = result
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(result)
	}
}
