package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/HammerMeetNail/fanbase/internal/api"
)

var (
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrNotReady             = errors.New("relationships not loaded yet")
	ErrCannotFriendSelf     = errors.New("cannot send friend request to yourself")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSpotifyNotConnected  = errors.New("spotify account not connected")
	ErrMissingCredentials   = errors.New("login and password are required")
	ErrTokenExpired         = errors.New("session token already expired")
)

// GenericFailure is shown when an error carries no user-facing reason.
const GenericFailure = "Something went wrong. Please try again."

// AuthError reports a failed login: rejected credentials or an unreachable backend.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "login failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Message is the text to show next to the login form.
func (e *AuthError) Message() string {
	switch {
	case errors.Is(e.Err, ErrMissingCredentials):
		return "Enter your username or e-mail and password."
	case errors.Is(e.Err, ErrTokenExpired):
		return "The server issued an expired session. Check your system clock and try again."
	case api.IsNetwork(e.Err):
		return "Could not reach the server. Check your connection and try again."
	}
	if detail := api.Detail(e.Err); detail != "" {
		return detail
	}
	return "Invalid credentials."
}

// FetchError reports a failed read. Callers keep their previous data.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MutationError reports a failed write. No local state was changed.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Message returns the server-provided reason, or a generic fallback.
func (e *MutationError) Message() string {
	return userMessage(e.Err)
}

// UserMessage extracts what to show a user for err.
func UserMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message()
	}
	return userMessage(err)
}

func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrSpotifyNotConnected):
		return "Connect your Spotify account first."
	case api.IsNetwork(err):
		return "Could not reach the server. Check your connection and try again."
	}
	if detail := api.Detail(err); detail != "" {
		return detail
	}
	var transition *TransitionError
	if errors.As(err, &transition) {
		return transition.Error()
	}
	for _, sentinel := range []error{ErrCannotFriendSelf, ErrRequestNotFound, ErrNotificationNotFound, ErrNotLoggedIn, ErrNotReady, ErrEmptyPost} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return GenericFailure
}

// TransitionError reports an operation that is not valid from the current
// relationship state.
type TransitionError struct {
	Op   string
	From RelationshipState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s: relationship is %s", e.Op, e.From)
}

// InconsistentStateError reports a user present in more than one of the
// friends, sent and received collections. It points at a backend defect.
type InconsistentStateError struct {
	UserID int64
	States []RelationshipState
}

func (e *InconsistentStateError) Error() string {
	names := make([]string, len(e.States))
	for i, s := range e.States {
		names[i] = s.String()
	}
	sort.Strings(names)
	return fmt.Sprintf("user %d appears as %s", e.UserID, strings.Join(names, " and "))
}
