package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HammerMeetNail/fanbase/internal/api"
	"github.com/HammerMeetNail/fanbase/internal/config"
	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
	"github.com/HammerMeetNail/fanbase/internal/services"
	"github.com/HammerMeetNail/fanbase/internal/testutil"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Session: config.SessionConfig{
			Profile: "test",
			Store:   config.StoreMemory,
		},
		Client: config.ClientConfig{PollInterval: time.Minute},
	}
}

func quietLogger() *logging.Logger {
	return logging.New().SetOutput(io.Discard)
}

func newApp(t *testing.T, backend *testutil.FakeBackend, opts ...Option) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(backend.URL()), quietLogger(), opts...)
	testutil.AssertNoError(t, err, "new app")
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func signIn(t *testing.T, a *App, login string) {
	t.Helper()
	err := a.SignIn(context.Background(), models.Credentials{Login: login, Password: "secret"})
	testutil.AssertNoError(t, err, "sign in "+login)
}

func pendingWith(reqs []models.FriendRequest, userID int64) bool {
	for _, r := range reqs {
		if r.IsPending() && (r.SenderID == userID || r.ReceiverID == userID) {
			return true
		}
	}
	return false
}

func hasFriend(friends []models.User, userID int64) bool {
	for _, f := range friends {
		if f.ID == userID {
			return true
		}
	}
	return false
}

func TestSignIn_PopulatesSessionAndProfile(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	alice := backend.AddUser("alice", "Alice", "secret")
	a := newApp(t, backend)

	testutil.AssertFalse(t, a.Session.Snapshot().IsLoggedIn, "logged out before sign in")

	signIn(t, a, "alice")

	snap := a.Session.Snapshot()
	testutil.AssertTrue(t, snap.IsLoggedIn, "logged in")
	testutil.AssertTrue(t, snap.Token != "", "token held")
	id, ok := a.Profile.CurrentID()
	testutil.AssertTrue(t, ok, "profile loaded")
	testutil.AssertEqual(t, alice.ID, id, "profile id")
	testutil.AssertTrue(t, a.Relationships.Ready(), "relationships loaded")
}

func TestSignIn_BadPasswordLeavesSessionEmpty(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.AddUser("alice", "Alice", "secret")
	a := newApp(t, backend)

	err := a.SignIn(context.Background(), models.Credentials{Login: "alice", Password: "nope"})
	var authErr *services.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	testutil.AssertContains(t, authErr.Message(), "Incorrect username or password", "server detail surfaced")
	testutil.AssertFalse(t, a.Session.IsAuthenticated(), "still logged out")
	testutil.AssertTrue(t, a.Profile.Current() == nil, "no profile")
}

func TestFriendRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFakeBackend(t)
	alice := backend.AddUser("alice", "Alice", "secret")
	bob := backend.AddUser("bob", "Bob", "secret")

	aliceApp := newApp(t, backend)
	bobApp := newApp(t, backend)
	signIn(t, aliceApp, "alice")
	signIn(t, bobApp, "bob")

	// A sends B a request.
	req, err := aliceApp.Relationships.SendRequest(ctx, bob.ID)
	testutil.AssertNoError(t, err, "send request")

	sent := aliceApp.Relationships.Sent()
	testutil.AssertEqual(t, 1, len(sent), "alice sent count")
	testutil.AssertEqual(t, bob.ID, sent[0].ReceiverID, "sent to bob")
	testutil.AssertTrue(t, sent[0].IsPending(), "sent request pending")

	rel, err := aliceApp.Relationships.Relationship(bob.ID)
	testutil.AssertNoError(t, err, "alice view of bob")
	testutil.AssertEqual(t, services.RequestSent, rel.State, "alice sees request_sent")

	testutil.AssertNoError(t, bobApp.Relationships.Load(ctx), "bob reload")
	received := bobApp.Relationships.PendingReceived()
	testutil.AssertEqual(t, 1, len(received), "bob received count")
	testutil.AssertEqual(t, alice.ID, received[0].SenderID, "received from alice")

	rel, err = bobApp.Relationships.Relationship(alice.ID)
	testutil.AssertNoError(t, err, "bob view of alice")
	testutil.AssertEqual(t, services.RequestReceived, rel.State, "bob sees request_received")
	testutil.AssertEqual(t, req.ID, rel.RequestID, "request id carried")

	// B accepts.
	testutil.AssertNoError(t, bobApp.Relationships.AcceptRequest(ctx, req.ID), "accept")
	testutil.AssertNoError(t, aliceApp.Relationships.Load(ctx), "alice reload")

	testutil.AssertTrue(t, hasFriend(aliceApp.Relationships.Friends(), bob.ID), "alice has bob")
	testutil.AssertTrue(t, hasFriend(bobApp.Relationships.Friends(), alice.ID), "bob has alice")
	testutil.AssertFalse(t, pendingWith(aliceApp.Relationships.Sent(), bob.ID), "alice has no pending sent")
	testutil.AssertFalse(t, pendingWith(aliceApp.Relationships.Received(), bob.ID), "alice has no pending received")
	testutil.AssertFalse(t, pendingWith(bobApp.Relationships.Sent(), alice.ID), "bob has no pending sent")
	testutil.AssertFalse(t, pendingWith(bobApp.Relationships.Received(), alice.ID), "bob has no pending received")

	rel, err = aliceApp.Relationships.Relationship(bob.ID)
	testutil.AssertNoError(t, err, "alice view after accept")
	testutil.AssertEqual(t, services.Friends, rel.State, "friends")

	// The request produced a notification for bob.
	items, err := bobApp.Notifications.Fetch(ctx)
	testutil.AssertNoError(t, err, "bob notifications")
	testutil.AssertEqual(t, 1, len(items), "bob notification count")
	testutil.AssertEqual(t, 1, bobApp.Notifications.UnreadCount(), "bob unread")
}

func TestForcedLogout_FromAnyComponent(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFakeBackend(t)
	alice := backend.AddUser("alice", "Alice", "secret")
	backend.AddUser("bob", "Bob", "secret")

	store := services.NewMemoryTokenStore()
	a := newApp(t, backend, WithTokenStore(store))
	var prompts atomic.Int32
	a.OnSignInRequired(func(reason string) { prompts.Add(1) })

	signIn(t, a, "alice")
	_, err := a.Notifications.Fetch(ctx)
	testutil.AssertNoError(t, err, "fetch before revoke")

	backend.RevokeSessions(alice.ID)

	_, err = a.Notifications.Fetch(ctx)
	testutil.AssertErrorIs(t, err, api.ErrUnauthorized, "notification fetch rejected")

	testutil.AssertFalse(t, a.Session.Snapshot().IsLoggedIn, "session cleared")
	testutil.AssertEqual(t, "", a.Session.CurrentToken(), "token cleared")
	testutil.AssertTrue(t, a.Profile.Current() == nil, "profile cleared")
	testutil.AssertFalse(t, a.Relationships.Ready(), "relationships cleared")
	testutil.AssertEqual(t, int32(1), prompts.Load(), "one sign-in prompt")

	_, err = store.Load(ctx)
	testutil.AssertErrorIs(t, err, services.ErrNoStoredToken, "persisted token cleared")

	// Further rejected calls from other components do not prompt again.
	_ = a.Relationships.Load(ctx)
	testutil.AssertEqual(t, int32(1), prompts.Load(), "still one prompt")

	// Signing in again after the prompt works.
	signIn(t, a, "alice")
	testutil.AssertTrue(t, a.Session.IsAuthenticated(), "signed in again")

	backend.RevokeSessions(alice.ID)
	err = a.Relationships.Load(ctx)
	testutil.AssertErrorIs(t, err, api.ErrUnauthorized, "relationship load rejected")
	testutil.AssertEqual(t, int32(2), prompts.Load(), "second session prompts once")
}

func TestSpotifyUnauthorizedKeepsSession(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFakeBackend(t)
	backend.AddUser("alice", "Alice", "secret")
	a := newApp(t, backend)
	var prompts atomic.Int32
	a.OnSignInRequired(func(reason string) { prompts.Add(1) })
	signIn(t, a, "alice")

	_, err := a.Music.TopArtists(ctx)
	testutil.AssertErrorIs(t, err, services.ErrSpotifyNotConnected, "not connected")
	testutil.AssertTrue(t, a.Session.IsAuthenticated(), "session kept")
	testutil.AssertEqual(t, int32(0), prompts.Load(), "no prompt")
	testutil.AssertEqual(t, 0, backend.Hits("GET /spotify/top-artists"), "no call without linked account")
}

func TestSpotifyLinkedTopArtists(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFakeBackend(t)
	alice := backend.AddUser("alice", "Alice", "secret")
	backend.LinkSpotify(alice.ID)
	a := newApp(t, backend)
	signIn(t, a, "alice")

	artists, err := a.Music.TopArtists(ctx)
	testutil.AssertNoError(t, err, "top artists")
	testutil.AssertEqual(t, 1, len(artists), "artist count")
}

func TestStart_RestoresSession(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFakeBackend(t)
	alice := backend.AddUser("alice", "Alice", "secret")
	store := services.NewMemoryTokenStore()

	first := newApp(t, backend, WithTokenStore(store))
	signIn(t, first, "alice")

	second := newApp(t, backend, WithTokenStore(store))
	testutil.AssertNoError(t, second.Start(ctx), "start")
	testutil.AssertTrue(t, second.Session.IsAuthenticated(), "restored")
	id, ok := second.Profile.CurrentID()
	testutil.AssertTrue(t, ok, "profile loaded on start")
	testutil.AssertEqual(t, alice.ID, id, "restored profile id")
}

func TestStart_RevokedTokenRequiresSignIn(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFakeBackend(t)
	alice := backend.AddUser("alice", "Alice", "secret")
	store := services.NewMemoryTokenStore()

	first := newApp(t, backend, WithTokenStore(store))
	signIn(t, first, "alice")
	backend.RevokeSessions(alice.ID)

	second := newApp(t, backend, WithTokenStore(store))
	var prompts atomic.Int32
	second.OnSignInRequired(func(reason string) { prompts.Add(1) })

	err := second.Start(ctx)
	testutil.AssertErrorIs(t, err, services.ErrNotLoggedIn, "start with revoked token")
	testutil.AssertFalse(t, second.Session.IsAuthenticated(), "session cleared")
	testutil.AssertEqual(t, int32(1), prompts.Load(), "prompted")
}

func TestStart_NoStoredSession(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	a := newApp(t, backend)
	testutil.AssertNoError(t, a.Start(context.Background()), "start")
	testutil.AssertFalse(t, a.Session.IsAuthenticated(), "logged out")
	testutil.AssertErrorIs(t, a.RequireSession(), services.ErrNotLoggedIn, "require session")
	testutil.AssertEqual(t, 0, backend.Hits("GET /user/me"), "no profile fetch")
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFakeBackend(t)
	backend.AddUser("alice", "Alice", "secret")
	store := services.NewMemoryTokenStore()
	a := newApp(t, backend, WithTokenStore(store))
	var prompts atomic.Int32
	a.OnSignInRequired(func(reason string) { prompts.Add(1) })
	signIn(t, a, "alice")

	testutil.AssertNoError(t, a.SignOut(ctx), "sign out")
	testutil.AssertFalse(t, a.Session.IsAuthenticated(), "logged out")
	testutil.AssertTrue(t, a.Profile.Current() == nil, "profile cleared")
	testutil.AssertEqual(t, int32(0), prompts.Load(), "voluntary sign out does not prompt")
	_, err := store.Load(ctx)
	testutil.AssertErrorIs(t, err, services.ErrNoStoredToken, "store cleared")
}

func TestNew_FileStorePersistsToken(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.AddUser("alice", "Alice", "secret")

	cfg := testConfig(backend.URL())
	cfg.Session.Store = config.StoreFile
	cfg.Session.TokenFile = filepath.Join(t.TempDir(), "session.json")
	cfg.Session.Passphrase = "correct horse"

	a, err := New(context.Background(), cfg, quietLogger())
	testutil.AssertNoError(t, err, "new app")
	signIn(t, a, "alice")

	info, err := os.Stat(cfg.Session.TokenFile)
	testutil.AssertNoError(t, err, "token file written")
	testutil.AssertEqual(t, os.FileMode(0o600), info.Mode().Perm(), "token file mode")
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig("not a url")
	if _, err := New(context.Background(), cfg, quietLogger()); err == nil {
		t.Fatal("expected error for bad base url")
	}

	cfg = testConfig("http://localhost:8000")
	cfg.Session.Store = "s3"
	if _, err := New(context.Background(), cfg, quietLogger()); err == nil {
		t.Fatal("expected error for unknown store")
	}
}
