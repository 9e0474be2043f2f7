package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

type fakeAccount struct {
	user     models.User
	password string
}

// FakeBackend is an in-memory implementation of the fanbase REST contract,
// served over httptest. Tokens are HS256 JWTs whose subject is the user ID.
type FakeBackend struct {
	Server *httptest.Server

	secret   []byte
	TokenTTL time.Duration

	mu            sync.Mutex
	accounts      map[int64]*fakeAccount
	requests      []models.FriendRequest
	friendships   map[[2]int64]bool
	notifications map[int64][]models.Notification
	generation    map[int64]int
	hits          map[string]int
	nextID        int64
}

// NewFakeBackend starts a backend that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		secret:        []byte("fake-backend-secret"),
		TokenTTL:      time.Hour,
		accounts:      make(map[int64]*fakeAccount),
		friendships:   make(map[[2]int64]bool),
		notifications: make(map[int64][]models.Notification),
		generation:    make(map[int64]int),
		hits:          make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.login)
	mux.HandleFunc("GET /user/me", b.auth(b.me))
	mux.HandleFunc("GET /user/id/{id}", b.auth(b.userByID))
	mux.HandleFunc("GET /user/{username}", b.auth(b.userByUsername))
	mux.HandleFunc("PUT /user/me/favorite-artist", b.auth(b.favoriteArtist))
	mux.HandleFunc("POST /friends/request/{id}", b.auth(b.sendRequest))
	mux.HandleFunc("GET /friends/requests/sent", b.auth(b.sentRequests))
	mux.HandleFunc("GET /friends/requests", b.auth(b.receivedRequests))
	mux.HandleFunc("PUT /friends/request/{id}/{response}", b.auth(b.respond))
	mux.HandleFunc("GET /friends/{$}", b.auth(b.friends))
	mux.HandleFunc("DELETE /friends/{id}", b.auth(b.removeFriend))
	mux.HandleFunc("GET /friends/search", b.auth(b.search))
	mux.HandleFunc("GET /friends/notifications", b.auth(b.listNotifications))
	mux.HandleFunc("PUT /friends/notifications/{id}/read", b.auth(b.markRead))
	mux.HandleFunc("GET /spotify/login", b.auth(b.spotifyLogin))
	mux.HandleFunc("GET /spotify/top-artists", b.auth(b.topArtists))

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Server.Close)
	return b
}

func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// AddUser registers an account and returns it.
func (b *FakeBackend) AddUser(username, name, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	u := models.User{
		ID:       b.nextID,
		Username: username,
		Name:     name,
		Email:    username + "@example.com",
	}
	b.accounts[u.ID] = &fakeAccount{user: u, password: password}
	return u
}

// LinkSpotify marks the user's Spotify account as connected.
func (b *FakeBackend) LinkSpotify(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := "spotify-" + strconv.FormatInt(userID, 10)
	b.accounts[userID].user.SpotifyUserToken = &token
}

// RevokeSessions invalidates every token issued to the user so far.
func (b *FakeBackend) RevokeSessions(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation[userID]++
}

// Hits returns how often "METHOD /path" was requested.
func (b *FakeBackend) Hits(methodAndPath string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[methodAndPath]
}

// MintToken issues a token for userID that expires at exp.
func (b *FakeBackend) MintToken(userID int64, exp time.Time) string {
	b.mu.Lock()
	gen := b.generation[userID]
	b.mu.Unlock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        strconv.Itoa(gen),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString(b.secret)
	if err != nil {
		panic(err)
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, me *fakeAccount)

func (b *FakeBackend) auth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			return b.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		b.mu.Lock()
		me, exists := b.accounts[id]
		current := strconv.Itoa(b.generation[id])
		b.mu.Unlock()
		if !exists || claims.ID != current {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, me)
	}
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form")
		return
	}
	login := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	b.mu.Lock()
	var found *fakeAccount
	for _, a := range b.accounts {
		if a.user.Username == login || a.user.Email == login {
			found = a
			break
		}
	}
	b.mu.Unlock()

	if found == nil || found.password != password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: b.MintToken(found.user.ID, time.Now().Add(b.TokenTTL)),
		TokenType:   "bearer",
	})
}

func (b *FakeBackend) me(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	b.mu.Lock()
	u := me.user
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (b *FakeBackend) userByID(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid id")
		return
	}
	b.mu.Lock()
	a, ok := b.accounts[id]
	var u models.User
	if ok {
		u = a.user
	}
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (b *FakeBackend) userByUsername(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	username := r.PathValue("username")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.user.Username == username {
			writeJSON(w, http.StatusOK, a.user)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (b *FakeBackend) favoriteArtist(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	var params models.FavoriteArtistParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}
	b.mu.Lock()
	name := params.ArtistName
	me.user.FavoriteArtist = &name
	u := me.user
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func pairKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

func (b *FakeBackend) notifyLocked(userID int64, content string) {
	b.nextID++
	b.notifications[userID] = append(b.notifications[userID], models.Notification{
		ID:        b.nextID,
		Type:      models.NotificationTypeFriendRequest,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

func (b *FakeBackend) sendRequest(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	receiverID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[receiverID]; !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if receiverID == me.user.ID {
		writeDetail(w, http.StatusBadRequest, "Cannot send friend request to yourself")
		return
	}
	if b.friendships[pairKey(me.user.ID, receiverID)] {
		writeDetail(w, http.StatusBadRequest, "Already friends")
		return
	}
	for _, req := range b.requests {
		if req.IsPending() && pairKey(req.SenderID, req.ReceiverID) == pairKey(me.user.ID, receiverID) {
			writeDetail(w, http.StatusBadRequest, "Friend request already sent")
			return
		}
	}

	b.nextID++
	now := time.Now().UTC()
	req := models.FriendRequest{
		ID:         b.nextID,
		SenderID:   me.user.ID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestPending,
		CreatedAt:  &now,
	}
	b.requests = append(b.requests, req)
	b.notifyLocked(receiverID, me.user.Username+" sent you a friend request")
	writeJSON(w, http.StatusCreated, req)
}

func (b *FakeBackend) sentRequests(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	b.listRequests(w, func(req models.FriendRequest) bool {
		return req.SenderID == me.user.ID
	})
}

func (b *FakeBackend) receivedRequests(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	b.listRequests(w, func(req models.FriendRequest) bool {
		return req.ReceiverID == me.user.ID && req.IsPending()
	})
}

func (b *FakeBackend) listRequests(w http.ResponseWriter, keep func(models.FriendRequest) bool) {
	b.mu.Lock()
	out := []models.FriendRequest{}
	for _, req := range b.requests {
		if keep(req) {
			out = append(out, req)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) respond(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid id")
		return
	}
	var status models.FriendRequestStatus
	switch models.FriendResponse(r.PathValue("response")) {
	case models.ResponseAccepted:
		status = models.FriendRequestAccepted
	case models.ResponseDenied:
		status = models.FriendRequestDenied
	default:
		writeDetail(w, http.StatusBadRequest, "Invalid response")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.requests {
		req := &b.requests[i]
		if req.ID != id || req.ReceiverID != me.user.ID || !req.IsPending() {
			continue
		}
		req.Status = status
		if status == models.FriendRequestAccepted {
			b.friendships[pairKey(req.SenderID, req.ReceiverID)] = true
			b.notifyLocked(req.SenderID, me.user.Username+" accepted your friend request")
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Friend request %s", r.PathValue("response"))})
		return
	}
	writeDetail(w, http.StatusNotFound, "Friend request not found")
}

func (b *FakeBackend) friends(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	b.mu.Lock()
	out := []models.User{}
	for key := range b.friendships {
		switch me.user.ID {
		case key[0]:
			out = append(out, b.accounts[key[1]].user)
		case key[1]:
			out = append(out, b.accounts[key[0]].user)
		}
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) removeFriend(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid id")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := pairKey(me.user.ID, id)
	if !b.friendships[key] {
		writeDetail(w, http.StatusNotFound, "Friendship not found")
		return
	}
	delete(b.friendships, key)
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) search(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if len([]rune(q)) < 2 {
		writeDetail(w, http.StatusBadRequest, "Query must have at least 2 characters")
		return
	}
	b.mu.Lock()
	out := []models.User{}
	for _, a := range b.accounts {
		if a.user.Matches(q) {
			out = append(out, a.user)
		}
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) listNotifications(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	b.mu.Lock()
	items := append([]models.Notification{}, b.notifications[me.user.ID]...)
	b.mu.Unlock()
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	writeJSON(w, http.StatusOK, items)
}

func (b *FakeBackend) markRead(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid id")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.notifications[me.user.ID]
	for i := range items {
		if items[i].ID == id {
			items[i].Read = true
			writeJSON(w, http.StatusOK, items[i])
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Notification not found")
}

func (b *FakeBackend) spotifyLogin(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	redirect := r.URL.Query().Get("redirect_url")
	writeJSON(w, http.StatusOK, models.SpotifyLogin{
		AuthURL: "https://accounts.spotify.com/authorize?state=" + strconv.FormatInt(me.user.ID, 10) + "&redirect=" + redirect,
	})
}

func (b *FakeBackend) topArtists(w http.ResponseWriter, r *http.Request, me *fakeAccount) {
	b.mu.Lock()
	linked := me.user.HasSpotify()
	b.mu.Unlock()
	if !linked {
		writeDetail(w, http.StatusUnauthorized, "Spotify account not connected")
		return
	}
	writeJSON(w, http.StatusOK, []models.Artist{{ID: "4Z8W4fKeB5YxbusRsdQVPb", Name: "Radiohead", Genres: []string{"art rock"}, Popularity: 80}})
}
