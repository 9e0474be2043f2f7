package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HammerMeetNail/fanbase/internal/api"
	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

const (
	DefaultPollInterval = 30 * time.Second
	markReadConcurrency = 4
)

// FeedState is the poller state.
type FeedState int

const (
	FeedIdle FeedState = iota
	FeedFetching
)

func (s FeedState) String() string {
	if s == FeedFetching {
		return "FETCHING"
	}
	return "IDLE"
}

// ReadMutation tracks one optimistic mark-read.
type ReadMutation int

const (
	ReadPending ReadMutation = iota
	ReadConfirmed
	ReadReverted
)

func (m ReadMutation) String() string {
	switch m {
	case ReadPending:
		return "pending"
	case ReadConfirmed:
		return "confirmed"
	case ReadReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// NotificationFeed polls the notification list and applies optimistic
// mark-read updates. A failed mark-read is reverted unless a full fetch has
// replaced the list since the flip, in which case the server snapshot stands.
type NotificationFeed struct {
	api      NotificationAPI
	interval time.Duration
	logger   *logging.Logger

	mu        sync.Mutex
	async     func(fn func())
	items     []models.Notification
	unread    int
	fetchSeq  uint64
	epoch     uint64 // bumped by Reset; fetches issued before it are dropped
	inFlight  int
	open      bool
	mutations map[int64]ReadMutation
	onError   func(error)
	onChange  func()
}

func NewNotificationFeed(notifications NotificationAPI, interval time.Duration, logger *logging.Logger) *NotificationFeed {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &NotificationFeed{
		api:      notifications,
		interval: interval,
		logger:   logging.OrDefault(logger).Component("notifications"),
		async: func(fn func()) {
			go fn()
		},
		mutations: make(map[int64]ReadMutation),
	}
}

// SetAsync replaces how background confirmations are started.
func (f *NotificationFeed) SetAsync(fn func(fn func())) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.async = fn
}

// OnError registers a listener for background failures.
func (f *NotificationFeed) OnError(fn func(error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onError = fn
}

// OnChange registers a listener called after the list or counter changes.
func (f *NotificationFeed) OnChange(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = fn
}

func (f *NotificationFeed) Interval() time.Duration {
	return f.interval
}

func (f *NotificationFeed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight > 0 {
		return FeedFetching
	}
	return FeedIdle
}

// Fetch replaces the whole list. Overlapping fetches apply in arrival order.
// On failure the previous list is kept and returned with a *FetchError. A
// response landing after Reset is dropped.
func (f *NotificationFeed) Fetch(ctx context.Context) ([]models.Notification, error) {
	f.mu.Lock()
	f.inFlight++
	epoch := f.epoch
	f.mu.Unlock()

	items, err := f.api.Notifications(ctx)

	f.mu.Lock()
	f.inFlight--
	if err != nil {
		prev := append([]models.Notification(nil), f.items...)
		f.mu.Unlock()
		return prev, &FetchError{Op: "notifications", Err: err}
	}
	if f.epoch != epoch {
		current := append([]models.Notification{}, f.items...)
		f.mu.Unlock()
		f.logger.Debug("Dropped notifications fetched before reset")
		return current, nil
	}
	f.items = items
	f.unread = countUnread(items)
	f.fetchSeq++
	out := append([]models.Notification(nil), items...)
	onChange := f.onChange
	f.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return out, nil
}

// MarkRead flips the item to read and decrements the counter at once, then
// confirms with the server in the background. Marking a read item is a no-op.
func (f *NotificationFeed) MarkRead(ctx context.Context, id int64) error {
	seq, changed, err := f.flip(id)
	if err != nil || !changed {
		return err
	}
	f.notifyChange()

	f.mu.Lock()
	async := f.async
	f.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	async(func() {
		_ = f.confirmRead(bg, id, seq)
	})
	return nil
}

func (f *NotificationFeed) flip(id int64) (uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		if f.items[i].Read {
			return 0, false, nil
		}
		f.items[i].Read = true
		if f.unread > 0 {
			f.unread--
		}
		f.mutations[id] = ReadPending
		return f.fetchSeq, true, nil
	}
	return 0, false, ErrNotificationNotFound
}

func (f *NotificationFeed) confirmRead(ctx context.Context, id int64, seq uint64) error {
	err := f.api.MarkNotificationRead(ctx, id)

	f.mu.Lock()
	if err == nil {
		f.mutations[id] = ReadConfirmed
		f.mu.Unlock()
		f.logger.Debug("Notification marked read", map[string]interface{}{"notification_id": id})
		return nil
	}

	reverted := false
	if f.fetchSeq == seq {
		for i := range f.items {
			if f.items[i].ID == id && f.items[i].Read {
				f.items[i].Read = false
				f.unread++
				reverted = true
				break
			}
		}
	}
	f.mutations[id] = ReadReverted
	onError := f.onError
	f.mu.Unlock()

	f.logger.WithError(err).Warn("Failed to mark notification read", map[string]interface{}{
		"notification_id": id,
		"reverted":        reverted,
	})
	mutErr := &MutationError{Op: "mark notification read", Err: err}
	if reverted {
		f.notifyChange()
	}
	if onError != nil && !errors.Is(err, api.ErrUnauthorized) {
		onError(mutErr)
	}
	return mutErr
}

// Mutation returns the state of the last mark-read issued for id.
func (f *NotificationFeed) Mutation(id int64) (ReadMutation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mutations[id]
	return m, ok
}

// OpenPanel marks every unread item read so the badge clears at once, waits
// for the server to confirm, then fetches the list.
func (f *NotificationFeed) OpenPanel(ctx context.Context) ([]models.Notification, error) {
	f.mu.Lock()
	f.open = true
	var ids []int64
	for i := range f.items {
		if !f.items[i].Read {
			f.items[i].Read = true
			f.mutations[f.items[i].ID] = ReadPending
			ids = append(ids, f.items[i].ID)
		}
	}
	f.unread = 0
	seq := f.fetchSeq
	f.mu.Unlock()

	if len(ids) > 0 {
		f.notifyChange()
	}

	var g errgroup.Group
	g.SetLimit(markReadConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			return f.confirmRead(ctx, id, seq)
		})
	}
	markErr := g.Wait()

	items, err := f.Fetch(ctx)
	return items, errors.Join(markErr, err)
}

func (f *NotificationFeed) ClosePanel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
}

func (f *NotificationFeed) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Run fetches now and then every interval until ctx is done or the session
// is rejected.
func (f *NotificationFeed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if _, err := f.Fetch(ctx); err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.reportError(err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *NotificationFeed) reportError(err error) {
	f.logger.WithError(err).Warn("Notification poll failed")
	f.mu.Lock()
	onError := f.onError
	f.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}

func (f *NotificationFeed) notifyChange() {
	f.mu.Lock()
	onChange := f.onChange
	f.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}

func (f *NotificationFeed) Notifications() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.items...)
}

func (f *NotificationFeed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// Reset empties the feed. Pending confirmations no longer revert anything.
func (f *NotificationFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.unread = 0
	f.fetchSeq++
	f.epoch++
	f.open = false
	f.mutations = make(map[int64]ReadMutation)
}

func countUnread(items []models.Notification) int {
	n := 0
	for _, item := range items {
		if !item.Read {
			n++
		}
	}
	return n
}
