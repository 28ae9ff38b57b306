// Package notify keeps the in-memory notification feed.
package notify

import (
	"sort"
	"strings"
	"sync"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/infra"

	"github.com/google/uuid"
)

// Options configures a Store.
type Options struct {
	Logger *infra.Logger
	Now    func() time.Time
	NewID  func() string
}

// Store is the process-wide notification feed. All methods are safe for
// concurrent use and return copies.
type Store struct {
	mu        sync.RWMutex
	items     map[string]*domain.Notification
	listeners map[uint64]func(domain.Notification)
	nextLID   uint64

	now    func() time.Time
	newID  func() string
	logger *infra.Logger
}

// NewStore returns an empty feed.
func NewStore(opts Options) *Store {
	s := &Store{
		items:     make(map[string]*domain.Notification),
		listeners: make(map[uint64]func(domain.Notification)),
		now:       opts.Now,
		newID:     opts.NewID,
		logger:    infra.LoggerOrDiscard(opts.Logger),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newUUIDv7
	}
	return s
}

func newUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Append stores n as a fresh unread entry and always succeeds. The id and
// timestamp are assigned by the store when empty; an id already in the feed
// is replaced by a new one so existing entries are never overwritten.
// Unknown types become info.
func (s *Store) Append(n domain.Notification) domain.Notification {
	stored := n.Clone()
	if strings.TrimSpace(stored.ID) == "" {
		stored.ID = s.newID()
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = s.now()
	}
	if !stored.Type.Known() {
		s.logger.Warn().Str("type", string(stored.Type)).Msg("notify: unknown notification type, using info")
		stored.Type = domain.NotificationInfo
	}
	stored.Read = false

	s.mu.Lock()
	if _, taken := s.items[stored.ID]; taken {
		requested := stored.ID
		for taken {
			stored.ID = s.newID()
			_, taken = s.items[stored.ID]
		}
		s.logger.Warn().Str("requested_id", requested).Str("notification_id", stored.ID).Msg("notify: id already in use, assigned a new one")
	}
	s.items[stored.ID] = &stored
	listeners := make([]func(domain.Notification), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	out := stored.Clone()
	s.mu.Unlock()

	for _, fn := range listeners {
		s.notify(fn, out.Clone())
	}
	return out
}

func (s *Store) notify(fn func(domain.Notification), n domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("notification_id", n.ID).Msg("notify: append listener panicked")
		}
	}()
	fn(n)
}

// OnAppend registers fn to run after every Append, outside the store lock.
// The returned function removes the listener and is safe to call repeatedly.
func (s *Store) OnAppend(fn func(domain.Notification)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextLID
	s.nextLID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// MarkRead flags one entry as read. Read entries stay read.
func (s *Store) MarkRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Read = true
	return nil
}

// MarkAllRead flags every entry as read and returns how many changed.
func (s *Store) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, n := range s.items {
		if !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed
}

// Clear removes one entry permanently.
func (s *Store) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// ClearAll removes every entry and returns how many were dropped.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	s.items = make(map[string]*domain.Notification)
	return n
}

// UnreadCount returns the number of unread entries.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// LatestUnread returns the newest unread entry, or nil when there is none.
func (s *Store) LatestUnread() *domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Notification
	for _, n := range s.items {
		if n.Read {
			continue
		}
		if latest == nil || newer(n, latest) {
			latest = n
		}
	}
	if latest == nil {
		return nil
	}
	out := latest.Clone()
	return &out
}

// Get returns a copy of one entry.
func (s *Store) Get(id string) (domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.items[id]
	if !ok {
		return domain.Notification{}, domain.ErrNotFound
	}
	return n.Clone(), nil
}

// List returns the feed in display order: unread first, newest first, then by
// descending id.
func (s *Store) List() []domain.Notification {
	s.mu.RLock()
	out := make([]domain.Notification, 0, len(s.items))
	for _, n := range s.items {
		out = append(out, n.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Read != b.Read {
			return !a.Read
		}
		return newer(&a, &b)
	})
	return out
}

func newer(a, b *domain.Notification) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	// UUIDv7 ids sort by creation time.
	return a.ID > b.ID
}
