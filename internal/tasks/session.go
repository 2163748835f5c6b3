package tasks

import (
	"slices"
	"sync"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/repositories"
)

// Session is the explicit per-user context every watchlist operation runs against:
// who the user is and the last list read from or written to the store.
//
// A session without a UID is anonymous. Anonymous sessions read the sample list
// and every mutation against them is a no-op.
type Session struct {
	UID   string
	Owner repositories.Owner

	mu          sync.Mutex
	items       []models.Entry
	loaded      bool
	nextSub     int
	subscribers map[int]func([]models.Entry)
}

// NewSession creates a session for owner. An empty owner UID yields an anonymous session.
func NewSession(owner repositories.Owner) *Session {
	return &Session{UID: owner.UID, Owner: owner}
}

// Anonymous reports whether the session has no user identifier.
func (s *Session) Anonymous() bool {
	return s.UID == ""
}

// Loaded reports whether the cache has been filled by a load or a write.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Items returns a copy of the cached list.
func (s *Session) Items() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Subscribe registers fn to receive the list after every cache replacement.
// The returned func removes the subscription.
func (s *Session) Subscribe(fn func([]models.Entry)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribers == nil {
		s.subscribers = make(map[int]func([]models.Entry))
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// replace swaps the cache for items and notifies subscribers outside the lock.
func (s *Session) replace(items []models.Entry) {
	s.mu.Lock()
	s.items = slices.Clone(items)
	s.loaded = true
	subs := make([]func([]models.Entry), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(slices.Clone(items))
	}
}
