package bot

import (
	"errors"
	"lavalink-music-bot/model"
	"lavalink-music-bot/service"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultSelectionTimeout = 60 * time.Second
	selectionPrefix         = "select<split>"
)

var (
	ErrSelectionExpired  = errors.New("selection expired")
	ErrSelectionNotOwned = errors.New("selection belongs to another user")
)

// selection is a search result waiting for
// the user to pick one of the tracks.
type selection struct {
	userID  string
	target  service.Target
	tracks  []*model.Track
	expires time.Time
}

// Selections holds the pending search selections,
// keyed by the select menus' custom ids.
type Selections struct {
	mutex   sync.Mutex
	timeout time.Duration
	entries map[string]*selection
	now     func() time.Time
}

func NewSelections(timeout time.Duration) *Selections {
	if timeout <= 0 {
		timeout = defaultSelectionTimeout
	}
	return &Selections{
		timeout: timeout,
		entries: make(map[string]*selection),
		now:     time.Now,
	}
}

// Add stores the tracks and returns the custom id
// of the select menu offering them.
func (s *Selections) Add(userID string, target service.Target, tracks []*model.Track) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.expire()
	id := selectionPrefix + uuid.NewString()
	s.entries[id] = &selection{
		userID:  userID,
		target:  target,
		tracks:  tracks,
		expires: s.now().Add(s.timeout),
	}
	return id
}

// Take removes and returns the selection. Only the user
// that searched may take it, before it expires.
func (s *Selections) Take(id string, userID string) (*selection, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrSelectionExpired
	}
	if !s.now().Before(entry.expires) {
		delete(s.entries, id)
		return nil, ErrSelectionExpired
	}
	if entry.userID != userID {
		return nil, ErrSelectionNotOwned
	}
	delete(s.entries, id)
	return entry, nil
}

func (s *Selections) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries)
}

func (s *Selections) expire() {
	now := s.now()
	for id, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, id)
		}
	}
}

func isSelectionID(customID string) bool {
	return len(customID) > len(selectionPrefix) && customID[:len(selectionPrefix)] == selectionPrefix
}
