package server

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ubuntu/ddp-insights/internal/flow"
)

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("session not found")

// entry serializes the requests made to one session.
type entry struct {
	mu       sync.Mutex
	session  *flow.Session
	platform string
	// uploadDir holds the archives uploaded to the session.
	// It only lives while the flow still needs to read the archive.
	uploadDir string
	// removed is set once the session left the store. Nothing may be written to uploadDir afterwards.
	removed bool
}

// discardUploads removes the uploaded archives of the session. e must be locked.
func (e *entry) discardUploads(log *slog.Logger) {
	if e.uploadDir == "" {
		return
	}
	if err := os.RemoveAll(e.uploadDir); err != nil {
		log.Warn("Could not remove session uploads", "session", e.session.ID(), "dir", e.uploadDir, "err", err)
	}
}

// store holds the most recently used sessions.
type store struct {
	cache *lru.Cache[string, *entry]
}

func newStore(size int, log *slog.Logger, onEvict func(e *entry)) (*store, error) {
	cache, err := lru.NewWithEvict(size, func(id string, e *entry) {
		// Waits for any request still running on the session.
		e.mu.Lock()
		e.removed = true
		e.discardUploads(log)
		e.mu.Unlock()

		log.Debug("Session evicted", "session", id)
		if onEvict != nil {
			onEvict(e)
		}
	})
	if err != nil {
		return nil, err
	}
	return &store{cache: cache}, nil
}

func (s *store) add(e *entry) {
	s.cache.Add(e.session.ID(), e)
}

func (s *store) get(id string) (*entry, error) {
	e, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *store) remove(id string) error {
	if !s.cache.Remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

func (s *store) len() int {
	return s.cache.Len()
}

// purge evicts every session.
func (s *store) purge() {
	s.cache.Purge()
}
