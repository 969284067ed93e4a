package document

import (
	"sync"
	"time"
)

// Store holds the document currently being edited. Each Set bumps the
// revision.
type Store struct {
	mu       sync.RWMutex
	doc      *Document
	revision int64
	updated  time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current document and returns the new revision.
func (s *Store) Set(doc *Document) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.revision++
	s.updated = time.Now()
	return s.revision
}

// Get returns the current document, or nil before the first Set.
func (s *Store) Get() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Revision returns the revision counter and the time of the last Set.
func (s *Store) Revision() (int64, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision, s.updated
}
