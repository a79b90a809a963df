package store

import (
	"sync"

	"github.com/iudanet/annosync/internal/models"
)

// Observer receives synchronous notifications after every store
// mutation, in mutation order. Callbacks run on the mutating
// goroutine and must not mutate the store re-entrantly.
type Observer interface {
	// AnnotationUpserted reports an insert or replace. existed is
	// true when an annotation with the same id was replaced.
	AnnotationUpserted(a models.Annotation, existed bool)

	// AnnotationRemoved reports a single removal.
	AnnotationRemoved(id string)

	// StoreCleared reports a remove-all, with the ids that were
	// dropped.
	StoreCleared(ids []string)
}

// Store holds the active annotations of one open document, keyed by
// id. It owns all annotation data for the document; view layers keep
// only transient handles derived from it. A store is created when a
// document is opened and discarded when it is closed.
type Store struct {
	elements  map[string]models.Annotation
	observers []Observer
	mu        sync.RWMutex
}

// New creates an empty annotation store.
func New() *Store {
	return &Store{
		elements: make(map[string]models.Annotation),
	}
}

// Subscribe registers an observer for mutation notifications.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, o)
}

// Add inserts the annotation, or replaces the existing one with the
// same id. It always succeeds.
func (s *Store) Add(a models.Annotation) {
	s.mu.Lock()
	_, existed := s.elements[a.ID]
	s.elements[a.ID] = a
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, o := range observers {
		o.AnnotationUpserted(a, existed)
	}
}

// RemoveByID removes the annotation if present and reports whether it
// was. Removing an absent id is a no-op, not an error: remote deletes
// may race with local state.
func (s *Store) RemoveByID(id string) bool {
	s.mu.Lock()
	_, existed := s.elements[id]
	if existed {
		delete(s.elements, id)
	}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	if !existed {
		return false
	}
	for _, o := range observers {
		o.AnnotationRemoved(id)
	}
	return true
}

// RemoveAll empties the store and returns the number of annotations
// dropped. Clearing an empty store is a no-op.
func (s *Store) RemoveAll() int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.elements))
	for id := range s.elements {
		ids = append(ids, id)
	}
	s.elements = make(map[string]models.Annotation)
	observers := s.snapshotObservers()
	s.mu.Unlock()

	if len(ids) == 0 {
		return 0
	}
	for _, o := range observers {
		o.StoreCleared(ids)
	}
	return len(ids)
}

// FindByID returns the annotation with the given id, if present.
func (s *Store) FindByID(id string) (models.Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.elements[id]
	return a, ok
}

// All returns a snapshot of every annotation, in no particular
// order. Used for initial render and reconciliation.
func (s *Store) All() []models.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Annotation, 0, len(s.elements))
	for _, a := range s.elements {
		result = append(result, a)
	}
	return result
}

// Len returns the number of annotations in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.elements)
}

// snapshotObservers must be called with the lock held.
func (s *Store) snapshotObservers() []Observer {
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	return observers
}
