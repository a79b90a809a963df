// Package renderer holds the page renderer collaborator boundary.
// The actual page-tiled document renderer is external; the sync
// engine only needs its current page, its viewport, and a change
// signal.
package renderer

import (
	"sync"

	"github.com/iudanet/annosync/internal/geometry"
)

// PageView is the renderer surface the annotation layer consumes.
type PageView interface {
	// CurrentPage returns the 1-based page on screen.
	CurrentPage() int

	// Viewport returns the current zoom scale and scroll offset.
	Viewport() geometry.Viewport

	// OnChange registers a listener called synchronously after any
	// page or viewport change.
	OnChange(func())
}

// State is a basic PageView for hosts without their own renderer
// state: headless clients and tests.
type State struct {
	listeners []func()
	viewport  geometry.Viewport
	page      int
	pageCount int
	mu        sync.RWMutex
}

// NewState creates a view state on page 1 at scale 1.0.
func NewState(pageCount int) *State {
	if pageCount < 1 {
		pageCount = 1
	}
	return &State{
		page:      1,
		pageCount: pageCount,
		viewport:  geometry.Viewport{Scale: 1.0},
	}
}

// CurrentPage returns the 1-based page on screen.
func (s *State) CurrentPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.page
}

// PageCount returns the number of pages in the document.
func (s *State) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pageCount
}

// Viewport returns the current zoom scale and scroll offset.
func (s *State) Viewport() geometry.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.viewport
}

// OnChange registers a change listener.
func (s *State) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
}

// SetPage switches to the given page, clamped to [1, pageCount].
func (s *State) SetPage(page int) {
	s.mu.Lock()
	if page < 1 {
		page = 1
	}
	if page > s.pageCount {
		page = s.pageCount
	}
	changed := page != s.page
	s.page = page
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn()
	}
}

// SetViewport applies a new zoom scale and scroll offset. Invalid
// viewports are rejected.
func (s *State) SetViewport(vp geometry.Viewport) error {
	if err := vp.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.viewport = vp
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// snapshotListeners must be called with the lock held.
func (s *State) snapshotListeners() []func() {
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	return listeners
}
