package engine

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// Selection maps every source and note of one notebook to a context
// mode. It is created empty when a notebook view opens, populated lazily
// as items load, and discarded when the view closes; it is never
// persisted server-side.
type Selection struct {
	mu      sync.RWMutex
	sources map[string]domain.ContextMode
	notes   map[string]domain.ContextMode
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{
		sources: make(map[string]domain.ContextMode),
		notes:   make(map[string]domain.ContextMode),
	}
}

// SetMode replaces the mode for exactly one item, preserving all others.
func (s *Selection) SetMode(itemID string, mode domain.ContextMode, kind domain.ItemKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case domain.ItemKindSource:
		s.sources[itemID] = mode
	case domain.ItemKindNote:
		s.notes[itemID] = mode
	}
}

// Mode returns the current mode for an item.
func (s *Selection) Mode(itemID string, kind domain.ItemKind) (domain.ContextMode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if kind == domain.ItemKindSource {
		m, ok := s.sources[itemID]
		return m, ok
	}
	m, ok := s.notes[itemID]
	return m, ok
}

// InitSourceDefaults inserts a default mode for every source not already
// present: insights when the source has derived insights, full otherwise.
// Existing entries are never overwritten, so user overrides survive data
// refreshes.
func (s *Selection) InitSourceDefaults(sources []domain.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range sources {
		src := &sources[i]
		if _, ok := s.sources[src.ID]; ok {
			continue
		}
		if src.HasInsights() {
			s.sources[src.ID] = domain.ContextModeInsights
		} else {
			s.sources[src.ID] = domain.ContextModeFull
		}
	}
}

// InitNoteDefaults inserts the default mode (full) for every note not
// already present.
func (s *Selection) InitNoteDefaults(notes []domain.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range notes {
		if _, ok := s.notes[notes[i].ID]; ok {
			continue
		}
		s.notes[notes[i].ID] = domain.ContextModeFull
	}
}

// Config snapshots the selection as collaborator-facing tags.
func (s *Selection) Config() domain.ContextConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := domain.ContextConfig{
		Sources: make(map[string]string, len(s.sources)),
		Notes:   make(map[string]string, len(s.notes)),
	}
	for id, mode := range s.sources {
		cfg.Sources[id] = mode.Tag()
	}
	for id, mode := range s.notes {
		cfg.Notes[id] = mode.Tag()
	}
	return cfg
}

// SelectionRegistry keeps one Selection per open notebook. Entries expire
// after a period of inactivity so abandoned notebook views do not leak.
type SelectionRegistry struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewSelectionRegistry creates a registry with a one hour idle expiry.
func NewSelectionRegistry() *SelectionRegistry {
	return &SelectionRegistry{
		cache: cache.New(1*time.Hour, 10*time.Minute),
	}
}

// For returns the selection for a notebook, creating it on first use.
func (r *SelectionRegistry) For(notebookID string) *Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x, found := r.cache.Get(notebookID); found {
		sel := x.(*Selection)
		r.cache.Set(notebookID, sel, cache.DefaultExpiration)
		return sel
	}
	sel := NewSelection()
	r.cache.Set(notebookID, sel, cache.DefaultExpiration)
	return sel
}

// Drop discards a notebook's selection when its view closes.
func (r *SelectionRegistry) Drop(notebookID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(notebookID)
}
