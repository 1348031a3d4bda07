package domain

import "time"

// Notebook is a research workspace grouping sources and notes.
type Notebook struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Source is ingested reference material inside a notebook.
type Source struct {
	ID            string    `json:"id"`
	NotebookID    string    `json:"notebook_id"`
	Title         string    `json:"title"`
	InsightsCount int       `json:"insights_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasInsights reports whether derived insights exist for the source.
// Sources with insights default to insights mode in the context panel.
func (s *Source) HasInsights() bool {
	return s.InsightsCount > 0
}

// Note types
const (
	NoteTypeHuman = "human"
	NoteTypeAI    = "ai"
)

// Note is a written or AI-saved note inside a notebook.
type Note struct {
	ID         string    `json:"id"`
	NotebookID string    `json:"notebook_id"`
	Title      string    `json:"title,omitempty"`
	Content    string    `json:"content"`
	NoteType   string    `json:"note_type"` // human, ai
	CreatedAt  time.Time `json:"created_at"`
}

// ScopeKind identifies what a chat hangs off of.
type ScopeKind string

const (
	ScopeSource   ScopeKind = "source"
	ScopeNotebook ScopeKind = "notebook"
)

// Scope is the owner of a chat: one source or one notebook. Sessions,
// message logs and stream state are all keyed by scope.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id"`
}

// SourceScope builds a source-owned scope.
func SourceScope(id string) Scope {
	return Scope{Kind: ScopeSource, ID: id}
}

// NotebookScope builds a notebook-owned scope.
func NotebookScope(id string) Scope {
	return Scope{Kind: ScopeNotebook, ID: id}
}

// String renders the scope as a stable map key.
func (s Scope) String() string {
	return string(s.Kind) + ":" + s.ID
}
