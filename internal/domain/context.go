package domain

// ContextMode is the per-item inclusion level chosen in a notebook's
// context panel.
type ContextMode string

const (
	ContextModeOff      ContextMode = "off"
	ContextModeInsights ContextMode = "insights"
	ContextModeFull     ContextMode = "full"
)

// Collaborator-facing tags. The resolution endpoint speaks these, not
// the panel's mode names.
const (
	TagNotIn       = "not in"
	TagInsights    = "insights"
	TagFullContent = "full content"
)

// Tag translates a mode to its collaborator tag. Unknown modes map to
// excluded.
func (m ContextMode) Tag() string {
	switch m {
	case ContextModeInsights:
		return TagInsights
	case ContextModeFull:
		return TagFullContent
	default:
		return TagNotIn
	}
}

// ItemKind distinguishes the two selectable item families.
type ItemKind string

const (
	ItemKindSource ItemKind = "source"
	ItemKindNote   ItemKind = "note"
)

// ContextConfig is the tagged selection sent to the resolution endpoint.
type ContextConfig struct {
	Sources map[string]string `json:"sources"`
	Notes   map[string]string `json:"notes"`
}

// BuildContextRequest asks the backend to resolve a notebook's selection
// into content.
type BuildContextRequest struct {
	NotebookID string        `json:"notebook_id"`
	Config     ContextConfig `json:"context_config"`
}

// ContextEntry is one resolved item in a built payload.
type ContextEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// ContextPayload is the resolved context for one send. TokenCount and
// CharCount come from the backend, which owns truncation and
// normalization; they are authoritative and never recomputed locally.
type ContextPayload struct {
	Sources    []ContextEntry `json:"sources,omitempty"`
	Notes      []ContextEntry `json:"notes,omitempty"`
	TokenCount int            `json:"token_count"`
	CharCount  int            `json:"char_count"`
}

// ContextIndicators is the server-pushed summary of what a source-scoped
// chat actually used, delivered as a stream frame.
type ContextIndicators struct {
	SourceIDs  []string `json:"source_ids,omitempty"`
	InsightIDs []string `json:"insight_ids,omitempty"`
	NoteIDs    []string `json:"note_ids,omitempty"`
}
