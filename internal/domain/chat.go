package domain

import (
	"strings"
	"time"
)

// Message roles
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// LocalIDPrefix marks optimistic messages that have not been confirmed by
// the backend yet. Reconciliation replaces them with server records.
const LocalIDPrefix = "local-"

// ChatSession is one conversation owned by a scope (source or notebook).
type ChatSession struct {
	ID            string    `json:"id"`
	Scope         Scope     `json:"scope"`
	Title         string    `json:"title"`
	ModelOverride string    `json:"model_override,omitempty"`
	MessageCount  int       `json:"message_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SessionDetail is a session together with its persisted messages.
type SessionDetail struct {
	ChatSession
	Messages []ChatMessage `json:"messages"`
}

// ChatMessage is one turn in a session. Content is mutable only for the
// in-progress assistant message during streaming.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // human, ai
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IsLocal reports whether the message still carries an optimistic id.
func (m *ChatMessage) IsLocal() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}

// CreateSessionRequest creates a session in a scope.
type CreateSessionRequest struct {
	Title         string `json:"title,omitempty"`
	ModelOverride string `json:"model_override,omitempty"`
}

// UpdateSessionRequest renames a session or changes its model override.
// Nil fields are left untouched.
type UpdateSessionRequest struct {
	Title         *string `json:"title,omitempty"`
	ModelOverride *string `json:"model_override,omitempty"`
}

// SendMessageRequest is the outbound streamed-chat request. Context is
// attached for notebook scopes only; source scopes receive server-pushed
// context indicators instead.
type SendMessageRequest struct {
	SessionID     string          `json:"session_id"`
	Message       string          `json:"message"`
	Context       *ContextPayload `json:"context,omitempty"`
	ModelOverride string          `json:"model_override,omitempty"`
}

// Stream frame types carried in the "type" discriminator of each SSE
// data frame.
const (
	FrameToken             = "token"
	FrameAIMessage         = "ai_message"
	FrameAIMessageComplete = "ai_message_complete"
	FrameContextIndicators = "context_indicators"
	FrameError             = "error"
)

// StreamFrame is one decoded SSE frame from the chat stream.
type StreamFrame struct {
	Type       string             `json:"type"`
	Content    string             `json:"content,omitempty"`
	Message    string             `json:"message,omitempty"`
	Indicators *ContextIndicators `json:"indicators,omitempty"`
}
