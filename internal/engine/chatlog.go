package engine

import (
	"strings"
	"sync"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// MessageLog is the ordered in-memory message sequence for the active
// session. The stream controller mutates it optimistically; it is
// reconciled against persisted state after a stream completes. Messages
// keep insertion order and are never re-sorted.
type MessageLog struct {
	mu       sync.RWMutex
	messages []domain.ChatMessage
}

// NewMessageLog creates an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Append adds a message at the end.
func (l *MessageLog) Append(msg domain.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// AppendContent appends a chunk to the content of the message with the
// given id, in place. Unknown ids are ignored.
func (l *MessageLog) AppendContent(id, chunk string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.messages {
		if l.messages[i].ID == id {
			l.messages[i].Content += chunk
			return
		}
	}
}

// ReplaceContent replaces the content of the message with the given id.
func (l *MessageLog) ReplaceContent(id, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.messages {
		if l.messages[i].ID == id {
			l.messages[i].Content = content
			return
		}
	}
}

// Replace swaps the whole log, used on session switch and on
// reconciliation against persisted state.
func (l *MessageLog) Replace(messages []domain.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append([]domain.ChatMessage(nil), messages...)
}

// Clear empties the log.
func (l *MessageLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}

// Remove deletes the message with the given id, if present.
func (l *MessageLog) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.messages {
		if l.messages[i].ID == id {
			l.messages = append(l.messages[:i], l.messages[i+1:]...)
			return
		}
	}
}

// RemoveByIDPrefix filter-removes every message whose id starts with the
// prefix. Used only to discard optimistic entries on rollback.
func (l *MessageLog) RemoveByIDPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.messages[:0]
	for _, m := range l.messages {
		if !strings.HasPrefix(m.ID, prefix) {
			kept = append(kept, m)
		}
	}
	l.messages = kept
}

// Messages returns a copy of the log in insertion order.
func (l *MessageLog) Messages() []domain.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.ChatMessage(nil), l.messages...)
}

// Len returns the number of messages.
func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
