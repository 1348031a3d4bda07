package engine

import (
	"context"

	"sync"

	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// SessionBackend is the collaborator API for chat session CRUD.
type SessionBackend interface {
	ListSessions(ctx context.Context, scope domain.Scope) ([]domain.ChatSession, error)
	GetSession(ctx context.Context, scope domain.Scope, id string) (*domain.SessionDetail, error)
	CreateSession(ctx context.Context, scope domain.Scope, req *domain.CreateSessionRequest) (*domain.ChatSession, error)
	UpdateSession(ctx context.Context, id string, req *domain.UpdateSessionRequest) (*domain.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
}

// SessionStore manages the sessions of one scope and the "current
// session" selection. Every mutation failure leaves prior state
// untouched; nothing is applied client-side before the backend confirms.
type SessionStore struct {
	mu       sync.Mutex
	scope    domain.Scope
	backend  SessionBackend
	log      *MessageLog
	logger   *zap.Logger
	sessions []domain.ChatSession
	current  *domain.ChatSession
}

// NewSessionStore creates a store for a scope. The message log is shared
// with the stream controller.
func NewSessionStore(scope domain.Scope, backend SessionBackend, log *MessageLog, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		scope:   scope,
		backend: backend,
		log:     log,
		logger:  logger,
	}
}

// Scope returns the owning scope.
func (s *SessionStore) Scope() domain.Scope { return s.scope }

// Load lists the scope's sessions. When no session is selected yet and
// the list is non-empty, the most recently created one is auto-selected.
// The server returns sessions in descending creation order and the store
// trusts that order without re-sorting.
func (s *SessionStore) Load(ctx context.Context) error {
	sessions, err := s.backend.ListSessions(ctx, s.scope)
	if err != nil {
		s.logger.Error("listing sessions failed", zap.String("scope", s.scope.String()), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.sessions = sessions
	needAutoSelect := s.current == nil && len(sessions) > 0
	var first string
	if needAutoSelect {
		first = sessions[0].ID
	}
	s.mu.Unlock()

	if needAutoSelect {
		return s.Select(ctx, first)
	}
	return nil
}

// Sessions returns the last listed sessions, in server order.
func (s *SessionStore) Sessions() []domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatSession(nil), s.sessions...)
}

// Current returns a copy of the current session, or nil.
func (s *SessionStore) Current() *domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// CurrentID returns the current session id, or "".
func (s *SessionStore) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.ID
}

// Select makes a session current and replaces the message log with its
// persisted messages.
func (s *SessionStore) Select(ctx context.Context, id string) error {
	detail, err := s.backend.GetSession(ctx, s.scope, id)
	if err != nil {
		s.logger.Error("loading session failed", zap.String("session_id", id), zap.Error(err))
		return err
	}

	s.mu.Lock()
	sess := detail.ChatSession
	s.current = &sess
	s.mu.Unlock()

	s.log.Replace(detail.Messages)
	return nil
}

// Create creates a session in the scope and makes it current. The log is
// cleared: a fresh session has no messages yet.
func (s *SessionStore) Create(ctx context.Context, req *domain.CreateSessionRequest) (*domain.ChatSession, error) {
	sess, err := s.backend.CreateSession(ctx, s.scope, req)
	if err != nil {
		s.logger.Error("creating session failed", zap.String("scope", s.scope.String()), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	cp := *sess
	s.current = &cp
	s.sessions = append([]domain.ChatSession{*sess}, s.sessions...)
	s.mu.Unlock()

	s.log.Clear()
	return sess, nil
}

// Update renames a session or changes its model override.
func (s *SessionStore) Update(ctx context.Context, id string, req *domain.UpdateSessionRequest) (*domain.ChatSession, error) {
	sess, err := s.backend.UpdateSession(ctx, id, req)
	if err != nil {
		s.logger.Error("updating session failed", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		cp := *sess
		s.current = &cp
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i] = *sess
			break
		}
	}
	s.mu.Unlock()

	return sess, nil
}

// Delete removes a session. Deleting the current session resets the
// selection to nil and clears the message log; deleting any other
// session leaves the selection unchanged.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteSession(ctx, id); err != nil {
		s.logger.Error("deleting session failed", zap.String("session_id", id), zap.Error(err))
		return err
	}

	s.mu.Lock()
	wasCurrent := s.current != nil && s.current.ID == id
	if wasCurrent {
		s.current = nil
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if wasCurrent {
		s.log.Clear()
	}
	return nil
}

// Reconcile re-fetches a session's persisted state after a stream
// completes, so server-assigned ids supersede local temporary ones. The
// log and current session are only touched while the given session is
// still current; a stream whose session was switched away from must not
// leak into whatever is selected now.
func (s *SessionStore) Reconcile(ctx context.Context, id string) (*domain.SessionDetail, error) {
	detail, err := s.backend.GetSession(ctx, s.scope, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	stillCurrent := s.current != nil && s.current.ID == id
	if stillCurrent {
		sess := detail.ChatSession
		s.current = &sess
	}
	s.mu.Unlock()

	if stillCurrent {
		s.log.Replace(detail.Messages)
	}
	return detail, nil
}
