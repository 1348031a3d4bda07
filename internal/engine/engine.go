package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// Backend is the full collaborator contract the engine consumes: session
// CRUD, context resolution and the chat stream.
type Backend interface {
	SessionBackend
	ContextResolver
	StreamBackend
}

// Engine wires the chat core for any number of scopes. Per-notebook
// selection state and per-scope chat state are constructed explicitly
// here and passed down, never held in package globals.
type Engine struct {
	backend      Backend
	selections   *SelectionRegistry
	contexts     *ContextBuilder
	archive      TurnArchiver
	settingsURL  string
	defaultModel string
	logger       *zap.Logger

	mu    sync.Mutex
	chats map[string]*Chat
}

// Chat is the assembled chat core for one scope: its session store,
// message log and stream controller share state by construction.
type Chat struct {
	Scope      domain.Scope
	Sessions   *SessionStore
	Log        *MessageLog
	Controller *StreamController
}

// New creates an engine. archive may be nil to disable the local
// transcript mirror. defaultModel is used when neither the send nor the
// session carries a model override.
func New(backend Backend, archive TurnArchiver, settingsURL, defaultModel string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		backend:      backend,
		selections:   NewSelectionRegistry(),
		contexts:     NewContextBuilder(backend, logger),
		archive:      archive,
		settingsURL:  settingsURL,
		defaultModel: defaultModel,
		logger:       logger,
		chats:        make(map[string]*Chat),
	}
}

// Selection returns the context selection for a notebook, creating it on
// first use.
func (e *Engine) Selection(notebookID string) *Selection {
	return e.selections.For(notebookID)
}

// BuildContext resolves a notebook's current selection into a sized
// payload. Called on every selection change and before every
// notebook-scoped send.
func (e *Engine) BuildContext(ctx context.Context, notebookID string) (*domain.ContextPayload, error) {
	return e.contexts.Build(ctx, notebookID, e.Selection(notebookID))
}

// Chat returns the chat core for a scope, creating it on first use.
// Notebook scopes get a context-building hook; source scopes send no
// client-built context.
func (e *Engine) Chat(scope domain.Scope) *Chat {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := scope.String()
	if c, ok := e.chats[key]; ok {
		return c
	}

	log := NewMessageLog()
	sessions := NewSessionStore(scope, e.backend, log, e.logger)

	var buildContext BuildContextFunc
	if scope.Kind == domain.ScopeNotebook {
		notebookID := scope.ID
		buildContext = func(ctx context.Context) (*domain.ContextPayload, error) {
			return e.BuildContext(ctx, notebookID)
		}
	}

	c := &Chat{
		Scope:    scope,
		Sessions: sessions,
		Log:      log,
		Controller: NewStreamController(
			scope, e.backend, sessions, log,
			buildContext, e.archive, e.settingsURL, e.defaultModel, e.logger,
		),
	}
	e.chats[key] = c
	return c
}

// CloseScope discards a scope's chat state when its view closes.
// Notebook scopes also drop their context selection. Without eviction a
// long-lived process would keep one Chat per scope ever chatted with.
func (e *Engine) CloseScope(scope domain.Scope) {
	if scope.Kind == domain.ScopeNotebook {
		e.selections.Drop(scope.ID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	key := scope.String()
	if c, ok := e.chats[key]; ok {
		c.Controller.StopStream()
		delete(e.chats, key)
	}
}

// CloseNotebook discards a notebook's selection and chat state when its
// view closes.
func (e *Engine) CloseNotebook(notebookID string) {
	e.CloseScope(domain.NotebookScope(notebookID))
}
