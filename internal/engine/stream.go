package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/backend"
	"github.com/inkwell-ai/inkwell/internal/domain"
)

// StreamState is the controller's lifecycle state.
type StreamState int

const (
	StateIdle StreamState = iota
	StateSending
	StateStreaming
)

// StreamBackend opens the streamed chat endpoint. Closing the returned
// reader is the cancellation mechanism.
type StreamBackend interface {
	SendMessageStream(ctx context.Context, scope domain.Scope, req *domain.SendMessageRequest) (io.ReadCloser, error)
}

// BuildContextFunc builds a fresh context payload for the scope. It is
// nil for source scopes, which carry no client-built context.
type BuildContextFunc func(ctx context.Context) (*domain.ContextPayload, error)

// TurnArchiver mirrors a completed turn into local storage. Implemented
// by the transcript archive; nil disables archiving.
type TurnArchiver interface {
	ArchiveSession(ctx context.Context, detail *domain.SessionDetail) error
}

// Event types emitted to a send's sink.
const (
	EventToken      = "token"
	EventComplete   = "complete"
	EventIndicators = "indicators"
	EventDone       = "done"
	EventCancelled  = "cancelled"
	EventError      = "error"
)

// Event is one incremental update from an in-flight send.
type Event struct {
	Type       string
	Content    string
	Indicators *domain.ContextIndicators
	Err        *StreamError
}

// EventFunc receives stream events. May be nil.
type EventFunc func(Event)

// StreamController owns the lifecycle of one in-flight streamed
// response for a scope. It guarantees at most one open stream at a time:
// a second send cancels the first before its own frames are applied.
type StreamController struct {
	scope        domain.Scope
	stream       StreamBackend
	sessions     *SessionStore
	log          *MessageLog
	buildContext BuildContextFunc
	archive      TurnArchiver
	settingsURL  string
	defaultModel string
	logger       *zap.Logger

	mu         sync.Mutex
	state      StreamState
	gen        uint64
	active     *activeStream
	indicators *domain.ContextIndicators
}

// activeStream is one open stream, pinned to the session id captured
// when it was started.
type activeStream struct {
	sessionID string
	body      io.ReadCloser
	cancelled atomic.Bool
	done      chan struct{}
}

// NewStreamController creates a controller for a scope. buildContext and
// archive may be nil.
func NewStreamController(
	scope domain.Scope,
	stream StreamBackend,
	sessions *SessionStore,
	log *MessageLog,
	buildContext BuildContextFunc,
	archive TurnArchiver,
	settingsURL string,
	defaultModel string,
	logger *zap.Logger,
) *StreamController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamController{
		scope:        scope,
		stream:       stream,
		sessions:     sessions,
		log:          log,
		buildContext: buildContext,
		archive:      archive,
		settingsURL:  settingsURL,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// State returns the controller's current state.
func (c *StreamController) State() StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Indicators returns the latest server-pushed context summary
// (source-scoped chats only).
func (c *StreamController) Indicators() *domain.ContextIndicators {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indicators
}

// StopStream cancels the in-flight stream by closing its reader. This is
// a deliberate user action: it never triggers rollback or an error
// report, and the sent message stays in the log.
func (c *StreamController) StopStream() {
	c.mu.Lock()
	as := c.active
	c.mu.Unlock()
	if as != nil {
		as.cancelled.Store(true)
		as.body.Close()
	}
}

// SendMessage runs one full send: supersede any open stream, ensure a
// session exists, build fresh context, append the optimistic human
// message, then consume the response stream until it completes, is
// cancelled, or errors. It blocks until the stream is finished. The
// returned error is nil for both completion and cancellation.
func (c *StreamController) SendMessage(ctx context.Context, text, modelOverride string, sink EventFunc) error {
	if sink == nil {
		sink = func(Event) {}
	}

	// At most one open stream: a new send supersedes, never queues. The
	// generation token is the supersede marker: an earlier send still in
	// its sending phase (no body open yet) observes a newer generation
	// before it can append or stream anything, and only the send that
	// owns the latest generation may write controller state on exit.
	c.mu.Lock()
	c.gen++
	gen := c.gen
	prev := c.active
	c.state = StateSending
	c.mu.Unlock()
	if prev != nil {
		prev.cancelled.Store(true)
		prev.body.Close()
		<-prev.done
	}

	err := c.send(ctx, gen, text, modelOverride, sink)
	c.mu.Lock()
	if c.gen == gen {
		c.state = StateIdle
	}
	c.mu.Unlock()
	return err
}

func (c *StreamController) superseded(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen != gen
}

func (c *StreamController) send(ctx context.Context, gen uint64, text, modelOverride string, sink EventFunc) error {
	sess := c.sessions.Current()
	if sess == nil {
		created, err := c.sessions.Create(ctx, &domain.CreateSessionRequest{
			Title:         deriveTitle(text),
			ModelOverride: modelOverride,
		})
		if err != nil {
			c.report(sink, &StreamError{Kind: ErrorKindGeneric, Message: err.Error()})
			return err
		}
		sess = created
	}

	// Context is rebuilt before every send; a failed build aborts the
	// send before anything is appended to the log.
	var payload *domain.ContextPayload
	if c.buildContext != nil {
		p, err := c.buildContext(ctx)
		if err != nil {
			c.report(sink, &StreamError{Kind: ErrorKindGeneric, Message: err.Error()})
			return err
		}
		payload = p
	}

	// A newer send may have started while the session or context round
	// trips were in flight; treat being overtaken like a cancellation.
	if c.superseded(gen) {
		sink(Event{Type: EventCancelled})
		return nil
	}

	humanID := domain.LocalIDPrefix + uuid.New().String()
	c.log.Append(domain.ChatMessage{
		ID:        humanID,
		Role:      domain.RoleHuman,
		Content:   text,
		CreatedAt: time.Now(),
	})

	model := modelOverride
	if model == "" {
		model = sess.ModelOverride
	}
	if model == "" {
		model = c.defaultModel
	}

	body, err := c.stream.SendMessageStream(ctx, c.scope, &domain.SendMessageRequest{
		SessionID:     sess.ID,
		Message:       text,
		Context:       payload,
		ModelOverride: model,
	})
	if err != nil {
		c.log.Remove(humanID)
		serr := asStreamError(err, c.settingsURL)
		c.report(sink, serr)
		return serr
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		body.Close()
		sink(Event{Type: EventCancelled})
		return nil
	}
	as := &activeStream{
		sessionID: sess.ID,
		body:      body,
		done:      make(chan struct{}),
	}
	c.active = as
	c.state = StateStreaming
	c.mu.Unlock()

	streamErr := c.consume(as, sink)

	// Cleanup runs on every exit path: the reader is released and the
	// active handle cleared regardless of which transition fired.
	as.body.Close()
	c.mu.Lock()
	if c.active == as {
		c.active = nil
	}
	c.mu.Unlock()
	close(as.done)

	if as.cancelled.Load() || ctx.Err() != nil {
		// Cancellation is not an error: the user chose to stop, so the
		// sent message stays visible and nothing is rolled back.
		c.logger.Debug("stream cancelled", zap.String("session_id", as.sessionID))
		sink(Event{Type: EventCancelled})
		return nil
	}

	if streamErr != nil {
		// Genuine failure: discard the optimistic turn.
		c.rollback(as.sessionID)
		serr := asStreamError(streamErr, c.settingsURL)
		c.logger.Warn("stream errored",
			zap.String("session_id", as.sessionID),
			zap.Bool("credential", serr.IsCredential()),
			zap.Error(streamErr),
		)
		c.report(sink, serr)
		return serr
	}

	c.reconcile(as.sessionID)
	sink(Event{Type: EventDone})
	return nil
}

// consume reads frames until the stream ends or an error frame
// terminates it. Log updates are pinned to the session captured at
// stream start: if the user switched sessions mid-stream, frames are
// dropped rather than merged into whatever session is current now.
func (c *StreamController) consume(as *activeStream, sink EventFunc) error {
	fr := backend.NewFrameReader(as.body, c.logger)
	assistantID := ""

	for {
		frame, err := fr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch frame.Type {
		case domain.FrameToken, domain.FrameAIMessage:
			if c.sessions.CurrentID() == as.sessionID {
				if assistantID == "" {
					assistantID = domain.LocalIDPrefix + uuid.New().String()
					c.log.Append(domain.ChatMessage{
						ID:        assistantID,
						Role:      domain.RoleAI,
						Content:   frame.Content,
						CreatedAt: time.Now(),
					})
				} else {
					c.log.AppendContent(assistantID, frame.Content)
				}
			}
			sink(Event{Type: EventToken, Content: frame.Content})

		case domain.FrameAIMessageComplete:
			// Authoritative final content; replaces whatever accumulated
			// across chunk boundaries.
			if assistantID != "" && c.sessions.CurrentID() == as.sessionID {
				c.log.ReplaceContent(assistantID, frame.Content)
			}
			sink(Event{Type: EventComplete, Content: frame.Content})

		case domain.FrameContextIndicators:
			c.mu.Lock()
			c.indicators = frame.Indicators
			c.mu.Unlock()
			sink(Event{Type: EventIndicators, Indicators: frame.Indicators})

		case domain.FrameError:
			return ClassifyStreamError(frame.Message, c.settingsURL)

		default:
			c.logger.Debug("ignoring unknown frame type", zap.String("type", frame.Type))
		}
	}
}

// rollback discards the optimistic messages of the failed turn, but only
// while the stream's session is still the current one.
func (c *StreamController) rollback(sessionID string) {
	if c.sessions.CurrentID() != sessionID {
		return
	}
	c.log.RemoveByIDPrefix(domain.LocalIDPrefix)
}

// reconcile re-fetches persisted state so server ids supersede local
// ones, and mirrors the completed turn into the archive.
func (c *StreamController) reconcile(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	detail, err := c.sessions.Reconcile(ctx, sessionID)
	if err != nil {
		c.logger.Warn("session reconciliation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}

	if c.archive != nil {
		if err := c.archive.ArchiveSession(ctx, detail); err != nil {
			c.logger.Warn("archiving turn failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}
}

func (c *StreamController) report(sink EventFunc, serr *StreamError) {
	sink(Event{Type: EventError, Err: serr})
}

func asStreamError(err error, settingsURL string) *StreamError {
	var serr *StreamError
	if errors.As(err, &serr) {
		return serr
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return ClassifyStreamError("unauthorized: "+err.Error(), settingsURL)
	}
	return &StreamError{Kind: ErrorKindGeneric, Message: err.Error()}
}

// deriveTitle trims the first message into a session title, as the
// backend does for untitled sessions.
func deriveTitle(text string) string {
	const maxTitle = 60
	title := text
	for i, r := range title {
		if r == '\n' {
			title = title[:i]
			break
		}
	}
	if runes := []rune(title); len(runes) > maxTitle {
		title = string(runes[:maxTitle])
	}
	return title
}
