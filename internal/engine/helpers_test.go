package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// fakeBackend scripts the collaborator API for engine tests.
type fakeBackend struct {
	mu sync.Mutex

	sessions []domain.ChatSession
	details  map[string]*domain.SessionDetail

	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	created []domain.ChatSession
	deleted []string

	buildReqs []*domain.BuildContextRequest
	payload   *domain.ContextPayload
	buildErr  error

	streamBodies []io.ReadCloser
	streamReqs   []*domain.SendMessageRequest
	streamErr    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{details: make(map[string]*domain.SessionDetail)}
}

func (f *fakeBackend) ListSessions(ctx context.Context, scope domain.Scope) ([]domain.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.ChatSession(nil), f.sessions...), nil
}

func (f *fakeBackend) GetSession(ctx context.Context, scope domain.Scope, id string) (*domain.SessionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.details[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	cp.Messages = append([]domain.ChatMessage(nil), d.Messages...)
	return &cp, nil
}

func (f *fakeBackend) CreateSession(ctx context.Context, scope domain.Scope, req *domain.CreateSessionRequest) (*domain.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	sess := domain.ChatSession{
		ID:            fmt.Sprintf("sess-%d", len(f.created)+1),
		Scope:         scope,
		Title:         req.Title,
		ModelOverride: req.ModelOverride,
	}
	f.created = append(f.created, sess)
	f.details[sess.ID] = &domain.SessionDetail{ChatSession: sess}
	return &sess, nil
}

func (f *fakeBackend) UpdateSession(ctx context.Context, id string, req *domain.UpdateSessionRequest) (*domain.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			if req.Title != nil {
				f.sessions[i].Title = *req.Title
			}
			if req.ModelOverride != nil {
				f.sessions[i].ModelOverride = *req.ModelOverride
			}
			cp := f.sessions[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) BuildContext(ctx context.Context, req *domain.BuildContextRequest) (*domain.ContextPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buildReqs = append(f.buildReqs, req)
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	if f.payload != nil {
		return f.payload, nil
	}
	return &domain.ContextPayload{}, nil
}

func (f *fakeBackend) SendMessageStream(ctx context.Context, scope domain.Scope, req *domain.SendMessageRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamReqs = append(f.streamReqs, req)
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	if len(f.streamBodies) == 0 {
		return io.NopCloser(strings.NewReader("")), nil
	}
	body := f.streamBodies[0]
	f.streamBodies = f.streamBodies[1:]
	return body, nil
}

func (f *fakeBackend) lastBuildReq() *domain.BuildContextRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buildReqs) == 0 {
		return nil
	}
	return f.buildReqs[len(f.buildReqs)-1]
}

func (f *fakeBackend) lastStreamReq() *domain.SendMessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streamReqs) == 0 {
		return nil
	}
	return f.streamReqs[len(f.streamReqs)-1]
}

// sseBody builds a stream body from frame lines.
func sseBody(frames ...string) io.ReadCloser {
	var b strings.Builder
	for _, f := range frames {
		b.WriteString("data: " + f + "\n")
	}
	return io.NopCloser(strings.NewReader(b.String()))
}

// blockingBody serves its initial bytes, then blocks until closed.
// Closing it makes pending and subsequent reads fail, mirroring an HTTP
// response body closed mid-stream.
type blockingBody struct {
	initial []byte
	served  bool
	mu      sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

func newBlockingBody(frames ...string) *blockingBody {
	var b strings.Builder
	for _, f := range frames {
		b.WriteString("data: " + f + "\n")
	}
	return &blockingBody{initial: []byte(b.String()), closed: make(chan struct{})}
}

func (b *blockingBody) Read(p []byte) (int, error) {
	b.mu.Lock()
	if !b.served {
		b.served = true
		n := copy(p, b.initial)
		b.mu.Unlock()
		return n, nil
	}
	b.mu.Unlock()
	<-b.closed
	return 0, errors.New("body closed")
}

func (b *blockingBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}
