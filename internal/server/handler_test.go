package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/engine"
)

// stubBackend scripts just enough of the collaborator API to drive the
// gateway end to end.
type stubBackend struct {
	sessions []domain.ChatSession
	payload  *domain.ContextPayload

	buildReq  *domain.BuildContextRequest
	streamSSE string
}

func (s *stubBackend) ListSessions(ctx context.Context, scope domain.Scope) ([]domain.ChatSession, error) {
	return s.sessions, nil
}

func (s *stubBackend) GetSession(ctx context.Context, scope domain.Scope, id string) (*domain.SessionDetail, error) {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return &domain.SessionDetail{ChatSession: sess}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubBackend) CreateSession(ctx context.Context, scope domain.Scope, req *domain.CreateSessionRequest) (*domain.ChatSession, error) {
	sess := domain.ChatSession{ID: "sess-new", Scope: scope, Title: req.Title}
	s.sessions = append(s.sessions, sess)
	return &sess, nil
}

func (s *stubBackend) UpdateSession(ctx context.Context, id string, req *domain.UpdateSessionRequest) (*domain.ChatSession, error) {
	return nil, domain.ErrNotFound
}

func (s *stubBackend) DeleteSession(ctx context.Context, id string) error { return nil }

func (s *stubBackend) BuildContext(ctx context.Context, req *domain.BuildContextRequest) (*domain.ContextPayload, error) {
	s.buildReq = req
	if s.payload != nil {
		return s.payload, nil
	}
	return &domain.ContextPayload{}, nil
}

func (s *stubBackend) SendMessageStream(ctx context.Context, scope domain.Scope, req *domain.SendMessageRequest) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.streamSSE)), nil
}

func newTestRouter(be *stubBackend) *gin.Engine {
	gin.SetMode(gin.TestMode)
	eng := engine.New(be, nil, "/settings/models", "", nil)
	return SetupRouter(eng, nil, RouterConfig{})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubBackend{})
	w := doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestContextEndpoints(t *testing.T) {
	be := &stubBackend{payload: &domain.ContextPayload{TokenCount: 321, CharCount: 1284}}
	r := newTestRouter(be)

	// Seed defaults, then flip one source off.
	w := doJSON(t, r, http.MethodPost, "/api/notebooks/nb1/context/defaults",
		`{"sources":[{"id":"s1","insights_count":3},{"id":"s2"}],"notes":[{"id":"n1"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/notebooks/nb1/context/items/s1",
		`{"mode":"off","kind":"source"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/notebooks/nb1/context", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token_count":321`)

	require.NotNil(t, be.buildReq)
	assert.Equal(t, "nb1", be.buildReq.NotebookID)
	assert.Equal(t, domain.TagNotIn, be.buildReq.Config.Sources["s1"])
	assert.Equal(t, domain.TagFullContent, be.buildReq.Config.Sources["s2"])
	assert.Equal(t, domain.TagFullContent, be.buildReq.Config.Notes["n1"])
}

func TestSetContextModeRejectsBadKind(t *testing.T) {
	r := newTestRouter(&stubBackend{})
	w := doJSON(t, r, http.MethodPut, "/api/notebooks/nb1/context/items/s1",
		`{"mode":"off","kind":"widget"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSessionsAutoSelects(t *testing.T) {
	be := &stubBackend{sessions: []domain.ChatSession{{ID: "newest"}, {ID: "older"}}}
	r := newTestRouter(be)

	w := doJSON(t, r, http.MethodGet, "/api/chat/notebook/nb1/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"newest"`)
	// Most recent session becomes current on first load.
	assert.Contains(t, w.Body.String(), `"current":{"id":"newest"`)
}

func TestParseScopeRejectsUnknownKind(t *testing.T) {
	r := newTestRouter(&stubBackend{})
	w := doJSON(t, r, http.MethodGet, "/api/chat/widget/nb1/sessions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamRelaysSSE(t *testing.T) {
	be := &stubBackend{
		sessions: []domain.ChatSession{{ID: "a"}},
		streamSSE: "data: {\"type\":\"token\",\"content\":\"Hel\"}\n" +
			"data: {\"type\":\"token\",\"content\":\"lo\"}\n",
	}
	r := newTestRouter(be)

	// Load sessions first so the chat has a current session.
	w := doJSON(t, r, http.MethodGet, "/api/chat/source/s1/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/chat/source/s1/stream", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: token")
	assert.Contains(t, body, `"content":"Hel"`)
	assert.Contains(t, body, "event: done")
}

func TestCloseChatDiscardsLocalLog(t *testing.T) {
	be := &stubBackend{sessions: []domain.ChatSession{{ID: "a"}}}
	r := newTestRouter(be)

	w := doJSON(t, r, http.MethodGet, "/api/chat/source/s1/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/chat/source/s1/view", "")
	require.Equal(t, http.StatusOK, w.Code)

	// A fresh chat is built on next use; nothing from the closed one
	// remains selected.
	w = doJSON(t, r, http.MethodGet, "/api/chat/source/s1/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"messages":null`)
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng := engine.New(&stubBackend{}, nil, "", "", nil)
	r := SetupRouter(eng, nil, RouterConfig{APIKey: "sekrit"})

	w := doJSON(t, r, http.MethodGet, "/api/chat/notebook/nb1/messages", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/notebook/nb1/messages", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
