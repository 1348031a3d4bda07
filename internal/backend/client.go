package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// ErrRequestFailed indicates a non-2xx response from the backend.
var ErrRequestFailed = errors.New("backend request failed")

const defaultRequestTimeout = 30 * time.Second

// Client talks to the notebook backend: session CRUD, context
// resolution and the streamed chat endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client. The token is sent as a bearer
// credential on every request.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func scopePath(scope domain.Scope) string {
	if scope.Kind == domain.ScopeSource {
		return "/sources/" + scope.ID
	}
	return "/notebooks/" + scope.ID
}

// ListSessions returns the scope's sessions, sorted by the server in
// descending creation order. The client must not re-sort them.
func (c *Client) ListSessions(ctx context.Context, scope domain.Scope) ([]domain.ChatSession, error) {
	var out struct {
		Sessions []domain.ChatSession `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, scopePath(scope)+"/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// GetSession returns one session with its persisted messages.
func (c *Client) GetSession(ctx context.Context, scope domain.Scope, id string) (*domain.SessionDetail, error) {
	var out domain.SessionDetail
	if err := c.doJSON(ctx, http.MethodGet, scopePath(scope)+"/sessions/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession creates a session in the scope.
func (c *Client) CreateSession(ctx context.Context, scope domain.Scope, req *domain.CreateSessionRequest) (*domain.ChatSession, error) {
	var out domain.ChatSession
	if err := c.doJSON(ctx, http.MethodPost, scopePath(scope)+"/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSession renames a session or changes its model override.
func (c *Client) UpdateSession(ctx context.Context, id string, req *domain.UpdateSessionRequest) (*domain.ChatSession, error) {
	var out domain.ChatSession
	if err := c.doJSON(ctx, http.MethodPut, "/sessions/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession deletes a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/sessions/"+id, nil, nil)
}

// BuildContext resolves the selection into a sized context payload in a
// single round trip. Token and character counts in the result are
// authoritative.
func (c *Client) BuildContext(ctx context.Context, req *domain.BuildContextRequest) (*domain.ContextPayload, error) {
	var out domain.ContextPayload
	path := "/notebooks/" + req.NotebookID + "/context"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessageStream opens the streamed chat endpoint and returns the raw
// response body. The caller owns the reader; closing it cancels
// generation, as there is no separate server-side abort signal.
func (c *Client) SendMessageStream(ctx context.Context, scope domain.Scope, req *domain.SendMessageRequest) (io.ReadCloser, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scopePath(scope)+"/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("opening chat stream",
		zap.String("scope", scope.String()),
		zap.String("session_id", req.SessionID),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, statusError(resp.StatusCode, body)
	}
	return resp.Body, nil
}

// doJSON performs a request with a JSON body and decodes a JSON
// response. A nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("backend error response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return statusError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	}
	return fmt.Errorf("%w: %d - %s", ErrRequestFailed, status, string(body))
}
