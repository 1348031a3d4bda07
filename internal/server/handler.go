package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/engine"
)

// Handler exposes the chat engine over HTTP for a browser UI.
type Handler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewHandler creates a new gateway handler
func NewHandler(eng *engine.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: eng, logger: logger}
}

// RegisterRoutes registers gateway routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notebooks := r.Group("/notebooks/:id")
	{
		notebooks.POST("/context", h.BuildContext)
		notebooks.PUT("/context/items/:item_id", h.SetContextMode)
		notebooks.POST("/context/defaults", h.InitContextDefaults)
		notebooks.DELETE("/view", h.CloseNotebook)
	}

	chats := r.Group("/chat/:kind/:id")
	{
		chats.GET("/sessions", h.ListSessions)
		chats.POST("/sessions", h.CreateSession)
		chats.PUT("/sessions/:session_id", h.UpdateSession)
		chats.DELETE("/sessions/:session_id", h.DeleteSession)
		chats.POST("/sessions/:session_id/select", h.SelectSession)
		chats.GET("/messages", h.GetMessages)
		chats.POST("/stream", h.Stream)
		chats.POST("/stop", h.Stop)
		chats.DELETE("/view", h.CloseChat)
	}
}

func parseScope(c *gin.Context) (domain.Scope, bool) {
	kind := domain.ScopeKind(c.Param("kind"))
	if kind != domain.ScopeSource && kind != domain.ScopeNotebook {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope kind must be source or notebook"})
		return domain.Scope{}, false
	}
	return domain.Scope{Kind: kind, ID: c.Param("id")}, true
}

// Context handlers

// BuildContext resolves the notebook's current selection into a sized
// payload, used by the UI to preview token/char counts.
func (h *Handler) BuildContext(c *gin.Context) {
	notebookID := c.Param("id")

	payload, err := h.engine.BuildContext(c.Request.Context(), notebookID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, payload)
}

type setModeRequest struct {
	Mode domain.ContextMode `json:"mode" binding:"required"`
	Kind domain.ItemKind    `json:"kind" binding:"required"`
}

func (h *Handler) SetContextMode(c *gin.Context) {
	notebookID := c.Param("id")
	itemID := c.Param("item_id")

	var req setModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Kind != domain.ItemKindSource && req.Kind != domain.ItemKindNote {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be source or note"})
		return
	}

	h.engine.Selection(notebookID).SetMode(itemID, req.Mode, req.Kind)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type initDefaultsRequest struct {
	Sources []domain.Source `json:"sources"`
	Notes   []domain.Note   `json:"notes"`
}

func (h *Handler) InitContextDefaults(c *gin.Context) {
	notebookID := c.Param("id")

	var req initDefaultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sel := h.engine.Selection(notebookID)
	sel.InitSourceDefaults(req.Sources)
	sel.InitNoteDefaults(req.Notes)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) CloseNotebook(c *gin.Context) {
	h.engine.CloseNotebook(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CloseChat discards a scope's chat state when its view closes, so
// abandoned source chats do not accumulate.
func (h *Handler) CloseChat(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	h.engine.CloseScope(scope)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Session handlers

func (h *Handler) ListSessions(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	chat := h.engine.Chat(scope)
	if err := chat.Sessions.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": chat.Sessions.Sessions(),
		"current":  chat.Sessions.Current(),
	})
}

func (h *Handler) CreateSession(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	var req domain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.engine.Chat(scope).Sessions.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) UpdateSession(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	var req domain.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.engine.Chat(scope).Sessions.Update(c.Request.Context(), c.Param("session_id"), &req)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	if err := h.engine.Chat(scope).Sessions.Delete(c.Request.Context(), c.Param("session_id")); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) SelectSession(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	chat := h.engine.Chat(scope)
	if err := chat.Sessions.Select(c.Request.Context(), c.Param("session_id")); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": chat.Log.Messages()})
}

func (h *Handler) GetMessages(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.engine.Chat(scope).Log.Messages()})
}

// Stream handlers

type streamRequest struct {
	Message       string `json:"message" binding:"required"`
	ModelOverride string `json:"model_override,omitempty"`
}

// Stream relays the controller's events to the browser as SSE frames.
// The client closing the connection cancels the upstream stream.
func (h *Handler) Stream(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	var req streamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	w := c.Writer
	flusher, _ := w.(http.Flusher)

	sink := func(evt engine.Event) {
		writeSSE(w, evt)
		if flusher != nil {
			flusher.Flush()
		}
	}

	chat := h.engine.Chat(scope)
	if err := chat.Controller.SendMessage(c.Request.Context(), req.Message, req.ModelOverride, sink); err != nil {
		// Already reported through the sink; log for the operator.
		h.logger.Warn("stream send failed", zap.String("scope", scope.String()), zap.Error(err))
	}
}

func (h *Handler) Stop(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	h.engine.Chat(scope).Controller.StopStream()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

type ssePayload struct {
	Type        string                    `json:"type"`
	Content     string                    `json:"content,omitempty"`
	Indicators  *domain.ContextIndicators `json:"indicators,omitempty"`
	Message     string                    `json:"message,omitempty"`
	Credential  bool                      `json:"credential,omitempty"`
	Remediation string                    `json:"remediation,omitempty"`
}

func writeSSE(w io.Writer, evt engine.Event) {
	p := ssePayload{
		Type:       evt.Type,
		Content:    evt.Content,
		Indicators: evt.Indicators,
	}
	if evt.Err != nil {
		p.Message = evt.Err.Message
		p.Credential = evt.Err.IsCredential()
		p.Remediation = evt.Err.Remediation
	}
	data, _ := json.Marshal(p)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, string(data))
}
