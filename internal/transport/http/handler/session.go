package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"llm-session-relay/internal/app"
	"llm-session-relay/internal/transport/http/response"
)

type SessionService interface {
	CreateSession(ctx context.Context) (string, error)
	SubmitMessage(ctx context.Context, sessionID, rawText string) (*app.SubmitResult, error)
}

type SessionHandler struct {
	sessions SessionService
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// SendMessageRequest keeps Message as a pointer so an absent field is
// rejected while an empty string is relayed.
type SendMessageRequest struct {
	Message *string `json:"message" binding:"required"`
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	sessionID, err := h.sessions.CreateSession(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "create session failed")
		return
	}
	response.OK(c, CreateSessionResponse{SessionID: sessionID})
}

func (h *SessionHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.sessions.SubmitMessage(c.Request.Context(), c.Param("id"), *req.Message)
	if err != nil {
		_ = c.Error(err)
		var upstream *app.UpstreamError
		switch {
		case errors.Is(err, app.ErrSessionUnavailable):
			response.Error(c, http.StatusNotFound, "Session not found or ended")
		case errors.As(err, &upstream):
			response.Error(c, http.StatusBadGateway, "LLM failed: "+string(upstream.Category))
		default:
			response.Error(c, http.StatusInternalServerError, "send message failed")
		}
		return
	}

	response.OK(c, result)
}
