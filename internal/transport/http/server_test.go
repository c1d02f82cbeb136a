package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"llm-session-relay/internal/app"
	"llm-session-relay/internal/bootstrap"
	"llm-session-relay/internal/config"
	"llm-session-relay/internal/model"
	"llm-session-relay/internal/repository"
	"llm-session-relay/internal/transport/http/middleware"
)

type echoModel struct{}

func (echoModel) Complete(_ context.Context, transcript []model.Turn) (string, error) {
	return transcript[len(transcript)-1].Content, nil
}

func newTestApp() *bootstrap.App {
	cfg := &config.Config{}
	cfg.App.Name = "llm-session-relay"
	cfg.App.Env = "test"
	cfg.App.GinMode = "test"
	cfg.Storage.Backend = config.StorageMemory

	return &bootstrap.App{
		Config:    cfg,
		Logger:    zap.NewNop(),
		Sessions:  app.NewSessionService(repository.NewMemoryStore(), echoModel{}, app.SessionServiceOptions{}),
		StartedAt: time.Now(),
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := NewRouter(newTestApp())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/health", nil))
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	assert.Equal(t, nethttp.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "memory", body["storage"])
	assert.Equal(t, map[string]interface{}{}, body["dependencies"])
}

func TestRouterRelaysFallbackAnswer(t *testing.T) {
	router := NewRouter(newTestApp())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(nethttp.MethodPost, "/sessions", nil))
	require.Equal(t, nethttp.StatusOK, w.Code)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodPost, "/sessions/"+created.SessionID+"/message", strings.NewReader(`{"message":"not json"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"ended":false,"assistant":{"answer":"not json","actions":[],"follow_up_questions":[]}}`, w.Body.String())
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter(newTestApp())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/nope", nil))
	assert.Equal(t, nethttp.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, w.Body.String())
}
