package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"llm-session-relay/internal/model"
)

const (
	AuthAPIKey = "api-key"
	AuthBearer = "bearer"
)

type ChatConfig struct {
	// ChatURL is the full chat completions endpoint, deployment and
	// api-version included for Azure.
	ChatURL     string
	Model       string
	AuthHeader  string
	Temperature float64
	JSONMode    bool
	Timeout     time.Duration
}

type OpenAICompatibleClient struct {
	httpClient  *http.Client
	cfg         ChatConfig
	credentials CredentialProvider
}

type chatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAICompatibleClient(cfg ChatConfig, credentials CredentialProvider) *OpenAICompatibleClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = AuthAPIKey
	}
	return &OpenAICompatibleClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		cfg:         cfg,
		credentials: credentials,
	}
}

func (c *OpenAICompatibleClient) Complete(ctx context.Context, transcript []model.Turn) (string, error) {
	apiKey, err := c.credentials.Credential(ctx)
	if err != nil {
		return "", credentialError(err)
	}

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    buildMessages(transcript),
		Temperature: c.cfg.Temperature,
	}
	if c.cfg.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Category: CategoryProvider, Err: fmt.Errorf("marshal llm request failed: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ChatURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &Error{Category: CategoryProvider, Err: fmt.Errorf("build llm request failed: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthHeader == AuthBearer {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	} else {
		req.Header.Set("api-key", apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Category: transportCategory(err), Err: fmt.Errorf("llm request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Category: transportCategory(err), Err: fmt.Errorf("read llm response failed: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{
			Category:   CategoryHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("llm response status %d: %s", resp.StatusCode, truncate(raw, 512)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Category: CategoryInvalidResponse, Err: fmt.Errorf("parse llm json failed: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &Error{Category: CategoryInvalidResponse, Err: fmt.Errorf("empty llm choices")}
	}
	content := parsed.Choices[0].Message.Content
	if content == nil {
		return "", &Error{Category: CategoryInvalidResponse, Err: fmt.Errorf("llm choice has no content")}
	}
	return *content, nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
