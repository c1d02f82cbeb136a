package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/genai"

	"llm-session-relay/internal/model"
)

// GeminiClient completes transcripts with the Gemini API. The genai client is
// created on first use because it needs the API key.
type GeminiClient struct {
	cfg         ChatConfig
	credentials CredentialProvider
	httpClient  *http.Client

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiClient(cfg ChatConfig, credentials CredentialProvider) *GeminiClient {
	return &GeminiClient{
		cfg:         cfg,
		credentials: credentials,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *GeminiClient) Complete(ctx context.Context, transcript []model.Turn) (string, error) {
	client, err := g.genaiClient(ctx)
	if err != nil {
		return "", err
	}

	contents := make([]*genai.Content, 0, len(transcript))
	for _, turn := range transcript {
		role := genai.Role(genai.RoleUser)
		if turn.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	temp := float32(g.cfg.Temperature)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       &temp,
	}
	if g.cfg.JSONMode {
		genCfg.ResponseMIMEType = "application/json"
	}

	res, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, genCfg)
	if err != nil {
		category := transportCategory(err)
		if category == CategoryTransport {
			category = CategoryProvider
		}
		return "", &Error{Category: category, Err: fmt.Errorf("gemini generate content failed: %w", err)}
	}
	if len(res.Candidates) == 0 {
		return "", &Error{Category: CategoryInvalidResponse, Err: errors.New("gemini returned no candidates")}
	}
	return res.Text(), nil
}

func (g *GeminiClient) genaiClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	apiKey, err := g.credentials.Credential(ctx)
	if err != nil {
		return nil, credentialError(err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	})
	if err != nil {
		return nil, &Error{Category: CategoryProvider, Err: fmt.Errorf("create genai client failed: %w", err)}
	}
	g.client = client
	return client, nil
}
