package ai

import (
	"context"

	"llm-session-relay/internal/model"
)

// SystemPrompt asks for the structured reply shape. The model is not bound by
// it, so callers must tolerate anything.
const SystemPrompt = "Return ONLY valid JSON with keys: " +
	"answer (string), actions (array), follow_up_questions (array of strings). " +
	"No markdown. No extra keys."

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CredentialProvider supplies the upstream API key.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
}

func buildMessages(transcript []model.Turn) []ChatMessage {
	messages := make([]ChatMessage, 0, len(transcript)+1)
	messages = append(messages, ChatMessage{Role: "system", Content: SystemPrompt})
	for _, turn := range transcript {
		role := string(turn.Role)
		if role == "" {
			role = string(model.RoleUser)
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Content})
	}
	return messages
}
