package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"llm-session-relay/internal/model"
)

// MemoryStore keeps sessions and messages in process memory. It is meant for
// local runs and tests; contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	messages map[string][]model.Message
	nextID   uint
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
		messages: make(map[string][]model.Message),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; exists {
		return fmt.Errorf("create session failed: %q already exists", sessionID)
	}
	s.sessions[sessionID] = &model.Session{ID: sessionID, Active: true, CreatedAt: s.now()}
	return nil
}

func (s *MemoryStore) IsActive(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	return ok && session.Active, nil
}

func (s *MemoryStore) Deactivate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok {
		session.Active = false
	}
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, sessionID string, role model.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.messages[sessionID] = append(s.messages[sessionID], model.Message{
		ID:        s.nextID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	})
	return nil
}

func (s *MemoryStore) RecentMessages(_ context.Context, sessionID string, limit int) ([]model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[sessionID]
	if limit <= 0 {
		return []model.Turn{}, nil
	}
	if limit < len(all) {
		all = all[len(all)-limit:]
	}
	return toTurns(all), nil
}

// Messages returns a copy of every message stored for the session.
func (s *MemoryStore) Messages(sessionID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Message, len(s.messages[sessionID]))
	copy(out, s.messages[sessionID])
	return out
}
