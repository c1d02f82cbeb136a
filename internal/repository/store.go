package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"llm-session-relay/internal/model"
)

// Store is the gorm-backed session store. Every call is its own statement;
// nothing spans calls in a transaction.
type Store struct {
	sessions *SessionRepository
	messages *MessageRepository
	now      func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		sessions: NewSessionRepository(db),
		messages: NewMessageRepository(db),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the relay tables and indexes.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.Session{}, &model.Message{}, &model.ExchangeEvent{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, sessionID string) error {
	return s.sessions.Create(ctx, &model.Session{
		ID:        sessionID,
		Active:    true,
		CreatedAt: s.now(),
	})
}

func (s *Store) IsActive(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session != nil && session.Active, nil
}

func (s *Store) Deactivate(ctx context.Context, sessionID string) error {
	return s.sessions.Deactivate(ctx, sessionID)
}

func (s *Store) AppendMessage(ctx context.Context, sessionID string, role model.Role, content string) error {
	return s.messages.Create(ctx, &model.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	})
}

func (s *Store) RecentMessages(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	messages, err := s.messages.ListRecentBySessionID(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return toTurns(messages), nil
}

func toTurns(messages []model.Message) []model.Turn {
	turns := make([]model.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, m.Turn())
	}
	return turns
}
