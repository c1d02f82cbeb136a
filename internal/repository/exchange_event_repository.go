package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"llm-session-relay/internal/model"
)

type ExchangeEventRepository struct {
	db *gorm.DB
}

func NewExchangeEventRepository(db *gorm.DB) *ExchangeEventRepository {
	return &ExchangeEventRepository{db: db}
}

// Create inserts the event. Redelivered events with a known id are ignored.
func (r *ExchangeEventRepository) Create(ctx context.Context, event *model.ExchangeEvent) error {
	if event.ID == "" {
		return errors.New("create exchange event failed: missing id")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
	if err != nil {
		return fmt.Errorf("create exchange event failed: %w", err)
	}
	return nil
}

func (r *ExchangeEventRepository) ListBySessionID(ctx context.Context, sessionID string) ([]model.ExchangeEvent, error) {
	var events []model.ExchangeEvent
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list exchange events failed: %w", err)
	}
	return events, nil
}
