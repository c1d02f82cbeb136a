package repository

import (
	"context"

	"go.uber.org/zap"

	"llm-session-relay/internal/model"
	"llm-session-relay/internal/pkg/logger"
)

type backingStore interface {
	CreateSession(ctx context.Context, sessionID string) error
	IsActive(ctx context.Context, sessionID string) (bool, error)
	Deactivate(ctx context.Context, sessionID string) error
	AppendMessage(ctx context.Context, sessionID string, role model.Role, content string) error
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]model.Turn, error)
}

type WindowCache interface {
	GetWindow(ctx context.Context, sessionID string, limit int) ([]model.Turn, bool, error)
	SetWindow(ctx context.Context, sessionID string, limit int, turns []model.Turn) error
	Invalidate(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

// CachedStore serves transcript windows from a cache in front of another
// store. Session activity always goes to the backing store. Cache errors are
// logged and fall through to the backing store.
type CachedStore struct {
	backingStore
	cache WindowCache
}

func NewCachedStore(store backingStore, cache WindowCache) *CachedStore {
	return &CachedStore{backingStore: store, cache: cache}
}

func (s *CachedStore) AppendMessage(ctx context.Context, sessionID string, role model.Role, content string) error {
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		logger.FromContext(ctx).Warn("invalidate window cache failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := s.backingStore.AppendMessage(ctx, sessionID, role, content); err != nil {
		return err
	}
	// Again after the write, so a reader that raced the first invalidation
	// cannot leave its window behind.
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		logger.FromContext(ctx).Warn("invalidate window cache failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

func (s *CachedStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	log := logger.FromContext(ctx).With(zap.String("session_id", sessionID), zap.Int("limit", limit))

	dirty, err := s.cache.IsDirty(ctx, sessionID)
	if err != nil {
		log.Warn("check window cache failed", zap.Error(err))
	}
	cacheUsable := err == nil && !dirty

	if cacheUsable {
		turns, hit, err := s.cache.GetWindow(ctx, sessionID, limit)
		if err != nil {
			log.Warn("read window cache failed", zap.Error(err))
		} else if hit {
			return turns, nil
		}
	}

	turns, err := s.backingStore.RecentMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	if cacheUsable {
		if dirty, err := s.cache.IsDirty(ctx, sessionID); err == nil && !dirty {
			if err := s.cache.SetWindow(ctx, sessionID, limit, turns); err != nil {
				log.Warn("write window cache failed", zap.Error(err))
			}
		}
	}
	return turns, nil
}
