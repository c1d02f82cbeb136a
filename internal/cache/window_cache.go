package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"llm-session-relay/internal/model"
)

// WindowCache keeps recent transcript windows per session in a Redis hash
// keyed by window size. A dirty marker set after each write keeps readers
// from repopulating a window that may already be stale.
type WindowCache struct {
	client         *redisv9.Client
	windowTTL      time.Duration
	dirtyMarkerTTL time.Duration
}

func NewWindowCache(client *redisv9.Client, windowTTL, dirtyMarkerTTL time.Duration) *WindowCache {
	if windowTTL <= 0 {
		windowTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &WindowCache{
		client:         client,
		windowTTL:      windowTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *WindowCache) GetWindow(ctx context.Context, sessionID string, limit int) ([]model.Turn, bool, error) {
	raw, err := c.client.HGet(ctx, c.windowKey(sessionID), strconv.Itoa(limit)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get window failed: %w", err)
	}

	var turns []model.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached window failed: %w", err)
	}
	return turns, true, nil
}

func (c *WindowCache) SetWindow(ctx context.Context, sessionID string, limit int, turns []model.Turn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal window cache failed: %w", err)
	}

	key := c.windowKey(sessionID)
	_, err = c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.HSet(ctx, key, strconv.Itoa(limit), payload)
		pipe.Expire(ctx, key, c.windowTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set window failed: %w", err)
	}
	return nil
}

// Invalidate marks the session dirty and drops every cached window for it.
func (c *WindowCache) Invalidate(ctx context.Context, sessionID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Set(ctx, c.dirtyKey(sessionID), "1", c.dirtyMarkerTTL)
		pipe.Del(ctx, c.windowKey(sessionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate window failed: %w", err)
	}
	return nil
}

func (c *WindowCache) IsDirty(ctx context.Context, sessionID string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *WindowCache) windowKey(sessionID string) string {
	return fmt.Sprintf("relay:window:%s", sessionID)
}

func (c *WindowCache) dirtyKey(sessionID string) string {
	return fmt.Sprintf("relay:window:dirty:%s", sessionID)
}
